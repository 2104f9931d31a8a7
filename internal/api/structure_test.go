package api_test

import (
	"net/http"
	"testing"

	"github.com/annel0/mudmap/internal/api"
	"github.com/annel0/mudmap/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestServer_Suggestions(t *testing.T) {
	f := newFixture(t)
	center := f.put(t, 0, 0, "Center")
	north := f.put(t, 0, 1, "North")
	f.put(t, 5, 5, "Far")

	code, resp := f.do(t, http.MethodGet, "/api/places/"+string(center.ID())+"/suggestions", nil)
	require.Equal(t, http.StatusOK, code)
	var got []api.SuggestionInfo
	decode(t, resp.Data, &got)
	require.Len(t, got, 1)
	assert.Equal(t, world.North, got[0].Direction)
	assert.Equal(t, world.South, got[0].NeighborDirection)
	assert.Equal(t, north.ID(), got[0].Neighbor.ID)

	code, _ = f.do(t, http.MethodGet, "/api/places/missing/suggestions", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRestServer_Children(t *testing.T) {
	f := newFixture(t)
	a := f.put(t, 0, 0, "A")
	b := f.put(t, 1, 0, "B")
	base := "/api/places/" + string(a.ID())

	code, _ := f.do(t, http.MethodPost, base+"/children", map[string]string{"child": string(b.ID())})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, a.HasChild(b))

	code, _ = f.do(t, http.MethodPost, base+"/children", map[string]string{"child": string(a.ID())})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodDelete, base+"/children/"+string(b.ID()), nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, a.HasChild(b))

	code, _ = f.do(t, http.MethodDelete, base+"/children/"+string(b.ID()), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRestServer_ChildOnNewLayer(t *testing.T) {
	f := newFixture(t)
	tower := f.put(t, 0, 0, "Tower")

	code, resp := f.do(t, http.MethodPost, "/api/places/"+string(tower.ID())+"/child-layer", map[string]string{"name": "Cellar"})
	require.Equal(t, http.StatusCreated, code)
	var child api.PlaceInfo
	decode(t, resp.Data, &child)
	assert.Equal(t, "Cellar", child.Name)
	assert.NotEqual(t, f.ground.ID(), child.Layer)
	assert.Len(t, f.world.Layers(), 2)
	assert.True(t, tower.HasChild(f.world.PlaceByID(child.ID)))

	code, _ = f.do(t, http.MethodPost, "/api/places/"+string(tower.ID())+"/child-layer", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRestServer_RemovePathAndPlace(t *testing.T) {
	f := newFixture(t)
	a := f.put(t, 0, 0, "A")
	b := f.put(t, 1, 0, "B")
	require.NoError(t, a.ConnectPath(world.NewPath(a, world.East, b, world.West)))

	code, _ := f.do(t, http.MethodDelete, "/api/paths", map[string]string{"place": string(a.ID()), "direction": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodDelete, "/api/paths", map[string]string{"place": string(a.ID()), "direction": "e"})
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, a.Exit(world.East))
	assert.Nil(t, b.Exit(world.West))

	code, _ = f.do(t, http.MethodDelete, "/api/paths", map[string]string{"place": string(a.ID()), "direction": "e"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodDelete, "/api/places/"+string(b.ID()), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, f.ground.Get(1, 0))

	code, _ = f.do(t, http.MethodDelete, "/api/places/"+string(b.ID()), nil)
	assert.Equal(t, http.StatusNotFound, code)
}
