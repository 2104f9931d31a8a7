package editor

import (
	"testing"

	"github.com/annel0/mudmap/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_NeighborConnections(t *testing.T) {
	s, layer, _ := newSession(t)
	center := put(t, s, layer, 0, 0, "center")
	north := put(t, s, layer, 0, 1, "north")
	corner := put(t, s, layer, 1, 1, "corner")
	east := put(t, s, layer, 1, 0, "east")
	west := put(t, s, layer, -1, 0, "west")
	hut := put(t, s, layer, -2, 0, "hut")
	put(t, s, layer, 3, 0, "far")

	// С востоком уже есть путь, у запада занят слот "e"
	require.NoError(t, center.ConnectPath(world.NewPath(center, world.East, east, world.West)))
	require.NoError(t, west.ConnectPath(world.NewPath(west, world.East, hut, world.Up)))

	got, err := s.NeighborConnections()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Same(t, north, got[0].Neighbor)
	assert.Equal(t, world.North, got[0].Dir)
	assert.Equal(t, world.South, got[0].NeighborDir)

	assert.Same(t, corner, got[1].Neighbor)
	assert.Equal(t, world.NorthEast, got[1].Dir)
	assert.Equal(t, world.SouthWest, got[1].NeighborDir)

	byID, err := s.NeighborConnectionsOf(center.ID())
	require.NoError(t, err)
	assert.Equal(t, got, byID)

	// Занятый собственный слот тоже исключает соседа
	require.NoError(t, center.ConnectPath(world.NewPath(center, world.North, hut, world.Down)))
	got, err = s.NeighborConnections()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Same(t, corner, got[0].Neighbor)

	s.SetCursor(10, 10)
	_, err = s.NeighborConnections()
	assert.ErrorIs(t, err, ErrNoSelection)
	_, err = s.NeighborConnectionsOf("missing")
	assert.ErrorIs(t, err, world.ErrPlaceNotFound)
}

func TestSession_CreateChildOnNewLayer(t *testing.T) {
	s, layer, rec := newSession(t)
	parent := put(t, s, layer, 0, 0, "tower")

	child, err := s.CreateChildOnNewLayer("cellar")
	require.NoError(t, err)
	require.NotNil(t, child.Layer())
	assert.NotEqual(t, layer.ID(), child.Layer().ID())
	assert.Equal(t, "cellar", child.Layer().Name)
	assert.True(t, parent.HasChild(child))
	assert.True(t, child.HasParent(parent))

	// Курсор и история переходят на новое место
	assert.Same(t, child, s.SelectedPlace())
	assert.Equal(t, child.Layer().ID(), s.Position().Layer)
	assert.Equal(t, "Created cellar on new map as child of tower", rec.last())

	s.Back()
	assert.Same(t, parent, s.SelectedPlace())

	other, err := s.CreateChildOnNewLayerOf(parent.ID(), "attic")
	require.NoError(t, err)
	assert.Len(t, parent.Children(), 2)
	assert.True(t, parent.HasChild(other))

	s.SetCursor(5, 5)
	_, err = s.CreateChildOnNewLayer("void")
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSession_ChildrenPathsAndRemoval(t *testing.T) {
	s, layer, rec := newSession(t)
	a := put(t, s, layer, 0, 0, "a")
	b := put(t, s, layer, 1, 0, "b")

	require.NoError(t, s.ConnectChild(a.ID(), b.ID()))
	assert.True(t, a.HasChild(b))
	assert.Equal(t, "Connected b as child of a", rec.last())
	assert.ErrorIs(t, s.ConnectChild(a.ID(), a.ID()), ErrSelfChild)
	assert.ErrorIs(t, s.ConnectChild(a.ID(), "missing"), world.ErrPlaceNotFound)

	require.NoError(t, s.RemoveChild(a.ID(), b.ID()))
	assert.False(t, a.HasChild(b))
	assert.ErrorIs(t, s.RemoveChild(a.ID(), b.ID()), world.ErrNotChild)

	require.NoError(t, a.ConnectPath(world.NewPath(a, world.East, b, world.West)))
	assert.ErrorIs(t, s.RemovePath(a.ID(), world.North), world.ErrPathNotFound)
	require.NoError(t, s.RemovePath(b.ID(), world.West))
	assert.Nil(t, a.Exit(world.East))

	require.NoError(t, a.ConnectPath(world.NewPath(a, world.East, b, world.West)))
	b.ConnectChild(a)
	require.NoError(t, s.RemovePlace(b.ID()))
	assert.Nil(t, layer.Get(1, 0))
	assert.Nil(t, a.Exit(world.East))
	assert.False(t, a.HasParent(b))
	assert.Equal(t, "Removed b", rec.last())
	assert.ErrorIs(t, s.RemovePlace(b.ID()), world.ErrPlaceNotFound)
}
