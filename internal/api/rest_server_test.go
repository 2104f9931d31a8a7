package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annel0/mudmap/internal/api"
	"github.com/annel0/mudmap/internal/editor"
	"github.com/annel0/mudmap/internal/storage"
	"github.com/annel0/mudmap/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server     *api.RestServer
	session    *editor.Session
	world      *world.World
	ground     *world.Layer
	store      *storage.MemoryWorldStore
	viewpoints *storage.MemoryViewpointRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := world.New("testworld")
	ground := w.NewLayer("ground")
	w.SetHome(world.NewWorldCoordinate(ground.ID(), 0, 0))

	f := &fixture{
		session:    editor.NewSession(w, editor.Options{}),
		world:      w,
		ground:     ground,
		store:      storage.NewMemoryWorldStore(),
		viewpoints: storage.NewMemoryViewpointRepo(),
	}
	f.server = api.NewRestServer(api.Config{
		Session:        f.session,
		Store:          f.store,
		Viewpoints:     f.viewpoints,
		NeighborRadius: 1,
		Registry:       prometheus.NewRegistry(),
	})
	return f
}

func (f *fixture) put(t *testing.T, x, y int, name string) *world.Place {
	t.Helper()
	p, err := f.world.PutPlace(f.ground.ID(), x, y, name)
	require.NoError(t, err)
	return p
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestRestServer_HealthAndStats(t *testing.T) {
	f := newFixture(t)
	f.put(t, 0, 0, "Gate")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"places":1`)
	assert.Contains(t, w.Body.String(), `"world":"testworld"`)

	code, resp := f.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats map[string]interface{}
	decode(t, resp.Data, &stats)
	assert.Equal(t, float64(1), stats["places"])
	assert.NotEmpty(t, stats["uptime"])
}

func TestRestServer_Layers(t *testing.T) {
	f := newFixture(t)

	code, resp := f.do(t, http.MethodPost, "/api/layers", map[string]string{"name": "cellar"})
	require.Equal(t, http.StatusCreated, code)
	var created api.LayerInfo
	decode(t, resp.Data, &created)
	assert.Equal(t, "cellar", created.Name)
	assert.Equal(t, world.LayerID(2), created.ID)

	code, resp = f.do(t, http.MethodGet, "/api/layers", nil)
	require.Equal(t, http.StatusOK, code)
	var layers []api.LayerInfo
	decode(t, resp.Data, &layers)
	require.Len(t, layers, 2)
	assert.Equal(t, "ground", layers[0].Name)

	code, _ = f.do(t, http.MethodPost, "/api/layers", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRestServer_PlacesCellsNeighbors(t *testing.T) {
	f := newFixture(t)
	f.put(t, 0, 0, "Center")
	f.put(t, 1, 1, "Corner")
	f.put(t, 3, 0, "Far")

	code, resp := f.do(t, http.MethodGet, "/api/layers/1/places", nil)
	require.Equal(t, http.StatusOK, code)
	var places []api.PlaceInfo
	decode(t, resp.Data, &places)
	require.Len(t, places, 3)
	// строки сверху вниз, затем слева направо
	assert.Equal(t, "Corner", places[0].Name)

	code, resp = f.do(t, http.MethodGet, "/api/layers/1/cells/3/0", nil)
	require.Equal(t, http.StatusOK, code)
	var cell api.PlaceInfo
	decode(t, resp.Data, &cell)
	assert.Equal(t, "Far", cell.Name)

	code, _ = f.do(t, http.MethodGet, "/api/layers/1/cells/5/5", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(t, http.MethodGet, "/api/layers/9/places", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(t, http.MethodGet, "/api/layers/abc/places", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = f.do(t, http.MethodGet, "/api/layers/1/neighbors?x=0&y=0", nil)
	require.Equal(t, http.StatusOK, code)
	var neighbors []api.PlaceInfo
	decode(t, resp.Data, &neighbors)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "Corner", neighbors[0].Name)

	code, resp = f.do(t, http.MethodGet, "/api/layers/1/neighbors?x=0&y=0&radius=3", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, resp.Data, &neighbors)
	assert.Len(t, neighbors, 2)

	code, _ = f.do(t, http.MethodGet, "/api/layers/1/neighbors?x=0&y=0&radius=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRestServer_CreatePlaceAndPlaceholder(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodPost, "/api/layers/1/places", map[string]interface{}{"x": 2, "y": 2, "name": "Hall"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = f.do(t, http.MethodPost, "/api/layers/1/places", map[string]interface{}{"x": 2, "y": 2, "name": "Dup"})
	assert.Equal(t, http.StatusConflict, code)

	code, resp := f.do(t, http.MethodPost, "/api/layers/1/placeholders", map[string]int{"x": 4, "y": 4})
	require.Equal(t, http.StatusCreated, code)
	var ph api.PlaceInfo
	decode(t, resp.Data, &ph)
	assert.True(t, ph.Placeholder)
	assert.True(t, f.ground.Exist(4, 4))

	code, _ = f.do(t, http.MethodPost, "/api/layers/1/placeholders", map[string]int{"x": 4, "y": 4})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, f.ground.Exist(4, 4))

	code, _ = f.do(t, http.MethodPost, "/api/layers/1/placeholders", map[string]int{"x": 2, "y": 2})
	assert.Equal(t, http.StatusConflict, code)
}

func TestRestServer_PathsAndSearch(t *testing.T) {
	f := newFixture(t)
	a := f.put(t, 0, 0, "A")
	b := f.put(t, 1, 0, "B")
	c := f.put(t, 2, 0, "C")
	lonely := f.put(t, 5, 5, "Lonely")

	connect := func(from, to *world.Place) int {
		code, _ := f.do(t, http.MethodPost, "/api/paths", map[string]interface{}{
			"from": from.ID(), "from_dir": "e", "to": to.ID(), "to_dir": "w",
		})
		return code
	}
	require.Equal(t, http.StatusCreated, connect(a, b))
	require.Equal(t, http.StatusCreated, connect(b, c))
	assert.Equal(t, http.StatusConflict, connect(a, c))

	code, _ := f.do(t, http.MethodPost, "/api/paths", map[string]interface{}{
		"from": a.ID(), "from_dir": "sideways", "to": lonely.ID(), "to_dir": "w",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := f.do(t, http.MethodPost, "/api/search", map[string]interface{}{"from": a.ID(), "to": c.ID()})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Path found, length: 2", resp.Message)
	var found struct {
		Length int             `json:"length"`
		Places []world.PlaceID `json:"places"`
	}
	decode(t, resp.Data, &found)
	assert.Equal(t, 2, found.Length)
	assert.Equal(t, []world.PlaceID{a.ID(), b.ID(), c.ID()}, found.Places)

	code, _ = f.do(t, http.MethodPost, "/api/search", map[string]interface{}{"from": a.ID(), "to": lonely.ID()})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(t, http.MethodPost, "/api/search", map[string]interface{}{"from": a.ID(), "to": "missing"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRestServer_Clipboard(t *testing.T) {
	f := newFixture(t)
	a := f.put(t, 0, 0, "A")
	f.put(t, 1, 0, "B")
	anchor := world.NewWorldCoordinate(f.ground.ID(), 0, 0)

	code, resp := f.do(t, http.MethodPost, "/api/clipboard/paste", map[string]interface{}{"target": anchor})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Can't paste: no places cut or copied", resp.Message)

	code, resp = f.do(t, http.MethodPost, "/api/clipboard/copy", map[string]interface{}{
		"anchor": anchor, "places": []world.PlaceID{a.ID()},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1 places copied", resp.Message)

	code, resp = f.do(t, http.MethodPost, "/api/clipboard/paste", map[string]interface{}{"target": anchor})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Can't paste: not enough free space on map", resp.Message)

	target := world.NewWorldCoordinate(f.ground.ID(), 0, 3)
	code, resp = f.do(t, http.MethodPost, "/api/clipboard/paste", map[string]interface{}{"target": target})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1 places pasted", resp.Message)
	assert.Equal(t, "A", f.ground.Get(0, 3).Name)

	code, _ = f.do(t, http.MethodPost, "/api/clipboard/cut", map[string]interface{}{
		"anchor": anchor, "places": []world.PlaceID{a.ID()},
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodDelete, "/api/clipboard", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodPost, "/api/clipboard/paste", map[string]interface{}{"target": target.Moved(0, 3)})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRestServer_SelectBox(t *testing.T) {
	f := newFixture(t)
	f.put(t, 0, 0, "A")
	f.put(t, 2, 2, "B")
	f.put(t, 5, 5, "Out")

	code, resp := f.do(t, http.MethodPost, "/api/selection/box", map[string]interface{}{
		"start": world.NewWorldCoordinate(f.ground.ID(), 2, 2),
		"end":   world.NewWorldCoordinate(f.ground.ID(), 0, 0),
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2 places selected", resp.Message)
	var places []api.PlaceInfo
	decode(t, resp.Data, &places)
	require.Len(t, places, 2)
	assert.Equal(t, "B", places[0].Name)
	assert.Len(t, f.session.Selection(), 2)
}

func TestRestServer_Viewpoints(t *testing.T) {
	f := newFixture(t)
	history := []world.WorldCoordinate{
		world.NewWorldCoordinate(1, 0, 0),
		world.NewWorldCoordinate(1, 4, -2),
	}

	code, _ := f.do(t, http.MethodGet, "/api/viewpoints/alice", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodPut, "/api/viewpoints/alice", map[string]interface{}{"history": history})
	require.Equal(t, http.StatusOK, code)

	code, resp := f.do(t, http.MethodGet, "/api/viewpoints/alice", nil)
	require.Equal(t, http.StatusOK, code)
	var got struct {
		History []world.WorldCoordinate `json:"history"`
	}
	decode(t, resp.Data, &got)
	assert.Equal(t, history, got.History)

	code, _ = f.do(t, http.MethodPost, "/api/viewpoints/alice/restore", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, history[1], f.session.Position())

	f.session.Goto(world.NewWorldCoordinate(1, 7, 7))
	code, _ = f.do(t, http.MethodPost, "/api/viewpoints/bob/save", nil)
	require.Equal(t, http.StatusOK, code)
	saved, found, err := f.viewpoints.Load(context.Background(), "bob")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, world.NewWorldCoordinate(1, 7, 7), saved[len(saved)-1])
}

func TestRestServer_SaveWorld(t *testing.T) {
	f := newFixture(t)
	f.put(t, 0, 0, "Gate")

	code, _ := f.do(t, http.MethodPost, "/api/world/save", nil)
	require.Equal(t, http.StatusOK, code)

	loaded, err := f.store.LoadWorld(context.Background(), "testworld")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.PlaceCount())
}

func TestRestServer_StorageDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := world.New("bare")
	server := api.NewRestServer(api.Config{
		Session:  editor.NewSession(w, editor.Options{}),
		Registry: prometheus.NewRegistry(),
	})

	for _, path := range []string{"/api/world/save", "/api/viewpoints/x/save"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestRestServer_TraceHeaderAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/layers", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))

	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mudmap_api_http_request_duration_seconds")
}
