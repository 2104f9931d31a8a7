package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/mudmap/internal/api"
	"github.com/annel0/mudmap/internal/auth"
	"github.com/annel0/mudmap/internal/editor"
	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/annel0/mudmap/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthServer(t *testing.T) (*api.RestServer, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenManager("", time.Hour)
	require.NoError(t, err)
	users := auth.NewMemoryUserRepo()
	hash, err := auth.HashPassword("builder-pass")
	require.NoError(t, err)
	_, err = users.CreateUser("builder", hash, auth.RoleEditor)
	require.NoError(t, err)
	_, err = users.CreateUser("guest", hash, auth.RoleViewer)
	require.NoError(t, err)

	w := world.New("authworld")
	w.NewLayer("ground")
	server := api.NewRestServer(api.Config{
		Session:  editor.NewSession(w, editor.Options{}),
		Registry: prometheus.NewRegistry(),
		Tokens:   tokens,
		Users:    users,
	})
	return server, tokens
}

func serve(server *api.RestServer, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRestServer_Login(t *testing.T) {
	server, tokens := newAuthServer(t)

	rec := serve(server, http.MethodPost, "/api/auth/login", `{"username":"builder","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(server, http.MethodPost, "/api/auth/login", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(server, http.MethodPost, "/api/auth/login", `{"username":"Builder","password":"builder-pass"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Token string    `json:"token"`
			Role  auth.Role `json:"role"`
		} `json:"data"`
	}
	decode(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, auth.RoleEditor, resp.Data.Role)

	claims, err := tokens.Validate(resp.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "builder", claims.Username)
}

func TestRestServer_AuthGuardsMutations(t *testing.T) {
	server, tokens := newAuthServer(t)

	// Чтение доступно без токена
	assert.Equal(t, http.StatusOK, serve(server, http.MethodGet, "/api/layers", "", "").Code)

	// Изменение без токена и с битым токеном
	assert.Equal(t, http.StatusUnauthorized, serve(server, http.MethodPost, "/api/layers", `{"name":"cellar"}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(server, http.MethodPost, "/api/layers", `{"name":"cellar"}`, "garbage").Code)

	viewer, err := tokens.Generate(&auth.User{Username: "guest", Role: auth.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(server, http.MethodPost, "/api/layers", `{"name":"cellar"}`, viewer).Code)
	assert.Equal(t, http.StatusOK, serve(server, http.MethodGet, "/api/layers", "", viewer).Code)

	editorToken, err := tokens.Generate(&auth.User{Username: "builder", Role: auth.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, serve(server, http.MethodPost, "/api/layers", `{"name":"cellar"}`, editorToken).Code)
}

func TestRestServer_LoginDisabled(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "a", "password": "b"})
	assert.Equal(t, http.StatusServiceUnavailable, code)

	// Без менеджера токенов изменения открыты
	code, _ = f.do(t, http.MethodPost, "/api/layers", map[string]string{"name": "open"})
	assert.Equal(t, http.StatusCreated, code)
}

func TestRestServer_EventStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bus := eventbus.NewMemoryBus(64)
	defer bus.Close()

	w := world.New("streamworld")
	server := api.NewRestServer(api.Config{
		Session:  editor.NewSession(w, editor.Options{}),
		Registry: prometheus.NewRegistry(),
		Bus:      bus,
	})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws?types=world.place_added"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Подписка создаётся после upgrade, поэтому публикуем до первого полученного события
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				bus.Publish(context.Background(), &eventbus.Envelope{ID: "skip", EventType: "world.layer_added", Priority: 5})
				bus.Publish(context.Background(), &eventbus.Envelope{ID: "want", EventType: "world.place_added", Priority: 5})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev eventbus.Envelope
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "want", ev.ID)
	assert.Equal(t, "world.place_added", ev.EventType)
}

func TestRestServer_EventStreamDisabled(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodGet, "/api/events/ws", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
