package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/scrumpoker/internal/room"
)

func serve(t *testing.T, handler http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	routes := SetupRoutes(NewHub(NewConfig()))

	for _, path := range []string{"/", "/health"} {
		rec := serve(t, routes, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		assert.Equal(t, "Scrum poker server is running!", rec.Body.String())
	}

	rec := serve(t, routes, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRoomEndpoint(t *testing.T) {
	hub := NewHub(NewConfig())
	routes := SetupRoutes(hub)

	rec := serve(t, routes, http.MethodPost, "/api/rooms", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body createRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	_, ok := room.NormalizeCode(body.Code.String())
	assert.True(t, ok, "code %q is not a valid room code", body.Code)
	assert.Equal(t, 1, hub.Rooms().Len())

	rec = serve(t, routes, http.MethodGet, "/api/rooms", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoomEndpoint(t *testing.T) {
	hub := NewHub(NewConfig())
	routes := SetupRoutes(hub)
	code := hub.Rooms().Create()
	_, err := hub.Rooms().Join(code, "alice", "Alice")
	require.NoError(t, err)

	rec := serve(t, routes, http.MethodGet, "/api/rooms/"+strings.ToLower(code.String()), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary room.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, room.Summary{Code: code, Participants: 1}, summary)
	assert.NotContains(t, rec.Body.String(), "vote")
}

func TestRoomEndpointNotFound(t *testing.T) {
	hub := NewHub(NewConfig(), room.WithCodeSource(func() room.Code { return "AAAA" }))
	routes := SetupRoutes(hub)
	hub.Rooms().Create()

	for _, code := range []string{"BBBB", "toolong", "0000"} {
		rec := serve(t, routes, http.MethodGet, "/api/rooms/"+code, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, ErrMsgRoomNotFound, body.Error)
	}
}

func TestStatsEndpoint(t *testing.T) {
	hub := NewHub(NewConfig())
	routes := SetupRoutes(hub)
	hub.Rooms().Create()
	hub.Rooms().Create()

	rec := serve(t, routes, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, statsResponse{Rooms: 2, Connections: 0}, stats)
}

func TestCORSHeaders(t *testing.T) {
	cfg := NewConfig()
	cfg.AllowedOrigins = []string{"https://poker.example.com"}
	routes := SetupRoutes(NewHub(cfg))

	rec := serve(t, routes, http.MethodGet, "/api/stats", map[string]string{"Origin": "https://poker.example.com"})
	assert.Equal(t, "https://poker.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(t, routes, http.MethodGet, "/api/stats", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(t, routes, http.MethodOptions, "/api/rooms", map[string]string{
		"Origin":                        "https://poker.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://poker.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORSAllowAll(t *testing.T) {
	cfg := NewConfig()
	cfg.AllowedOrigins = []string{"*"}
	routes := SetupRoutes(NewHub(cfg))

	rec := serve(t, routes, http.MethodGet, "/health", map[string]string{"Origin": "https://anything.example"})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithoutOriginsAllowsNone(t *testing.T) {
	cfg := NewConfig()
	cfg.AllowedOrigins = nil
	routes := SetupRoutes(NewHub(cfg))

	rec := serve(t, routes, http.MethodGet, "/health", map[string]string{"Origin": "http://localhost:8080"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
