package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/repository"
	"github.com/rocketscienceinc/metatactoe-backend/internal/usecase"
)

const origin = "http://frontend.test"

func newServer(t *testing.T) (*httptest.Server, *usecase.RoomRegistry) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	registry := usecase.NewRoomRegistry(logger, repository.NewNoopRoomMirror(), usecase.DefaultRegistryOptions())
	server := httptest.NewServer(New(logger, registry, "https://play.test/", []string{origin}).Router())
	t.Cleanup(server.Close)

	return server, registry
}

func get(t *testing.T, url string, header map[string]string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	for key, value := range header {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func TestServer_Ping(t *testing.T) {
	server, _ := newServer(t)

	resp, body := get(t, server.URL+"/ping", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	resp, body = get(t, server.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_Rooms(t *testing.T) {
	t.Run("Rooms are listed without passwords", func(t *testing.T) {
		// Given: a password protected room
		server, registry := newServer(t)
		_, err := registry.Create(context.Background(), "r1", "secret", 3, &entity.Player{ID: "p1"})
		require.NoError(t, err)

		// When: listing the rooms
		resp, body := get(t, server.URL+"/rooms", nil)

		// Then: the room is there and the password is not
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.NotContains(t, string(body), "secret")

		var rooms []map[string]any
		require.NoError(t, json.Unmarshal(body, &rooms))
		require.Len(t, rooms, 1)
		assert.Equal(t, "r1", rooms[0]["name"])
		assert.Equal(t, true, rooms[0]["hasPassword"])
	})

	t.Run("An empty registry lists an empty array", func(t *testing.T) {
		server, _ := newServer(t)

		_, body := get(t, server.URL+"/rooms", nil)
		assert.JSONEq(t, `[]`, string(body))
	})
}

func TestServer_RoomQR(t *testing.T) {
	server, registry := newServer(t)
	_, err := registry.Create(context.Background(), "r1", "", 0, &entity.Player{ID: "p1"})
	require.NoError(t, err)

	t.Run("A known room gets a png", func(t *testing.T) {
		resp, body := get(t, server.URL+"/rooms/r1/qr", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.Equal(t, "\x89PNG", string(body[:4]))
	})

	t.Run("An unknown room is not found", func(t *testing.T) {
		resp, _ := get(t, server.URL+"/rooms/nope/qr", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("The link points at the public frontend", func(t *testing.T) {
		handler := newRoomHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), registry, "https://play.test/")
		assert.Equal(t, "https://play.test/room/my%20room", handler.roomURL("my room"))
	})
}

func TestServer_CORS(t *testing.T) {
	server, _ := newServer(t)

	t.Run("An allowed origin is echoed", func(t *testing.T) {
		resp, _ := get(t, server.URL+"/rooms", map[string]string{"Origin": origin})
		assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("Other origins get no CORS headers", func(t *testing.T) {
		resp, _ := get(t, server.URL+"/rooms", map[string]string{"Origin": "http://evil.test"})
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
