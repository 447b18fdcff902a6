package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-relay/internal/app"
	"signal-relay/internal/room"
	"signal-relay/internal/store"
	"signal-relay/pkg/auth"
)

type member struct {
	uid  string
	host bool
}

func (m *member) UserID() string  { return m.uid }
func (m *member) IsHost() bool    { return m.host }
func (m *member) Connected() bool { return true }

type fakeHistory struct {
	events []store.PresenceEvent
	err    error
	limit  int
}

func (f *fakeHistory) RoomHistory(_ context.Context, _ string, limit int) ([]store.PresenceEvent, error) {
	f.limit = limit
	return f.events, f.err
}

func testConfig() app.Config {
	return app.Config{CORSAllow: []string{"*"}, HTTPRateMax: 1000, HTTPRateWindow: time.Minute}
}

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// testCtx stops router housekeeping when the test ends
func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func get(t *testing.T, h http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestIntrospection(t *testing.T) {
	reg := room.NewRegistry()
	require.NoError(t, reg.AddMember("r1", &member{uid: "alice", host: true}))
	require.NoError(t, reg.AddMember("r1", &member{uid: "bob"}))
	require.NoError(t, reg.AddMember("r2", &member{uid: "carol"}))

	h := NewRouter(testCtx(t), testConfig(), quietLog(), nil, reg, nil)

	rec, body := get(t, h, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["rooms"])
	assert.NotEmpty(t, body["timestamp"])

	_, body = get(t, h, "/rooms", "")
	assert.Equal(t, []any{
		map[string]any{"roomId": "r1", "participantCount": float64(2)},
		map[string]any{"roomId": "r2", "participantCount": float64(1)},
	}, body["rooms"])

	_, body = get(t, h, "/rooms/r1", "")
	assert.Equal(t, "r1", body["roomId"])
	assert.Equal(t, float64(2), body["participantCount"])
	assert.Equal(t, []any{
		map[string]any{"userId": "alice", "isHost": true, "connected": true},
		map[string]any{"userId": "bob", "isHost": false, "connected": true},
	}, body["participants"])

	// room disappears with its last member
	for _, m := range reg.Members("r1") {
		reg.RemoveMember("r1", m)
	}
	rec, body = get(t, h, "/rooms/r1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "room not found", body["error"])
}

func TestHistory(t *testing.T) {
	reg := room.NewRegistry()

	h := NewRouter(testCtx(t), testConfig(), quietLog(), nil, reg, nil)
	rec, _ := get(t, h, "/rooms/r1/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	hist := &fakeHistory{events: []store.PresenceEvent{
		{Kind: "leave", RoomID: "r1", UserID: "bob", InstanceID: "node-a", At: at},
	}}
	h = NewRouter(testCtx(t), testConfig(), quietLog(), nil, reg, hist)

	rec, body := get(t, h, "/rooms/r1/history?limit=1000", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, hist.limit)
	assert.Equal(t, []any{map[string]any{
		"kind": "leave", "userId": "bob", "isHost": false, "instanceId": "node-a", "at": "2026-01-02T03:04:05Z",
	}}, body["events"])

	rec, _ = get(t, h, "/rooms/r1/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hist.err = errors.New("boom")
	rec, _ = get(t, h, "/rooms/r1/history", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 100, hist.limit)
}

func TestOperatorToken(t *testing.T) {
	cfg := testConfig()
	cfg.AdminJWTSecret = "s3cret"
	reg := room.NewRegistry()
	require.NoError(t, reg.AddMember("r1", &member{uid: "alice"}))
	h := NewRouter(testCtx(t), cfg, quietLog(), nil, reg, nil)

	rec, _ := get(t, h, "/rooms", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = get(t, h, "/rooms/r1", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := auth.New("s3cret").Sign("ops", auth.ScopeRoomsRead, time.Minute)
	require.NoError(t, err)
	rec, body := get(t, h, "/rooms", tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["rooms"], 1)

	// the status endpoint stays public
	rec, _ = get(t, h, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistoryLogsOperator(t *testing.T) {
	cfg := testConfig()
	cfg.AdminJWTSecret = "s3cret"
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	hist := &fakeHistory{events: []store.PresenceEvent{{Kind: "join", RoomID: "r1", UserID: "alice"}}}
	h := NewRouter(testCtx(t), cfg, log, nil, room.NewRegistry(), hist)

	tok, err := auth.New("s3cret").Sign("ops", auth.ScopeRoomsRead, time.Minute)
	require.NoError(t, err)
	rec, body := get(t, h, "/rooms/r1/history", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", body["roomId"])
	assert.Len(t, body["events"], 1)

	assert.Contains(t, logs.String(), `"msg":"rooms.history"`)
	assert.Contains(t, logs.String(), `"operator":"ops"`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPRateMax = 2
	h := NewRouter(testCtx(t), cfg, quietLog(), nil, room.NewRegistry(), nil)

	for i := 0; i < 2; i++ {
		rec, _ := get(t, h, "/rooms", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
