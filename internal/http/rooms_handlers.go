package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"signal-relay/internal/room"
	"signal-relay/internal/store"
	"signal-relay/pkg/auth"
)

// HistoryReader reads the presence journal; nil when the journal is disabled
type HistoryReader interface {
	RoomHistory(ctx context.Context, roomID string, limit int) ([]store.PresenceEvent, error)
}

// RoomsAPI is the read-only projection of the room registry
type RoomsAPI struct {
	Registry *room.Registry
	Journal  HistoryReader // nil when PG_URL is unset
	Log      *slog.Logger
	Now      func() time.Time
}

type statusResp struct {
	Message   string `json:"message"`
	Status    string `json:"status"`
	Rooms     int    `json:"rooms"`
	Timestamp string `json:"timestamp"`
}

type roomSummaryDTO struct {
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
}

type participantDTO struct {
	UserID    string `json:"userId"`
	IsHost    bool   `json:"isHost"`
	Connected bool   `json:"connected"`
}

type roomDetailResp struct {
	RoomID           string           `json:"roomId"`
	ParticipantCount int              `json:"participantCount"`
	Participants     []participantDTO `json:"participants"`
}

type historyEventDTO struct {
	Kind       string    `json:"kind"`
	UserID     string    `json:"userId"`
	IsHost     bool      `json:"isHost"`
	InstanceID string    `json:"instanceId"`
	At         time.Time `json:"at"`
}

// Status reports liveness plus the current room count
func (a *RoomsAPI) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResp{
		Message:   "signaling server running",
		Status:    "ok",
		Rooms:     a.Registry.RoomCount(),
		Timestamp: a.now().UTC().Format(time.RFC3339Nano),
	})
}

// List returns every room with its participant count
func (a *RoomsAPI) List(w http.ResponseWriter, _ *http.Request) {
	rooms := a.Registry.ListRooms()
	resp := make([]roomSummaryDTO, 0, len(rooms))
	for _, s := range rooms {
		resp = append(resp, roomSummaryDTO{RoomID: s.RoomID, ParticipantCount: s.ParticipantCount})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": resp})
}

// Get describes one room or 404s
func (a *RoomsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("roomId")
	ps, ok := a.Registry.DescribeRoom(id)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	resp := roomDetailResp{RoomID: id, ParticipantCount: len(ps), Participants: make([]participantDTO, 0, len(ps))}
	for _, p := range ps {
		resp.Participants = append(resp.Participants, participantDTO{UserID: p.UserID, IsHost: p.IsHost, Connected: p.Connected})
	}
	writeJSON(w, http.StatusOK, resp)
}

// History returns the newest joins/leaves of a room (?limit=, max 500)
func (a *RoomsAPI) History(w http.ResponseWriter, r *http.Request) {
	if a.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, "presence journal disabled")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, 500)
	}

	id := r.PathValue("roomId")
	events, err := a.Journal.RoomHistory(r.Context(), id, limit)
	if err != nil {
		a.Log.Warn("rooms.history", "room", id, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]historyEventDTO, 0, len(events))
	for _, e := range events {
		resp = append(resp, historyEventDTO{Kind: e.Kind, UserID: e.UserID, IsHost: e.IsHost, InstanceID: e.InstanceID, At: e.At})
	}
	a.Log.Info("rooms.history", "room", id, "events", len(resp), "operator", auth.Subject(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"roomId": id, "events": resp})
}

func (a *RoomsAPI) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
