package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrRoomNotFound = errors.New("room not found")

type RoomSummary struct {
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
}

type Participant struct {
	UserID    string `json:"userId"`
	IsHost    bool   `json:"isHost"`
	Connected bool   `json:"connected"`
}

type RoomDetail struct {
	RoomID           string        `json:"roomId"`
	ParticipantCount int           `json:"participantCount"`
	Participants     []Participant `json:"participants"`
}

// API is a small client for the relay's introspection endpoints
type API struct {
	base  string
	token string
	hc    *http.Client
}

func NewAPI(base, token string) *API {
	return &API{
		base:  strings.TrimRight(base, "/"),
		token: token,
		hc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Rooms lists every room
func (a *API) Rooms(ctx context.Context) ([]RoomSummary, error) {
	var resp struct {
		Rooms []RoomSummary `json:"rooms"`
	}
	if err := a.get(ctx, "/rooms", &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// Room describes one room; ErrRoomNotFound when it does not exist
func (a *API) Room(ctx context.Context, roomID string) (RoomDetail, error) {
	var d RoomDetail
	err := a.get(ctx, "/rooms/"+url.PathEscape(roomID), &d)
	return d, err
}

func (a *API) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+path, nil)
	if err != nil {
		return err
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	res, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(res.Body).Decode(v)
	case http.StatusNotFound:
		return ErrRoomNotFound
	default:
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(res.StatusCode)
		}
		return fmt.Errorf("%s: %d %s", path, res.StatusCode, e.Error)
	}
}
