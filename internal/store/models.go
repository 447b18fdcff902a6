package store

import "time"

// PresenceEvent is one stored join or leave
type PresenceEvent struct {
	ID         int64
	Kind       string
	RoomID     string
	UserID     string
	IsHost     bool
	InstanceID string
	At         time.Time
}
