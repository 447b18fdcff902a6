package signaling

import "time"

// Inbound event names
const (
	EventJoinRoom     = "join-room"
	EventHostSharing  = "host-sharing"
	EventHostStopped  = "host-stopped"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
)

// Outbound-only event names
const (
	EventWelcome          = "welcome"
	EventUserJoined       = "user-joined"
	EventUserLeft         = "user-left"
	EventParticipantCount = "participant-count"
	EventError            = "error"
)

// Payload is an untyped event body. Relay payloads are never decoded
// further than their "to" and "from" keys.
type Payload map[string]any

// Frame is one event on the wire: {"event": name, "data": {...}}
type Frame struct {
	Event string  `json:"event" msgpack:"event"`
	Data  Payload `json:"data,omitempty" msgpack:"data,omitempty"`
}

// String returns the value at key if it is a string
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Bool returns the value at key if it is a bool
func (p Payload) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// with returns a shallow copy of p with key set to v
func (p Payload) with(key string, v any) Payload {
	out := make(Payload, len(p)+1)
	for k, val := range p {
		out[k] = val
	}
	out[key] = v
	return out
}

func Welcome(now time.Time) Frame {
	return Frame{Event: EventWelcome, Data: Payload{
		"message":   "connected to signaling server",
		"timestamp": now.UTC().Format(time.RFC3339Nano),
	}}
}

func UserJoined(from, roomID string, isHost bool) Frame {
	return Frame{Event: EventUserJoined, Data: Payload{"from": from, "roomId": roomID, "isHost": isHost}}
}

func UserLeft(from, roomID string, isHost bool) Frame {
	return Frame{Event: EventUserLeft, Data: Payload{"from": from, "roomId": roomID, "isHost": isHost}}
}

func ParticipantCount(count int, roomID string) Frame {
	return Frame{Event: EventParticipantCount, Data: Payload{"count": count, "roomId": roomID}}
}

// ErrorFrame reports a rejected request back to its sender
func ErrorFrame(event string, err error) Frame {
	return Frame{Event: EventError, Data: Payload{"event": event, "message": err.Error()}}
}
