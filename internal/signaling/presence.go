package signaling

import (
	"errors"

	"signal-relay/pkg/metrics"
)

// HandleJoin attaches identity to p, adds it to the room and announces it.
// On error p stays Unjoined (or Left) and nobody else is notified.
func (e *Engine) HandleJoin(p *Peer, roomID, userID string, isHost bool) error {
	if roomID == "" || userID == "" {
		metrics.Joins.WithLabelValues("invalid").Inc()
		return ErrInvalidJoinRequest
	}
	if err := p.attach(roomID, userID, isHost); err != nil {
		metrics.Joins.WithLabelValues("rejected").Inc()
		return err
	}
	if err := e.reg.AddMember(roomID, p); err != nil {
		p.detach()
		metrics.Joins.WithLabelValues("duplicate").Inc()
		return err
	}
	metrics.Joins.WithLabelValues("ok").Inc()
	metrics.Rooms.Set(float64(e.reg.RoomCount()))
	e.log.Info("presence.join", "room", roomID, "user", userID, "host", isHost, "conn", p.ID())
	e.record("join", roomID, userID, isHost)

	e.broadcast(roomID, UserJoined(userID, roomID, isHost), p)

	// joiner gets its count directly, then the whole room (joiner included) does
	count := ParticipantCount(e.reg.MemberCount(roomID), roomID)
	e.emit(p, count)
	e.emitLocal(roomID, count, nil)
	return nil
}

// HandleDisconnect removes p from its room and tells the rest. Safe to call
// any number of times; only the first call on a joined peer has effects.
func (e *Engine) HandleDisconnect(p *Peer) {
	roomID, userID, isHost, wasJoined := p.leave()
	if !wasJoined {
		return
	}

	deleted, remaining := e.reg.RemoveMember(roomID, p)
	metrics.Rooms.Set(float64(e.reg.RoomCount()))
	e.log.Info("presence.leave", "room", roomID, "user", userID, "remaining", remaining, "roomDeleted", deleted)
	e.record("leave", roomID, userID, isHost)

	e.broadcast(roomID, UserLeft(userID, roomID, isHost), p)
	if !deleted && remaining > 0 {
		e.emitLocal(roomID, ParticipantCount(remaining, roomID), nil)
	}
}

// JoinRejected reports whether err is a join error that should be echoed
// to the client rather than treated as a transport failure.
func JoinRejected(err error) bool {
	return errors.Is(err, ErrInvalidJoinRequest) ||
		errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrDuplicateUser) ||
		errors.Is(err, ErrConnectionClosed)
}
