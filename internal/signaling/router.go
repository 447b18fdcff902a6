package signaling

import (
	"signal-relay/pkg/metrics"
)

// Broadcast relays host-sharing / host-stopped from p to every other member
// of its room. "from" is always the sender's user id.
func (e *Engine) Broadcast(p *Peer, f Frame) {
	roomID, userID, _, ok := p.identity()
	if !ok {
		e.log.Debug("relay.unjoined", "event", f.Event, "conn", p.ID())
		metrics.DroppedFrames.WithLabelValues("unjoined").Inc()
		return
	}
	out := Frame{Event: f.Event, Data: f.Data.with("from", userID)}
	metrics.Relayed.WithLabelValues(f.Event).Inc()
	e.broadcast(roomID, out, p)
}

// Forward relays offer / answer / ice-candidate to the member named by "to".
// The payload is passed through untouched apart from "from". A missing
// target is logged and dropped; the sender is never told.
func (e *Engine) Forward(p *Peer, f Frame) {
	roomID, userID, _, ok := p.identity()
	if !ok {
		e.log.Debug("relay.unjoined", "event", f.Event, "conn", p.ID())
		metrics.DroppedFrames.WithLabelValues("unjoined").Inc()
		return
	}
	to := f.Data.String("to")
	if to == "" {
		e.log.Debug("relay.no_target", "event", f.Event, "room", roomID, "from", userID)
		metrics.DroppedFrames.WithLabelValues("no_target").Inc()
		return
	}
	out := Frame{Event: f.Event, Data: f.Data.with("from", userID)}

	target, found := e.reg.FindByUserID(roomID, to)
	if !found {
		metrics.RoutingMisses.Inc()
		e.log.Debug("relay.miss", "event", f.Event, "room", roomID, "from", userID, "to", to)
		if e.bus != nil {
			e.bus.Publish(Envelope{RoomID: roomID, To: to, Frame: out})
		}
		return
	}
	metrics.Relayed.WithLabelValues(f.Event).Inc()
	e.emit(target, out)
}

// DeliverRemote hands an envelope from another instance to local members.
// It never republishes.
func (e *Engine) DeliverRemote(env Envelope) {
	if env.To == "" {
		e.emitLocal(env.RoomID, env.Frame, nil)
		return
	}
	if target, ok := e.reg.FindByUserID(env.RoomID, env.To); ok {
		metrics.Relayed.WithLabelValues(env.Frame.Event).Inc()
		e.emit(target, env.Frame)
	}
}
