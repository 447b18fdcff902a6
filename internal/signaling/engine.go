package signaling

import (
	"log/slog"
	"time"

	"signal-relay/internal/room"
	"signal-relay/pkg/metrics"
)

// Envelope is a frame handed to other relay instances.
// An empty To means every member of RoomID.
type Envelope struct {
	Origin string `json:"origin"`
	RoomID string `json:"roomId"`
	To     string `json:"to,omitempty"`
	Frame  Frame  `json:"frame"`
}

// Bus fans envelopes out to other instances. Publish must not block.
type Bus interface {
	Publish(e Envelope)
}

// PresenceRecord is one join or leave, as kept by a Journal
type PresenceRecord struct {
	Kind   string // "join" or "leave"
	RoomID string
	UserID string
	IsHost bool
	At     time.Time
}

// Journal keeps presence history. Record must not block.
type Journal interface {
	Record(r PresenceRecord)
}

// Engine ties the presence coordinator and the router to one registry
type Engine struct {
	reg     *room.Registry
	log     *slog.Logger
	bus     Bus
	journal Journal
	now     func() time.Time
}

type Option func(*Engine)

// WithBus enables cross-instance fanout
func WithBus(b Bus) Option { return func(e *Engine) { e.bus = b } }

// WithJournal records joins and leaves
func WithJournal(j Journal) Option { return func(e *Engine) { e.journal = j } }

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(reg *room.Registry, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{reg: reg, log: log, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry exposes the registry for read-only introspection
func (e *Engine) Registry() *room.Registry { return e.reg }

// Dispatch routes one inbound frame from p. Only join can fail; relay
// problems are dropped silently. Unknown events are ignored.
func (e *Engine) Dispatch(p *Peer, f Frame) error {
	switch f.Event {
	case EventJoinRoom:
		return e.HandleJoin(p, f.Data.String("roomId"), f.Data.String("userId"), f.Data.Bool("isHost"))
	case EventHostSharing, EventHostStopped:
		e.Broadcast(p, f)
	case EventOffer, EventAnswer, EventICECandidate:
		e.Forward(p, f)
	default:
		e.log.Debug("dispatch.unknown", "event", f.Event, "conn", p.ID())
		metrics.DroppedFrames.WithLabelValues("unknown_event").Inc()
	}
	return nil
}

type sender interface {
	Emit(f Frame) error
}

// emit sends f to one member, best effort
func (e *Engine) emit(m room.Member, f Frame) {
	s, ok := m.(sender)
	if !ok {
		return
	}
	if err := s.Emit(f); err != nil {
		e.log.Debug("emit.failed", "event", f.Event, "user", m.UserID(), "err", err)
		metrics.DroppedFrames.WithLabelValues("send_failed").Inc()
	}
}

// emitLocal sends f to every local member of the room except skip
func (e *Engine) emitLocal(roomID string, f Frame, skip room.Member) {
	for _, m := range e.reg.Members(roomID) {
		if skip != nil && m == skip {
			continue
		}
		e.emit(m, f)
	}
}

// broadcast is emitLocal plus fanout to other instances
func (e *Engine) broadcast(roomID string, f Frame, skip room.Member) {
	e.emitLocal(roomID, f, skip)
	if e.bus != nil {
		e.bus.Publish(Envelope{RoomID: roomID, Frame: f})
	}
}

func (e *Engine) record(kind, roomID, userID string, isHost bool) {
	if e.journal == nil {
		return
	}
	e.journal.Record(PresenceRecord{Kind: kind, RoomID: roomID, UserID: userID, IsHost: isHost, At: e.now()})
}
