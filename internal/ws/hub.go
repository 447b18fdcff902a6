package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"signal-relay/internal/signaling"
	"signal-relay/pkg/metrics"
	"signal-relay/pkg/ratelimit"
)

// Fanout is the cross-instance side of the bus the hub has to drive
type Fanout interface {
	Run(ctx context.Context)
	Subscribe(ctx context.Context, fn func(signaling.Envelope))
}

type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	Limiter         *ratelimit.Limiter // per-connection inbound frames; nil disables
	Fanout          Fanout             // nil when running single-instance
}

// Hub accepts websocket connections and feeds their frames to the engine
type Hub struct {
	log    *slog.Logger
	engine *signaling.Engine
	opts   Options
	now    func() time.Time

	// base parents every connection; Shutdown cancels it
	base    context.Context
	stopAll context.CancelFunc

	mu      sync.Mutex
	closing bool
	conns   sync.WaitGroup
}

// NewHub sets up the hub with engine + logger
func NewHub(logger *slog.Logger, engine *signaling.Engine, opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 64 * 1024
	}
	base, stopAll := context.WithCancel(context.Background())
	return &Hub{log: logger, engine: engine, opts: opts, now: time.Now, base: base, stopAll: stopAll}
}

// Run drives the bus (if any) and housekeeping until ctx is done. It returns
// once the bus has flushed what was queued before ctx ended.
func (h *Hub) Run(ctx context.Context) {
	if h.opts.Limiter != nil {
		go h.opts.Limiter.SweepEvery(ctx, time.Minute)
	}
	if h.opts.Fanout == nil {
		<-ctx.Done()
		return
	}

	go h.opts.Fanout.Subscribe(ctx, h.engine.DeliverRemote)
	h.opts.Fanout.Run(ctx)
}

// Shutdown refuses new connections, closes the live ones and waits until
// each has gone through its disconnect, or ctx expires.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()
	h.stopAll()

	done := make(chan struct{})
	go func() {
		h.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers one connection handler; false once Shutdown has begun
func (h *Hub) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.conns.Add(1)
	return true
}

// ServeWS handles a new /ws connection. The connection lives Unjoined
// until it sends join-room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	codec, err := CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.track() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.conns.Done()

	wsc, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}
	wsc.SetReadLimit(h.opts.MaxMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.base, cancel)
	defer stop()

	c := NewConn(wsc, codec, h.opts.SendBuffer)
	peer := signaling.NewPeer(uuid.NewString(), c)
	metrics.Connections.Inc()
	h.log.Debug("ws.open", "conn", peer.ID(), "codec", codec.Name(), "remote", r.RemoteAddr)

	// Outbound writer; a failed write tears the connection down
	go func() {
		if err := c.WriteLoop(ctx); err != nil && ctx.Err() == nil {
			h.log.Debug("ws.write", "conn", peer.ID(), "err", err)
		}
		cancel()
		_ = peer.Close()
	}()

	_ = peer.Emit(signaling.Welcome(h.now()))

	// Inbound reader, one frame at a time
	for {
		payload, ok := c.Read(ctx)
		if !ok {
			break
		}
		if h.opts.Limiter != nil && !h.opts.Limiter.Allow(peer.ID()) {
			metrics.DroppedFrames.WithLabelValues("rate_limited").Inc()
			continue
		}

		f, err := codec.Decode(payload)
		if err != nil || f.Event == "" {
			h.log.Warn("ws.malformed", "conn", peer.ID(), "err", err)
			metrics.DroppedFrames.WithLabelValues("malformed").Inc()
			continue
		}

		if err := h.engine.Dispatch(peer, f); err != nil {
			h.log.Info("presence.join.rejected", "conn", peer.ID(), "err", err)
			if signaling.JoinRejected(err) {
				_ = peer.Emit(signaling.ErrorFrame(f.Event, err))
			}
		}
	}

	h.engine.HandleDisconnect(peer)
	if h.opts.Limiter != nil {
		h.opts.Limiter.Forget(peer.ID())
	}
	metrics.Connections.Dec()
	_ = peer.Close()
	h.log.Debug("ws.closed", "conn", peer.ID())
}
