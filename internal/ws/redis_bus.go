package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"signal-relay/internal/app"
	"signal-relay/internal/signaling"
	"signal-relay/pkg/metrics"
)

const busQueue = 1024

// RedisBus fans room events out to the other relay instances
type RedisBus struct {
	rdb    *redis.Client
	log    *slog.Logger
	origin string
	queue  chan signaling.Envelope
}

// NewRedisBus connects to redis and verifies connectivity
func NewRedisBus(ctx context.Context, cfg app.Config, log *slog.Logger) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return newRedisBus(rdb, cfg.InstanceID, log), nil
}

func newRedisBus(rdb *redis.Client, origin string, log *slog.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, log: log, origin: origin, queue: make(chan signaling.Envelope, busQueue)}
}

// Publish queues an envelope without blocking; Run does the network write
func (b *RedisBus) Publish(e signaling.Envelope) {
	e.Origin = b.origin
	select {
	case b.queue <- e:
	default:
		metrics.DroppedFrames.WithLabelValues("bus_full").Inc()
	}
}

// Run drains the publish queue until ctx is cancelled, then publishes
// whatever is still queued with a short deadline.
func (b *RedisBus) Run(ctx context.Context) {
	for {
		select {
		case e := <-b.queue:
			b.publish(ctx, e)
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			for {
				select {
				case e := <-b.queue:
					b.publish(fctx, e)
				default:
					return
				}
			}
		}
	}
}

func (b *RedisBus) publish(ctx context.Context, e signaling.Envelope) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, channel(e.RoomID), raw).Err(); err != nil {
		b.log.Warn("bus.publish", "room", e.RoomID, "err", err)
	}
}

// Subscribe listens to all room channels and invokes fn for envelopes
// published by other instances
func (b *RedisBus) Subscribe(ctx context.Context, fn func(signaling.Envelope)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if e, ok := b.decode(msg.Payload); ok {
				fn(e)
			}
		}
	}
}

// decode parses a bus payload, dropping our own and malformed envelopes
func (b *RedisBus) decode(payload string) (signaling.Envelope, bool) {
	var e signaling.Envelope
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		b.log.Warn("bus.malformed", "err", err)
		return e, false
	}
	if e.RoomID == "" || e.Origin == b.origin {
		return e, false
	}
	return e, true
}

// Close shuts down the redis connection
func (b *RedisBus) Close() { _ = b.rdb.Close() }

// channel namespacing for room pub/sub
func channel(roomID string) string { return "relay:" + roomID }
