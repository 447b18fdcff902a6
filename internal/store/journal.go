package store

import (
	"context"
	"log/slog"
	"time"

	"signal-relay/internal/signaling"
	"signal-relay/pkg/metrics"
)

const (
	journalQueue = 1024
	journalBatch = 128
	flushEvery   = 250 * time.Millisecond
)

// presenceWriter is the part of Postgres the journal needs
type presenceWriter interface {
	InsertPresence(ctx context.Context, events []PresenceEvent) error
}

// Journal buffers presence records and writes them in batches, so the
// join/leave path never waits on the database.
type Journal struct {
	db       presenceWriter
	log      *slog.Logger
	instance string
	queue    chan signaling.PresenceRecord
}

func NewJournal(db presenceWriter, instanceID string, log *slog.Logger) *Journal {
	return &Journal{
		db:       db,
		log:      log,
		instance: instanceID,
		queue:    make(chan signaling.PresenceRecord, journalQueue),
	}
}

// Record queues r, dropping it when the queue is full
func (j *Journal) Record(r signaling.PresenceRecord) {
	select {
	case j.queue <- r:
	default:
		metrics.DroppedFrames.WithLabelValues("journal_full").Inc()
	}
}

// Run flushes queued records every flushEvery or once a batch fills up.
// Pending records are flushed once more when ctx is cancelled.
func (j *Journal) Run(ctx context.Context) {
	t := time.NewTicker(flushEvery)
	defer t.Stop()

	var pending []PresenceEvent
	flush := func(ctx context.Context) {
		if len(pending) == 0 {
			return
		}
		if err := j.db.InsertPresence(ctx, pending); err != nil {
			j.log.Warn("journal.flush", "n", len(pending), "err", err)
		}
		pending = pending[:0]
	}

	for {
		select {
		case r := <-j.queue:
			pending = append(pending, j.event(r))
			if len(pending) >= journalBatch {
				flush(ctx)
			}
		case <-t.C:
			flush(ctx)
		case <-ctx.Done():
			// drain what is already queued, then write it with a fresh deadline
		drain:
			for {
				select {
				case r := <-j.queue:
					pending = append(pending, j.event(r))
				default:
					break drain
				}
			}
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(fctx)
			cancel()
			return
		}
	}
}

func (j *Journal) event(r signaling.PresenceRecord) PresenceEvent {
	return PresenceEvent{
		Kind: r.Kind, RoomID: r.RoomID, UserID: r.UserID,
		IsHost: r.IsHost, InstanceID: j.instance, At: r.At,
	}
}
