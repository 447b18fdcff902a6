package store

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-relay/internal/app"
)

type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool wrapper
func NewPostgres(ctx context.Context, cfg app.Config, log *slog.Logger) (*Postgres, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.PGURL)
	if err != nil {
		return nil, err
	}
	pcfg.MaxConns = int32(cfg.PGMaxConn)

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// InsertPresence writes a batch of presence events in one round trip
func (p *Postgres) InsertPresence(ctx context.Context, events []PresenceEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{e.Kind, e.RoomID, e.UserID, e.IsHost, e.InstanceID, e.At})
	}
	_, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"presence_events"},
		[]string{"kind", "room_id", "user_id", "is_host", "instance_id", "at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// RoomHistory returns the newest presence events of a room, newest first
func (p *Postgres) RoomHistory(ctx context.Context, roomID string, limit int) ([]PresenceEvent, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, kind, room_id, user_id, is_host, instance_id, at
		FROM presence_events
		WHERE room_id = $1
		ORDER BY at DESC, id DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PresenceEvent
	for rows.Next() {
		var e PresenceEvent
		if err := rows.Scan(&e.ID, &e.Kind, &e.RoomID, &e.UserID, &e.IsHost, &e.InstanceID, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
