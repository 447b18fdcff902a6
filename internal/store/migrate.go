package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrationFiles lists the embedded .sql files in apply order
func migrationFiles() ([]string, error) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// RunMigrations executes all embedded .sql files in order.
// Every migration must be idempotent (IF NOT EXISTS).
func RunMigrations(ctx context.Context, p *Postgres, log *slog.Logger) error {
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	for _, name := range files {
		b, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		if _, err := p.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		log.Info("migration.applied", "file", name)
	}
	return nil
}
