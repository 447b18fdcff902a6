package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger tagged with the relay instance id.
// prod: JSON at INFO, anything else: text at DEBUG so routing misses show up.
func NewLogger(env, instanceID string) *slog.Logger {
	return newLogger(os.Stdout, env).With("instance", instanceID)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
