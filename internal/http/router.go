package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"signal-relay/internal/app"
	"signal-relay/internal/room"
	"signal-relay/internal/ws"
	"signal-relay/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers.
// history may be nil when the presence journal is disabled. Middleware
// housekeeping runs until ctx is done.
func NewRouter(ctx context.Context, cfg app.Config, logger *slog.Logger, hub *ws.Hub, reg *room.Registry, history HistoryReader) http.Handler {
	mw := NewMiddleware(cfg)
	go mw.Run(ctx)
	api := &RoomsAPI{Registry: reg, Journal: history, Log: logger}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))
	mux.Handle("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))
	mux.Handle("GET /metrics", metrics.Handler())

	// WebSocket endpoint; inbound frames are rate limited inside the hub
	if hub != nil {
		mux.Handle("GET /ws", http.HandlerFunc(hub.ServeWS))
	}

	// Introspection
	mux.Handle("GET /{$}", http.HandlerFunc(api.Status))
	mux.Handle("GET /rooms", mw.Operator(http.HandlerFunc(api.List)))
	mux.Handle("GET /rooms/{roomId}", mw.Operator(http.HandlerFunc(api.Get)))
	mux.Handle("GET /rooms/{roomId}/history", mw.Operator(http.HandlerFunc(api.History)))

	logger.Debug("http.routes", "operatorAuth", cfg.AdminJWTSecret != "", "history", history != nil)
	return mw.Wrap(mux) // CORS + rate limit applied globally
}
