package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"signal-relay/internal/app"
	"signal-relay/pkg/auth"
	"signal-relay/pkg/ratelimit"
)

type Middleware struct {
	cors   *cors.Cors
	auth   *auth.JWT // nil leaves introspection open
	rlimit *ratelimit.Limiter
}

// NewMiddleware builds the shared middleware stack from config
func NewMiddleware(cfg app.Config) *Middleware {
	m := &Middleware{
		cors: cors.New(cors.Options{
			AllowedOrigins: cfg.CORSAllow,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}),
		rlimit: ratelimit.New(cfg.HTTPRateMax, cfg.HTTPRateWindow),
	}
	if cfg.AdminJWTSecret != "" {
		m.auth = auth.New(cfg.AdminJWTSecret)
	}
	return m
}

// Run expires idle rate-limit buckets until ctx is done
func (m *Middleware) Run(ctx context.Context) {
	m.rlimit.SweepEvery(ctx, time.Minute)
}

// Wrap applies CORS + rate limiting to a handler
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return m.cors.Handler(m.rlimit.Middleware(h))
}

// Operator requires a rooms:read bearer token when a secret is configured
func (m *Middleware) Operator(next http.Handler) http.Handler {
	if m.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := r.Header.Get("Authorization")
		if !strings.HasPrefix(b, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "no token")
			return
		}
		sub, err := m.auth.Verify(strings.TrimPrefix(b, "Bearer "), auth.ScopeRoomsRead)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "bad token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), sub)))
	})
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
