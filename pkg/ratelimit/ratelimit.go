package ratelimit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a fixed-window token counter keyed by an arbitrary string
// (client IP for HTTP, connection id for websocket frames)
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int           // tokens per window
	per     time.Duration // window size
	now     func() time.Time
}

type bucket struct {
	ts     time.Time // window start
	tokens int       // remaining tokens
}

// New creates a limiter allowing max events per window per key
func New(max int, per time.Duration) *Limiter {
	return &Limiter{buckets: map[string]*bucket{}, max: max, per: per, now: time.Now}
}

// Allow takes one token for key and reports whether it was available
func (r *Limiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b := r.buckets[key]
	if b == nil || now.Sub(b.ts) > r.per {
		// Start a new window
		b = &bucket{ts: now, tokens: r.max}
		r.buckets[key] = b
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Forget drops the bucket for key, e.g. when a connection closes
func (r *Limiter) Forget(key string) {
	r.mu.Lock()
	delete(r.buckets, key)
	r.mu.Unlock()
}

// Sweep removes buckets whose window has expired
func (r *Limiter) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for k, b := range r.buckets {
		if now.Sub(b.ts) > r.per {
			delete(r.buckets, k)
		}
	}
}

// SweepEvery runs Sweep on a ticker until ctx is cancelled
func (r *Limiter) SweepEvery(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Middleware enforces the limit per client IP before calling next
func (r *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			ip = req.RemoteAddr
		}
		if !r.Allow(ip) {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}
