package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWindow(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(2, time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("c1"))
	assert.True(t, l.Allow("c1"))
	assert.False(t, l.Allow("c1"))
	assert.True(t, l.Allow("c2"), "keys are independent")

	now = now.Add(2 * time.Second)
	assert.True(t, l.Allow("c1"))
}

func TestForgetAndSweep(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(1, time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	l.Forget("a")
	assert.True(t, l.Allow("a"))

	l.Allow("b")
	now = now.Add(5 * time.Second)
	l.Sweep()
	assert.Empty(t, l.buckets)
}

func TestSweepEveryExpiresIdleBuckets(t *testing.T) {
	var clock atomic.Int64
	l := New(1, time.Second)
	l.now = func() time.Time { return time.Unix(clock.Load(), 0) }

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.SweepEvery(ctx, 5*time.Millisecond)
		close(done)
	}()

	clock.Store(10)
	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.buckets) == 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SweepEvery did not return after cancel")
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
