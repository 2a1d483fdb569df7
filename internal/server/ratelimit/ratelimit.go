// Package ratelimit provides fixed-window request quota tracking per caller
// key. Checks never block the caller: they report the decision and let the
// caller decide how to react.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of one quota check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter tracks request counts per key over a rolling fixed window.
type Limiter interface {
	Check(ctx context.Context, key string) (Result, error)
}

type bucket struct {
	windowStart time.Time
	count       int
}

// FixedWindowLimiter is the in-process Limiter. A bucket counts requests for
// its key; once the window elapses the bucket is replaced wholesale with a
// fresh one (count=1), never decayed. One mutex guards the map, which makes
// the reset-or-increment step atomic against concurrent callers of any key.
type FixedWindowLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Check counts one request for key and reports whether it fits the window's
// limit. Remaining and ResetAt are computed inside the same critical section,
// so the returned snapshot is consistent.
func (l *FixedWindowLimiter) Check(ctx context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var allowed bool
	b, ok := l.buckets[key]
	switch {
	case !ok || !now.Before(b.windowStart.Add(l.window)):
		b = &bucket{windowStart: now, count: 1}
		l.buckets[key] = b
		allowed = true
	case b.count < l.limit:
		// count is capped at limit; rejected requests do not consume quota
		b.count++
		allowed = true
	}

	return Result{
		Allowed:   allowed,
		Remaining: l.limit - b.count,
		ResetAt:   b.windowStart.Add(l.window),
	}, nil
}

// PurgeExpired drops buckets whose window has fully elapsed. Callers may run
// it periodically to bound memory for high-cardinality keys.
func (l *FixedWindowLimiter) PurgeExpired() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if !now.Before(b.windowStart.Add(l.window)) {
			delete(l.buckets, key)
		}
	}
}
