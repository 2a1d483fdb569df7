package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindow_LimitWithinWindow(t *testing.T) {
	t.Parallel()

	l := NewFixedWindowLimiter(5, time.Minute)
	start := time.Now()
	l.now = func() time.Time { return start }
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := l.Check(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d should be allowed", i)
		assert.Equal(t, 5-i, res.Remaining)
		assert.Equal(t, start.Add(time.Minute), res.ResetAt)
	}

	res, err := l.Check(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed, "6th call must be rejected")
	assert.Equal(t, 0, res.Remaining)
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	t.Parallel()

	l := NewFixedWindowLimiter(5, time.Minute)
	start := time.Now()
	now := start
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := l.Check(ctx, "k")
		require.NoError(t, err)
	}

	// window elapses: the bucket is replaced, not decayed
	now = start.Add(time.Minute + time.Second)
	res, err := l.Check(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining, "fresh window starts with count=1")
	assert.Equal(t, now.Add(time.Minute), res.ResetAt)
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l := NewFixedWindowLimiter(1, time.Minute)
	ctx := context.Background()

	res, err := l.Check(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Check(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = l.Check(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "other keys keep their own quota")
}

func TestFixedWindow_ConcurrentCountsExactly(t *testing.T) {
	t.Parallel()

	const limit = 50
	const calls = 100

	l := NewFixedWindowLimiter(limit, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	allowed := make([]bool, calls)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := l.Check(ctx, "k")
			if err != nil {
				t.Error(err)
				return
			}
			allowed[i] = res.Allowed
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, limit, count, "exactly limit calls may pass in one window")
}

func TestFixedWindow_PurgeExpired(t *testing.T) {
	t.Parallel()

	l := NewFixedWindowLimiter(5, time.Minute)
	start := time.Now()
	now := start
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := l.Check(ctx, "stale")
	require.NoError(t, err)
	now = start.Add(30 * time.Second)
	_, err = l.Check(ctx, "fresh")
	require.NoError(t, err)

	now = start.Add(time.Minute + time.Second)
	l.PurgeExpired()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "stale")
	assert.Contains(t, l.buckets, "fresh")
}
