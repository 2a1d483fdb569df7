package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a Redis-backed fixed-window Limiter for multi-instance
// deployments: the counter key carries a TTL equal to the window, so the
// bucket resets wholesale when the key expires. INCR is atomic on the Redis
// side, which gives the same per-key guarantee as the in-process limiter.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Check(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("rate_limit:%s", key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// NX: only the request that opens the window sets the TTL
	pipe.ExpireNX(ctx, redisKey, l.window)
	ttl := pipe.TTL(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= l.limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl.Val()),
	}, nil
}
