package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window question quota per subject (session id or client IP).
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	key := "questions:" + subject

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}
	// -1: the counter has no expiry yet, so this request opened the window.
	if ttl.Val() == -1 {
		if err := r.client.PExpire(ctx, key, r.window).Err(); err != nil {
			return false, fmt.Errorf("rate limiter: %w", err)
		}
	}
	return incr.Val() <= r.limit, nil
}
