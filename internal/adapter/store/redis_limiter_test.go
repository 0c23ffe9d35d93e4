package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 3, time.Hour)

	for i := range 3 {
		ok, err := l.Allow(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, ok, "question %d is within quota", i+1)
	}
	ok, err := l.Allow(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "fourth question exceeds the quota")

	ok, err = l.Allow(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, ok, "subjects are counted separately")

	assert.Equal(t, time.Hour, mr.TTL("questions:s1"))

	mr.FastForward(time.Hour)
	ok, err = l.Allow(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok, "the window resets after it expires")
}

func TestRedisLimiterWindowStartsAtFirstQuestion(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 10, time.Hour)

	_, err := l.Allow(ctx, "s1")
	require.NoError(t, err)
	mr.FastForward(40 * time.Minute)
	_, err = l.Allow(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, mr.TTL("questions:s1"), "later questions do not extend the window")
}

func TestRedisLimiterRepairsMissingExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	require.NoError(t, mr.Set("questions:s1", "1"))

	l := NewRedisLimiter(rdb, 10, time.Minute)
	_, err := l.Allow(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("questions:s1"))
}

func TestRedisLimiterDisabled(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, 0, time.Hour)

	for range 5 {
		ok, err := l.Allow(context.Background(), "s1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestRedisLimiterUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	_, err := NewRedisLimiter(rdb, 3, time.Hour).Allow(context.Background(), "s1")
	assert.Error(t, err)
}
