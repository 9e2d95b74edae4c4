package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopStore(t *testing.T) {
	var s Store = Nop{}

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), time.Minute))

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, "none", s.Backend())
}

// redisStore connects to TEST_REDIS_ADDR or skips.
func redisStore(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	s, err := NewRedisStore(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"), 13)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	s.prefix = "lightbox:test:" + t.Name() + ":"

	t.Cleanup(func() {
		_, _ = s.Purge(context.Background())
		_ = s.Close()
	})
	return s
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "imageinfo:File:A.jpg", []byte(`{"width":10}`), time.Minute))
	value, err := s.Get(ctx, "imageinfo:File:A.jpg")
	require.NoError(t, err)
	assert.Equal(t, `{"width":10}`, string(value))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Entries)
	assert.Equal(t, int64(len(`{"width":10}`)), stats.Bytes)
}

func TestRedisStoreExpiry(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", []byte("x"), 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStorePurge(t *testing.T) {
	s := redisStore(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, k, []byte(k), time.Minute))
	}

	deleted, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}
