package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"media-lightbox/internal/logging"
)

var logger = logging.For("cache")

const defaultKeyPrefix = "lightbox:api:"

// RedisStore keeps entries in Redis and lets Redis expire them.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr and pings it.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis at %s (db %d)", addr, db)
	return &RedisStore{client: client, prefix: defaultKeyPrefix}, nil
}

// Get returns the entry for key or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value for maxAge. A non-positive maxAge keeps it forever.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, maxAge time.Duration) error {
	if maxAge < 0 {
		maxAge = 0
	}
	return s.client.Set(ctx, s.prefix+key, value, maxAge).Err()
}

// Backend returns "redis".
func (s *RedisStore) Backend() string { return "redis" }

// Stats counts the entries under the store prefix. Redis drops expired keys
// itself, so ExpiredEntries is always zero.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		stats.Entries++
		size, err := s.client.StrLen(ctx, iter.Val()).Result()
		if err == nil {
			stats.Bytes += size
		}
	}
	return stats, iter.Err()
}

// Purge deletes every entry under the store prefix.
func (s *RedisStore) Purge(ctx context.Context) (int64, error) {
	var deleted int64

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, iter.Err()
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
