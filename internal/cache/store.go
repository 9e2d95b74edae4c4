package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store holds serialized API responses.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, maxAge time.Duration) error
	// Backend names the store in metrics labels.
	Backend() string
}

// Stats describes the content of a store.
type Stats struct {
	Entries        int64 `json:"entries"`
	ExpiredEntries int64 `json:"expiredEntries"`
	Bytes          int64 `json:"bytes"`
}

// Nop is a Store that never holds anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Backend returns "none".
func (Nop) Backend() string { return "none" }
