package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"media-lightbox/internal/cache"
	"media-lightbox/internal/logging"
)

// foreverTTL stands in for "never expires" in the expires_at column.
const foreverTTL = 100 * 365 * 24 * time.Hour

// Get returns the cached value for key, or cache.ErrMiss when it is absent
// or expired.
func (d *Database) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("cache_get", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value []byte
	err = d.db.QueryRowContext(ctx,
		"SELECT value FROM api_cache WHERE key = ? AND expires_at > ?",
		key, d.now().Unix(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key for maxAge. A non-positive maxAge keeps it
// until purged.
func (d *Database) Set(ctx context.Context, key string, value []byte, maxAge time.Duration) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("cache_set", start, err) }()

	if maxAge <= 0 {
		maxAge = foreverTTL
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO api_cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			created_at = strftime('%s', 'now')
	`, key, value, d.now().Add(maxAge).Unix())
	return err
}

// Backend returns "sqlite".
func (d *Database) Backend() string { return "sqlite" }

// CleanExpiredEntries deletes expired cache rows and returns how many were removed.
func (d *Database) CleanExpiredEntries(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("cache_clean", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM api_cache WHERE expires_at <= ?", d.now().Unix())
	if err != nil {
		return 0, err
	}

	removed, err := result.RowsAffected()
	if err == nil && removed > 0 {
		logging.Debug("Removed %d expired API cache entries", removed)
	}
	return removed, err
}

// Purge deletes every cache row.
func (d *Database) Purge(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("cache_purge", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM api_cache")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetStats counts cache rows.
func (d *Database) GetStats(ctx context.Context) (cache.Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("cache_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats cache.Stats
	err = d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(LENGTH(value)), 0)
		FROM api_cache
	`, d.now().Unix()).Scan(&stats.Entries, &stats.ExpiredEntries, &stats.Bytes)
	return stats, err
}
