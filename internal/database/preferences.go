package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a preference is not set.
var ErrNotFound = errors.New("not found")

// GetPreference returns the stored value of a preference.
func (d *Database) GetPreference(ctx context.Context, name string) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("preference_get", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err = d.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return "", ErrNotFound
	}
	return value, err
}

// SetPreference stores a preference value.
func (d *Database) SetPreference(ctx context.Context, name, value string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("preference_set", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO preferences (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = strftime('%s', 'now')
	`, name, value)
	return err
}

// DeletePreference removes a preference so its default applies again.
func (d *Database) DeletePreference(ctx context.Context, name string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("preference_delete", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM preferences WHERE name = ?", name)
	return err
}
