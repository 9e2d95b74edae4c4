package preferences

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-lightbox/internal/database"
)

type memStore struct {
	values map[string]string
	err    error
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (m *memStore) GetPreference(_ context.Context, name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.values[name]
	if !ok {
		return "", database.ErrNotFound
	}
	return v, nil
}

func (m *memStore) SetPreference(_ context.Context, name, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[name] = value
	return nil
}

func (m *memStore) DeletePreference(_ context.Context, name string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.values, name)
	return nil
}

func TestEnabledOnClickDefaults(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"enabled by default", Config{Enabled: true, EnabledByDefault: true}, true},
		{"disabled by default", Config{Enabled: true, EnabledByDefault: false}, false},
		{"global switch off", Config{Enabled: false, EnabledByDefault: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewService(newMemStore(), tt.cfg).EnabledOnClick(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetEnabledOnClick(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := NewService(store, Config{Enabled: true, EnabledByDefault: true})

	require.NoError(t, s.SetEnabledOnClick(ctx, false))
	assert.Equal(t, "0", store.values[EnableKey])
	assert.Equal(t, "1", store.values[StatusInfoKey])

	enabled, err := s.EnabledOnClick(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	show, err := s.ShouldShowStatusInfo(ctx)
	require.NoError(t, err)
	assert.True(t, show)

	// Back to the default removes the stored value.
	require.NoError(t, s.SetEnabledOnClick(ctx, true))
	_, stored := store.values[EnableKey]
	assert.False(t, stored)

	show, err = s.ShouldShowStatusInfo(ctx)
	require.NoError(t, err)
	assert.False(t, show, "no notice while enabled")
}

func TestSetEnabledWhenDisabledByDefault(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := NewService(store, Config{Enabled: true, EnabledByDefault: false})

	require.NoError(t, s.SetEnabledOnClick(ctx, true))
	assert.Equal(t, "1", store.values[EnableKey])

	require.NoError(t, s.SetEnabledOnClick(ctx, false))
	_, stored := store.values[EnableKey]
	assert.False(t, stored)
}

func TestStatusInfoShownOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	s := NewService(store, Config{Enabled: true, EnabledByDefault: true})

	require.NoError(t, s.SetEnabledOnClick(ctx, false))
	require.NoError(t, s.DisableStatusInfo(ctx))

	show, err := s.ShouldShowStatusInfo(ctx)
	require.NoError(t, err)
	assert.False(t, show)

	// Disabling again does not re-arm a dismissed notice.
	require.NoError(t, s.SetEnabledOnClick(ctx, true))
	require.NoError(t, s.SetEnabledOnClick(ctx, false))
	assert.Equal(t, "0", store.values[StatusInfoKey])
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.err = errors.New("disk full")
	s := NewService(store, Config{Enabled: true, EnabledByDefault: true})

	_, err := s.EnabledOnClick(ctx)
	assert.ErrorIs(t, err, store.err)

	assert.ErrorIs(t, s.SetEnabledOnClick(ctx, false), store.err)

	_, err = s.Status(ctx)
	assert.Error(t, err)
}

func TestWithoutStore(t *testing.T) {
	ctx := context.Background()
	s := NewService(nil, Config{Enabled: true, EnabledByDefault: true})

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{EnabledOnClick: true, CanSet: false}, status)

	assert.ErrorIs(t, s.SetEnabledOnClick(ctx, false), ErrReadOnly)
	assert.NoError(t, s.DisableStatusInfo(ctx))
}

func TestWithDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewService(db, Config{Enabled: true, EnabledByDefault: true})
	require.NoError(t, s.SetEnabledOnClick(ctx, false))

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{EnabledOnClick: false, ShowStatusInfo: true, CanSet: true}, status)
}
