package preferences

import (
	"context"
	"errors"
	"fmt"

	"media-lightbox/internal/database"
	"media-lightbox/internal/logging"
)

var logger = logging.For("preferences")

// ErrReadOnly is returned when writing without a store.
var ErrReadOnly = errors.New("preferences cannot be stored")

// Preference names.
const (
	EnableKey     = "multimediaviewer-enable"
	StatusInfoKey = "mmv-showStatusInfo"
)

// Store persists named string values. Missing names return
// database.ErrNotFound.
type Store interface {
	GetPreference(ctx context.Context, name string) (string, error)
	SetPreference(ctx context.Context, name, value string) error
	DeletePreference(ctx context.Context, name string) error
}

// Config holds the site-wide switches.
type Config struct {
	// Enabled is the global switch; when false the viewer never opens on click.
	Enabled bool
	// EnabledByDefault applies when no preference is stored.
	EnabledByDefault bool
}

// Status is the state reported to the front end.
type Status struct {
	EnabledOnClick bool `json:"enabledOnClick"`
	ShowStatusInfo bool `json:"showStatusInfo"`
	CanSet         bool `json:"canSet"`
}

// Service reads and writes the viewer preferences.
type Service struct {
	store Store
	cfg   Config
}

// NewService creates a service. A nil store keeps nothing and always
// reports the defaults.
func NewService(store Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg}
}

func (s *Service) get(ctx context.Context, name string) (string, bool, error) {
	if s.store == nil {
		return "", false, nil
	}
	v, err := s.store.GetPreference(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", name, err)
	}
	return v, true, nil
}

// EnabledOnClick reports whether clicking a thumbnail opens the viewer.
func (s *Service) EnabledOnClick(ctx context.Context) (bool, error) {
	if !s.cfg.Enabled {
		return false, nil
	}
	v, ok, err := s.get(ctx, EnableKey)
	if err != nil {
		return false, err
	}
	if !ok {
		return s.cfg.EnabledByDefault, nil
	}
	return v == "1", nil
}

// SetEnabledOnClick stores the preference. Turning the viewer off for the
// first time arms the status notice.
func (s *Service) SetEnabledOnClick(ctx context.Context, enabled bool) error {
	if s.store == nil {
		return ErrReadOnly
	}

	var err error
	switch {
	case enabled == s.cfg.EnabledByDefault:
		err = s.store.DeletePreference(ctx, EnableKey)
	case enabled:
		err = s.store.SetPreference(ctx, EnableKey, "1")
	default:
		err = s.store.SetPreference(ctx, EnableKey, "0")
	}
	if err != nil {
		return fmt.Errorf("failed to store preference %s: %w", EnableKey, err)
	}
	logger.Info("viewer on click set to %t", enabled)

	if !enabled {
		return s.maybeEnableStatusInfo(ctx)
	}
	return nil
}

func (s *Service) maybeEnableStatusInfo(ctx context.Context) error {
	_, ok, err := s.get(ctx, StatusInfoKey)
	if err != nil || ok {
		return err
	}
	return s.store.SetPreference(ctx, StatusInfoKey, "1")
}

// ShouldShowStatusInfo reports whether the notice about the disabled
// viewer is due.
func (s *Service) ShouldShowStatusInfo(ctx context.Context) (bool, error) {
	enabled, err := s.EnabledOnClick(ctx)
	if err != nil || enabled {
		return false, err
	}
	v, _, err := s.get(ctx, StatusInfoKey)
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// DisableStatusInfo hides the notice for good.
func (s *Service) DisableStatusInfo(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.SetPreference(ctx, StatusInfoKey, "0")
}

// Status collects the preference state.
func (s *Service) Status(ctx context.Context) (Status, error) {
	enabled, err := s.EnabledOnClick(ctx)
	if err != nil {
		return Status{}, err
	}
	show, err := s.ShouldShowStatusInfo(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{EnabledOnClick: enabled, ShowStatusInfo: show, CanSet: s.store != nil}, nil
}
