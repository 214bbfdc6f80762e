// Package preferences keeps the user's preferences: a durable record in a
// key-value store plus an in-memory snapshot that readers use without locks.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"financetrack/internal/core"
	"financetrack/internal/log"
	"financetrack/internal/metrics"
)

const (
	// Key is the storage key of the persisted preferences record.
	Key = "financetrack_preferences"
	// ThemeKey is the storage key of the persisted theme.
	ThemeKey = "financetrack-theme"
)

// Storage is the durable key-value store the preferences live in.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Publisher is notified after every successful update.
type Publisher interface {
	PublishPreferencesUpdated(ctx context.Context, p core.Preferences) error
}

// Store owns the preferences snapshot. Update is the only writer to durable
// storage; Preferences never blocks.
type Store struct {
	storage   Storage
	publisher Publisher
	logger    *log.Logger

	mu       sync.Mutex // serializes Update
	snapshot atomic.Pointer[core.Preferences]
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets the event publisher notified after updates.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// New returns a Store holding defaults. Call Reload to read durable storage.
func New(storage Storage, logger *log.Logger, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentPreferences),
	}
	for _, opt := range opts {
		opt(s)
	}
	defaults := core.DefaultPreferences()
	s.snapshot.Store(&defaults)
	return s
}

// Load reads the persisted record and merges it over defaults. Missing,
// unreadable or malformed content yields defaults and a warning. Load does
// not write to storage and does not touch the snapshot.
func (s *Store) Load(ctx context.Context) core.Preferences {
	defaults := core.DefaultPreferences()

	data, found, err := s.storage.Get(ctx, Key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read preferences, using defaults",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		metrics.RecordPreferenceLoadFailure("read")
		return defaults
	}
	if !found {
		s.logger.DebugContext(ctx, "No stored preferences, using defaults")
		return defaults
	}

	var patch core.PreferencesPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		s.logger.WarnContext(ctx, "Stored preferences are malformed, using defaults",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		metrics.RecordPreferenceLoadFailure("malformed")
		return defaults
	}
	if patch.Currency != nil {
		if _, ok := core.ParseCurrency(*patch.Currency); !ok {
			s.logger.WarnContext(ctx, "Stored currency is not supported; amounts format as USD",
				log.FieldCurrency, *patch.Currency)
		}
	}

	return defaults.Merge(patch)
}

// Reload loads the persisted record and installs it as the snapshot.
func (s *Store) Reload(ctx context.Context) core.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.Load(ctx)
	s.snapshot.Store(&p)
	s.logger.InfoContext(ctx, "Preferences loaded",
		log.FieldOperation, log.OpReload, log.FieldCurrency, p.Currency)
	return p
}

// Preferences returns the current snapshot.
func (s *Store) Preferences() core.Preferences {
	return *s.snapshot.Load()
}

// Update validates patch, merges it over the snapshot and persists the full
// merged record. The snapshot changes only after the write succeeded, so a
// failed write leaves both storage and memory as they were.
func (s *Store) Update(ctx context.Context, patch core.PreferencesPatch) (core.Preferences, error) {
	if err := patch.Validate(); err != nil {
		metrics.RecordPreferenceUpdate("invalid")
		return s.Preferences(), err
	}

	s.mu.Lock()
	current := *s.snapshot.Load()
	next := current.Merge(patch)

	data, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		metrics.RecordPreferenceUpdate("error")
		return current, fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.storage.Set(ctx, Key, data); err != nil {
		s.mu.Unlock()
		metrics.RecordPreferenceUpdate("error")
		s.logger.ErrorContext(ctx, "Failed to persist preferences",
			log.FieldOperation, log.OpUpdate, log.FieldError, err)
		return current, fmt.Errorf("persist preferences: %w", err)
	}
	s.snapshot.Store(&next)
	s.mu.Unlock()

	metrics.RecordPreferenceUpdate("ok")
	s.logger.InfoContext(ctx, "Preferences updated",
		log.FieldOperation, log.OpUpdate, log.FieldCurrency, next.Currency)

	if s.publisher != nil {
		if err := s.publisher.PublishPreferencesUpdated(ctx, next); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish preferences event",
				log.FieldOperation, log.OpPublish, log.FieldError, err)
		}
	}
	return next, nil
}

// FormatCurrency formats amount in the current currency's locale.
func (s *Store) FormatCurrency(amount float64) string {
	return s.Preferences().FormatCurrency(amount)
}

// CurrencySymbol returns the glyph of the current currency.
func (s *Store) CurrencySymbol() string {
	return s.Preferences().CurrencySymbol()
}

// Theme returns the persisted theme, DefaultTheme when missing or invalid.
func (s *Store) Theme(ctx context.Context) core.Theme {
	data, found, err := s.storage.Get(ctx, ThemeKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read theme, using default", log.FieldError, err)
		return core.DefaultTheme
	}
	if !found {
		return core.DefaultTheme
	}
	t, err := core.ParseTheme(string(data))
	if err != nil {
		s.logger.WarnContext(ctx, "Stored theme is invalid, using default", log.FieldError, err)
		return core.DefaultTheme
	}
	return t
}

// SetTheme validates and persists theme.
func (s *Store) SetTheme(ctx context.Context, theme string) (core.Theme, error) {
	t, err := core.ParseTheme(theme)
	if err != nil {
		return "", err
	}
	if err := s.storage.Set(ctx, ThemeKey, []byte(t)); err != nil {
		return "", fmt.Errorf("persist theme: %w", err)
	}
	s.logger.InfoContext(ctx, "Theme updated", log.FieldTheme, string(t))
	return t, nil
}

// IsValidationError reports whether err was caused by an invalid patch or theme.
func IsValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidPreferences) || errors.Is(err, core.ErrInvalidTheme)
}
