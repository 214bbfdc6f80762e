package storage

import (
	"context"
	"fmt"

	"financetrack/internal/config"
	"financetrack/internal/log"
)

// Type names a Store implementation.
type Type string

const (
	SQLite Type = "sqlite"
	File   Type = "file"
	Redis  Type = "redis"
	Memory Type = "memory"
)

// IsValid returns true if the store type is known
func (t Type) IsValid() bool {
	switch t {
	case SQLite, File, Redis, Memory:
		return true
	default:
		return false
	}
}

// Open builds the preferences store selected by PREFERENCES_BACKEND.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (Store, error) {
	logger = logger.WithComponent(log.ComponentStorage)

	t := Type(cfg.PreferencesBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid preferences backend: %s", cfg.PreferencesBackend)
	}

	switch t {
	case SQLite:
		s, err := NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		logger.Info("Initialized SQLite preferences store", "db_path", cfg.SQLiteDBPath, "schema_version", s.SchemaVersion())
		return s, nil
	case File:
		s, err := NewFileStore(cfg.PreferencesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		logger.Info("Initialized file preferences store", "dir", cfg.PreferencesDir)
		return s, nil
	case Redis:
		s, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis store: %w", err)
		}
		logger.Info("Initialized Redis preferences store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return s, nil
	default:
		logger.Warn("Using in-memory preferences store; changes are lost on restart")
		return NewMemoryStore(), nil
	}
}
