package backend

import (
	"context"
	"fmt"

	"financetrack/internal/config"
	"financetrack/internal/log"
	"financetrack/internal/sheets"
	gsheet "financetrack/internal/sheets/google"
	"financetrack/internal/sheets/memory"
)

// BackendType represents the type of dashboard data source
type BackendType string

const (
	HostedBackend BackendType = "hosted"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case HostedBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// NewDashboardReader builds the data source selected by DATA_BACKEND.
func NewDashboardReader(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.DashboardReader, error) {
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}
	logger = logger.WithComponent(log.ComponentBackend)

	switch bt {
	case SheetsBackend:
		cli, err := gsheet.New(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		logger.Info("Initialized Google Sheets data source")
		return cli, nil
	case MemoryBackend:
		store, err := memory.NewFromFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory data source: %w", err)
		}
		logger.Info("Initialized memory data source", "seed_file", cfg.SeedFile)
		return store, nil
	default:
		client := Shared(cfg, logger)
		logger.Info("Initialized hosted data source", "url", client.URL(), "placeholder", client.Placeholder())
		return client, nil
	}
}
