// Package cli implements the financetrack command tree and the
// initialization shared by its commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"financetrack/internal/amqp"
	"financetrack/internal/config"
	"financetrack/internal/log"
	"financetrack/internal/preferences"
	"financetrack/internal/storage"
)

const sentryFlushTimeout = 2 * time.Second

// loadConfig loads the configuration and validates it.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger builds the process logger from cfg and installs it as the
// slog default. Sentry is initialized first so the logger can forward
// error records to it. A non-nil w replaces stdout and the log file, for
// commands whose stdout is their output.
func setupLogger(cfg *config.Config, w io.Writer) (*log.Logger, func()) {
	var sentryErr error
	if cfg.SentryDSN != "" {
		sentryErr = sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
			Release:     "financetrack@" + Version,
		})
	}
	sentryOn := cfg.SentryDSN != "" && sentryErr == nil

	lc := log.DefaultConfig()
	if cfg.LogLevel != "" {
		lc.Level = log.ParseLevel(cfg.LogLevel)
	}
	lc.File = cfg.LogFile
	lc.Sentry = sentryOn
	if w != nil {
		lc.File = ""
		lc.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lc.Level})
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	if sentryErr != nil {
		logger.Warn("Sentry initialization failed, continuing without it", log.FieldError, sentryErr)
	}

	flush := func() {}
	if sentryOn {
		flush = func() { sentry.Flush(sentryFlushTimeout) }
	}
	return logger, flush
}

// openPreferences opens the configured store and the optional event
// publisher, and loads the persisted preferences. The returned cleanup
// closes both.
func openPreferences(ctx context.Context, cfg *config.Config, logger *log.Logger) (*preferences.Store, storage.Store, func(), error) {
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open preferences storage: %w", err)
	}

	var opts []preferences.Option
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			publisher = nil
			// Events are best effort; the dashboard works without them.
			logger.Warn("AMQP unavailable, preference events disabled", log.FieldError, err)
		} else {
			opts = append(opts, preferences.WithPublisher(publisher))
		}
	}

	prefs := preferences.New(store, logger, opts...)
	prefs.Reload(ctx)

	cleanup := func() {
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close preferences storage", log.FieldError, err)
		}
	}
	return prefs, store, cleanup, nil
}
