package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"financetrack/internal/backend"
	"financetrack/internal/boundary"
	"financetrack/internal/cache"
	"financetrack/internal/config"
	apphttp "financetrack/internal/http"
	"financetrack/internal/log"
	"financetrack/internal/ratelimit"
	"financetrack/internal/sheets"
	"financetrack/internal/sheets/memory"
	"financetrack/internal/storage"
	"financetrack/internal/view"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheSweepInterval   = time.Minute
	limiterSweepInterval = 5 * time.Minute
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, flush := setupLogger(cfg, nil)
			defer flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// serve wires every component and blocks until ctx is canceled, then
// drains in-flight requests.
func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	logger.InfoContext(ctx, "Starting financetrack", log.FieldOperation, log.OpStartup,
		"version", Version, "env", cfg.AppEnv)

	prefs, store, closePrefs, err := openPreferences(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePrefs()

	source, err := backend.NewDashboardReader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	dashboard := cache.Wrap(source, cfg.CacheTTL)

	sweeper := cache.NewManager(logger)
	reader, cached := dashboard.(*cache.Reader)
	if cached {
		for _, c := range reader.Cleaners() {
			sweeper.Register(c)
		}
		sweeper.Start(cacheSweepInterval)
	}
	defer sweeper.Stop()

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	var boundaryOpts []boundary.Option
	if cfg.SentryDSN != "" {
		boundaryOpts = append(boundaryOpts, boundary.WithReporter(boundary.SentryReporter{}))
	}
	hooks := []func(context.Context){
		func(ctx context.Context) { prefs.Reload(ctx) },
	}
	if seeded, ok := source.(*memory.Store); ok {
		hooks = append(hooks, func(ctx context.Context) {
			if err := seeded.ReloadFile(); err != nil {
				logger.WarnContext(ctx, "Seed reload failed, keeping previous data",
					log.FieldOperation, log.OpReload, log.FieldError, err)
			}
		})
	}
	if cached {
		hooks = append(hooks, func(context.Context) { reader.Invalidate() })
	}
	supervisor := boundary.NewSupervisor(func() *boundary.Boundary {
		return boundary.New(logger, boundaryOpts...)
	}, logger, hooks...)

	limiter := newLimiter(store)
	if m, ok := limiter.(*ratelimit.MemoryLimiter); ok {
		defer m.Stop()
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Preferences: prefs,
		Dashboard:   dashboard,
		Supervisor:  supervisor,
		Renderer:    renderer,
		Limiter:     limiter,
		Logger:      logger,
		DataBackend: cfg.DataBackend,
		TrendMonths: cfg.TrendMonths,
		RateLimit:   cfg.RateLimitPerMinute,
		Ready:       readinessChecks(store, source),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port,
			log.FieldBackend, cfg.DataBackend, "preferences_backend", cfg.PreferencesBackend,
			"rate_limiter", limiter.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newLimiter shares the preferences Redis when there is one, so every
// instance counts against the same window.
func newLimiter(store storage.Store) ratelimit.Limiter {
	if rs, ok := store.(*storage.RedisStore); ok {
		return ratelimit.NewRedisLimiter(rs.Client())
	}
	return ratelimit.NewMemoryLimiter(limiterSweepInterval)
}

func readinessChecks(store storage.Store, source sheets.DashboardReader) []apphttp.ReadinessCheck {
	checks := []apphttp.ReadinessCheck{{Name: "storage", Check: store.Ping}}
	// The placeholder client is a supported demo mode, not an outage.
	if c, ok := source.(*backend.Client); ok && !c.Placeholder() {
		checks = append(checks, apphttp.ReadinessCheck{Name: "data_source", Check: c.Ping})
	}
	return checks
}
