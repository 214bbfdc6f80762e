package boundary

import (
	"context"
	"sync/atomic"

	"financetrack/internal/log"
	"financetrack/internal/metrics"
)

// Supervisor owns the single boundary wrapping the application's render
// tree. A faulted boundary is never reset; Reload replaces it.
type Supervisor struct {
	current atomic.Pointer[Boundary]
	build   func() *Boundary
	hooks   []func(context.Context)
	logger  *log.Logger
}

// NewSupervisor installs a boundary built by build. Each hook runs on
// Reload before the fresh boundary is installed.
func NewSupervisor(build func() *Boundary, logger *log.Logger, hooks ...func(context.Context)) *Supervisor {
	s := &Supervisor{
		build:  build,
		hooks:  hooks,
		logger: logger.WithComponent(log.ComponentBoundary),
	}
	s.current.Store(build())
	return s
}

// Current returns the boundary in use.
func (s *Supervisor) Current() *Boundary {
	return s.current.Load()
}

// Reload runs the reload hooks and swaps in a fresh Healthy boundary.
func (s *Supervisor) Reload(ctx context.Context) {
	for _, hook := range s.hooks {
		hook(ctx)
	}
	prev := s.current.Swap(s.build())
	metrics.RecordBoundaryReload()
	s.logger.InfoContext(ctx, "Application reloaded",
		log.FieldOperation, log.OpReload, "previous_state", prev.State().String())
}
