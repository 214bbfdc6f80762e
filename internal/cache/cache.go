// Package cache keeps recent dashboard query results in memory so that page
// loads within the TTL do not hit the data source again.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"financetrack/internal/log"
)

// Cleaner is implemented by caches whose expired entries can be swept.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on an interval.
type Manager struct {
	caches  []Cleaner
	logger  *log.Logger
	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool
	stopped sync.Once
}

// NewManager returns a Manager with no caches.
func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		logger: logger.WithComponent(log.ComponentCache),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds c to the sweep. Call before Start.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Start launches the sweeper.
func (m *Manager) Start(interval time.Duration) {
	if m.started.Swap(true) {
		return
	}
	go m.run(interval)
}

func (m *Manager) run(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-m.stop:
			return
		}
	}
}

// Sweep cleans every registered cache once and returns the entries removed.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the sweeper and waits for it. Extra calls are no-ops.
func (m *Manager) Stop() {
	m.stopped.Do(func() {
		close(m.stop)
		if m.started.Load() {
			<-m.done
		}
	})
}
