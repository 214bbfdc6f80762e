package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter counts requests per key in fixed windows held in process
// memory. Stale keys are swept periodically; call Stop to end the sweeper.
type MemoryLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

// NewMemoryLimiter starts a limiter that sweeps idle keys every interval.
func NewMemoryLimiter(interval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		clients:     make(map[string]*clientInfo),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go l.startCleanup(interval)
	return l
}

func (l *MemoryLimiter) Name() string { return "memory" }

func (l *MemoryLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupStaleEntries(2 * interval)
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries drops keys idle for longer than idle.
func (l *MemoryLimiter) cleanupStaleEntries(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for key, c := range l.clients {
		if c.lastRequest.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Stop ends the sweeper. Extra calls are no-ops.
func (l *MemoryLimiter) Stop() {
	l.shutdownOnce.Do(func() { close(l.stopCleanup) })
}

// Check counts a request for key and reports whether it is within limit.
func (l *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok || now.Sub(c.windowStart) >= window {
		c = &clientInfo{windowStart: now}
		l.clients[key] = c
	}
	c.requests++
	c.lastRequest = now

	remaining := limit - c.requests
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   c.requests <= limit,
		Remaining: remaining,
		ResetAt:   c.windowStart.Add(window),
	}, nil
}
