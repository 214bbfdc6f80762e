// Package ratelimit throttles write requests per client.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait before retrying, rounded
// up to whole seconds and never less than one.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now).Round(time.Second)
	if d < time.Second {
		return time.Second
	}
	return d
}

// Limiter decides whether another request for key fits in the window.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	// Name labels the limiter in logs and metrics.
	Name() string
}
