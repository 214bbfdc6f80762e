package boundary

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// SentryReporter sends faults to the Sentry hub initialized by the caller.
type SentryReporter struct{}

func (SentryReporter) Report(ctx context.Context, f Fault) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", f.Component)
		if f.Stack != nil {
			scope.SetTag("panic", "true")
			scope.SetContext("panic", sentry.Context{"stack": string(f.Stack)})
		}
		hub.CaptureException(f.Err)
	})
}
