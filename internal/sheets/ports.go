// Package sheets defines the ports the dashboard reads its data through.
package sheets

import (
	"context"
	"errors"

	"financetrack/internal/core"
)

// ErrUnavailable is returned by a reader that has no usable data source.
var ErrUnavailable = errors.New("dashboard data source unavailable")

// Ports for outbound adapters.
type (
	// DashboardReader provides the aggregated data the dashboard charts.
	DashboardReader interface {
		// SpendingByCategory returns the current period's spending per category.
		SpendingByCategory(ctx context.Context) ([]core.SpendingByCategory, error)
		// MonthlyTrend returns up to months rows in chronological order,
		// ending with the current month.
		MonthlyTrend(ctx context.Context, months int) ([]core.MonthlyTrend, error)
	}
)

// MonthLabels are the short month names used as trend labels and sheet headers.
var MonthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// LastN returns the final n rows of trend; all of them when n <= 0 or n
// exceeds the length.
func LastN(trend []core.MonthlyTrend, n int) []core.MonthlyTrend {
	if n <= 0 || n >= len(trend) {
		return trend
	}
	return trend[len(trend)-n:]
}
