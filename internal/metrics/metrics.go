// Package metrics registers the Prometheus collectors of the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financetrack_http_requests_total",
			Help: "Total number of HTTP requests labeled by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "financetrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	renderFaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financetrack_render_faults_total",
			Help: "Render faults captured by the error boundary, labeled by view",
		},
		[]string{"view"},
	)
	boundaryReloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "financetrack_boundary_reloads_total",
			Help: "Full reloads that replaced the error boundary",
		},
	)
	preferenceUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financetrack_preference_updates_total",
			Help: "Preference updates labeled by outcome",
		},
		[]string{"status"},
	)
	preferenceLoadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financetrack_preference_load_failures_total",
			Help: "Preference loads that fell back to defaults, labeled by reason",
		},
		[]string{"reason"},
	)
	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financetrack_rate_limited_total",
			Help: "Requests rejected by the rate limiter, labeled by limiter backend",
		},
		[]string{"backend"},
	)
	dataSourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "financetrack_data_source_errors_total",
			Help: "Dashboard data source failures labeled by backend and query",
		},
		[]string{"backend", "query"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest counts a completed request and records its duration.
func RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRenderFault counts a fault captured by the error boundary.
func RecordRenderFault(view string) {
	if view == "" {
		view = "unknown"
	}
	renderFaultsTotal.WithLabelValues(view).Inc()
}

// RecordBoundaryReload counts a manual full reload.
func RecordBoundaryReload() {
	boundaryReloadsTotal.Inc()
}

// RecordPreferenceUpdate counts an update attempt; status is "ok", "invalid" or "error".
func RecordPreferenceUpdate(status string) {
	preferenceUpdatesTotal.WithLabelValues(status).Inc()
}

// RecordPreferenceLoadFailure counts a load that fell back to defaults.
func RecordPreferenceLoadFailure(reason string) {
	preferenceLoadFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordDataSourceError counts a failed dashboard query.
func RecordDataSourceError(backend, query string) {
	dataSourceErrorsTotal.WithLabelValues(backend, query).Inc()
}

// RecordRateLimited counts a rejected request.
func RecordRateLimited(backend string) {
	rateLimitedTotal.WithLabelValues(backend).Inc()
}
