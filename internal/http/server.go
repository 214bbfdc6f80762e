// Package http serves the dashboard pages, the preferences API and the
// operational endpoints.
package http

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"financetrack/internal/boundary"
	"financetrack/internal/log"
	"financetrack/internal/metrics"
	"financetrack/internal/preferences"
	"financetrack/internal/ratelimit"
	"financetrack/internal/sheets"
	"financetrack/internal/view"
	appweb "financetrack/web"
)

const (
	requestTimeout  = 7 * time.Second
	readinessWindow = 5 * time.Second
	rateLimitWindow = time.Minute
)

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dependencies are the collaborators the server is built from.
type Dependencies struct {
	Preferences *preferences.Store
	Dashboard   sheets.DashboardReader
	Supervisor  *boundary.Supervisor
	Renderer    *view.Renderer
	Limiter     ratelimit.Limiter
	Logger      *log.Logger

	// DataBackend labels data source failures in metrics.
	DataBackend string
	TrendMonths int
	// RateLimit is the number of POST requests allowed per client per minute.
	RateLimit int
	Ready     []ReadinessCheck
}

// Server is the dashboard's HTTP server.
type Server struct {
	http.Server
	deps    Dependencies
	logger  *log.Logger
	started time.Time

	shutdownOnce sync.Once
}

// NewServer registers every route and returns a server ready to listen on addr.
func NewServer(addr string, deps Dependencies) *Server {
	if deps.TrendMonths < 1 {
		deps.TrendMonths = 6
	}
	if deps.RateLimit < 1 {
		deps.RateLimit = 60
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		deps:    deps,
		logger:  deps.Logger.WithComponent(log.ComponentHTTP),
		started: time.Now(),
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		s.handle(mux, "GET /static/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	s.handle(mux, "GET /{$}", s.handleDashboard)
	s.handle(mux, "GET /settings", s.handleSettings)
	s.handle(mux, "GET /api/preferences", s.handleGetPreferences)
	s.handle(mux, "POST /preferences", s.handleUpdatePreferences)
	s.handle(mux, "POST /theme", s.handleSetTheme)
	s.handle(mux, "POST "+boundary.ReloadPath, s.handleReload)
	s.handle(mux, "GET /healthz", s.handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	s.handle(mux, "GET /metrics", metrics.Handler().ServeHTTP)

	return s
}

// handle registers h for pattern behind the common middleware. The pattern
// doubles as the route label in metrics.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	withLogger := log.Middleware(s.logger, func(r *http.Request) string {
		return r.Header.Get(requestIDHeader)
	})
	mux.Handle(pattern, s.withRequestContext(pattern, withLogger(h)))
}

// withRequestContext assigns the request ID, applies security headers and
// the POST rate limit, then records the outcome in logs and metrics.
func (s *Server) withRequestContext(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		id := requestID(r)
		r.Header.Set(requestIDHeader, id)
		w.Header().Set(requestIDHeader, id)
		setSecurityHeaders(w.Header())

		reqLogger := s.logger.With(log.FieldRequestID, id)
		if isSuspicious(r) {
			reqLogger.WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if r.Method == http.MethodPost && !s.allow(r.Context(), reqLogger, rw, clientIP) {
			s.finish(r, reqLogger, route, rw.status, start, clientIP)
			return
		}

		next.ServeHTTP(rw, r)
		s.finish(r, reqLogger, route, rw.status, start, clientIP)
	})
}

// allow applies the rate limit and writes the 429 response when exceeded.
// A failing limiter lets the request through.
func (s *Server) allow(ctx context.Context, logger *log.Logger, w http.ResponseWriter, clientIP string) bool {
	if s.deps.Limiter == nil {
		return true
	}
	res, err := s.deps.Limiter.Check(ctx, clientIP, s.deps.RateLimit, rateLimitWindow)
	if err != nil {
		logger.WarnContext(ctx, "Rate limiter unavailable, allowing request",
			log.FieldClientIP, clientIP, log.FieldError, err)
		return true
	}
	if res.Allowed {
		return true
	}

	metrics.RecordRateLimited(s.deps.Limiter.Name())
	logger.WarnContext(ctx, "Rate limit exceeded", log.FieldClientIP, clientIP)
	w.Header().Set("Retry-After", formatSeconds(res.RetryAfter(time.Now())))
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
	return false
}

func (s *Server) finish(r *http.Request, logger *log.Logger, route string, status int, start time.Time, clientIP string) {
	elapsed := time.Since(start)
	metrics.RecordHTTPRequest(route, r.Method, status, elapsed)
	logger.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), clientIP)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		err = s.Server.Shutdown(ctx)
	})
	return err
}
