package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"

	"golang.org/x/sync/errgroup"

	"financetrack/internal/boundary"
	"financetrack/internal/core"
	"financetrack/internal/log"
	"financetrack/internal/metrics"
	"financetrack/internal/sheets"
	"financetrack/internal/view"
)

// dashboardData is what the dashboard page charts. A failed query leaves
// its slice nil and the view shows its empty state.
type dashboardData struct {
	spending []core.SpendingByCategory
	trend    []core.MonthlyTrend
}

// fetchDashboard queries both data sets concurrently.
func (s *Server) fetchDashboard(ctx context.Context) dashboardData {
	var data dashboardData
	if s.deps.Dashboard == nil {
		return data
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.deps.Dashboard.SpendingByCategory(gctx)
		if err != nil {
			s.dataSourceError(ctx, "spending_by_category", err)
			return nil
		}
		data.spending = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.deps.Dashboard.MonthlyTrend(gctx, s.deps.TrendMonths)
		if err != nil {
			s.dataSourceError(ctx, "monthly_trend", err)
			return nil
		}
		data.trend = sheets.LastN(rows, s.deps.TrendMonths)
		return nil
	})
	_ = g.Wait()
	return data
}

func (s *Server) dataSourceError(ctx context.Context, query string, err error) {
	logger := log.FromContext(ctx)
	if errors.Is(err, sheets.ErrUnavailable) {
		logger.DebugContext(ctx, "Dashboard data source unavailable",
			log.FieldOperation, log.OpFetch, "query", query, log.FieldError, err)
		return
	}
	metrics.RecordDataSourceError(s.deps.DataBackend, query)
	logger.WarnContext(ctx, "Dashboard query failed, showing empty state",
		log.FieldOperation, log.OpFetch, log.FieldBackend, s.deps.DataBackend, "query", query, log.FieldError, err)
}

// handleDashboard renders the header, the income chart and the spending
// breakdown inside the application's error boundary.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	prefs := s.deps.Preferences.Preferences()
	theme := s.deps.Preferences.Theme(ctx)
	data := s.fetchDashboard(ctx)

	rd := s.deps.Renderer
	s.renderPage(ctx, w, http.StatusOK, pageFor(prefs, theme),
		rd.Header(prefs, theme),
		rd.SpendingChart(data.trend, prefs),
		rd.BudgetOverview(data.spending, prefs),
	)
}

// handleSettings renders the preferences form.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	prefs := s.deps.Preferences.Preferences()
	theme := s.deps.Preferences.Theme(ctx)
	saved := r.URL.Query().Get("saved") == "1"

	rd := s.deps.Renderer
	s.renderPage(ctx, w, http.StatusOK, pageFor(prefs, theme),
		rd.Header(prefs, theme),
		rd.Settings(view.NewSettings(prefs, saved, "")),
	)
}

// renderPage renders components through the current boundary and wraps
// the result in the page layout. A faulted boundary yields the fallback
// view with status 500.
func (s *Server) renderPage(ctx context.Context, w http.ResponseWriter, status int, page view.PageView, components ...boundary.Component) {
	logger := log.FromContext(ctx)
	if s.deps.Renderer == nil {
		logger.ErrorContext(ctx, "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var body bytes.Buffer
	err := s.deps.Supervisor.Current().Render(ctx, &body, components...)
	switch {
	case errors.Is(err, boundary.ErrFallbackRendered):
		status = http.StatusInternalServerError
	case err != nil:
		logger.ErrorContext(ctx, "Page render failed", log.FieldOperation, log.OpRender, log.FieldError, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page.Body = template.HTML(body.String())
	var out bytes.Buffer
	if err := s.deps.Renderer.Page(&out, page); err != nil {
		logger.ErrorContext(ctx, "Layout template execution failed", log.FieldOperation, log.OpRender, log.FieldError, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = out.WriteTo(w)
}

func pageFor(p core.Preferences, theme core.Theme) view.PageView {
	return view.PageView{Lang: p.Locale(), Theme: theme}
}
