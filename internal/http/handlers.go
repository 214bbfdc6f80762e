package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"financetrack/internal/core"
	"financetrack/internal/log"
	"financetrack/internal/preferences"
	"financetrack/internal/view"
)

// preferencesResponse is the JSON view of the preferences snapshot.
type preferencesResponse struct {
	core.Preferences
	CurrencySymbol string     `json:"currencySymbol"`
	Theme          core.Theme `json:"theme"`
}

func (s *Server) preferencesResponse(ctx context.Context, p core.Preferences) preferencesResponse {
	return preferencesResponse{
		Preferences:    p,
		CurrencySymbol: p.CurrencySymbol(),
		Theme:          s.deps.Preferences.Theme(ctx),
	}
}

// handleGetPreferences returns the current snapshot.
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	writeJSON(w, r, http.StatusOK, s.preferencesResponse(ctx, s.deps.Preferences.Preferences()))
}

// handleUpdatePreferences applies a partial update sent as JSON or as the
// settings form. JSON callers get JSON back; form posts are redirected to
// the settings page, or see the form again with the error.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	logger := log.FromContext(ctx)
	asJSON := wantsJSON(r)

	patch, err := parsePreferencesPatch(w, r)
	if err == nil && patch.IsEmpty() {
		err = errors.New("no preferences supplied")
	}
	if err != nil {
		logger.InfoContext(ctx, "Rejected preferences request", log.FieldError, err)
		s.preferencesError(ctx, w, r, asJSON, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.deps.Preferences.Update(ctx, patch)
	switch {
	case preferences.IsValidationError(err):
		s.preferencesError(ctx, w, r, asJSON, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.preferencesError(ctx, w, r, asJSON, http.StatusInternalServerError, "Could not save preferences. Please try again.")
		return
	}

	if asJSON {
		writeJSON(w, r, http.StatusOK, s.preferencesResponse(ctx, updated))
		return
	}
	redirect(w, r, "/settings?saved=1")
}

func (s *Server) preferencesError(ctx context.Context, w http.ResponseWriter, r *http.Request, asJSON bool, status int, msg string) {
	if asJSON {
		writeJSONError(w, r, status, msg)
		return
	}
	prefs := s.deps.Preferences.Preferences()
	theme := s.deps.Preferences.Theme(ctx)
	s.renderPage(ctx, w, status, pageFor(prefs, theme),
		s.deps.Renderer.Header(prefs, theme),
		s.deps.Renderer.Settings(view.NewSettings(prefs, false, msg)),
	)
}

// handleSetTheme stores the theme chosen with the header toggle.
func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	theme, err := s.deps.Preferences.SetTheme(ctx, r.PostForm.Get("theme"))
	switch {
	case preferences.IsValidationError(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		log.FromContext(ctx).ErrorContext(ctx, "Failed to store theme", log.FieldError, err)
		http.Error(w, "could not save theme", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, map[string]core.Theme{"theme": theme})
		return
	}
	redirect(w, r, "/")
}

// handleReload replaces a faulted boundary with a fresh one and reloads
// the state the pages depend on.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s.deps.Supervisor.Reload(ctx)
	redirect(w, r, "/")
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady probes every dependency concurrently. The boundary state is
// reported but a faulted boundary does not make the instance unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessWindow)
	defer cancel()

	checks := map[string]string{"boundary": s.deps.Supervisor.Current().State().String()}
	if s.deps.Renderer == nil {
		checks["templates"] = "failed: templates not loaded"
	} else {
		checks["templates"] = "ok"
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range s.deps.Ready {
		g.Go(func() error {
			result := "ok"
			if err := c.Check(gctx); err != nil {
				result = "failed: " + err.Error()
			}
			mu.Lock()
			checks[c.Name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status, code := "ready", http.StatusOK
	for name, result := range checks {
		if name != "boundary" && result != "ok" {
			status, code = "not_ready", http.StatusServiceUnavailable
			break
		}
	}
	if code != http.StatusOK {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "checks", checks)
	}

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
