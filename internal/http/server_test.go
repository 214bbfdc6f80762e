package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"financetrack/internal/boundary"
	"financetrack/internal/core"
	"financetrack/internal/log"
	"financetrack/internal/preferences"
	"financetrack/internal/ratelimit"
	"financetrack/internal/sheets"
	"financetrack/internal/sheets/memory"
	"financetrack/internal/storage"
	"financetrack/internal/view"
)

type failingReader struct{ err error }

func (f failingReader) SpendingByCategory(context.Context) ([]core.SpendingByCategory, error) {
	return nil, f.err
}

func (f failingReader) MonthlyTrend(context.Context, int) ([]core.MonthlyTrend, error) {
	return nil, f.err
}

type testServer struct {
	*Server
	prefs *preferences.Store
	store *storage.MemoryStore
}

func newTestServer(t *testing.T, reader sheets.DashboardReader, rateLimit int) *testServer {
	t.Helper()

	logger := log.Discard()
	store := storage.NewMemoryStore()
	prefs := preferences.New(store, logger)

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	limiter := ratelimit.NewMemoryLimiter(time.Hour)
	t.Cleanup(limiter.Stop)

	sup := boundary.NewSupervisor(func() *boundary.Boundary { return boundary.New(logger) }, logger,
		func(ctx context.Context) { prefs.Reload(ctx) })

	srv := NewServer(":0", Dependencies{
		Preferences: prefs,
		Dashboard:   reader,
		Supervisor:  sup,
		Renderer:    renderer,
		Limiter:     limiter,
		Logger:      logger,
		DataBackend: "memory",
		TrendMonths: 6,
		RateLimit:   rateLimit,
		Ready: []ReadinessCheck{
			{Name: "storage", Check: store.Ping},
		},
	})
	return &testServer{Server: srv, prefs: prefs, store: store}
}

func seededReader() *memory.Store {
	return memory.New(memory.Seed{
		Spending: []core.SpendingByCategory{
			{Category: "Housing", Amount: 1200, Percentage: 60},
			{Category: "Food", Amount: 800, Percentage: 40},
		},
		Trend: []core.MonthlyTrend{
			{Month: "May", Income: 5000, Expenses: 4000},
			{Month: "Jun", Income: 5000, Expenses: 4000},
		},
	})
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var formHeader = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
var jsonHeader = map[string]string{"Content-Type": "application/json"}

func TestDashboardRendersAllComponents(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)

	rr := do(t, srv.Handler, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET / status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Personal Finance Tracker",
		"Income vs Expenses",
		"Savings 20%",
		"Spending by Category",
		"$2,000.00",
		"Housing",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard body missing %q", want)
		}
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing security headers")
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Errorf("missing request ID header")
	}
}

func TestDashboardFormatsInPreferredCurrency(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)
	if _, err := srv.prefs.Update(context.Background(), core.PreferencesPatch{Currency: ptr("EUR")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rr := do(t, srv.Handler, http.MethodGet, "/", nil, nil)
	if !strings.Contains(rr.Body.String(), "2.000,00\u00a0€") {
		t.Fatalf("expected euro total in body")
	}
	if !strings.Contains(rr.Body.String(), `lang="de-DE"`) {
		t.Fatalf("expected page language to follow the currency locale")
	}
}

func TestDashboardDataSourceFailureShowsEmptyStates(t *testing.T) {
	srv := newTestServer(t, failingReader{err: errors.New("boom")}, 60)

	rr := do(t, srv.Handler, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with empty states, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No spending data yet") {
		t.Fatalf("expected spending empty state")
	}
	if !strings.Contains(rr.Body.String(), "No trend data yet") {
		t.Fatalf("expected trend empty state")
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)
	rr := do(t, srv.Handler, http.MethodGet, "/nope", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestFaultedBoundaryShowsFallbackUntilReload(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)

	// Trip the live boundary the way a broken component would.
	err := srv.deps.Supervisor.Current().Render(context.Background(), io.Discard, boundary.Component{
		Name:   "broken",
		Render: func(context.Context, io.Writer) error { panic("nil map write") },
	})
	if !errors.Is(err, boundary.ErrFallbackRendered) {
		t.Fatalf("expected fallback, got %v", err)
	}

	for _, path := range []string{"/", "/settings"} {
		rr := do(t, srv.Handler, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("GET %s status=%d, want 500", path, rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, "Something went wrong") || !strings.Contains(body, "nil map write") {
			t.Fatalf("GET %s body missing fallback: %s", path, body)
		}
		if strings.Contains(body, "Spending by Category") {
			t.Fatalf("GET %s rendered children while faulted", path)
		}
	}

	rr := do(t, srv.Handler, http.MethodGet, "/readyz", nil, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"boundary":"faulted"`) {
		t.Fatalf("readyz status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv.Handler, http.MethodPost, "/reload", nil, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("POST /reload status=%d", rr.Code)
	}

	rr = do(t, srv.Handler, http.MethodGet, "/", nil, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Spending by Category") {
		t.Fatalf("dashboard not restored after reload: %d", rr.Code)
	}
}

func TestReloadPicksUpStoredPreferences(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)
	if err := srv.store.Set(context.Background(), preferences.Key, []byte(`{"currency":"GBP"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	do(t, srv.Handler, http.MethodPost, "/reload", nil, nil)

	if got := srv.prefs.Preferences().Currency; got != "GBP" {
		t.Fatalf("currency after reload = %q, want GBP", got)
	}
}

func TestUpdatePreferencesJSON(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)

	rr := do(t, srv.Handler, http.MethodPost, "/preferences", strings.NewReader(`{"currency":"EUR","emailAlerts":false}`), jsonHeader)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got struct {
		Currency       string `json:"currency"`
		EmailAlerts    bool   `json:"emailAlerts"`
		Notifications  bool   `json:"notifications"`
		CurrencySymbol string `json:"currencySymbol"`
		Theme          string `json:"theme"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Currency != "EUR" || got.EmailAlerts || !got.Notifications || got.CurrencySymbol != "€" || got.Theme != "system" {
		t.Fatalf("unexpected response %+v", got)
	}

	rr = do(t, srv.Handler, http.MethodGet, "/api/preferences", nil, nil)
	if !strings.Contains(rr.Body.String(), `"currency":"EUR"`) {
		t.Fatalf("snapshot not updated: %s", rr.Body.String())
	}
}

func TestUpdatePreferencesRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)

	tests := []struct {
		name   string
		body   string
		header map[string]string
		want   int
	}{
		{name: "unsupported currency", body: `{"currency":"XYZ"}`, header: jsonHeader, want: http.StatusUnprocessableEntity},
		{name: "unknown field", body: `{"colour":"red"}`, header: jsonHeader, want: http.StatusBadRequest},
		{name: "malformed json", body: `{"currency":`, header: jsonHeader, want: http.StatusBadRequest},
		{name: "empty patch", body: `{}`, header: jsonHeader, want: http.StatusBadRequest},
		{name: "bad checkbox", body: "notifications=maybe", header: formHeader, want: http.StatusBadRequest},
		{name: "form currency", body: "currency=ABC", header: formHeader, want: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv.Handler, http.MethodPost, "/preferences", strings.NewReader(tt.body), tt.header)
			if rr.Code != tt.want {
				t.Fatalf("status=%d, want %d; body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
	if got := srv.prefs.Preferences(); got != core.DefaultPreferences() {
		t.Fatalf("rejected requests changed preferences: %+v", got)
	}
}

func TestUpdatePreferencesForm(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)

	form := "currency=INR&dateFormat=dd%2FMM%2Fyyyy&notifications=false&notifications=true&emailAlerts=false&budgetAlerts=false"
	rr := do(t, srv.Handler, http.MethodPost, "/preferences", strings.NewReader(form), formHeader)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/settings?saved=1" {
		t.Fatalf("status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	want := core.Preferences{Currency: "INR", DateFormat: "dd/MM/yyyy", Notifications: true}
	if got := srv.prefs.Preferences(); got != want {
		t.Fatalf("preferences = %+v, want %+v", got, want)
	}

	rr = do(t, srv.Handler, http.MethodGet, "/settings?saved=1", nil, nil)
	if !strings.Contains(rr.Body.String(), "Preferences saved") {
		t.Fatalf("settings page missing confirmation")
	}
}

func TestSetTheme(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)

	rr := do(t, srv.Handler, http.MethodPost, "/theme", strings.NewReader("theme=dark"), formHeader)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d", rr.Code)
	}
	rr = do(t, srv.Handler, http.MethodGet, "/", nil, nil)
	if !strings.Contains(rr.Body.String(), `data-theme="dark"`) {
		t.Fatalf("theme not applied")
	}

	rr = do(t, srv.Handler, http.MethodPost, "/theme", strings.NewReader("theme=neon"), formHeader)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid theme status=%d", rr.Code)
	}
}

func TestPostRateLimit(t *testing.T) {
	srv := newTestServer(t, seededReader(), 2)

	for i := 0; i < 2; i++ {
		rr := do(t, srv.Handler, http.MethodPost, "/theme", strings.NewReader("theme=light"), formHeader)
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := do(t, srv.Handler, http.MethodPost, "/theme", strings.NewReader("theme=light"), formHeader)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}

	if rr := do(t, srv.Handler, http.MethodGet, "/", nil, nil); rr.Code != http.StatusOK {
		t.Fatalf("GET must not be rate limited, got %d", rr.Code)
	}
}

func TestHealthReadyMetricsStatic(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/static/app.css"} {
		rr := do(t, srv.Handler, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)
	if err := srv.store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rr := do(t, srv.Handler, http.MethodGet, "/readyz", nil, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"storage":"failed`) {
		t.Fatalf("body=%s", rr.Body.String())
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, seededReader(), 60)
	const id = "0b4c3f4e-7a57-4a53-9d55-3c0b5d1b6f10"

	rr := do(t, srv.Handler, http.MethodGet, "/healthz", nil, map[string]string{requestIDHeader: id})
	if got := rr.Header().Get(requestIDHeader); got != id {
		t.Fatalf("request ID = %q, want %q", got, id)
	}

	rr = do(t, srv.Handler, http.MethodGet, "/healthz", nil, map[string]string{requestIDHeader: "not-a-uuid"})
	if got := rr.Header().Get(requestIDHeader); got == "not-a-uuid" || got == "" {
		t.Fatalf("malformed request ID was reused: %q", got)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{name: "direct", remote: "203.0.113.9:5000", want: "203.0.113.9"},
		{name: "untrusted proxy header ignored", remote: "203.0.113.9:5000", xff: "1.2.3.4", want: "203.0.113.9"},
		{name: "trusted proxy", remote: "10.0.0.2:5000", xff: "198.51.100.7, 10.0.0.2", want: "198.51.100.7"},
		{name: "trusted proxy bad header", remote: "10.0.0.2:5000", xff: "garbage", want: "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Fatalf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSuspicious(t *testing.T) {
	if !isSuspicious(httptest.NewRequest(http.MethodGet, "/.env", nil)) {
		t.Fatal("expected .env probe to be flagged")
	}
	if isSuspicious(httptest.NewRequest(http.MethodGet, "/settings", nil)) {
		t.Fatal("settings page flagged")
	}
}

func ptr[T any](v T) *T { return &v }
