package backend

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financetrack/internal/config"
	"financetrack/internal/log"
)

func resetShared(t *testing.T) {
	t.Helper()
	shared.once = sync.Once{}
	shared.client = nil
	t.Cleanup(func() {
		shared.once = sync.Once{}
		shared.client = nil
	})
}

func TestNewClient_Placeholder(t *testing.T) {
	tests := []struct {
		name, url, key string
		placeholder    bool
	}{
		{name: "both set", url: "https://x.supabase.co", key: "k", placeholder: false},
		{name: "url missing", url: "", key: "k", placeholder: true},
		{name: "key missing", url: "https://x.supabase.co", key: "", placeholder: true},
		{name: "both missing", placeholder: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.url, tt.key)
			assert.Equal(t, tt.placeholder, c.Placeholder())
			if tt.placeholder {
				assert.Equal(t, PlaceholderURL, c.URL())
			}
		})
	}
}

func TestShared_BuildsOnceAndWarns(t *testing.T) {
	resetShared(t)
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})

	first := Shared(&config.Config{}, logger)
	second := Shared(&config.Config{SupabaseURL: "https://real.supabase.co", SupabaseAnonKey: "k"}, logger)

	assert.Same(t, first, second, "later calls return the same handle")
	assert.True(t, first.Placeholder())
	out := buf.String()
	assert.Contains(t, out, "url_present=false")
	assert.Contains(t, out, "anon_key_present=false")
	assert.Contains(t, out, "placeholder credentials")
	assert.Equal(t, 1, strings.Count(out, "Backend configuration"), "configuration logged once")
}

func TestShared_Concurrent(t *testing.T) {
	resetShared(t)
	cfg := &config.Config{SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "k"}

	var wg sync.WaitGroup
	handles := make([]*Client, 16)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = Shared(cfg, log.Discard())
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.False(t, handles[0].Placeholder())
}

func TestPlaceholder_FailsFastWithoutNetwork(t *testing.T) {
	c := NewClient("", "")
	_, err := c.SpendingByCategory(context.Background())
	assert.True(t, errors.Is(err, ErrPlaceholderBackend))
	_, err = c.MonthlyTrend(context.Background(), 6)
	assert.True(t, errors.Is(err, ErrPlaceholderBackend))
	assert.True(t, errors.Is(c.Ping(context.Background()), ErrPlaceholderBackend))
}

func TestSpendingByCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/spending_by_category", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"category":"Rent","amount":300},{"category":"Food","amount":100,"color":"#fff"}]`))
	}))
	defer srv.Close()

	rows, err := NewClient(srv.URL, "anon").SpendingByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 75.0, rows[0].Percentage)
	assert.Equal(t, 25.0, rows[1].Percentage)
	assert.Equal(t, "#fff", rows[1].Color)
}

func TestMonthlyTrend_Chronological(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/rest/v1/monthly_trends", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"month":"Mar","income":3,"expenses":1},{"month":"Feb","income":2,"expenses":1},{"month":"Jan","income":1,"expenses":1}]`))
	}))
	defer srv.Close()

	rows, err := NewClient(srv.URL, "anon").MonthlyTrend(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, []string{rows[0].Month, rows[1].Month, rows[2].Month})
	assert.EqualValues(t, 1, calls.Load(), "no retries")
}

func TestQuery_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "anon").SpendingByCategory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query spending_by_category")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/monthly_trends", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL, "anon").Ping(context.Background()))
}

func TestQuery_StopsWaitingWhenContextEnds(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, "anon").SpendingByCategory(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDashboardReader(t *testing.T) {
	resetShared(t)

	r, err := NewDashboardReader(context.Background(), &config.Config{DataBackend: "memory", SeedFile: t.TempDir() + "/none.toml"}, log.Discard())
	require.NoError(t, err)
	rows, err := r.SpendingByCategory(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	r, err = NewDashboardReader(context.Background(), &config.Config{DataBackend: "hosted"}, log.Discard())
	require.NoError(t, err)
	assert.True(t, r.(*Client).Placeholder())

	_, err = NewDashboardReader(context.Background(), &config.Config{DataBackend: "ftp"}, log.Discard())
	assert.Error(t, err)
}
