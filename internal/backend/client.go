// Package backend connects the dashboard to its hosted data service, a
// PostgREST endpoint authenticated with a public API key.
package backend

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/supabase-community/postgrest-go"

	"financetrack/internal/config"
	"financetrack/internal/core"
	"financetrack/internal/log"
	"financetrack/internal/sheets"
)

const (
	PlaceholderURL = "https://placeholder.supabase.co"
	PlaceholderKey = "placeholder-key"

	restPath       = "/rest/v1/"
	requestTimeout = 10 * time.Second
)

// ErrPlaceholderBackend is returned by every query of a client built
// without real credentials. No request is sent. It matches
// sheets.ErrUnavailable.
var ErrPlaceholderBackend = fmt.Errorf("%w: running with placeholder credentials", sheets.ErrUnavailable)

// Client is a handle to the hosted backend.
type Client struct {
	baseURL     string
	placeholder bool
	rest        *postgrest.Client
}

var _ sheets.DashboardReader = (*Client)(nil)

// NewClient builds a handle for baseURL and apiKey. Either being empty
// selects the placeholder values and marks the client degraded.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)

	c := &Client{baseURL: baseURL}
	if baseURL == "" || apiKey == "" {
		c.baseURL = PlaceholderURL
		apiKey = PlaceholderKey
		c.placeholder = true
	}
	c.rest = postgrest.NewClient(c.baseURL+restPath, "", map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})
	return c
}

var shared struct {
	once   sync.Once
	client *Client
}

// Shared returns the process-wide handle, building it on first use from
// SUPABASE_URL and SUPABASE_ANON_KEY. Later calls return the same handle
// whatever cfg they pass.
func Shared(cfg *config.Config, logger *log.Logger) *Client {
	shared.once.Do(func() {
		logger = logger.WithComponent(log.ComponentBackend)
		hasURL := strings.TrimSpace(cfg.SupabaseURL) != ""
		hasKey := strings.TrimSpace(cfg.SupabaseAnonKey) != ""
		logger.Info("Backend configuration", "url_present", hasURL, "anon_key_present", hasKey)

		shared.client = NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		if shared.client.Placeholder() {
			logger.Error("Backend credentials not found",
				"SUPABASE_URL", presence(hasURL),
				"SUPABASE_ANON_KEY", presence(hasKey))
			logger.Warn("Running in demo mode with placeholder credentials; no backend data will be available")
		}
	})
	return shared.client
}

func presence(ok bool) string {
	if ok {
		return "set"
	}
	return "missing"
}

// Placeholder reports whether the client runs without real credentials.
func (c *Client) Placeholder() bool {
	return c.placeholder
}

// URL returns the base URL the client talks to.
func (c *Client) URL() string {
	return c.baseURL
}

type spendingRow struct {
	Category   string   `json:"category"`
	Amount     float64  `json:"amount"`
	Percentage *float64 `json:"percentage"`
	Color      *string  `json:"color"`
}

type trendRow struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// SpendingByCategory reads the spending_by_category view. Percentages are
// computed from amounts when the view does not provide them.
func (c *Client) SpendingByCategory(ctx context.Context) ([]core.SpendingByCategory, error) {
	var rows []spendingRow
	q := c.rest.From("spending_by_category").
		Select("category,amount,percentage,color", "", false).
		Order("amount", &postgrest.OrderOpts{Ascending: false})
	if err := c.run(ctx, "spending_by_category", q, &rows); err != nil {
		return nil, err
	}

	out := make([]core.SpendingByCategory, 0, len(rows))
	computed := false
	for _, r := range rows {
		s := core.SpendingByCategory{Category: r.Category, Amount: r.Amount}
		if r.Percentage != nil {
			s.Percentage = *r.Percentage
		} else {
			computed = true
		}
		if r.Color != nil {
			s.Color = *r.Color
		}
		out = append(out, s)
	}
	if computed {
		out = core.WithPercentages(out)
	}
	return out, nil
}

// MonthlyTrend reads the latest months rows of the monthly_trends view and
// returns them oldest first.
func (c *Client) MonthlyTrend(ctx context.Context, months int) ([]core.MonthlyTrend, error) {
	var rows []trendRow
	q := c.rest.From("monthly_trends").
		Select("month,income,expenses", "", false).
		Order("period", &postgrest.OrderOpts{Ascending: false})
	if months > 0 {
		q = q.Limit(months, "")
	}
	if err := c.run(ctx, "monthly_trends", q, &rows); err != nil {
		return nil, err
	}

	out := make([]core.MonthlyTrend, len(rows))
	for i, r := range rows {
		out[i] = core.MonthlyTrend{Month: r.Month, Income: r.Income, Expenses: r.Expenses}
	}
	slices.Reverse(out)
	return out, nil
}

// Ping checks that the endpoint answers a one-row query with the
// configured key.
func (c *Client) Ping(ctx context.Context) error {
	var rows []trendRow
	q := c.rest.From("monthly_trends").Select("month", "", false).Limit(1, "")
	if err := c.run(ctx, "monthly_trends", q, &rows); err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	return nil
}

// run executes q into dst. The query library takes no context, so the
// caller stops waiting when ctx ends or requestTimeout passes.
func (c *Client) run(ctx context.Context, table string, q *postgrest.FilterBuilder, dst any) error {
	if c.placeholder {
		return ErrPlaceholderBackend
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := q.ExecuteTo(dst)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("query %s: %w", table, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("query %s: %w", table, ctx.Err())
	}
}
