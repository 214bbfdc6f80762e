// Package google reads dashboard data from a yearly Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financetrack/internal/config"
	"financetrack/internal/core"
	"financetrack/internal/log"
	ports "financetrack/internal/sheets"
)

// dashboardRange covers the header row plus category rows and 12 month columns.
const dashboardRange = "A1:Q80"

// valuesGetter reads a range of cell values; satisfied by the Sheets API.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type sheetsAPI struct{ svc *gsheet.Service }

func (a sheetsAPI) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

type Client struct {
	values        valuesGetter
	spreadsheetID string
	// Base name without year (e.g. "Dashboard"); the current year is prefixed.
	dashboardBase string
	now           func() time.Time
	logger        *log.Logger
}

var _ ports.DashboardReader = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.GoogleSpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	logger = logger.WithComponent(log.ComponentSheets)

	credentialsJSON, err := serviceAccountCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.Info("Google Sheets service created", "sheet", cfg.DashboardSheetName)

	return newClient(sheetsAPI{svc: svc}, spreadsheetID, cfg.DashboardSheetName, logger), nil
}

func newClient(values valuesGetter, spreadsheetID, dashboardBase string, logger *log.Logger) *Client {
	if strings.TrimSpace(dashboardBase) == "" {
		dashboardBase = "Dashboard"
	}
	return &Client{
		values:        values,
		spreadsheetID: spreadsheetID,
		dashboardBase: dashboardBase,
		now:           time.Now,
		logger:        logger,
	}
}

// serviceAccountCredentials returns inline JSON, the file contents, or the
// file named by GOOGLE_APPLICATION_CREDENTIALS, in that order.
func serviceAccountCredentials(cfg *config.Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.GoogleServiceAccountJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.GoogleServiceAccountFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

func (c *Client) read(ctx context.Context) (dashboard, error) {
	now := c.now()
	sheetName := yearPrefixedName(c.dashboardBase, now.Year())
	rng := fmt.Sprintf("%s!%s", sheetName, dashboardRange)

	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return dashboard{}, fmt.Errorf("read %s: %w", rng, err)
	}
	d, err := parseDashboard(values, int(now.Month()))
	if err != nil {
		c.logger.WarnContext(ctx, "Dashboard sheet has an unexpected layout",
			"sheet", sheetName, log.FieldError, err)
		return dashboard{}, err
	}
	return d, nil
}

// SpendingByCategory returns the current month's column of the dashboard tab.
func (c *Client) SpendingByCategory(ctx context.Context) ([]core.SpendingByCategory, error) {
	d, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return d.categories, nil
}

// MonthlyTrend returns the last months rows of the current year.
func (c *Client) MonthlyTrend(ctx context.Context, months int) ([]core.MonthlyTrend, error) {
	d, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	return ports.LastN(d.trend, months), nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
