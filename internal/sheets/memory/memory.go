// Package memory serves dashboard data held in memory, seeded from a TOML file.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/BurntSushi/toml"

	"financetrack/internal/core"
	"financetrack/internal/sheets"
)

// Seed is the layout of the seed file:
//
//	[[spending]]
//	category = "Housing"
//	amount = 1200
//
//	[[trend]]
//	month = "Jan"
//	income = 5000
//	expenses = 3200
type Seed struct {
	Spending []core.SpendingByCategory `toml:"spending"`
	Trend    []core.MonthlyTrend       `toml:"trend"`
}

type Store struct {
	mu       sync.RWMutex
	spending []core.SpendingByCategory
	trend    []core.MonthlyTrend
	// path is the seed file, empty for stores built from a Seed value.
	path string
}

var _ sheets.DashboardReader = (*Store)(nil)

func New(seed Seed) *Store {
	s := &Store{}
	s.Replace(seed)
	return s
}

// NewFromFile loads the seed at path. A missing file yields the demo data;
// a malformed one is an error.
func NewFromFile(path string) (*Store, error) {
	seed, err := readSeed(path)
	if err != nil {
		return nil, err
	}
	s := New(seed)
	s.path = path
	return s, nil
}

// ReloadFile reads the seed file again. On error the served data is kept.
// Stores not built from a file have nothing to reload.
func (s *Store) ReloadFile() error {
	if s.path == "" {
		return nil
	}
	seed, err := readSeed(s.path)
	if err != nil {
		return err
	}
	s.Replace(seed)
	return nil
}

func readSeed(path string) (Seed, error) {
	var seed Seed
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DemoSeed(), nil
		}
		return Seed{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	if err := seed.validate(); err != nil {
		return Seed{}, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}

func (seed Seed) validate() error {
	for _, r := range seed.Spending {
		if !core.IsFinite(r.Amount) || !core.IsFinite(r.Percentage) {
			return fmt.Errorf("spending %q: amount is not a finite number", r.Category)
		}
	}
	for _, r := range seed.Trend {
		if !core.IsFinite(r.Income) || !core.IsFinite(r.Expenses) {
			return fmt.Errorf("trend %q: amount is not a finite number", r.Month)
		}
	}
	return nil
}

// Replace swaps the served data. Rows holding NaN or infinite values are
// dropped. Percentages are recomputed when the seed leaves them all at zero.
func (s *Store) Replace(seed Seed) {
	spending := make([]core.SpendingByCategory, 0, len(seed.Spending))
	for _, r := range seed.Spending {
		if core.IsFinite(r.Amount) && core.IsFinite(r.Percentage) {
			spending = append(spending, r)
		}
	}
	trend := make([]core.MonthlyTrend, 0, len(seed.Trend))
	for _, r := range seed.Trend {
		if core.IsFinite(r.Income) && core.IsFinite(r.Expenses) {
			trend = append(trend, r)
		}
	}
	needPct := true
	for _, r := range spending {
		if r.Percentage != 0 {
			needPct = false
			break
		}
	}
	if needPct {
		spending = core.WithPercentages(spending)
	}

	s.mu.Lock()
	s.spending = spending
	s.trend = trend
	s.mu.Unlock()
}

func (s *Store) SpendingByCategory(_ context.Context) ([]core.SpendingByCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.SpendingByCategory(nil), s.spending...), nil
}

func (s *Store) MonthlyTrend(_ context.Context, months int) ([]core.MonthlyTrend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.MonthlyTrend(nil), sheets.LastN(s.trend, months)...), nil
}

// DemoSeed is the data served when no seed file exists.
func DemoSeed() Seed {
	return Seed{
		Spending: []core.SpendingByCategory{
			{Category: "Housing", Amount: 1450},
			{Category: "Groceries", Amount: 520.4},
			{Category: "Transport", Amount: 210},
			{Category: "Utilities", Amount: 185.75},
			{Category: "Dining Out", Amount: 160},
			{Category: "Health", Amount: 95},
			{Category: "Entertainment", Amount: 80.5},
		},
		Trend: []core.MonthlyTrend{
			{Month: "Jan", Income: 5200, Expenses: 3900},
			{Month: "Feb", Income: 5200, Expenses: 4100},
			{Month: "Mar", Income: 5350, Expenses: 3650},
			{Month: "Apr", Income: 5350, Expenses: 4400},
			{Month: "May", Income: 5500, Expenses: 3800},
			{Month: "Jun", Income: 5500, Expenses: 2700.65},
		},
	}
}
