package view

import (
	"math"
	"slices"
	"strconv"

	"financetrack/internal/core"
)

// Palette colours chart slices whose row carries no colour of its own.
var Palette = []string{
	"#f43f5e", "#10b981", "#3b82f6", "#f59e0b",
	"#8b5cf6", "#06b6d4", "#ec4899", "#84cc16",
}

const (
	maxListedCategories = 5

	donutSize  = 160.0
	donutOuter = 70.0
	donutInner = 45.0
)

// DonutSlice is one segment of the spending donut.
type DonutSlice struct {
	Path    string
	Color   string
	Tooltip string
}

// CategoryItem is one row of the legend list under the donut.
type CategoryItem struct {
	Category   string
	Amount     string
	Percentage string
	Color      string
}

// BudgetOverviewView is the "Spending by Category" card.
type BudgetOverviewView struct {
	Empty     bool
	Size      float64
	Total     string
	Slices    []DonutSlice
	Items     []CategoryItem
	MoreCount int
}

// NewBudgetOverview builds the card from the category rows. Amounts are
// formatted in the currency of p. A zero total draws no slices. Rows with
// NaN or infinite values are left out.
func NewBudgetOverview(rows []core.SpendingByCategory, p core.Preferences) BudgetOverviewView {
	v := BudgetOverviewView{Size: donutSize}
	rows = slices.DeleteFunc(slices.Clone(rows), func(r core.SpendingByCategory) bool {
		return !core.IsFinite(r.Amount) || !core.IsFinite(r.Percentage)
	})
	if len(rows) == 0 {
		v.Empty = true
		return v
	}

	total := core.TotalSpending(rows)
	v.Total = p.FormatCurrency(total)

	center := donutSize / 2
	angle := 0.0
	for i, r := range rows {
		color := sliceColor(r, i)
		if i < maxListedCategories {
			v.Items = append(v.Items, CategoryItem{
				Category:   r.Category,
				Amount:     p.FormatCurrency(r.Amount),
				Percentage: strconv.FormatFloat(r.Percentage, 'f', 0, 64) + "%",
				Color:      color,
			})
		}
		if total <= 0 || r.Amount <= 0 {
			continue
		}
		sweep := r.Amount / total * 2 * math.Pi
		v.Slices = append(v.Slices, DonutSlice{
			Path:    donutArc(center, center, donutOuter, donutInner, angle, angle+sweep),
			Color:   color,
			Tooltip: r.Category + ": " + p.FormatCurrency(r.Amount) + " (" + strconv.FormatFloat(r.Percentage, 'f', 1, 64) + "%)",
		})
		angle += sweep
	}
	if n := len(rows) - maxListedCategories; n > 0 {
		v.MoreCount = n
	}
	return v
}

func sliceColor(r core.SpendingByCategory, i int) string {
	if r.Color != "" {
		return r.Color
	}
	return Palette[i%len(Palette)]
}
