package view

import (
	"bytes"
	"context"
	"html/template"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financetrack/internal/core"
)

func usd() core.Preferences { return core.DefaultPreferences() }

func sevenCategories() []core.SpendingByCategory {
	return []core.SpendingByCategory{
		{Category: "Housing", Amount: 1500, Percentage: 45.4},
		{Category: "Food", Amount: 600, Percentage: 18.2, Color: "#123456"},
		{Category: "Transport", Amount: 400, Percentage: 12.1},
		{Category: "Utilities", Amount: 300, Percentage: 9.1},
		{Category: "Leisure", Amount: 250, Percentage: 7.6},
		{Category: "Health", Amount: 150, Percentage: 4.5},
		{Category: "Other", Amount: 100, Percentage: 3.0},
	}
}

func TestNewHeader(t *testing.T) {
	p := usd()
	h := NewHeader(p, core.ThemeDark)
	assert.Equal(t, "Personal Finance Tracker", h.Title)
	assert.True(t, h.BellDot)
	assert.Equal(t, core.ThemeSystem, h.NextTheme)

	p.Notifications = false
	h = NewHeader(p, "")
	assert.False(t, h.BellDot)
	assert.Equal(t, core.ThemeSystem, h.Theme)
	assert.Equal(t, core.ThemeLight, h.NextTheme)
}

func TestNewBudgetOverview_Empty(t *testing.T) {
	v := NewBudgetOverview(nil, usd())
	assert.True(t, v.Empty)
	assert.Empty(t, v.Slices)
	assert.Empty(t, v.Items)
	assert.Zero(t, v.MoreCount)
}

func TestNewBudgetOverview_ListsFirstFive(t *testing.T) {
	v := NewBudgetOverview(sevenCategories(), usd())

	require.Len(t, v.Items, 5)
	assert.Equal(t, 2, v.MoreCount)
	assert.Len(t, v.Slices, 7)
	assert.Equal(t, "$3,300.00", v.Total)

	assert.Equal(t, CategoryItem{Category: "Housing", Amount: "$1,500.00", Percentage: "45%", Color: Palette[0]}, v.Items[0])
	assert.Equal(t, "#123456", v.Items[1].Color, "row colour wins over the palette")
	assert.Equal(t, Palette[2], v.Items[2].Color)
	assert.Equal(t, "Housing: $1,500.00 (45.4%)", v.Slices[0].Tooltip)
}

func TestViewsSkipNonFiniteRows(t *testing.T) {
	budget := NewBudgetOverview([]core.SpendingByCategory{
		{Category: "Rent", Amount: math.Inf(1), Percentage: math.NaN()},
		{Category: "Food", Amount: 40, Percentage: 100},
	}, usd())
	require.Len(t, budget.Items, 1)
	assert.Equal(t, "Food", budget.Items[0].Category)
	assert.Equal(t, "$40.00", budget.Total)

	chart := NewSpendingChart([]core.MonthlyTrend{
		{Month: "Jan", Income: math.NaN(), Expenses: 1},
	}, usd())
	assert.True(t, chart.Empty)
}

func TestNewBudgetOverview_PaletteWraps(t *testing.T) {
	rows := make([]core.SpendingByCategory, 10)
	for i := range rows {
		rows[i] = core.SpendingByCategory{Category: "c", Amount: 1}
	}
	v := NewBudgetOverview(rows, usd())
	assert.Equal(t, Palette[0], v.Slices[8].Color)
	assert.Equal(t, Palette[1], v.Slices[9].Color)
}

func TestNewBudgetOverview_ZeroTotal(t *testing.T) {
	rows := []core.SpendingByCategory{{Category: "Food"}, {Category: "Rent"}}
	v := NewBudgetOverview(rows, usd())

	assert.False(t, v.Empty)
	assert.Empty(t, v.Slices, "nothing to draw when the total is zero")
	assert.Len(t, v.Items, 2)
	assert.Equal(t, "$0.00", v.Total)
	assert.Equal(t, "0%", v.Items[0].Percentage)
}

func TestNewBudgetOverview_SingleCategoryIsFullRing(t *testing.T) {
	v := NewBudgetOverview([]core.SpendingByCategory{{Category: "Rent", Amount: 900, Percentage: 100}}, usd())
	require.Len(t, v.Slices, 1)
	assert.Equal(t, 4, strings.Count(v.Slices[0].Path, "A"), "full ring is drawn as two arcs per edge")
	assert.NotContains(t, v.Slices[0].Path, "NaN")
}

func TestNewBudgetOverview_FormatsInPreferredCurrency(t *testing.T) {
	p := usd()
	p.Currency = "EUR"
	v := NewBudgetOverview([]core.SpendingByCategory{{Category: "Food", Amount: 12.5, Percentage: 100}}, p)
	assert.Equal(t, "12,50\u00a0€", v.Total)
}

func trend() []core.MonthlyTrend {
	return []core.MonthlyTrend{
		{Month: "Jan", Income: 2500, Expenses: 2000},
		{Month: "Feb", Income: 2500, Expenses: 2000},
	}
}

func TestNewSpendingChart_Empty(t *testing.T) {
	v := NewSpendingChart(nil, usd())
	assert.True(t, v.Empty)
	assert.Empty(t, v.Points)
	assert.Zero(t, v.SavingsRate)
}

func TestNewSpendingChart_Summary(t *testing.T) {
	v := NewSpendingChart(trend(), usd())

	assert.False(t, v.Empty)
	assert.Equal(t, 20, v.SavingsRate)
	assert.True(t, v.NetPositive)
	assert.Equal(t, "$1,000.00", v.NetFlow)
	require.Len(t, v.Points, 2)
	assert.Equal(t, "Jan\nIncome: $2,500.00\nExpenses: $2,000.00\nNet: +$500.00", v.Points[0].Tooltip)
}

func TestNewSpendingChart_NegativeNet(t *testing.T) {
	rows := []core.MonthlyTrend{{Month: "Mar", Income: 1000, Expenses: 1500}}
	v := NewSpendingChart(rows, usd())

	assert.False(t, v.NetPositive)
	assert.Equal(t, "$500.00", v.NetFlow, "badge shows the absolute value")
	assert.Equal(t, -50, v.SavingsRate)
	assert.Contains(t, v.Points[0].Tooltip, "Net: -$500.00")
}

func TestNewSpendingChart_NoIncome(t *testing.T) {
	rows := []core.MonthlyTrend{{Month: "Jan"}, {Month: "Feb", Expenses: 300}}
	v := NewSpendingChart(rows, usd())
	assert.Zero(t, v.SavingsRate)
	assert.NotContains(t, v.IncomeLine+v.ExpensesLine+v.IncomeArea, "NaN")
}

func TestNewSpendingChart_AllZero(t *testing.T) {
	v := NewSpendingChart([]core.MonthlyTrend{{Month: "Jan"}}, usd())
	assert.NotContains(t, v.IncomeArea, "NaN")
	assert.NotContains(t, v.IncomeArea, "Inf")
	assert.Equal(t, v.Baseline, v.Points[0].IncomeY)
}

func TestNewSpendingChart_KeepsLastTwelve(t *testing.T) {
	rows := make([]core.MonthlyTrend, 14)
	for i := range rows {
		rows[i] = core.MonthlyTrend{Month: string(rune('a' + i)), Income: 100, Expenses: 50}
	}
	v := NewSpendingChart(rows, usd())

	assert.Equal(t, 2, v.EarlierMonths)
	require.Len(t, v.Points, 12)
	assert.Equal(t, "c", v.Points[0].Month)
	assert.Equal(t, "n", v.Points[11].Month)
}

func TestNewSpendingChart_Ticks(t *testing.T) {
	v := NewSpendingChart([]core.MonthlyTrend{{Month: "Jan", Income: 5000, Expenses: 3200}}, usd())

	var labels []string
	for _, tk := range v.Ticks {
		labels = append(labels, tk.Label)
	}
	assert.Equal(t, []string{"0", "1k", "2k", "3k", "4k", "5k"}, labels)
	assert.Equal(t, v.Baseline, v.Ticks[0].Y)
}

func TestTickLabel(t *testing.T) {
	tests := map[float64]string{0: "0", 200: "200", 950: "950", 1000: "1k", 2500: "3k", 12000: "12k"}
	for in, want := range tests {
		assert.Equal(t, want, tickLabel(in), "tickLabel(%v)", in)
	}
}

func TestNewSettings(t *testing.T) {
	p := usd()
	p.Currency = "GBP"
	p.DateFormat = "dd.MM.yyyy"
	v := NewSettings(p, true, "")

	assert.True(t, v.Saved)
	assert.Equal(t, "£1,234.50", v.Sample)
	require.Len(t, v.Currencies, 5)
	assert.True(t, v.Currencies[2].Selected)
	last := v.DateFormats[len(v.DateFormats)-1]
	assert.Equal(t, Option{Value: "dd.MM.yyyy", Label: "dd.MM.yyyy", Selected: true}, last)
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func TestRenderer_BudgetOverview(t *testing.T) {
	r := newTestRenderer(t)

	c := r.BudgetOverview(sevenCategories(), usd())
	assert.Equal(t, ComponentBudgetOverview, c.Name)

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	html := buf.String()
	assert.Contains(t, html, "Spending by Category")
	assert.Contains(t, html, "+2 more categories")
	assert.Contains(t, html, "Housing")
	assert.Equal(t, 5, strings.Count(html, "category-list__item\""), "only the first five are listed")

	buf.Reset()
	require.NoError(t, r.BudgetOverview(nil, usd()).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No spending data yet")
	assert.Contains(t, buf.String(), "Add expenses to see your breakdown")
}

func TestRenderer_EscapesCategoryNames(t *testing.T) {
	r := newTestRenderer(t)
	rows := []core.SpendingByCategory{{Category: "<script>x</script>", Amount: 1, Percentage: 100}}

	var buf bytes.Buffer
	require.NoError(t, r.BudgetOverview(rows, usd()).Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestRenderer_SpendingChart(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.SpendingChart(trend(), usd()).Render(context.Background(), &buf))
	html := buf.String()
	assert.Contains(t, html, "Income vs Expenses")
	assert.Contains(t, html, "Savings 20%")
	assert.Contains(t, html, "badge--up")
	assert.Contains(t, html, "Last 2 months financial flow")
}

func TestRenderer_HeaderAndPage(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.Header(usd(), core.ThemeLight).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Personal Finance Tracker")
	assert.Contains(t, buf.String(), "bell-dot")
	assert.Contains(t, buf.String(), `value="dark"`)

	var page bytes.Buffer
	require.NoError(t, r.Page(&page, PageView{Theme: core.ThemeDark, Body: template.HTML(buf.String())}))
	assert.Contains(t, page.String(), `data-theme="dark"`)
	assert.Contains(t, page.String(), `lang="en-US"`)
	assert.Contains(t, page.String(), "<title>Personal Finance Tracker</title>")
	assert.Contains(t, page.String(), `<header class="header">`)
}

func TestRenderer_IgnoresCanceledContext(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	require.NoError(t, r.Header(usd(), core.ThemeLight).Render(ctx, &buf))
	assert.NotEmpty(t, buf.String())
}
