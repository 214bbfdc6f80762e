package view

import (
	"math"
	"slices"

	"financetrack/internal/core"
)

const (
	maxPlottedMonths = 12

	chartWidth   = 600.0
	chartHeight  = 260.0
	chartPadLeft = 50.0
	chartPadTop  = 10.0
	chartPadBot  = 24.0
	chartPadRt   = 10.0

	IncomeColor   = "#10b981"
	ExpensesColor = "#f43f5e"
)

// ChartTick is a labelled y-axis grid line.
type ChartTick struct {
	Y     float64
	Label string
}

// ChartPoint is one month on the x axis. Tooltip is shown on hover.
type ChartPoint struct {
	X         float64
	IncomeY   float64
	ExpensesY float64
	Month     string
	Tooltip   string
}

// SpendingChartView is the "Income vs Expenses" card.
type SpendingChartView struct {
	Empty bool
	// EarlierMonths counts rows left out of the plot.
	EarlierMonths int

	Width     float64
	Height    float64
	PlotLeft  float64
	PlotRight float64
	Baseline  float64

	IncomeLine   string
	IncomeArea   string
	ExpensesLine string
	ExpensesArea string
	Points       []ChartPoint
	Ticks        []ChartTick

	// NetFlow is the absolute net over the plotted months; NetPositive
	// picks the up or down badge.
	NetFlow     string
	NetPositive bool
	SavingsRate int
}

// NewSpendingChart builds the card from trend rows in chronological order.
// Only the last twelve months are plotted; the badge and the savings rate
// cover the plotted months. Rows with NaN or infinite values are left out.
func NewSpendingChart(rows []core.MonthlyTrend, p core.Preferences) SpendingChartView {
	rows = slices.DeleteFunc(slices.Clone(rows), func(r core.MonthlyTrend) bool {
		return !core.IsFinite(r.Income) || !core.IsFinite(r.Expenses)
	})
	v := SpendingChartView{
		Width:     chartWidth,
		Height:    chartHeight,
		PlotLeft:  chartPadLeft,
		PlotRight: chartWidth - chartPadRt,
		Baseline:  chartHeight - chartPadBot,
	}
	if len(rows) == 0 {
		v.Empty = true
		return v
	}
	if len(rows) > maxPlottedMonths {
		v.EarlierMonths = len(rows) - maxPlottedMonths
		rows = rows[len(rows)-maxPlottedMonths:]
	}

	summary := core.SummarizeTrend(rows)
	v.NetFlow = p.FormatCurrency(math.Abs(summary.Net))
	v.NetPositive = summary.Net >= 0
	v.SavingsRate = summary.SavingsRate

	maxVal := 0.0
	for _, r := range rows {
		maxVal = math.Max(maxVal, math.Max(r.Income, r.Expenses))
	}
	ticks := axisTicks(maxVal)
	ceiling := ticks[len(ticks)-1]

	plotH := v.Baseline - chartPadTop
	y := func(val float64) float64 {
		if val < 0 {
			val = 0
		}
		return v.Baseline - val/ceiling*plotH
	}
	for _, t := range ticks {
		v.Ticks = append(v.Ticks, ChartTick{Y: y(t), Label: tickLabel(t)})
	}

	plotW := v.PlotRight - v.PlotLeft
	xs := make([]float64, len(rows))
	incomeYs := make([]float64, len(rows))
	expenseYs := make([]float64, len(rows))
	for i, r := range rows {
		x := v.PlotLeft + plotW/2
		if len(rows) > 1 {
			x = v.PlotLeft + plotW*float64(i)/float64(len(rows)-1)
		}
		xs[i], incomeYs[i], expenseYs[i] = x, y(r.Income), y(r.Expenses)
		v.Points = append(v.Points, ChartPoint{
			X:         x,
			IncomeY:   incomeYs[i],
			ExpensesY: expenseYs[i],
			Month:     r.Month,
			Tooltip:   pointTooltip(r, p),
		})
	}

	v.IncomeLine = linePath(xs, incomeYs)
	v.IncomeArea = areaPath(xs, incomeYs, v.Baseline)
	v.ExpensesLine = linePath(xs, expenseYs)
	v.ExpensesArea = areaPath(xs, expenseYs, v.Baseline)
	return v
}

func pointTooltip(r core.MonthlyTrend, p core.Preferences) string {
	net := r.Net()
	sign := ""
	if net >= 0 {
		sign = "+"
	}
	return r.Month +
		"\nIncome: " + p.FormatCurrency(r.Income) +
		"\nExpenses: " + p.FormatCurrency(r.Expenses) +
		"\nNet: " + sign + p.FormatCurrency(net)
}
