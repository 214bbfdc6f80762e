package core

import "math"

// SpendingByCategory is the amount spent in one category over the current
// period. Percentage is the category's share of the total (0-100); Color is
// an optional CSS colour for the chart slice.
type SpendingByCategory struct {
	Category   string  `json:"category" toml:"category"`
	Amount     float64 `json:"amount" toml:"amount"`
	Percentage float64 `json:"percentage" toml:"percentage"`
	Color      string  `json:"color,omitempty" toml:"color"`
}

// MonthlyTrend is the income and expense total of one calendar month.
type MonthlyTrend struct {
	Month    string  `json:"month" toml:"month"`
	Income   float64 `json:"income" toml:"income"`
	Expenses float64 `json:"expenses" toml:"expenses"`
}

// Net is income minus expenses for the month.
func (m MonthlyTrend) Net() float64 {
	return m.Income - m.Expenses
}

// TotalSpending sums the amounts of all categories.
func TotalSpending(rows []SpendingByCategory) float64 {
	var total float64
	for _, r := range rows {
		total += r.Amount
	}
	return total
}

// FlowSummary aggregates a run of monthly trend rows.
type FlowSummary struct {
	Income   float64
	Expenses float64
	Net      float64
	// SavingsRate is round(net/income*100), 0 when there is no income.
	SavingsRate int
}

// SummarizeTrend totals income and expenses over rows.
func SummarizeTrend(rows []MonthlyTrend) FlowSummary {
	var s FlowSummary
	for _, r := range rows {
		s.Income += r.Income
		s.Expenses += r.Expenses
	}
	s.Net = s.Income - s.Expenses
	if s.Income > 0 {
		s.SavingsRate = int(math.Round(s.Net / s.Income * 100))
	}
	return s
}

// WithPercentages returns a copy of rows whose Percentage is recomputed from
// the amounts. Sources that only report amounts use it; a zero total leaves
// every percentage at 0.
func WithPercentages(rows []SpendingByCategory) []SpendingByCategory {
	out := make([]SpendingByCategory, len(rows))
	copy(out, rows)
	total := TotalSpending(rows)
	if total <= 0 {
		for i := range out {
			out[i].Percentage = 0
		}
		return out
	}
	for i := range out {
		out[i].Percentage = out[i].Amount / total * 100
	}
	return out
}
