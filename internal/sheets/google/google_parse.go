package google

import (
	"fmt"
	"strconv"
	"strings"

	"financetrack/internal/core"
	"financetrack/internal/sheets"
)

// dashboard is the content of one yearly dashboard tab.
type dashboard struct {
	categories []core.SpendingByCategory
	trend      []core.MonthlyTrend
}

// parseDashboard converts a values matrix (as returned by the Sheets API)
// into category spending for month (1-12) and the income/expense trend from
// January through month. The header row must carry a category column
// ("Category" or "Primary") and the month columns Jan..Dec. An "Income" row
// gives monthly income; a "Total" or "Expenses" row gives monthly expenses,
// otherwise expenses are the sum of the category rows. When a "Secondary"
// column exists, rows with a secondary label are sub-items and are skipped.
func parseDashboard(values [][]interface{}, month int) (dashboard, error) {
	if month < 1 || month > 12 {
		return dashboard{}, fmt.Errorf("invalid month: %d", month)
	}
	if len(values) == 0 {
		return dashboard{}, nil
	}

	headers := toStrings(values[0])
	colCategory := indexOf(headers, "Category")
	if colCategory == -1 {
		colCategory = indexOf(headers, "Primary")
	}
	colSecondary := indexOf(headers, "Secondary")

	monthCols := make([]int, month)
	var missing []string
	if colCategory == -1 {
		missing = append(missing, "Category")
	}
	for m := 0; m < month; m++ {
		monthCols[m] = indexOf(headers, sheets.MonthLabels[m])
		if monthCols[m] == -1 {
			missing = append(missing, sheets.MonthLabels[m])
		}
	}
	if len(missing) > 0 {
		return dashboard{}, fmt.Errorf("unexpected dashboard header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	income := make([]float64, month)
	expenses := make([]float64, month)
	summed := make([]float64, month)
	hasTotal := false
	var categories []core.SpendingByCategory
	seen := map[string]int{}

	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		label := safeGet(row, colCategory)
		if label == "" || safeGet(row, colSecondary) != "" {
			continue
		}

		switch strings.ToLower(label) {
		case "income":
			for m, col := range monthCols {
				income[m], _ = parseAmount(safeGet(row, col))
			}
			continue
		case "total", "expenses":
			hasTotal = true
			for m, col := range monthCols {
				expenses[m], _ = parseAmount(safeGet(row, col))
			}
			continue
		}

		for m, col := range monthCols {
			if v, ok := parseAmount(safeGet(row, col)); ok {
				summed[m] += v
			}
		}
		amount, ok := parseAmount(safeGet(row, monthCols[month-1]))
		if !ok || amount <= 0 {
			continue
		}
		if idx, dup := seen[label]; dup {
			categories[idx].Amount += amount
			continue
		}
		seen[label] = len(categories)
		categories = append(categories, core.SpendingByCategory{Category: label, Amount: amount})
	}

	if !hasTotal {
		expenses = summed
	}
	trend := make([]core.MonthlyTrend, month)
	for m := range trend {
		trend[m] = core.MonthlyTrend{Month: sheets.MonthLabels[m], Income: income[m], Expenses: expenses[m]}
	}

	return dashboard{categories: core.WithPercentages(categories), trend: trend}, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmount reads a sheet cell as a non-negative finite amount. Currency
// symbols and thousands separators are ignored; a lone comma is a decimal
// comma.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "$€£₹¥ ")
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || !core.IsFinite(f) {
		return 0, false
	}
	return f, true
}
