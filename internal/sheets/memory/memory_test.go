package memory

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"financetrack/internal/core"
)

func TestNewFromFile_MissingUsesDemo(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	rows, _ := s.SpendingByCategory(context.Background())
	if len(rows) != len(DemoSeed().Spending) {
		t.Fatalf("expected demo data, got %d rows", len(rows))
	}
	var pct float64
	for _, r := range rows {
		pct += r.Percentage
	}
	if pct < 99.999 || pct > 100.001 {
		t.Errorf("percentages sum to %v", pct)
	}
}

func TestNewFromFile_Seed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.toml")
	content := `
[[spending]]
category = "Rent"
amount = 750.0
color = "#123456"

[[spending]]
category = "Food"
amount = 250.0

[[trend]]
month = "Jan"
income = 3000.0
expenses = 1000.0

[[trend]]
month = "Feb"
income = 3000.0
expenses = 1200.0

[[trend]]
month = "Mar"
income = 0.0
expenses = 100.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}

	rows, _ := s.SpendingByCategory(context.Background())
	if len(rows) != 2 || rows[0].Color != "#123456" || rows[0].Percentage != 75 {
		t.Errorf("rows = %+v", rows)
	}

	trend, _ := s.MonthlyTrend(context.Background(), 2)
	if len(trend) != 2 || trend[0].Month != "Feb" || trend[1].Month != "Mar" {
		t.Errorf("trend = %+v", trend)
	}
}

func TestNewFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[[spending]\ncategory ="), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	s := New(DemoSeed())
	rows, _ := s.SpendingByCategory(context.Background())
	rows[0].Category = "mutated"

	again, _ := s.SpendingByCategory(context.Background())
	if again[0].Category == "mutated" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestEmptySeed(t *testing.T) {
	s := New(Seed{})
	rows, err := s.SpendingByCategory(context.Background())
	if err != nil || len(rows) != 0 {
		t.Errorf("rows = %+v, err = %v", rows, err)
	}
	trend, err := s.MonthlyTrend(context.Background(), 6)
	if err != nil || len(trend) != 0 {
		t.Errorf("trend = %+v, err = %v", trend, err)
	}
}

func TestReloadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.toml")
	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write seed: %v", err)
		}
	}
	write("[[spending]]\ncategory = \"Rent\"\namount = 100.0\n")

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}

	write("[[spending]]\ncategory = \"Food\"\namount = 40.0\n\n[[spending]]\ncategory = \"Fuel\"\namount = 60.0\n")
	if err := s.ReloadFile(); err != nil {
		t.Fatalf("ReloadFile() error = %v", err)
	}
	rows, _ := s.SpendingByCategory(context.Background())
	if len(rows) != 2 || rows[0].Category != "Food" {
		t.Fatalf("reload not applied: %+v", rows)
	}

	write("not = [valid")
	if err := s.ReloadFile(); err == nil {
		t.Fatal("expected decode error")
	}
	rows, _ = s.SpendingByCategory(context.Background())
	if len(rows) != 2 {
		t.Fatalf("failed reload must keep data, got %+v", rows)
	}

	if err := New(DemoSeed()).ReloadFile(); err != nil {
		t.Fatalf("store without file: %v", err)
	}
}

func TestNewFromFile_NonFiniteAmount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.toml")
	if err := os.WriteFile(path, []byte("[[spending]]\ncategory = \"Rent\"\namount = inf\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected an error for an infinite amount")
	}
}

func TestReplaceDropsNonFiniteRows(t *testing.T) {
	s := New(Seed{
		Spending: []core.SpendingByCategory{
			{Category: "Rent", Amount: math.Inf(1)},
			{Category: "Food", Amount: 50},
		},
		Trend: []core.MonthlyTrend{
			{Month: "Jan", Income: math.NaN(), Expenses: 10},
			{Month: "Feb", Income: 100, Expenses: 10},
		},
	})

	rows, _ := s.SpendingByCategory(context.Background())
	if len(rows) != 1 || rows[0].Category != "Food" || rows[0].Percentage != 100 {
		t.Fatalf("spending = %+v", rows)
	}
	trend, _ := s.MonthlyTrend(context.Background(), 12)
	if len(trend) != 1 || trend[0].Month != "Feb" {
		t.Fatalf("trend = %+v", trend)
	}
}
