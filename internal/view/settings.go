package view

import "financetrack/internal/core"

// DateFormats are the date layouts offered on the settings page.
var DateFormats = []string{"MM/dd/yyyy", "dd/MM/yyyy", "yyyy-MM-dd"}

// Option is one entry of a select box.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// SettingsView is the preferences form.
type SettingsView struct {
	Currencies    []Option
	DateFormats   []Option
	Notifications bool
	EmailAlerts   bool
	BudgetAlerts  bool
	Sample        string
	Saved         bool
	Error         string
}

// NewSettings builds the form from the current preferences. errMsg is shown
// above the form when the last submission was rejected.
func NewSettings(p core.Preferences, saved bool, errMsg string) SettingsView {
	v := SettingsView{
		Notifications: p.Notifications,
		EmailAlerts:   p.EmailAlerts,
		BudgetAlerts:  p.BudgetAlerts,
		Sample:        p.FormatCurrency(1234.5),
		Saved:         saved,
		Error:         errMsg,
	}
	for _, c := range core.SupportedCurrencies {
		code := string(c)
		v.Currencies = append(v.Currencies, Option{
			Value:    code,
			Label:    core.CurrencySymbol(code) + " " + code,
			Selected: code == p.Currency,
		})
	}
	known := false
	for _, f := range DateFormats {
		known = known || f == p.DateFormat
		v.DateFormats = append(v.DateFormats, Option{Value: f, Label: f, Selected: f == p.DateFormat})
	}
	if !known && p.DateFormat != "" {
		v.DateFormats = append(v.DateFormats, Option{Value: p.DateFormat, Label: p.DateFormat, Selected: true})
	}
	return v
}
