package core

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// ErrInvalidPreferences is returned when a patch carries unusable values.
var ErrInvalidPreferences = errors.New("invalid preferences")

// ErrInvalidTheme is returned for a theme outside light, dark and system.
var ErrInvalidTheme = errors.New("invalid theme")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Preferences holds the user's display and notification settings.
// The JSON names match the persisted record and must not change.
type Preferences struct {
	Currency      string `json:"currency"`
	DateFormat    string `json:"dateFormat"`
	Notifications bool   `json:"notifications"`
	EmailAlerts   bool   `json:"emailAlerts"`
	BudgetAlerts  bool   `json:"budgetAlerts"`
}

// PreferencesPatch is a partial Preferences record. Nil fields are left
// untouched by Merge. Persisted records from older versions decode into a
// patch so that missing keys keep their defaults.
type PreferencesPatch struct {
	Currency      *string `json:"currency,omitempty" validate:"omitnil,oneof=USD EUR GBP INR JPY"`
	DateFormat    *string `json:"dateFormat,omitempty" validate:"omitnil,min=1"`
	Notifications *bool   `json:"notifications,omitempty"`
	EmailAlerts   *bool   `json:"emailAlerts,omitempty"`
	BudgetAlerts  *bool   `json:"budgetAlerts,omitempty"`
}

// DefaultPreferences returns the record every user starts from.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency:      string(USD),
		DateFormat:    "MM/dd/yyyy",
		Notifications: true,
		EmailAlerts:   true,
		BudgetAlerts:  true,
	}
}

// Merge returns p with every non-nil field of patch applied.
func (p Preferences) Merge(patch PreferencesPatch) Preferences {
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.DateFormat != nil {
		p.DateFormat = *patch.DateFormat
	}
	if patch.Notifications != nil {
		p.Notifications = *patch.Notifications
	}
	if patch.EmailAlerts != nil {
		p.EmailAlerts = *patch.EmailAlerts
	}
	if patch.BudgetAlerts != nil {
		p.BudgetAlerts = *patch.BudgetAlerts
	}
	return p
}

// FormatCurrency formats amount with the preferred currency and its locale.
func (p Preferences) FormatCurrency(amount float64) string {
	return FormatCurrency(amount, p.Currency)
}

// CurrencySymbol returns the glyph of the preferred currency.
func (p Preferences) CurrencySymbol() string {
	return CurrencySymbol(p.Currency)
}

// Locale returns the locale the preferred currency is formatted in.
func (p Preferences) Locale() string {
	return CurrencyLocale(p.Currency)
}

// Validate checks the fields present in the patch.
func (p PreferencesPatch) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidPreferences, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p PreferencesPatch) IsEmpty() bool {
	return p == PreferencesPatch{}
}

// Theme is the colour scheme of the dashboard.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultTheme follows the operating system preference.
const DefaultTheme = ThemeSystem

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

// Next returns the theme the header toggle switches to.
func (t Theme) Next() Theme {
	switch t {
	case ThemeLight:
		return ThemeDark
	case ThemeDark:
		return ThemeSystem
	default:
		return ThemeLight
	}
}
