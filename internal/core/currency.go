// Package core provides the domain types of the dashboard and the
// locale-aware money formatting shared by every view.
package core

import (
	"math"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de_DE"
	"github.com/go-playground/locales/en_GB"
	"github.com/go-playground/locales/en_IN"
	"github.com/go-playground/locales/en_US"
	"github.com/go-playground/locales/ja_JP"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Currency is an ISO 4217 code from the set the dashboard supports.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	INR Currency = "INR"
	JPY Currency = "JPY"
)

// nbsp separates a trailing currency symbol from the amount, as CLDR does.
const nbsp = "\u00a0"

// NotAvailable is rendered in place of amounts that are not finite numbers.
const NotAvailable = "n/a"

// SupportedCurrencies lists the selectable currencies in display order.
var SupportedCurrencies = []Currency{USD, EUR, GBP, INR, JPY}

var currencySymbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	INR: "₹",
	JPY: "¥",
}

// currencyFormat pairs a currency with the locale whose number rules
// format it. The regional CLDR tables spell most currencies as ISO codes,
// so the glyph is kept here.
type currencyFormat struct {
	locale locales.Translator
	symbol string
	suffix bool // symbol after the number
	scale  uint64
}

var currencyFormats = map[Currency]currencyFormat{
	USD: {locale: en_US.New(), symbol: "$"},
	EUR: {locale: de_DE.New(), symbol: "€", suffix: true},
	GBP: {locale: en_GB.New(), symbol: "£"},
	INR: {locale: en_IN.New(), symbol: "₹"},
	JPY: {locale: ja_JP.New(), symbol: "￥"},
}

func init() {
	for code, f := range currencyFormats {
		f.scale = fractionDigits(code)
		currencyFormats[code] = f
	}
}

// fractionDigits returns the CLDR standard number of decimals for the code.
func fractionDigits(c Currency) uint64 {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return uint64(scale)
}

func formatFor(code string) currencyFormat {
	if f, ok := currencyFormats[Currency(code)]; ok {
		return f
	}
	return currencyFormats[USD]
}

// ParseCurrency reports whether code is one of the supported currencies.
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	_, ok := currencySymbols[c]
	return c, ok
}

// CurrencySymbol returns the display glyph for code, "$" when unknown.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[Currency(code)]; ok {
		return s
	}
	return "$"
}

// CurrencyLocale returns the BCP 47 locale used to format code.
// Unknown codes use en-US.
func CurrencyLocale(code string) string {
	name := formatFor(code).locale.Locale()
	return language.Make(strings.ReplaceAll(name, "_", "-")).String()
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FormatCurrency renders amount in the locale associated with code.
// Unknown codes are formatted as en-US dollars; NaN and infinities render
// as NotAvailable.
//
//	FormatCurrency(1234.5, "USD") -> "$1,234.50"
//	FormatCurrency(12.5, "EUR")   -> "12,50 €"
//	FormatCurrency(123456, "INR") -> "₹1,23,456.00"
func FormatCurrency(amount float64, code string) string {
	if !IsFinite(amount) {
		return NotAvailable
	}
	f := formatFor(code)

	// Round before formatting so -0.001 does not keep its sign.
	d := decimal.NewFromFloat(amount).Round(int32(f.scale))
	abs, _ := d.Abs().Float64()
	num := f.locale.FmtNumber(abs, f.scale)

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	if f.suffix {
		b.WriteString(num)
		b.WriteString(nbsp)
		b.WriteString(f.symbol)
	} else {
		b.WriteString(f.symbol)
		b.WriteString(num)
	}
	return b.String()
}
