package domain

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency describes one supported invoice currency.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Flag   string `json:"flag"`
}

// Currencies is the fixed set of supported currencies.
var Currencies = []Currency{
	{Code: "USD", Symbol: "$", Name: "US Dollar", Flag: "🇺🇸"},
	{Code: "EUR", Symbol: "€", Name: "Euro", Flag: "🇪🇺"},
	{Code: "GBP", Symbol: "£", Name: "British Pound", Flag: "🇬🇧"},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Flag: "🇯🇵"},
	{Code: "CAD", Symbol: "$", Name: "Canadian Dollar", Flag: "🇨🇦"},
	{Code: "AUD", Symbol: "$", Name: "Australian Dollar", Flag: "🇦🇺"},
}

// LookupCurrency finds a supported currency by code.
func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// CurrencySymbol returns the display symbol for a code, or the code
// itself when unsupported.
func CurrencySymbol(code string) string {
	if c, ok := LookupCurrency(code); ok {
		return c.Symbol
	}
	return code
}

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatAmount renders an amount for display: currency symbol plus the
// value grouped and rounded to exactly two decimals. Unknown codes fall
// back to the bare numeric value. Only display is rounded; stored
// values keep full float precision.
func FormatAmount(amount Number, code string) string {
	c, ok := LookupCurrency(code)
	if !ok {
		return strconv.FormatFloat(amount.Float64(), 'f', -1, 64)
	}
	return c.Symbol + displayPrinter.Sprint(number.Decimal(amount.Float64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
