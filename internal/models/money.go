package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"MXN": "MX$",
	"EUR": "€",
	"GBP": "£",
}

// Currencies offered when creating a transaction.
var Currencies = []string{"MXN", "USD", "EUR", "GBP"}

// CurrencyName returns the option label shown next to a currency code.
func CurrencyName(code string) string {
	switch code {
	case "MXN":
		return "Mexican Peso"
	case "USD":
		return "US Dollar"
	case "EUR":
		return "Euro"
	case "GBP":
		return "British Pound"
	}
	return code
}

// FormatAmount renders an amount the way en-US currency formatting does,
// e.g. "$5,000.00" or "MX$1,250.50".
func FormatAmount(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code + " "
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + symbol + groupThousands(whole) + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
