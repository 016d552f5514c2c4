package money

import (
	"fmt"
	"math"
)

// symbols maps ISO-4217 codes to display symbols. Unknown codes fall back
// to the GBP symbol, which matches the app's default currency.
var symbols = map[string]string{
	"GBP": "£",
	"USD": "$",
	"EUR": "€",
	"AUD": "$",
	"CAD": "$",
	"NZD": "$",
	"JPY": "¥",
	"CNY": "¥",
	"CHF": "Fr",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"PLN": "zł",
	"INR": "₹",
}

// Format renders an integer minor-unit amount for display, e.g. -1250 GBP
// becomes "-£12.50". The sign always precedes the symbol.
func Format(currency string, minorUnits int64) string {
	symbol, ok := symbols[currency]
	if !ok {
		symbol = symbols["GBP"]
	}
	sign := ""
	abs := minorUnits
	if minorUnits < 0 {
		sign = "-"
		abs = -minorUnits
	}
	return fmt.Sprintf("%s%s%.2f", sign, symbol, float64(abs)/100)
}

// Convert converts an integer minor-unit amount between currencies using a
// units-per-USD rate table. Conversion goes through USD in two hops, rounding
// half away from zero on the final minor-unit value.
//
// Convert never fails hard: same-currency conversions are the identity
// regardless of the table, and a missing rate for either side returns the
// original amount with ok=false so callers can degrade gracefully.
func Convert(minorUnits int64, from, to string, rates map[string]float64) (int64, bool) {
	if from == to {
		return minorUnits, true
	}
	fromRate, okFrom := rates[from]
	toRate, okTo := rates[to]
	if !okFrom || !okTo || fromRate <= 0 || toRate <= 0 {
		return minorUnits, false
	}
	usd := float64(minorUnits) / 100 / fromRate
	converted := math.Round(usd * toRate * 100)
	if math.IsNaN(converted) || math.IsInf(converted, 0) {
		return minorUnits, false
	}
	return int64(converted), true
}
