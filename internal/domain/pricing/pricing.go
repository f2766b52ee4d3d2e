// Package pricing derives final product prices from a base price, the
// cumulative discount attached to the product, and the VAT of the
// product's country.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Country is a supported catalog country in its canonical (title case) form.
type Country string

// Supported countries.
const (
	Sweden  Country = "Sweden"
	Germany Country = "Germany"
	France  Country = "France"
)

var hundred = decimal.NewFromInt(100)

// vatRates maps each supported country to its VAT rate as a fraction.
var vatRates = map[Country]decimal.Decimal{
	Sweden:  decimal.RequireFromString("0.25"),
	Germany: decimal.RequireFromString("0.19"),
	France:  decimal.RequireFromString("0.20"),
}

// Countries returns the supported countries in a stable order.
func Countries() []Country {
	return []Country{France, Germany, Sweden}
}

// ParseCountry matches s against the supported set ignoring case and
// surrounding whitespace, returning the canonical form.
func ParseCountry(s string) (Country, bool) {
	s = strings.TrimSpace(s)
	for c := range vatRates {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// VATRate returns the VAT rate of c as a fraction (0.25 for 25%).
// Unsupported countries yield zero.
func VATRate(c Country) decimal.Decimal {
	if r, ok := vatRates[c]; ok {
		return r
	}
	return decimal.Zero
}

// FinalPrice computes basePrice * (1 - totalDiscountPercent/100) * (1 + VAT).
// No rounding is applied.
func FinalPrice(basePrice, totalDiscountPercent decimal.Decimal, c Country) decimal.Decimal {
	discounted := basePrice.Mul(decimal.NewFromInt(1).Sub(totalDiscountPercent.Div(hundred)))
	return discounted.Mul(decimal.NewFromInt(1).Add(VATRate(c)))
}
