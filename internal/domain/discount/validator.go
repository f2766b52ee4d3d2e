// Package discount attaches discounts to products. Uniqueness of
// (product ID, discount ID) is enforced by the store; this package runs the
// checks the store does not know about and classifies the store's answer.
package discount

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/xenking/vat-catalog/internal/domain/pricing"
	"github.com/xenking/vat-catalog/internal/domain/product"
)

const (
	// MaxDiscountsPerProduct is the number of discounts a product may carry.
	MaxDiscountsPerProduct = 20
	// MaxIDLength is the maximum discount ID length in characters.
	MaxIDLength = 100
)

var (
	idPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	maxPercent = decimal.NewFromInt(100)
)

// ValidationError reports caller input that violates a discount rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// DuplicateError is returned by ValidateNew when the snapshot of existing
// discounts already holds the ID. It is a fast path only; the store decides.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("discount %q is already applied", e.ID)
}

// ValidateID checks that id is non-blank, at most MaxIDLength characters and
// made of letters, digits, '_' and '-'.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("discount id must not be blank")
	}
	if n := utf8.RuneCountInString(id); n > MaxIDLength {
		return invalidf("discount id must be at most %d characters, got %d", MaxIDLength, n)
	}
	if !idPattern.MatchString(id) {
		return invalidf("discount id %q may only contain letters, digits, '_' and '-'", id)
	}
	return nil
}

// ValidatePercent checks 0 < p <= 100 with at most
// pricing.MaxFractionDigits decimal places.
func ValidatePercent(p decimal.Decimal) error {
	if err := pricing.CheckMagnitude(p); err != nil {
		return invalidf("discount percent is out of range: %v", err)
	}
	if !p.IsPositive() {
		return invalidf("discount percent must be greater than 0, got %s", p)
	}
	if p.GreaterThan(maxPercent) {
		return invalidf("discount percent must not exceed 100, got %s", p)
	}
	return nil
}

// ValidateMaxDiscounts fails when existing already holds the maximum number
// of discounts.
func ValidateMaxDiscounts(existing []product.Discount) error {
	if len(existing) >= MaxDiscountsPerProduct {
		return invalidf("product already has %d discounts, the limit is %d",
			len(existing), MaxDiscountsPerProduct)
	}
	return nil
}

// ValidateCumulative fails when adding percent to existing would push the
// total over 100%. Reaching exactly 100% is allowed.
func ValidateCumulative(existing []product.Discount, percent decimal.Decimal) error {
	total := decimal.Zero
	for _, d := range existing {
		total = total.Add(d.Percent)
	}
	if total.Add(percent).GreaterThan(maxPercent) {
		return invalidf("cumulative discount would exceed 100%%: current total %s, attempted to add %s",
			total, percent)
	}
	return nil
}

// ValidateNew runs every check for attaching d to a product whose current
// discounts are existing, stopping at the first failure: ID format, percent
// range, duplicate ID, discount count, cumulative percent.
func ValidateNew(d product.Discount, existing []product.Discount) error {
	if err := ValidateID(d.ID); err != nil {
		return err
	}
	if err := ValidatePercent(d.Percent); err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID == d.ID {
			return &DuplicateError{ID: d.ID}
		}
	}
	if err := ValidateMaxDiscounts(existing); err != nil {
		return err
	}
	return ValidateCumulative(existing, d.Percent)
}
