package discount

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/vat-catalog/internal/domain/product"
)

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discounts(percents ...string) []product.Discount {
	out := make([]product.Discount, len(percents))
	for i, p := range percents {
		out[i] = product.Discount{ID: fmt.Sprintf("d%02d", i), Percent: pct(p)}
	}
	return out
}

func requireReason(t *testing.T, err error, contains string) {
	t.Helper()

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, contains)
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr string
	}{
		{name: "simple", id: "SUMMER_2024-a"},
		{name: "max length", id: strings.Repeat("a", MaxIDLength)},
		{name: "empty", id: "", wantErr: "blank"},
		{name: "whitespace only", id: "   ", wantErr: "blank"},
		{name: "too long", id: strings.Repeat("a", MaxIDLength+1), wantErr: "at most 100"},
		{name: "space inside", id: "summer sale", wantErr: "may only contain"},
		{name: "slash", id: "a/b", wantErr: "may only contain"},
		{name: "non ascii", id: "rabatt-å", wantErr: "may only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			requireReason(t, err, tt.wantErr)
		})
	}
}

func TestValidatePercent(t *testing.T) {
	for _, ok := range []string{"0.01", "1", "50", "99.99", "100"} {
		assert.NoError(t, ValidatePercent(pct(ok)), ok)
	}

	requireReason(t, ValidatePercent(pct("0")), "greater than 0")
	requireReason(t, ValidatePercent(pct("-5")), "greater than 0")
	requireReason(t, ValidatePercent(pct("100.01")), "must not exceed 100")
}

func TestValidatePercent_ExtremeExponents(t *testing.T) {
	for _, s := range []string{"1e20000000", "1e-20000", "-1e20000000", "0.00000000001"} {
		t.Run(s, func(t *testing.T) {
			start := time.Now()
			err := ValidatePercent(pct(s))
			assert.Less(t, time.Since(start), 100*time.Millisecond)

			requireReason(t, err, "out of range")
			assert.Less(t, len(err.Error()), 120, "reason must not echo the digits")
		})
	}
}

func TestValidateMaxDiscounts(t *testing.T) {
	nineteen := make([]string, MaxDiscountsPerProduct-1)
	for i := range nineteen {
		nineteen[i] = "1"
	}
	require.NoError(t, ValidateMaxDiscounts(discounts(nineteen...)))

	twenty := append(nineteen, "1")
	requireReason(t, ValidateMaxDiscounts(discounts(twenty...)), "20")
}

func TestValidateCumulative(t *testing.T) {
	require.NoError(t, ValidateCumulative(nil, pct("100")))
	require.NoError(t, ValidateCumulative(discounts("60"), pct("40")))
	require.NoError(t, ValidateCumulative(discounts("33.3", "33.3"), pct("33.4")))

	err := ValidateCumulative(discounts("60"), pct("50"))
	requireReason(t, err, "exceed 100%")
	requireReason(t, err, "current total 60")
	requireReason(t, err, "attempted to add 50")

	requireReason(t, ValidateCumulative(discounts("99.99"), pct("0.02")), "exceed 100%")
}

func TestValidateNew_Order(t *testing.T) {
	full := make([]string, MaxDiscountsPerProduct)
	for i := range full {
		full[i] = "5"
	}

	tests := []struct {
		name     string
		d        product.Discount
		existing []product.Discount
		wantErr  string
		wantDup  bool
	}{
		{
			name:     "id checked before percent",
			d:        product.Discount{ID: "", Percent: pct("0")},
			existing: discounts(full...),
			wantErr:  "blank",
		},
		{
			name:     "percent checked before duplicate",
			d:        product.Discount{ID: "d00", Percent: pct("101")},
			existing: discounts("10"),
			wantErr:  "must not exceed 100",
		},
		{
			name:     "duplicate checked before count",
			d:        product.Discount{ID: "d03", Percent: pct("5")},
			existing: discounts(full...),
			wantDup:  true,
		},
		{
			name:     "count checked before cumulative",
			d:        product.Discount{ID: "new", Percent: pct("50")},
			existing: discounts(full...),
			wantErr:  "limit is 20",
		},
		{
			name:     "cumulative",
			d:        product.Discount{ID: "new", Percent: pct("50")},
			existing: discounts("60"),
			wantErr:  "exceed 100%",
		},
		{
			name:     "passes",
			d:        product.Discount{ID: "new", Percent: pct("40")},
			existing: discounts("60"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNew(tt.d, tt.existing)
			switch {
			case tt.wantDup:
				var dup *DuplicateError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, tt.d.ID, dup.ID)
			case tt.wantErr != "":
				requireReason(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
			}
		})
	}
}
