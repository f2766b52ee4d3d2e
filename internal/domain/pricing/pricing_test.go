package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		discount string
		country  Country
		want     string
	}{
		{name: "sweden with 10% discount", base: "100", discount: "10", country: Sweden, want: "112.5"},
		{name: "germany no discount", base: "100", discount: "0", country: Germany, want: "119"},
		{name: "france no discount", base: "50", discount: "0", country: France, want: "60"},
		{name: "full discount is free", base: "80", discount: "100", country: Sweden, want: "0"},
		{name: "fractional percents", base: "19.99", discount: "12.5", country: Germany, want: "20.8145875"},
		{name: "unsupported country has no vat", base: "100", discount: "20", country: Country("Norway"), want: "80"},
		{name: "zero base price", base: "0", discount: "30", country: France, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalPrice(
				decimal.RequireFromString(tt.base),
				decimal.RequireFromString(tt.discount),
				tt.country,
			)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, got.Sub(want).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")),
				"expected %s, got %s", want, got)
		})
	}
}

func TestParseCountry(t *testing.T) {
	for _, in := range []string{"sweden", "SWEDEN", "Sweden", "  sWeDeN "} {
		c, ok := ParseCountry(in)
		assert.True(t, ok, in)
		assert.Equal(t, Sweden, c, in)
	}

	for _, in := range []string{"", "Norway", "swe", "Sweden1"} {
		_, ok := ParseCountry(in)
		assert.False(t, ok, in)
	}
}

func TestVATRate(t *testing.T) {
	assert.True(t, decimal.RequireFromString("0.25").Equal(VATRate(Sweden)))
	assert.True(t, decimal.RequireFromString("0.19").Equal(VATRate(Germany)))
	assert.True(t, decimal.RequireFromString("0.2").Equal(VATRate(France)))
	assert.True(t, VATRate(Country("Atlantis")).IsZero())
}

func TestCountries(t *testing.T) {
	got := Countries()
	assert.Equal(t, []Country{France, Germany, Sweden}, got)
	for _, c := range got {
		assert.False(t, VATRate(c).IsZero())
	}
}
