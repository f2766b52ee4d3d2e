package pricing

import (
	"math/big"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Limits on prices and percents accepted from callers. NUMERIC columns
// hold far more; these keep arithmetic and error messages small.
const (
	MaxIntegerDigits  = 15
	MaxFractionDigits = 10

	maxNumberLen      = 64
	maxCoefficientBit = 256
)

// ErrOutOfRange is returned for numbers outside the accepted magnitude.
var ErrOutOfRange = errors.New("number out of range")

var ten = big.NewInt(10)

// ParseDecimal parses s and applies CheckMagnitude. Overlong input is
// rejected before parsing.
func ParseDecimal(s string) (decimal.Decimal, error) {
	if len(s) > maxNumberLen {
		return decimal.Zero, errors.Wrapf(ErrOutOfRange, "longer than %d characters", maxNumberLen)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse number")
	}
	if err := CheckMagnitude(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckMagnitude fails when d has more than MaxIntegerDigits digits before
// the decimal point or more than MaxFractionDigits significant digits after
// it. The cost does not depend on the exponent.
func CheckMagnitude(d decimal.Decimal) error {
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return nil
	}
	coef.Abs(coef)
	if coef.BitLen() > maxCoefficientBit {
		return errors.Wrap(ErrOutOfRange, "too many digits")
	}

	exp := int64(d.Exponent())
	if exp < -MaxFractionDigits {
		// Trailing zeros after the point are not significant.
		var q, r big.Int
		for exp < -MaxFractionDigits {
			q.QuoRem(coef, ten, &r)
			if r.Sign() != 0 {
				return errors.Wrapf(ErrOutOfRange, "more than %d fractional digits", MaxFractionDigits)
			}
			coef.Set(&q)
			exp++
		}
	}

	if int64(len(coef.String()))+exp > MaxIntegerDigits {
		return errors.Wrapf(ErrOutOfRange, "more than %d integer digits", MaxIntegerDigits)
	}
	return nil
}
