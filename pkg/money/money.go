// Package money converts between decimal amounts and the gateway's integer minor units.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every stored amount carries.
const Scale = 2

// Normalize rounds d to Scale decimal places.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Equal compares two amounts after normalisation.
func Equal(a, b decimal.Decimal) bool {
	return Normalize(a).Equal(Normalize(b))
}

// ToMinor converts d to minor units (pesewas/kobo). Amounts with sub-minor precision are rejected.
func ToMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), Scale)
	}
	return shifted.IntPart(), nil
}

// FromMinor converts minor units back to a decimal amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// Parse reads a decimal string and normalises it.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return Normalize(d), nil
}
