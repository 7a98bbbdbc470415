// Package money implements the fixed-point amount type used by the ledger.
//
// An Amount is a count of minor units at a fixed scale of two decimal places,
// independent of currency. Arithmetic that involves fractions (percentages,
// fractional quantities) goes through shopspring/decimal and is rounded half
// away from zero back to minor units, so no value ever passes through a
// binary float.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for every amount.
const Scale = 2

// Tolerance is the largest difference, in minor units, accepted between a
// caller-declared amount and the amount the engine computes (0.01).
const Tolerance Amount = 1

// Max is the largest magnitude an Amount may hold (10^13 major units). It
// leaves enough headroom in int64 that summing thousands of rows cannot wrap.
const Max Amount = 1_000_000_000_000_000

// ErrOutOfRange is returned when a value does not fit within ±Max.
var ErrOutOfRange = errors.New("amount out of range")

var maxMinor = decimal.NewFromInt(int64(Max))

func init() {
	// Quantities and adjustment values are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Amount is a monetary value in minor units (1/100).
type Amount int64

// New converts a decimal value in major units to minor units, rounding half
// away from zero. Values beyond ±Max return ErrOutOfRange.
func New(d decimal.Decimal) (Amount, error) {
	minor := d.Shift(Scale).Round(0)
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Amount(minor.IntPart()), nil
}

// FromDecimal is like New but saturates at ±Max instead of failing.
func FromDecimal(d decimal.Decimal) Amount {
	minor := d.Shift(Scale).Round(0)
	switch {
	case minor.GreaterThan(maxMinor):
		return Max
	case minor.LessThan(maxMinor.Neg()):
		return -Max
	}
	return Amount(minor.IntPart())
}

// FromMajor converts a whole-unit value (e.g. 20000) to an Amount.
func FromMajor(v int64) Amount {
	return Amount(v * 100)
}

// Decimal returns the amount as a decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// MarshalJSON renders the amount as a JSON number in major units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string in major units.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := New(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Mul multiplies the amount by a decimal factor and rounds to minor units.
func (a Amount) Mul(factor decimal.Decimal) (Amount, error) {
	return New(a.Decimal().Mul(factor))
}

// Percent returns round(a * pct / 100), saturating at ±Max.
func (a Amount) Percent(pct decimal.Decimal) Amount {
	return FromDecimal(a.Decimal().Mul(pct).Div(decimal.NewFromInt(100)))
}

// Clamp bounds the amount to [lo, hi].
func (a Amount) Clamp(lo, hi Amount) Amount {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Within reports whether a and b differ by no more than Tolerance.
func Within(a, b Amount) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= Tolerance
}
