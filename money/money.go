// Package money provides the fixed-precision decimal type used for every
// monetary and rate computation in the deal engine. Binary floats are never
// used for money: spreadsheet parity depends on it.
package money

import (
	"github.com/shopspring/decimal"
)

// Decimal is the engine's monetary/rate scalar. It is shopspring/decimal's
// arbitrary-precision type, configured at init for 28 significant digits of
// division precision.
type Decimal = decimal.Decimal

func init() {
	decimal.DivisionPrecision = 28
}

// Zero is the additive identity.
var Zero = decimal.Zero

// One is the multiplicative identity.
var One = decimal.NewFromInt(1)

// NewFromFloat constructs a Decimal from a float64 literal. Reserved for
// configuration/constant values, never for accumulated results.
func NewFromFloat(f float64) Decimal {
	return decimal.NewFromFloat(f)
}

// NewFromInt constructs a Decimal from an int64.
func NewFromInt(i int64) Decimal {
	return decimal.NewFromInt(i)
}

// RoundBankers applies banker's rounding (round-half-to-even) at the given
// number of decimal places. This must only be used at output/report
// boundaries; internal computation stays at full precision per spec.
func RoundBankers(d Decimal, places int32) Decimal {
	return d.RoundBank(places)
}

// Sum adds a slice of Decimals, returning Zero for an empty slice.
func Sum(ds ...Decimal) Decimal {
	total := Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Clamp restricts d to the closed interval [lo, hi].
func Clamp(d, lo, hi Decimal) Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// IsNegligible reports whether |d| <= tolerance, used for invariant checks
// that must tolerate rounding residue (spec: 1e-8 on accounts, 0.01 on par).
func IsNegligible(d Decimal, tolerance Decimal) bool {
	return d.Abs().LessThanOrEqual(tolerance)
}
