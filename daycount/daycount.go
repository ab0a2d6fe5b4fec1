// Package daycount computes year-fraction accruals under the conventions
// used throughout the deal engine. It generalizes the teacher's
// utils.YearFraction (ACT/360, ACT/365F only) to the three conventions the
// spec names, and returns money.Decimal instead of float64.
package daycount

import (
	"fmt"
	"time"

	"github.com/cloanalytics/dealengine/money"
)

// Convention identifies a day-count basis.
type Convention string

const (
	ACT360    Convention = "ACT/360"
	ACT365F   Convention = "ACT/365"
	Thirty360 Convention = "30/360"
)

// Fraction returns the year fraction between start and end under conv.
func Fraction(start, end time.Time, conv Convention) (money.Decimal, error) {
	switch conv {
	case ACT360:
		return money.NewFromFloat(days(start, end)).Div(money.NewFromInt(360)), nil
	case ACT365F:
		return money.NewFromFloat(days(start, end)).Div(money.NewFromInt(365)), nil
	case Thirty360:
		return thirty360(start, end), nil
	default:
		return money.Zero, fmt.Errorf("daycount: unsupported convention %q", conv)
	}
}

func days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// thirty360 implements the US (Bond Basis) 30/360 convention: each month is
// treated as having 30 days, with the standard day-31 adjustment.
func thirty360(start, end time.Time) money.Decimal {
	d1, d2 := start.Day(), end.Day()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())

	numerator := 360*(y2-y1) + 30*(m2-m1) + (d2 - d1)
	return money.NewFromInt(int64(numerator)).Div(money.NewFromInt(360))
}

// Days returns the ACT day count between two dates (no annualization).
func Days(start, end time.Time) int {
	return int(days(start, end))
}
