// Package schedule builds a deal's accrual-period grid (spec §4.8's
// per-period loop input) from a closing date, payment frequency, and
// tenor. The month-stepping arithmetic is adapted from the teacher's
// utils.AddMonth (Excel EDATE semantics: stepping from the 31st of a
// long month into a short month lands on that month's last day, rather
// than overflowing into the month after, which is what Go's plain
// time.AddDate does).
package schedule

import (
	"time"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/calendar"
	"github.com/cloanalytics/dealengine/dealerr"
)

// AddMonths advances t by months using EDATE semantics.
func AddMonths(t time.Time, months int) time.Time {
	firstOfTargetMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	naive := t.AddDate(0, months, 0)
	if naive.Month() == firstOfTargetMonth.Month() {
		return naive
	}
	// t.Day() overflowed the target month (e.g. Jan 31 + 1 month would
	// naively land on Mar 3); clamp to the target month's last day instead.
	return lastDayOfMonth(firstOfTargetMonth)
}

func lastDayOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// Grid builds a sequence of asset.PeriodBoundary from closingDate through
// periods accrual periods of paymentFrequencyMonths each. Period 1 begins
// at closingDate. Each period end rolls to cal's next business day under
// Modified Following (calendar.Adjust) — CLO payment dates are business-
// day rolled, not raw calendar-month anniversaries — and the following
// period's start is the already-rolled end, so periods stay contiguous.
func Grid(closingDate time.Time, paymentFrequencyMonths, periods int, cal calendar.CalendarID) ([]asset.PeriodBoundary, error) {
	if paymentFrequencyMonths <= 0 {
		return nil, dealerr.NewBadInput("schedule: paymentFrequencyMonths must be positive")
	}
	if periods <= 0 {
		return nil, dealerr.NewBadInput("schedule: periods must be positive")
	}

	grid := make([]asset.PeriodBoundary, 0, periods)
	start := closingDate
	for i := 1; i <= periods; i++ {
		end := calendar.Adjust(cal, AddMonths(start, paymentFrequencyMonths))
		grid = append(grid, asset.PeriodBoundary{Index: i, Start: start, End: end})
		start = end
	}
	return grid, nil
}
