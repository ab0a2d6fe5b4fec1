// Package liability implements the tranche (note) model of spec §3/§4.5:
// interest accrual with optional PIK capitalization, principal paydown, and
// report-time WAL/duration metrics discounted off the curve package's
// discount factors.
package liability

import (
	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/curve"
	"github.com/cloanalytics/dealengine/daycount"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/xirr"
)

// Tranche is a single class of notes (spec §3).
type Tranche struct {
	Name      string
	Seniority int // 1 = most senior

	OriginalBalance money.Decimal
	CurrentBalance  money.Decimal

	CouponType asset.CouponType
	FixedRate  money.Decimal
	Spread     money.Decimal
	DayCount   daycount.Convention

	PIKAllowed bool

	CumulativePrincipalPaid money.Decimal
	CumulativeWriteDown     money.Decimal
	DeferredInterest        money.Decimal
}

// Validate enforces the balance identity of spec §3/§8:
// original_balance == current_balance + cumulative_principal_paid + cumulative_write_down.
func (t *Tranche) Validate(tolerance money.Decimal) error {
	reconstructed := money.Sum(t.CurrentBalance, t.CumulativePrincipalPaid, t.CumulativeWriteDown)
	diff := reconstructed.Sub(t.OriginalBalance).Abs()
	if diff.GreaterThan(tolerance) {
		return dealerr.NewInvariantBreach(0, "liability."+t.Name, "original balance does not reconcile with current balance + cumulative principal paid + cumulative write-down")
	}
	return nil
}

// AccrueInterest computes the interest due on the tranche's period-begin
// balance at its current coupon (spec §4.5). cash is the collection
// available for this tranche's interest step; pikElected reports whether the
// active strategy's PIK policy elects capitalization this period.
//
// If cash covers the full amount due, it is returned as paid and the
// deferred-interest balance is untouched. Otherwise, if PIK is allowed and
// elected, the shortfall capitalizes into CurrentBalance and is recorded as
// deferred interest (spec: "deferred interest only increases when PIK
// election is active"); if PIK is not elected, the shortfall accrues as an
// unpaid obligation carried in DeferredInterest without affecting balance.
func (t *Tranche) AccrueInterest(couponRate, yearFraction, cash money.Decimal, pikElected bool) (due, paid money.Decimal) {
	due = t.CurrentBalance.Mul(couponRate).Mul(yearFraction)
	if cash.GreaterThanOrEqual(due) {
		return due, due
	}

	shortfall := due.Sub(cash)
	if t.PIKAllowed && pikElected {
		t.CurrentBalance = t.CurrentBalance.Add(shortfall)
		t.DeferredInterest = t.DeferredInterest.Add(shortfall)
	} else {
		t.DeferredInterest = t.DeferredInterest.Add(shortfall)
	}
	return due, cash
}

// ApplyPrincipal reduces the tranche balance by amount, dollar-for-dollar,
// and records it in the cumulative-principal-paid accumulator (spec §4.5).
// amount is clamped to the current balance so principal payments can never
// drive the balance negative.
func (t *Tranche) ApplyPrincipal(amount money.Decimal) money.Decimal {
	applied := money.Min(amount, t.CurrentBalance)
	t.CurrentBalance = t.CurrentBalance.Sub(applied)
	t.CumulativePrincipalPaid = t.CumulativePrincipalPaid.Add(applied)
	return applied
}

// WriteDown records a realized loss against the tranche (e.g. at legal
// final with unrecovered balance), reducing CurrentBalance and increasing
// CumulativeWriteDown by the same amount.
func (t *Tranche) WriteDown(amount money.Decimal) money.Decimal {
	applied := money.Min(amount, t.CurrentBalance)
	t.CurrentBalance = t.CurrentBalance.Sub(applied)
	t.CumulativeWriteDown = t.CumulativeWriteDown.Add(applied)
	return applied
}

// Metrics computes weighted-average life, Macaulay duration, and modified
// duration for a tranche given its projected dated cash-flow stream and a
// discount curve (spec §4.5). flows must be in chronological order.
func Metrics(t *Tranche, flows []xirr.CashFlow, c *curve.Curve) (wal, duration, modDuration money.Decimal, err error) {
	if len(flows) == 0 {
		return money.Zero, money.Zero, money.Zero, dealerr.NewBadInput("liability.%s: Metrics requires at least one cash flow", t.Name)
	}

	totalPrincipal := money.Zero
	walNumerator := money.Zero

	totalPV := money.Zero
	durationNumerator := money.Zero

	for _, f := range flows {
		tenor := c.TenorYears(f.Date)
		df := c.DF(tenor)
		pv := f.Amount.Mul(df)

		totalPV = totalPV.Add(pv)
		durationNumerator = durationNumerator.Add(pv.Mul(money.NewFromFloat(tenor)))

		if f.Amount.IsPositive() {
			totalPrincipal = totalPrincipal.Add(f.Amount)
			walNumerator = walNumerator.Add(f.Amount.Mul(money.NewFromFloat(tenor)))
		}
	}

	if totalPrincipal.IsPositive() {
		wal = walNumerator.Div(totalPrincipal)
	}
	if totalPV.IsPositive() {
		duration = durationNumerator.Div(totalPV)
	}

	y, _ := t.FixedRate.Float64()
	modDuration = duration.Div(money.NewFromFloat(1 + y))

	return wal, duration, modDuration, nil
}
