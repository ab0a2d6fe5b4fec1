package asset

import (
	"time"

	"github.com/cloanalytics/dealengine/curve"
	"github.com/cloanalytics/dealengine/daycount"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/rating"
)

// PeriodBoundary is one accrual period in the deal's payment schedule.
type PeriodBoundary struct {
	Index int
	Start time.Time
	End   time.Time
}

// PeriodCashflow is one period's projected cash flow for a single asset
// (spec §4.3): scheduled interest, scheduled principal, prepayment,
// default, and recovery, plus begin/end performing balances.
type PeriodCashflow struct {
	Period             int
	BeginBalance       money.Decimal
	ScheduledInterest  money.Decimal
	ScheduledPrincipal money.Decimal
	Prepayment         money.Decimal
	Default            money.Decimal
	WriteDown          money.Decimal // loss recognized immediately at default: Default * (1 - recovery rate)
	Recovery           money.Decimal // recovery cash realized this period from earlier defaults
	EndBalance         money.Decimal
}

// Total returns the period's total cash receipt (interest + scheduled
// principal + prepayment + recovery). Default/write-down are non-cash.
func (p PeriodCashflow) Total() money.Decimal {
	return money.Sum(p.ScheduledInterest, p.ScheduledPrincipal, p.Prepayment, p.Recovery)
}

// Project runs the asset cash-flow model of spec §4.3 over grid, given a
// per-period hazard (default) rate vector and prepayment (SMM-style) rate
// vector, and a recovery lag in periods. Interest accrues on the
// period-begin balance at the asset's coupon (fixed, or index+spread via
// fwdCurve for floating-rate loans). Prepayments reduce the performing
// balance after scheduled amortization and before default is applied, in
// that strict order (spec §4.3).
//
// Most leveraged loans are bullet (no scheduled amortization); assets with
// a non-bullet profile should supply amortize to compute a non-zero
// scheduled-principal column.
func Project(
	a *Asset,
	grid []PeriodBoundary,
	hazard, prepay []money.Decimal,
	recoveryLagPeriods int,
	fwdCurve *curve.Curve,
	amortize func(period int, beginBalance money.Decimal) money.Decimal,
) ([]PeriodCashflow, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if len(hazard) != len(grid) || len(prepay) != len(grid) {
		return nil, dealerr.NewBadInput("asset %s: hazard/prepay vectors must match grid length", a.ID)
	}

	out := make([]PeriodCashflow, 0, len(grid))
	balance := a.CurrentBalance
	recoveryQueue := make(map[int]money.Decimal)

	for i, pb := range grid {
		row := PeriodCashflow{Period: pb.Index, BeginBalance: balance}

		if recovered, ok := recoveryQueue[pb.Index]; ok {
			row.Recovery = recovered
			delete(recoveryQueue, pb.Index)
			a.defaultedAmount = a.defaultedAmount.Sub(recovered)
		}

		if balance.IsZero() {
			row.EndBalance = money.Zero
			out = append(out, row)
			continue
		}

		couponRate, err := a.couponRate(pb, fwdCurve)
		if err != nil {
			return nil, err
		}
		yf, err := daycount.Fraction(pb.Start, pb.End, a.DayCount)
		if err != nil {
			return nil, err
		}
		row.ScheduledInterest = balance.Mul(couponRate).Mul(yf)

		schedPrincipal := money.Zero
		if amortize != nil {
			schedPrincipal = money.Min(amortize(pb.Index, balance), balance)
		}
		row.ScheduledPrincipal = schedPrincipal
		afterSchedule := balance.Sub(schedPrincipal)

		prepayAmt := afterSchedule.Mul(prepay[i])
		row.Prepayment = prepayAmt
		afterPrepay := afterSchedule.Sub(prepayAmt)

		defaultAmt := afterPrepay.Mul(hazard[i])
		row.Default = defaultAmt
		afterDefault := afterPrepay.Sub(defaultAmt)

		if defaultAmt.IsPositive() {
			recoveryRate, err := rating.Recovery(a.Rating.Moody)
			if err != nil {
				recoveryRate = a.fallbackRecoveryFraction()
			}
			recoveryAmt := defaultAmt.Mul(money.NewFromFloat(recoveryRate))
			row.WriteDown = defaultAmt.Sub(recoveryAmt)
			dueAt := pb.Index + recoveryLagPeriods
			recoveryQueue[dueAt] = recoveryQueue[dueAt].Add(recoveryAmt)
			a.defaultedAmount = a.defaultedAmount.Add(recoveryAmt)
		}

		row.EndBalance = afterDefault
		balance = afterDefault
		out = append(out, row)
	}

	// Flush any recovery still queued past the grid's end as terminal rows,
	// so no recovery silently disappears.
	for period, amt := range recoveryQueue {
		out = append(out, PeriodCashflow{Period: period, Recovery: amt})
		a.defaultedAmount = a.defaultedAmount.Sub(amt)
	}

	a.CurrentBalance = balance
	return out, nil
}

// couponRate returns the all-in coupon for the period: the fixed rate, or
// index (forward rate off fwdCurve) plus spread for floating-rate loans.
func (a *Asset) couponRate(pb PeriodBoundary, fwdCurve *curve.Curve) (money.Decimal, error) {
	if a.CouponType == CouponFixed {
		return a.FixedRate, nil
	}
	if fwdCurve == nil {
		return money.Zero, dealerr.NewBadInput("asset %s: floating-rate coupon requires a forward curve", a.ID)
	}
	t1 := fwdCurve.TenorYears(pb.Start)
	t2 := fwdCurve.TenorYears(pb.End)
	if t2 <= t1 {
		t2 = t1 + 1e-6
	}
	fwd, err := fwdCurve.Forward(t1, t2)
	if err != nil {
		return money.Zero, err
	}
	return fwd.Add(a.Spread), nil
}

// fallbackRecoveryFraction is used when the asset's rating has no entry in
// the documented lookup; it falls back to the asset's own recovery
// expectation field (spec §3: "recovery expectation").
func (a *Asset) fallbackRecoveryFraction() float64 {
	f, _ := a.RecoveryExpectation.Float64()
	return f
}
