// Package incentive implements the incentive-fee pass of spec §4.8 step 7:
// cumulative equity distributions and IRR tracking, plus the
// performance-fee split computed from an active strategy's HurdlePolicy
// (spec §4.7's catch-up allocation for Mag 15/17 and Equity Claw-Back).
package incentive

import (
	"time"

	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/waterfall"
	"github.com/cloanalytics/dealengine/xirr"
)

// Distribution is a single dated payment to the equity tranche.
type Distribution struct {
	Date   time.Time
	Amount money.Decimal
}

// Tracker accrues cumulative equity distributions across periods and
// derives the equity IRR and GP performance-fee split on demand. It holds
// no reference back to the engine — callers record each period's equity
// payment explicitly, mirroring EngineView's stateless-strategy shape.
type Tracker struct {
	initialInvestment Distribution
	distributions     []Distribution
}

// NewTracker seeds the tracker with the equity tranche's initial funding
// outflow (a negative cash flow at deal closing), the first leg of the
// IRR cash-flow stream.
func NewTracker(closingDate time.Time, initialInvestment money.Decimal) *Tracker {
	return &Tracker{
		initialInvestment: Distribution{Date: closingDate, Amount: initialInvestment.Neg()},
	}
}

// Record appends a period's equity distribution to the cumulative stream
// (spec §4.8 step 7: "update cumulative equity distributions").
func (t *Tracker) Record(date time.Time, amount money.Decimal) {
	t.distributions = append(t.distributions, Distribution{Date: date, Amount: amount})
}

// CumulativeDistributions returns the running total paid to equity.
func (t *Tracker) CumulativeDistributions() money.Decimal {
	total := money.Zero
	for _, d := range t.distributions {
		total = total.Add(d.Amount)
	}
	return total
}

// IRR solves the equity tranche's cumulative internal rate of return over
// the initial investment plus every distribution recorded so far, via
// xirr.Solve. With fewer than two flows (no distributions recorded yet)
// it returns zero without attempting a solve, since a single cash flow
// has no defined IRR.
func (t *Tracker) IRR() (money.Decimal, error) {
	if len(t.distributions) == 0 {
		return money.Zero, nil
	}
	flows := make([]xirr.CashFlow, 0, len(t.distributions)+1)
	flows = append(flows, xirr.CashFlow(t.initialInvestment))
	for _, d := range t.distributions {
		flows = append(flows, xirr.CashFlow(d))
	}
	result, err := xirr.Solve("equity_irr", flows)
	if err != nil {
		return result.Rate, err
	}
	return result.Rate, nil
}

// PerformanceFeeSplit computes the GP's incentive-fee share of
// residualCash under policy: zero before the tracked IRR clears
// policy.HurdleRate (all cash flows to the LP/equity side), then
// policy.CatchUpRate once met, per spec §4.7's catch-up allocation. This
// mirrors waterfall.HurdlePolicy.HurdleMet's comparison but evaluates the
// tracker's own IRR rather than an EngineView, since the tracker is
// maintained independently of any one strategy run. Unlike HurdleMet,
// which treats a zero HurdleRate as met, a zero HurdleRate here gives the
// GP a zero share.
func (t *Tracker) PerformanceFeeSplit(policy waterfall.HurdlePolicy, residualCash money.Decimal) (gpShare, lpShare money.Decimal) {
	irr, err := t.IRR()
	if err != nil {
		irr = money.Zero
	}
	if policy.HurdleRate.IsZero() || irr.LessThan(policy.HurdleRate) {
		return money.Zero, residualCash
	}
	gpShare = residualCash.Mul(policy.CatchUpRate)
	lpShare = residualCash.Sub(gpShare)
	return gpShare, lpShare
}
