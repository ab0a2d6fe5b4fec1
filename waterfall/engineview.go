// Package waterfall implements the strategy harness of spec §4.7/§9: a
// strategy is the triple (sequence, trigger predicates, amount formulas)
// that the engine iterates each period, applying min(due, available_cash)
// at each step. Strategy kinds are a tagged variant plus a capability set
// {sequence, triggers, amounts, pik_policy, hurdle_policy} rather than the
// legacy VB class-inheritance hierarchy, per spec §9's re-architecture
// note; new strategies register with Registry by name.
package waterfall

import (
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/waterfall/formula"
)

// Phase is the deal's current lifecycle phase, consulted by triggers such
// as Call Protection's non-call/step-down split and Turbo's reserve-funding
// override.
type Phase int

const (
	PhaseReinvestment Phase = iota
	PhaseAmortization
	PhaseNonCall
	PhaseStepDown
)

// EngineView is the read-only facade over engine state passed into every
// strategy call, breaking the engine/strategy reference cycle (spec §9):
// the strategy is stateless and never mutates engine state except through
// Transfer.
type EngineView interface {
	Period() int
	Phase() Phase

	// Tranche returns the named tranche's current state for triggers and
	// formula variable construction. The returned pointer must not be
	// mutated by callers other than via Transfer/ApplyPrincipal calls the
	// engine itself makes between steps.
	Tranche(name string) (*liability.Tranche, bool)

	// TestPassed reports whether compliance test number n passed this
	// period. The orchestrator pre-runs all tests (spec §4.8 step 4)
	// before the waterfall runs, so this never triggers a fresh evaluation
	// (spec §4.7 edge case (iii): "the strategy never recomputes tests").
	TestPassed(n int) (pass bool, known bool)
	AllTestsPass() bool

	// EventOfDefault reports whether this period is running under the EOD
	// waterfall (spec §4.8 step 5).
	EventOfDefault() bool

	// CumulativeEquityIRR is the incentive tracker's latest IRR estimate,
	// consulted by hurdle-based triggers (Equity Claw-Back, Mag 15/17).
	CumulativeEquityIRR() money.Decimal

	// CollateralBalance is the pool's current total par, one of the fixed
	// formula variables.
	CollateralBalance() money.Decimal

	// AccountBalance reads an account balance without transferring.
	AccountBalance(name feesacct.AccountName) money.Decimal

	// Transfer moves min(amount, from.Balance) from one account to
	// another, recording an audited ledger entry, and returns the amount
	// actually moved — the sole mutating verb a strategy may invoke.
	Transfer(from, to feesacct.AccountName, amount money.Decimal) money.Decimal
}

// Vars builds the fixed formula variable vocabulary of spec §9
// ("tranche_balance, coupon_rate, collateral_balance, available_cash, ...")
// for the named tranche and source account.
func Vars(view EngineView, trancheName string, source feesacct.AccountName) formula.Vars {
	vars := formula.Vars{
		"collateral_balance": view.CollateralBalance(),
		"available_cash":     view.AccountBalance(source),
	}
	if t, ok := view.Tranche(trancheName); ok {
		vars["tranche_balance"] = t.CurrentBalance
		vars["coupon_rate"] = t.FixedRate
		vars["deferred_interest"] = t.DeferredInterest
	}
	return vars
}
