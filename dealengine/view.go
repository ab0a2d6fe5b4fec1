package dealengine

import (
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/waterfall"
)

// engineView is the Engine's implementation of waterfall.EngineView: a
// read-only facade over one period's state, mutable only through
// Transfer (spec §9's engine/strategy reference-cycle break).
type engineView struct {
	period   int
	phase    waterfall.Phase
	tranches map[string]*liability.Tranche
	outcome  complianceState
	eod      bool
	tracker  equityIRRSource
	collBal  money.Decimal
	ledger   *feesacct.Ledger
}

// complianceState is the minimal slice of a compliance.Outcome the view
// needs, decoupling this file from the compliance package's Result shape.
type complianceState struct {
	passed  map[int]bool
	allPass bool
}

// equityIRRSource abstracts incentive.Tracker down to the single method
// the view consults, so this package's only dependency on incentive is
// through this interface rather than a concrete type.
type equityIRRSource interface {
	IRR() (money.Decimal, error)
}

func (v *engineView) Period() int            { return v.period }
func (v *engineView) Phase() waterfall.Phase  { return v.phase }

func (v *engineView) Tranche(name string) (*liability.Tranche, bool) {
	t, ok := v.tranches[name]
	return t, ok
}

func (v *engineView) TestPassed(n int) (pass bool, known bool) {
	p, ok := v.outcome.passed[n]
	return p, ok
}

func (v *engineView) AllTestsPass() bool { return v.outcome.allPass }

func (v *engineView) EventOfDefault() bool { return v.eod }

func (v *engineView) CumulativeEquityIRR() money.Decimal {
	irr, err := v.tracker.IRR()
	if err != nil {
		return money.Zero
	}
	return irr
}

func (v *engineView) CollateralBalance() money.Decimal { return v.collBal }

func (v *engineView) AccountBalance(name feesacct.AccountName) money.Decimal {
	return v.ledger.Account(name).Balance
}

func (v *engineView) Transfer(from, to feesacct.AccountName, amount money.Decimal) money.Decimal {
	return v.ledger.Transfer(v.period, from, to, amount)
}
