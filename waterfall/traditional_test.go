package waterfall_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/waterfall"
)

// fakeView is a minimal waterfall.EngineView for strategy-harness tests.
type fakeView struct {
	period    int
	phase     waterfall.Phase
	tranches  map[string]*liability.Tranche
	testPass  map[int]bool
	eod       bool
	irr       money.Decimal
	collBal   money.Decimal
	ledger    *feesacct.Ledger
}

func (v *fakeView) Period() int      { return v.period }
func (v *fakeView) Phase() waterfall.Phase { return v.phase }
func (v *fakeView) Tranche(name string) (*liability.Tranche, bool) {
	t, ok := v.tranches[name]
	return t, ok
}
func (v *fakeView) TestPassed(n int) (bool, bool) {
	p, ok := v.testPass[n]
	return p, ok
}
func (v *fakeView) AllTestsPass() bool {
	for _, p := range v.testPass {
		if !p {
			return false
		}
	}
	return true
}
func (v *fakeView) EventOfDefault() bool             { return v.eod }
func (v *fakeView) CumulativeEquityIRR() money.Decimal { return v.irr }
func (v *fakeView) CollateralBalance() money.Decimal   { return v.collBal }
func (v *fakeView) AccountBalance(name feesacct.AccountName) money.Decimal {
	return v.ledger.Account(name).Balance
}
func (v *fakeView) Transfer(from, to feesacct.AccountName, amount money.Decimal) money.Decimal {
	return v.ledger.Transfer(v.period, from, to, amount)
}

func newFakeView(t *testing.T) *fakeView {
	t.Helper()
	ledger := feesacct.NewLedger()
	return &fakeView{
		period:   1,
		phase:    waterfall.PhaseAmortization,
		tranches: make(map[string]*liability.Tranche),
		testPass: map[int]bool{1: true},
		collBal:  money.NewFromInt(100_000_000),
		ledger:   ledger,
	}
}

func baseConfig() waterfall.Config {
	return waterfall.Config{
		Tranches: []waterfall.TrancheSpec{
			{Name: "A"}, {Name: "B"},
		},
		ResidualDest: "EQUITY",
	}
}

func TestTraditionalNeverPaysJuniorPrincipalBeforeSeniorRetired(t *testing.T) {
	cfg := baseConfig()
	strategy, err := waterfall.NewTraditionalStrategy(cfg)
	require.NoError(t, err)

	v := newFakeView(t)
	v.tranches["A"] = &liability.Tranche{Name: "A", Seniority: 1, CurrentBalance: money.NewFromInt(10_000_000), OriginalBalance: money.NewFromInt(10_000_000)}
	v.tranches["B"] = &liability.Tranche{Name: "B", Seniority: 2, CurrentBalance: money.NewFromInt(5_000_000), OriginalBalance: money.NewFromInt(5_000_000)}
	require.NoError(t, v.ledger.Deposit(1, feesacct.PrincipalCollection, money.NewFromInt(20_000_000)))
	require.NoError(t, v.ledger.Deposit(1, feesacct.InterestCollection, money.NewFromInt(1_000_000)))

	records, err := strategy.Run(v)
	require.NoError(t, err)

	var paidA, paidB money.Decimal
	for _, r := range records {
		switch r.StepName {
		case "principal_A":
			paidA = r.AmountPaid
		case "principal_B":
			paidB = r.AmountPaid
		}
	}
	require.True(t, paidB.IsZero(), "class B principal must not pay while class A carries a positive balance")
	require.True(t, paidA.Equal(money.NewFromInt(10_000_000)), "class A should be paid its full scheduled balance given sufficient principal collections")
}

func TestTraditionalGatesPrincipalOnAllTestsPassing(t *testing.T) {
	cfg := baseConfig()
	strategy, err := waterfall.NewTraditionalStrategy(cfg)
	require.NoError(t, err)

	v := newFakeView(t)
	v.testPass[1] = false
	v.tranches["A"] = &liability.Tranche{Name: "A", Seniority: 1, CurrentBalance: money.NewFromInt(10_000_000), OriginalBalance: money.NewFromInt(10_000_000)}
	v.tranches["B"] = &liability.Tranche{Name: "B", Seniority: 2, CurrentBalance: money.NewFromInt(5_000_000), OriginalBalance: money.NewFromInt(5_000_000)}
	require.NoError(t, v.ledger.Deposit(1, feesacct.PrincipalCollection, money.NewFromInt(20_000_000)))
	require.NoError(t, v.ledger.Deposit(1, feesacct.InterestCollection, money.NewFromInt(1_000_000)))

	records, err := strategy.Run(v)
	require.NoError(t, err)

	for _, r := range records {
		if r.StepName == "principal_A" {
			require.False(t, r.TriggerOutcome, "principal must not fire while a compliance test is failing")
		}
	}
}

func TestTurboSweepsAvailablePrincipalIntoClassA(t *testing.T) {
	cfg := baseConfig()
	turbo, err := waterfall.NewTurboStrategy(cfg)
	require.NoError(t, err)

	v := newFakeView(t)
	v.tranches["A"] = &liability.Tranche{Name: "A", Seniority: 1, CurrentBalance: money.NewFromInt(10_000_000), OriginalBalance: money.NewFromInt(10_000_000)}
	v.tranches["B"] = &liability.Tranche{Name: "B", Seniority: 2, CurrentBalance: money.NewFromInt(5_000_000), OriginalBalance: money.NewFromInt(5_000_000)}
	require.NoError(t, v.ledger.Deposit(1, feesacct.PrincipalCollection, money.NewFromInt(8_000_000)))
	require.NoError(t, v.ledger.Deposit(1, feesacct.InterestCollection, money.NewFromInt(1_000_000)))

	records, err := turbo.Run(v)
	require.NoError(t, err)

	var paidA money.Decimal
	for _, r := range records {
		if r.StepName == "principal_A" {
			paidA = r.AmountPaid
		}
	}
	require.True(t, paidA.IsPositive(), "turbo should sweep available principal into class A ahead of reserve funding")
}

func TestPIKToggleElectedInterestStepPaysZeroCash(t *testing.T) {
	cfg := baseConfig()
	cfg.Tranches = []waterfall.TrancheSpec{{Name: "E", PIKAllowed: true}}
	elect := func(waterfall.EngineView, string) bool { return true }
	strategy, err := waterfall.NewPIKToggleStrategy(cfg, elect)
	require.NoError(t, err)

	v := newFakeView(t)
	v.tranches["E"] = &liability.Tranche{Name: "E", Seniority: 1, CurrentBalance: money.NewFromInt(1_000_000), OriginalBalance: money.NewFromInt(1_000_000), FixedRate: money.NewFromFloat(0.1), PIKAllowed: true}
	// No cash deposited: interest step must elect PIK and pay zero.

	records, err := strategy.Run(v)
	require.NoError(t, err)

	for _, r := range records {
		if r.StepName == "interest_E" {
			require.True(t, r.AmountPaid.IsZero(), "PIK-elected interest step must pay zero cash")
			require.True(t, r.AmountDue.IsPositive())
		}
	}
}
