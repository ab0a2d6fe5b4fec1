package dealengine

import (
	"errors"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/config"
	"github.com/cloanalytics/dealengine/daycount"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/incentive"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/reinvest"
	"github.com/cloanalytics/dealengine/waterfall"
)

// reinvestmentCustodyAccount holds cash spent funding reinvestment
// purchases — it leaves PrincipalCollection (so it is not double-counted
// toward tranche paydown) without ever crediting an external sink,
// preserving the ledger's closed-system cash total.
const reinvestmentCustodyAccount feesacct.AccountName = "REINVESTMENT_CUSTODY"

// runPeriod executes one iteration of the spec §4.8 nine-step state
// machine for the accrual period pb.
func (e *Engine) runPeriod(
	pb asset.PeriodBoundary,
	gridIndex int,
	cfg DealConfig,
	ledger *feesacct.Ledger,
	tranches map[string]*liability.Tranche,
	tracker *incentive.Tracker,
	equityAccount feesacct.AccountName,
	consecutiveFailures map[int]int,
) (PeriodRecord, []error, error) {
	record := PeriodRecord{Period: pb.Index, AsOf: pb.End, Phase: phaseFor(cfg, pb.Index)}
	var warnings []error

	// Step 1: snapshot begin-period tranche balances.
	record.BeginTrancheBalances = snapshotBalances(tranches)

	// Step 2: asset pass — project each asset's flows for this period and
	// aggregate into the Interest/Principal Collection accounts.
	var interestCollected, principalCollected money.Decimal
	for _, a := range cfg.Pool.Assets() {
		flows, err := asset.Project(
			a, []asset.PeriodBoundary{pb},
			[]money.Decimal{cfg.Hazard[gridIndex]}, []money.Decimal{cfg.Prepay[gridIndex]},
			cfg.RecoveryLagPeriods, cfg.FwdCurve, cfg.Amortize,
		)
		if err != nil {
			return record, warnings, err
		}
		for _, f := range flows {
			interestCollected = interestCollected.Add(f.ScheduledInterest)
			principalCollected = money.Sum(principalCollected, f.ScheduledPrincipal, f.Prepayment, f.Recovery)
		}
	}
	for _, a := range cfg.Pool.Assets() {
		if a.IsExhausted() {
			cfg.Pool.Remove(a.ID)
		}
	}
	if err := ledger.Deposit(pb.Index, feesacct.InterestCollection, interestCollected); err != nil {
		return record, warnings, err
	}
	if err := ledger.Deposit(pb.Index, feesacct.PrincipalCollection, principalCollected); err != nil {
		return record, warnings, err
	}
	record.InterestCollected = interestCollected
	record.PrincipalCollected = principalCollected

	// Step 3 (liability pass) is folded into the waterfall reconciliation
	// below: interest due is computed from the same tranche state by the
	// strategy's per-tranche formula, and AccrueInterest/ApplyPrincipal
	// apply the waterfall's actual cash movement once it is known.

	// Step 4: compliance pass — evaluate all 54 tests against current
	// state before the waterfall consumes any cash (spec §4.7 edge case
	// (iii): "the strategy never recomputes tests").
	inputs := cfg.RecomputeComplianceInputs(cfg.Pool, tranches, ledger, pb.Index, pb.End)
	outcome, err := cfg.Suite.Run(inputs, cfg.MagVersion, pb.End)
	if err != nil {
		return record, warnings, err
	}
	record.ComplianceOutcome = outcome

	// Step 5: event-of-default detection.
	eod := detectEOD(cfg, outcome, consecutiveFailures)
	record.EventOfDefault = eod

	passed := make(map[int]bool, len(outcome.Results))
	for _, r := range outcome.Results {
		passed[r.TestNumber] = r.Pass
	}
	view := &engineView{
		period:   pb.Index,
		phase:    record.Phase,
		tranches: tranches,
		outcome:  complianceState{passed: passed, allPass: outcome.AllPass},
		eod:      eod,
		tracker:  tracker,
		collBal:  cfg.Pool.TotalPar(),
		ledger:   ledger,
	}

	// Step 6: reinvestment pass, prior to the waterfall consuming the
	// principal collection, only during the reinvestment period (spec
	// §4.8 step 6/§4.9).
	if record.Phase == waterfall.PhaseReinvestment && cfg.ReinvestmentProfile.PurchaseSize.IsPositive() {
		reinvestResult, err := reinvest.Run(reinvest.Config{
			Budget:             ledger.Account(feesacct.PrincipalCollection).Balance,
			Profile:            cfg.ReinvestmentProfile,
			Pool:               cfg.Pool,
			Suite:              cfg.Suite,
			ConcentrationTests: cfg.ReinvestmentConcentrationTests,
			RecomputeInputs: func(_ *pool.Pool) compliance.Inputs {
				return cfg.RecomputeComplianceInputs(cfg.Pool, tranches, ledger, pb.Index, pb.End)
			},
			MagVersion: cfg.MagVersion,
			AsOf:       pb.End,
		})
		if err != nil {
			return record, warnings, err
		}
		if reinvestResult.Spent.IsPositive() {
			ledger.Transfer(pb.Index, feesacct.PrincipalCollection, reinvestmentCustodyAccount, reinvestResult.Spent)
		}
		record.ReinvestResult = reinvestResult
	}

	// The interest/principal pass: run the strategy's full ordered
	// sequence (spec §4.7's unified step list already orders interest
	// sources ahead of principal sources).
	records, err := cfg.Strategy.Run(view)
	if err != nil {
		return record, warnings, err
	}
	record.StrategySequence = cfg.Strategy.Sequence
	record.WaterfallJournal = records

	if err := reconcileTranches(cfg, pb, tranches, view, records); err != nil {
		return record, warnings, err
	}

	// Step 7: incentive fee pass.
	equityPaid := equityDistribution(records, equityAccount)
	tracker.Record(pb.End, equityPaid)
	record.EquityDistribution = equityPaid
	irr, err := tracker.IRR()
	if err != nil {
		e.logger.Warn("equity IRR solve did not converge", "period", pb.Index, "component", "incentive", "error", err)
		warnings = append(warnings, err)
		irr = money.Zero
	}
	record.EquityIRR = irr

	// Step 8 invariant checks (spec §8): tranche balance identity.
	tol := config.GetConfig().ParTolerance
	for _, t := range tranches {
		if err := t.Validate(tol); err != nil {
			var breach *dealerr.InvariantBreach
			if errors.As(err, &breach) {
				breach.Period = pb.Index
			}
			e.logger.Error("tranche balance invariant breach", "period", pb.Index, "tranche", t.Name, "error", err)
			return record, warnings, err
		}
	}

	record.EndTrancheBalances = snapshotBalances(tranches)
	return record, warnings, nil
}

func snapshotBalances(tranches map[string]*liability.Tranche) map[string]money.Decimal {
	out := make(map[string]money.Decimal, len(tranches))
	for name, t := range tranches {
		out[name] = t.CurrentBalance
	}
	return out
}

// detectEOD tracks per-test consecutive-failure counts and reports whether
// any configured event-of-default test has now failed twice in a row
// (spec §4.8 step 5 example).
func detectEOD(cfg DealConfig, outcome compliance.Outcome, consecutiveFailures map[int]int) bool {
	failing := make(map[int]bool, len(outcome.Results))
	for _, r := range outcome.Results {
		if !r.Pass {
			failing[r.TestNumber] = true
		}
	}

	eod := false
	for _, n := range cfg.EventOfDefaultTests {
		if failing[n] {
			consecutiveFailures[n]++
		} else {
			consecutiveFailures[n] = 0
		}
		if consecutiveFailures[n] >= 2 {
			eod = true
		}
	}
	return eod
}

// reconcileTranches zips cfg.Strategy.Sequence against the journal Strategy
// just produced (same length, same order, always one record per step) to
// recover which tranche each interest/principal step affected, then
// applies the actual cash moved to the tranche's own bookkeeping (spec
// §4.5): AccrueInterest for interest steps, ApplyPrincipal for principal
// steps.
func reconcileTranches(cfg DealConfig, pb asset.PeriodBoundary, tranches map[string]*liability.Tranche, view waterfall.EngineView, records []waterfall.StepRecord) error {
	for i, step := range cfg.Strategy.Sequence {
		if i >= len(records) {
			break
		}
		rec := records[i]
		if step.TrancheName == "" {
			continue
		}
		t, ok := tranches[step.TrancheName]
		if !ok {
			continue
		}

		switch step.Kind {
		case waterfall.StepTrancheInterest:
			yf, err := daycount.Fraction(pb.Start, pb.End, t.DayCount)
			if err != nil {
				return err
			}
			couponRate := trancheCouponRate(t, cfg)
			pikElected := step.PIKEligible && cfg.Strategy.PIKPolicy.Elect != nil &&
				cfg.Strategy.PIKPolicy.Elect(view, step.TrancheName)
			t.AccrueInterest(couponRate, yf, rec.AmountPaid, pikElected)
		case waterfall.StepTranchePrincipal:
			t.ApplyPrincipal(rec.AmountPaid)
		}
	}
	return nil
}

// trancheCouponRate returns the tranche's all-in coupon. Floating-rate
// tranches are expected to have their Spread field pre-seeded with the
// current reset (the deal engine does not re-derive an index fixing here;
// that belongs to the asset side's forward-curve lookup), so this simply
// adds FixedRate (the base-rate component carried at reset) and Spread.
func trancheCouponRate(t *liability.Tranche, _ DealConfig) money.Decimal {
	if t.CouponType == asset.CouponFloating {
		return t.FixedRate.Add(t.Spread)
	}
	return t.FixedRate
}

// equityDistribution sums every step paid directly to equityAccount this
// period (spec §4.8 step 7's cumulative equity distribution update).
func equityDistribution(records []waterfall.StepRecord, equityAccount feesacct.AccountName) money.Decimal {
	total := money.Zero
	for _, r := range records {
		if r.Destination == equityAccount {
			total = total.Add(r.AmountPaid)
		}
	}
	return total
}
