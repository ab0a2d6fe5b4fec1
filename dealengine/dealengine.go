// Package dealengine implements the deal engine orchestrator of spec
// §4.8 (C10): the nine-step per-period state machine that drives the
// asset, liability, compliance, waterfall, reinvestment, and incentive
// passes to a deterministic conclusion, given (initial state, schedules,
// curves, strategy, random seed) per spec §5.
package dealengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/config"
	"github.com/cloanalytics/dealengine/curve"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/incentive"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/reinvest"
	"github.com/cloanalytics/dealengine/waterfall"
)

// DealConfig bundles every input the orchestrator needs to run a deal from
// period 1 through termination (spec §6: "run_deal(deal_config,
// initial_pool, payment_schedule, yield_curves, strategy_config,
// random_seed?)").
type DealConfig struct {
	ClosingDate time.Time
	Grid        []asset.PeriodBoundary

	// Hazard and Prepay are shared per-period default and prepayment rate
	// vectors applied uniformly to every asset in the pool, matching
	// len(Grid). A deal requiring per-asset vectors can still be modeled
	// by splitting the pool into per-vector sub-engines; this orchestrator
	// covers the common single-vector case.
	Hazard, Prepay     []money.Decimal
	RecoveryLagPeriods int
	FwdCurve           *curve.Curve
	Amortize           func(period int, beginBalance money.Decimal) money.Decimal

	Pool     *pool.Pool
	Tranches []*liability.Tranche
	Strategy *waterfall.Strategy

	Suite      *compliance.Suite
	MagVersion string

	// RecomputeComplianceInputs rebuilds the per-period compliance.Inputs
	// from current pool/tranche/ledger state. Aggregation of
	// concentration/coverage/metric scalars is the caller's concern (spec
	// §4.6 Inputs docs), not the engine's.
	RecomputeComplianceInputs func(p *pool.Pool, tranches map[string]*liability.Tranche, ledger *feesacct.Ledger, period int, asOf time.Time) compliance.Inputs

	// EventOfDefaultTests lists compliance test numbers whose failure for
	// two consecutive periods switches the deal to the EOD waterfall for
	// that period (spec §4.8 step 5 example: "Class A IC failing for two
	// consecutive periods, or OC below cure level").
	EventOfDefaultTests []int

	// Phase boundaries (spec §4.7's Phase enum, consulted by Call
	// Protection/Turbo/Mag triggers). A period is NonCall through
	// NonCallPeriods, then Reinvestment through ReinvestmentPeriods (if
	// greater), then StepDown from StepDownPeriod onward (if set and
	// reached), else Amortization.
	NonCallPeriods      int
	ReinvestmentPeriods int
	StepDownPeriod      int

	ReinvestmentProfile           reinvest.Profile
	ReinvestmentConcentrationTests []int

	EquityInitialInvestment money.Decimal
	EquityAccount           feesacct.AccountName

	// OnPeriodComplete is invoked after each period's journal write (spec
	// §9's progress-bar replacement callback); nil is a valid no-op.
	OnPeriodComplete func(period int, stats PeriodStats)
}

// PeriodStats is the subset of a period's outcome surfaced to
// OnPeriodComplete, independent of the full PeriodRecord journal shape.
type PeriodStats struct {
	Period             int
	AsOf               time.Time
	InterestCollected  money.Decimal
	PrincipalCollected money.Decimal
	AllTestsPass       bool
	EventOfDefault     bool
}

// PeriodRecord is one period's complete journal entry (spec §4.8 step 8:
// "inputs, test outcomes, waterfall journal, end-of-period balances").
type PeriodRecord struct {
	Period  int
	AsOf    time.Time
	Phase   waterfall.Phase
	BeginTrancheBalances map[string]money.Decimal
	EndTrancheBalances   map[string]money.Decimal

	InterestCollected  money.Decimal
	PrincipalCollected money.Decimal

	ComplianceOutcome compliance.Outcome
	EventOfDefault    bool

	// StrategySequence is the strategy's step definitions in the same
	// order as WaterfallJournal, so a reader of a standalone journal (e.g.
	// the summary package) can zip the two without holding a reference to
	// the Strategy itself.
	StrategySequence []waterfall.Step
	WaterfallJournal []waterfall.StepRecord
	ReinvestResult   reinvest.Result

	EquityDistribution money.Decimal
	EquityIRR          money.Decimal
}

// DealResult is the orchestrator's output (spec §6: "DealResult exposes:
// the period journal, end-of-deal summary").
type DealResult struct {
	Journal  []PeriodRecord
	Warnings []error
}

// Engine runs deals. It carries no per-run state between Run calls.
type Engine struct {
	logger *slog.Logger
}

// NewEngine constructs an Engine. A nil logger defaults to slog.Default()
// (SPEC_FULL.md's ambient-logging convention).
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Run executes the nine-step per-period state machine of spec §4.8 over
// cfg.Grid, checking ctx.Err() between periods (spec §5 cancellation) and
// invoking cfg.OnPeriodComplete after each journal write. Terminates early
// when every tranche is paid down and the pool balance is zero.
func (e *Engine) Run(ctx context.Context, cfg DealConfig) (DealResult, error) {
	if err := validate(cfg); err != nil {
		return DealResult{}, err
	}

	ledger := feesacct.NewLedger()
	tranches := make(map[string]*liability.Tranche, len(cfg.Tranches))
	for _, t := range cfg.Tranches {
		tranches[t.Name] = t
	}

	equityAccount := cfg.EquityAccount
	if equityAccount == "" {
		equityAccount = feesacct.AccountName("EQUITY")
	}
	tracker := incentive.NewTracker(cfg.ClosingDate, cfg.EquityInitialInvestment)

	consecutiveFailures := make(map[int]int)
	result := DealResult{}

	for i, pb := range cfg.Grid {
		if err := ctx.Err(); err != nil {
			return result, &dealerr.Cancelled{Period: pb.Index}
		}

		record, warnings, err := e.runPeriod(pb, i, cfg, ledger, tranches, tracker, equityAccount, consecutiveFailures)
		if err != nil {
			return result, err
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Journal = append(result.Journal, record)

		if cfg.OnPeriodComplete != nil {
			cfg.OnPeriodComplete(record.Period, PeriodStats{
				Period:             record.Period,
				AsOf:               record.AsOf,
				InterestCollected:  record.InterestCollected,
				PrincipalCollected: record.PrincipalCollected,
				AllTestsPass:       record.ComplianceOutcome.AllPass,
				EventOfDefault:     record.EventOfDefault,
			})
		}

		if dealTerminated(cfg, tranches) {
			break
		}
	}

	return result, nil
}

// dealTerminated reports the termination condition of spec §4.8: every
// tranche paid down and the pool balance is zero.
func dealTerminated(cfg DealConfig, tranches map[string]*liability.Tranche) bool {
	if !cfg.Pool.TotalPar().IsZero() {
		return false
	}
	for _, t := range tranches {
		if t.CurrentBalance.IsPositive() {
			return false
		}
	}
	return true
}

func validate(cfg DealConfig) error {
	if cfg.Pool == nil || cfg.Strategy == nil || cfg.Suite == nil {
		return dealerr.NewBadInput("dealengine: Pool, Strategy, and Suite are required")
	}
	if cfg.RecomputeComplianceInputs == nil {
		return dealerr.NewBadInput("dealengine: RecomputeComplianceInputs is required")
	}
	if len(cfg.Hazard) != len(cfg.Grid) || len(cfg.Prepay) != len(cfg.Grid) {
		return dealerr.NewBadInput("dealengine: Hazard/Prepay vectors must match Grid length")
	}
	return nil
}

// phaseFor resolves the deal's lifecycle phase for period, per the
// boundaries documented on DealConfig.
func phaseFor(cfg DealConfig, period int) waterfall.Phase {
	if cfg.StepDownPeriod > 0 && period >= cfg.StepDownPeriod {
		return waterfall.PhaseStepDown
	}
	if period <= cfg.NonCallPeriods {
		return waterfall.PhaseNonCall
	}
	if period <= cfg.ReinvestmentPeriods {
		return waterfall.PhaseReinvestment
	}
	return waterfall.PhaseAmortization
}
