package waterfall

import (
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/waterfall/formula"
)

// StepKind enumerates the waterfall payment positions of spec §3's
// Waterfall Step entity.
type StepKind int

const (
	StepSeniorExpenses StepKind = iota
	StepTrancheInterest
	StepReserveFunding
	StepTranchePrincipal
	StepJuniorFees
	StepReinvestment
	StepSubordinated
	StepResidual
)

// Trigger evaluates whether a step fires this period.
type Trigger func(view EngineView) (bool, error)

// AlwaysFires is the trivial trigger used by steps with no conditional gate
// (e.g. senior expenses).
func AlwaysFires(EngineView) (bool, error) { return true, nil }

// Step is one position in a waterfall sequence (spec §3).
type Step struct {
	Name        string
	Kind        StepKind
	TrancheName string // empty for steps not scoped to a single tranche
	Trigger     Trigger
	Amount      *formula.Formula
	Source      feesacct.AccountName
	Destination feesacct.AccountName

	// PIKEligible marks interest steps that consult the strategy's
	// PIKPolicy instead of paying cash when elected (spec §4.7 PIK Toggle).
	PIKEligible bool
}

// PIKPolicy decides, per tranche per period, whether an interest step
// capitalizes instead of paying cash (spec §4.7: "interest steps consult a
// PIK-election predicate").
type PIKPolicy struct {
	Elect func(view EngineView, trancheName string) bool
}

// NoPIK never elects capitalization — the policy for strategies without a
// PIK toggle.
var NoPIK = PIKPolicy{Elect: func(EngineView, string) bool { return false }}

// HurdlePolicy governs the residual/equity step's performance hurdle and
// catch-up allocation (spec §4.7 Equity Claw-Back, Mag 15/17).
type HurdlePolicy struct {
	// HurdleRate is the cumulative equity IRR that must be met before the
	// residual releases from escrow. Zero means no hurdle (cash-as-earned
	// Traditional residual).
	HurdleRate money.Decimal
	// CatchUpRate is the GP catch-up share paid once the hurdle is met,
	// before falling back to the standard split.
	CatchUpRate money.Decimal
	// EscrowAccount holds residual cash pending the hurdle being met.
	EscrowAccount feesacct.AccountName
}

// HurdleMet reports whether the policy's hurdle is satisfied under view.
func (h HurdlePolicy) HurdleMet(view EngineView) bool {
	if h.HurdleRate.IsZero() {
		return true
	}
	return view.CumulativeEquityIRR().GreaterThanOrEqual(h.HurdleRate)
}

// Strategy is the triple of spec §4.7/§9: an ordered step sequence plus the
// PIK and hurdle capability set. Triggers and amount formulas live on each
// Step rather than in separate parallel maps, but the three pieces remain
// independently suppliable — a caller assembles a Strategy directly to
// register a user-defined variant (spec §4.7: "obtained by providing the
// three pieces").
type Strategy struct {
	Name         string
	Sequence     []Step
	PIKPolicy    PIKPolicy
	HurdlePolicy HurdlePolicy
}

// StepRecord is one applied step outcome within a period's journal (spec
// §3 Waterfall Execution Record).
type StepRecord struct {
	StepName      string
	TriggerOutcome bool
	AmountDue     money.Decimal
	AmountPaid    money.Decimal
	RemainingCash money.Decimal
	Destination   feesacct.AccountName
}

// Run iterates the strategy's sequence against view (spec §4.7's harness):
// at each step, evaluate the trigger; if satisfied, compute the amount due,
// transfer min(due, available_cash) from the step's source to its
// destination, and record the outcome; continue with the residual. PIK-
// eligible interest steps (Step.PIKEligible) that are elected move no cash
// and are recorded with zero paid; the deal engine capitalizes the amount
// due into the tranche balance.
func (s *Strategy) Run(view EngineView) ([]StepRecord, error) {
	var journal []StepRecord

	for _, step := range s.Sequence {
		fire, err := step.Trigger(view)
		if err != nil {
			return journal, err
		}
		if !fire {
			journal = append(journal, StepRecord{StepName: step.Name, TriggerOutcome: false})
			continue
		}

		vars := Vars(view, step.TrancheName, step.Source)
		due := money.Zero
		if step.Amount != nil {
			due, err = step.Amount.Eval(vars)
			if err != nil {
				return journal, err
			}
		}

		if step.PIKEligible && s.PIKPolicy.Elect != nil && s.PIKPolicy.Elect(view, step.TrancheName) {
			journal = append(journal, StepRecord{
				StepName: step.Name, TriggerOutcome: true,
				AmountDue: due, AmountPaid: money.Zero,
				RemainingCash: view.AccountBalance(step.Source),
				Destination:   step.Destination,
			})
			continue
		}

		paid := view.Transfer(step.Source, step.Destination, due)
		journal = append(journal, StepRecord{
			StepName: step.Name, TriggerOutcome: true,
			AmountDue: due, AmountPaid: paid,
			RemainingCash: view.AccountBalance(step.Source),
			Destination:   step.Destination,
		})
	}

	return journal, nil
}
