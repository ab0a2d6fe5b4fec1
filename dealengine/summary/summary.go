// Package summary derives the end-of-deal report from a completed
// dealengine journal. It holds no engine state of its own (spec §1's
// scope boundary keeps reporting out of the engine): every figure here is
// a pure fold over dealengine.PeriodRecord, matching the DealResult
// contract of spec §6 ("end-of-deal summary: total interest paid per
// tranche, total principal paid per tranche, equity IRR, realized losses,
// final test outcomes").
package summary

import (
	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/dealengine"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/waterfall"
)

// Report is the end-of-deal summary of spec §6.
type Report struct {
	PeriodsRun int

	InterestPaidByTranche  map[string]money.Decimal
	PrincipalPaidByTranche map[string]money.Decimal

	EquityDistributionsTotal money.Decimal
	EquityIRR                money.Decimal

	RealizedLosses money.Decimal

	FinalTestOutcome compliance.Outcome
}

// Summarize folds a dealengine.DealResult's journal into a Report. It
// recomputes every total directly from the journal's per-period records
// rather than trusting any running accumulator, so a caller can re-derive
// the same report from a persisted journal alone.
func Summarize(result dealengine.DealResult) Report {
	rep := Report{
		InterestPaidByTranche:  make(map[string]money.Decimal),
		PrincipalPaidByTranche: make(map[string]money.Decimal),
	}

	if len(result.Journal) == 0 {
		return rep
	}

	rep.PeriodsRun = len(result.Journal)

	for _, period := range result.Journal {
		for i, step := range period.StrategySequence {
			if i >= len(period.WaterfallJournal) {
				break
			}
			rec := period.WaterfallJournal[i]
			if step.TrancheName == "" {
				continue
			}
			switch step.Kind {
			case waterfall.StepTrancheInterest:
				rep.InterestPaidByTranche[step.TrancheName] = rep.InterestPaidByTranche[step.TrancheName].Add(rec.AmountPaid)
			case waterfall.StepTranchePrincipal:
				rep.PrincipalPaidByTranche[step.TrancheName] = rep.PrincipalPaidByTranche[step.TrancheName].Add(rec.AmountPaid)
			}
		}

		rep.EquityDistributionsTotal = rep.EquityDistributionsTotal.Add(period.EquityDistribution)
	}

	last := result.Journal[len(result.Journal)-1]
	rep.EquityIRR = last.EquityIRR
	rep.FinalTestOutcome = last.ComplianceOutcome
	rep.RealizedLosses = realizedLosses(result, rep.PrincipalPaidByTranche)

	return rep
}

// realizedLosses sums every tranche's terminal write-down: the opening
// balance (taken from the first period's BeginTrancheBalances) less
// principal actually paid over the deal's life less whatever balance
// remains outstanding at the last period. A tranche fully paid down has
// zero write-down; a tranche still carrying balance at termination with
// no offsetting principal paid has taken a realized loss (spec §6:
// "realized losses").
func realizedLosses(result dealengine.DealResult, principalPaid map[string]money.Decimal) money.Decimal {
	if len(result.Journal) == 0 {
		return money.Zero
	}
	opening := result.Journal[0].BeginTrancheBalances
	ending := result.Journal[len(result.Journal)-1].EndTrancheBalances

	total := money.Zero
	for name, open := range opening {
		writeDown := open.Sub(principalPaid[name]).Sub(ending[name])
		if writeDown.IsPositive() {
			total = total.Add(writeDown)
		}
	}
	return total
}
