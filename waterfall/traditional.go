package waterfall

import (
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/waterfall/formula"
)

const (
	defaultSeniorExpenseFormula  = "collateral_balance * 0.0002"
	defaultInterestFormula       = "tranche_balance * coupon_rate / 4"
	defaultJuniorFeeFormula      = "collateral_balance * 0.00015"
	defaultPrincipalFormula      = "tranche_balance"
	defaultReserveFundingFormula = "available_cash * 0.1"
	defaultSubordinatedFormula   = "available_cash"
)

// interestSource and principalSource resolve cfg's account overrides,
// falling back to the five standard accounts of spec §3.
func interestSource(cfg Config) feesacct.AccountName {
	if cfg.InterestSource != "" {
		return cfg.InterestSource
	}
	return feesacct.InterestCollection
}

func principalSource(cfg Config) feesacct.AccountName {
	if cfg.PrincipalSource != "" {
		return cfg.PrincipalSource
	}
	return feesacct.PrincipalCollection
}

func coalesce(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// parseOrDefault parses src (falling back to def when src is empty) and
// wraps any parse error as dealerr.UndefinedStep, since a malformed formula
// leaves the step with no usable amount (spec §7: "a step in a strategy
// sequence has no registered formula ... fatal at engine setup").
func parseOrDefault(step, src, def string) (*formula.Formula, error) {
	f, err := formula.Parse(coalesce(src, def))
	if err != nil {
		return nil, &dealerr.UndefinedStep{Step: step}
	}
	return f, nil
}

// NewTraditionalStrategy builds the Traditional Sequential Pay strategy of
// spec §4.7: senior expenses, tranche interest top-down, reserve funding,
// sequential principal top-down gated on all OC/IC tests passing, junior
// fees, subordinated, residual-to-equity.
func NewTraditionalStrategy(cfg Config) (*Strategy, error) {
	seniorExpense, err := parseOrDefault("senior_expenses", cfg.SeniorExpenseFormula, defaultSeniorExpenseFormula)
	if err != nil {
		return nil, err
	}
	juniorFee, err := parseOrDefault("junior_fees", cfg.JuniorFeeFormula, defaultJuniorFeeFormula)
	if err != nil {
		return nil, err
	}
	reserveFunding, err := parseOrDefault("reserve_funding", cfg.ReserveFundingFormula, defaultReserveFundingFormula)
	if err != nil {
		return nil, err
	}
	subordinated, err := parseOrDefault("subordinated", cfg.SubordinatedFormula, defaultSubordinatedFormula)
	if err != nil {
		return nil, err
	}
	residual, err := formula.Parse("available_cash")
	if err != nil {
		return nil, err
	}

	intSrc, prinSrc := interestSource(cfg), principalSource(cfg)

	var seq []Step
	seq = append(seq, Step{
		Name: "senior_expenses", Kind: StepSeniorExpenses, Trigger: AlwaysFires,
		Amount: seniorExpense, Source: intSrc, Destination: feesacct.Custodial,
	})

	for _, tr := range cfg.Tranches {
		interestFormula, err := parseOrDefault("interest_"+tr.Name, cfg.InterestFormula, defaultInterestFormula)
		if err != nil {
			return nil, err
		}
		seq = append(seq, Step{
			Name: "interest_" + tr.Name, Kind: StepTrancheInterest, TrancheName: tr.Name,
			Trigger: AlwaysFires, Amount: interestFormula,
			Source: intSrc, Destination: feesacct.Custodial,
			PIKEligible: tr.PIKAllowed,
		})
	}

	seq = append(seq, Step{
		Name: "reserve_funding", Kind: StepReserveFunding, Trigger: AlwaysFires,
		Amount: reserveFunding, Source: intSrc, Destination: feesacct.InterestReserve,
	})

	for _, tr := range cfg.Tranches {
		principalFormula, err := parseOrDefault("principal_"+tr.Name, cfg.PrincipalFormula, defaultPrincipalFormula)
		if err != nil {
			return nil, err
		}
		seq = append(seq, Step{
			Name: "principal_" + tr.Name, Kind: StepTranchePrincipal, TrancheName: tr.Name,
			Trigger: sequentialPrincipalGate(cfg, tr.Name),
			Amount:  principalFormula,
			Source:  prinSrc, Destination: feesacct.Custodial,
		})
	}

	seq = append(seq, Step{
		Name: "junior_fees", Kind: StepJuniorFees, Trigger: AlwaysFires,
		Amount: juniorFee, Source: intSrc, Destination: feesacct.Custodial,
	})
	seq = append(seq, Step{
		Name: "subordinated", Kind: StepSubordinated, Trigger: AlwaysFires,
		Amount: subordinated, Source: intSrc, Destination: feesacct.Custodial,
	})
	seq = append(seq, Step{
		Name: "residual", Kind: StepResidual, Trigger: AlwaysFires,
		Amount: residual, Source: prinSrc, Destination: cfg.ResidualDest,
	})

	return &Strategy{Name: "Traditional", Sequence: seq, PIKPolicy: NoPIK}, nil
}

// sequentialPrincipalGate gates a given tranche's principal step on every
// senior tranche already being fully retired (payment-order preservation,
// spec §8) and on all OC/IC tests currently passing (spec §4.7: "only when
// all OC/IC tests pass").
func sequentialPrincipalGate(cfg Config, trancheName string) Trigger {
	retired := seniorRetiredGate(cfg, trancheName)
	return func(view EngineView) (bool, error) {
		if !view.AllTestsPass() {
			return false, nil
		}
		return retired(view)
	}
}

// seniorRetiredGate fires once every tranche senior to trancheName carries a
// zero balance (spec §8's payment-order-preservation law), with no
// dependency on compliance test outcomes.
func seniorRetiredGate(cfg Config, trancheName string) Trigger {
	return func(view EngineView) (bool, error) {
		for _, tr := range cfg.Tranches {
			if tr.Name == trancheName {
				return true, nil
			}
			senior, ok := view.Tranche(tr.Name)
			if ok && senior.CurrentBalance.IsPositive() {
				return false, nil
			}
		}
		return true, nil
	}
}
