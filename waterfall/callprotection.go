package waterfall

// NewCallProtectionStrategy builds the Call Protection variant of spec
// §4.7: during the non-call phase, principal steps refuse voluntary
// principal entirely (EngineView.Phase() == PhaseNonCall); from step-down
// onward, every tranche's principal step fires simultaneously and splits
// the available principal collection pro-rata by balance share
// (tranche_balance * available_cash / collateral_balance) instead of
// sequential top-down. That pro-rata amount replaces Traditional's amount
// in every phase: during ordinary amortization (neither non-call nor
// step-down), Traditional's sequential senior-first gate still decides
// which principal steps fire, and each step that fires pays its pro-rata
// share rather than the full tranche balance.
func NewCallProtectionStrategy(cfg Config) (*Strategy, error) {
	base, err := NewTraditionalStrategy(cfg)
	if err != nil {
		return nil, err
	}
	base.Name = "CallProtection"

	proRata, err := parseOrDefault("call_protection_pro_rata", "", "tranche_balance * available_cash / collateral_balance")
	if err != nil {
		return nil, err
	}

	for i, step := range base.Sequence {
		if step.Kind != StepTranchePrincipal {
			continue
		}
		sequentialTrigger := step.Trigger
		base.Sequence[i].Trigger = func(view EngineView) (bool, error) {
			switch view.Phase() {
			case PhaseNonCall:
				return false, nil
			case PhaseStepDown:
				return true, nil
			default:
				return sequentialTrigger(view)
			}
		}
		base.Sequence[i].Amount = proRata
	}

	return base, nil
}
