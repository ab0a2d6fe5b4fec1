package waterfall

// NewTurboStrategy builds the Turbo variant of spec §4.7: identical to
// Traditional except principal payments advance ahead of reserve funding,
// and each tranche's principal step sweeps the full remaining collateral
// collection balance rather than just its scheduled amount, accelerating
// paydown ("remaining-cash-after-interest is fully applied to principal
// until tests are cured").
func NewTurboStrategy(cfg Config) (*Strategy, error) {
	base, err := NewTraditionalStrategy(cfg)
	if err != nil {
		return nil, err
	}
	base.Name = "Turbo"

	sweep, err := parseOrDefault("turbo_sweep", "", "available_cash")
	if err != nil {
		return nil, err
	}

	var principal, other []Step
	for _, step := range base.Sequence {
		if step.Kind == StepTranchePrincipal {
			step.Amount = sweep
			// Traditional gates principal on AllTestsPass; Turbo must sweep
			// precisely while tests are failing in order to cure them, so
			// it keeps only the payment-order (senior-retired-first) gate.
			step.Trigger = seniorRetiredGate(cfg, step.TrancheName)
			principal = append(principal, step)
			continue
		}
		other = append(other, step)
	}

	// Reassemble: senior expenses, interest, then principal ahead of
	// reserve funding and everything junior to it.
	var seq []Step
	for _, step := range other {
		if step.Kind == StepSeniorExpenses || step.Kind == StepTrancheInterest {
			seq = append(seq, step)
		}
	}
	seq = append(seq, principal...)
	for _, step := range other {
		if step.Kind != StepSeniorExpenses && step.Kind != StepTrancheInterest {
			seq = append(seq, step)
		}
	}

	base.Sequence = seq
	return base, nil
}
