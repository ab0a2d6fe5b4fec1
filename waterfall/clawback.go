package waterfall

import (
	"fmt"

	"github.com/cloanalytics/dealengine/feesacct"
)

// gpCatchUpAccount holds the GP's catch-up share skimmed off an escrow
// release before the balance of the residual reaches equity.
const gpCatchUpAccount feesacct.AccountName = "GP_CATCHUP"

// installClawBackResidual replaces base's terminal residual step with the
// Equity Claw-Back harness of spec §4.7: while the cumulative-IRR hurdle is
// unmet, residual cash diverts into escrow instead of paying equity; once
// met, the escrow releases with a catch-up allocation at cfg.CatchUpRate
// before falling back to ordinary residual distribution.
func installClawBackResidual(base *Strategy, cfg Config) {
	escrow := feesacct.AccountName("EQUITY_ESCROW")
	if base.HurdlePolicy.EscrowAccount != "" {
		escrow = base.HurdlePolicy.EscrowAccount
	}

	var kept, residual []Step
	prinSrc := principalSource(cfg)
	for _, step := range base.Sequence {
		if step.Kind == StepResidual {
			residual = append(residual, step)
			continue
		}
		kept = append(kept, step)
	}

	hurdleUnmet := func(view EngineView) (bool, error) { return !base.HurdlePolicy.HurdleMet(view), nil }
	hurdleMet := func(view EngineView) (bool, error) { return base.HurdlePolicy.HurdleMet(view), nil }

	escrowDeposit, _ := parseOrDefault("residual_escrow", "", "available_cash")
	catchUp, err := parseOrDefault("residual_catchup", "", fmt.Sprintf("available_cash * %s", cfg.CatchUpRate.String()))
	if err != nil {
		catchUp, _ = parseOrDefault("residual_catchup", "", "available_cash * 0")
	}
	release, _ := parseOrDefault("residual_release", "", "available_cash")

	kept = append(kept,
		Step{
			Name: "residual_escrow", Kind: StepResidual, Trigger: hurdleUnmet,
			Amount: escrowDeposit, Source: prinSrc, Destination: escrow,
		},
		Step{
			Name: "residual_catchup", Kind: StepResidual, Trigger: hurdleMet,
			Amount: catchUp, Source: escrow, Destination: gpCatchUpAccount,
		},
		Step{
			Name: "residual_release", Kind: StepResidual, Trigger: hurdleMet,
			Amount: release, Source: escrow, Destination: cfg.ResidualDest,
		},
	)

	// Once the hurdle is met, the base strategy's own residual steps run
	// after the release, so later residual cash is distributed ordinarily.
	for _, step := range residual {
		step.Trigger = hurdleMet
		kept = append(kept, step)
	}

	base.Sequence = kept
}

// NewClawBackStrategy builds the standalone Equity Claw-Back variant of
// spec §4.7: Traditional Sequential Pay with the residual step's escrow/
// catch-up harness installed.
func NewClawBackStrategy(cfg Config) (*Strategy, error) {
	base, err := NewTraditionalStrategy(cfg)
	if err != nil {
		return nil, err
	}
	base.Name = "EquityClawBack"
	base.HurdlePolicy = HurdlePolicy{
		HurdleRate:    cfg.ClawBackHurdleRate,
		CatchUpRate:   cfg.CatchUpRate,
		EscrowAccount: "EQUITY_ESCROW",
	}
	installClawBackResidual(base, cfg)
	return base, nil
}
