package waterfall

import (
	"fmt"

	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/money"
)

// ErrMagHurdleRateRequired is returned when building a Mag 12 strategy
// without an explicit Config.MagHurdleRate, per spec §9 Open Question (ii):
// the source materials document conflicting Mag 12 hurdle rates (11% vs
// 11.5%), so the implementation refuses to guess and requires the caller to
// supply it.
var ErrMagHurdleRateRequired = dealerr.NewBadInput("waterfall: Mag 12 requires an explicit Config.MagHurdleRate (documented sources disagree: 11%% vs 11.5%%)")

// magHurdleTable is the documented Mag-version hurdle-rate lookup (spec
// §4.7: "each version also binds specific hurdle rates, Mag 6 = 8% to
// Mag 17 = 15%"). Mag 12 is intentionally absent — Config.MagHurdleRate is
// mandatory for that version.
var magHurdleTable = map[string]float64{
	"Mag6": 0.08, "Mag7": 0.085, "Mag8": 0.09, "Mag9": 0.095,
	"Mag10": 0.10, "Mag11": 0.105,
	"Mag13": 0.115, "Mag14": 0.12, "Mag15": 0.125, "Mag16": 0.13, "Mag17": 0.15,
}

// incentiveFeeShareTable is the collateral manager's share of the GP
// catch-up allocation once incentive-fee sharing is enabled (Mag 12+),
// rising with the Mag version (spec §4.7: "incentive fee sharing").
var incentiveFeeShareTable = map[string]float64{
	"Mag12": 0.20, "Mag13": 0.20,
	"Mag14": 0.25, "Mag15": 0.25, "Mag16": 0.25,
	"Mag17": 0.30,
}

// secondHurdleMargin is the extra cumulative-IRR cushion above the base
// hurdle that Mag 15+'s second incentive tier requires (spec §4.7: "IRR
// hurdle triggers").
const secondHurdleMargin = 0.02

const (
	defaultManagementFeeFormula      = "collateral_balance * 0.0025"
	defaultReinvestmentOverlayFormula = "available_cash * 0.01"
	defaultExcessSpreadFormula        = "available_cash * 0.05"
	defaultSecondTierPromoteFormula   = "available_cash * 0.1"
)

const (
	managementFeeEscrowAccount feesacct.AccountName = "MANAGEMENT_FEE_ESCROW"
	incentiveFeeSharePool      feesacct.AccountName = "INCENTIVE_FEE_SHARE"
	excessSpreadCaptureAccount feesacct.AccountName = "EXCESS_SPREAD_CAPTURE"

	// reinvestmentCustodyAccount mirrors dealengine's own unexported
	// account of the same name (package dealengine, period.go): the
	// custody bucket a period's reinvestment spend is parked in before
	// the waterfall runs. Account identity is by name, not by Go
	// identifier, so this package can read/skim it without an import
	// cycle back into dealengine.
	reinvestmentCustodyAccount feesacct.AccountName = "REINVESTMENT_CUSTODY"
)

// magFeatures is the feature-enablement matrix of spec §4.7.
type magFeatures struct {
	turboPrincipal         bool
	equityClawBack         bool
	managementFeeDeferral  bool
	incentiveFeeSharing    bool
	reinvestmentOverlayFee bool
	irrHurdleTriggers      bool
	distributionStopper    bool
	callProtectionOverride bool
	excessSpreadCapture    bool
}

func featuresFor(version string) (magFeatures, error) {
	var f magFeatures
	switch version {
	case "Mag6", "Mag7":
		f.turboPrincipal = true
	case "Mag8", "Mag9":
		f.turboPrincipal = true
		f.equityClawBack = true
	case "Mag10", "Mag11":
		f.turboPrincipal = true
		f.equityClawBack = true
		f.managementFeeDeferral = true
	case "Mag12", "Mag13":
		f.turboPrincipal = true
		f.equityClawBack = true
		f.managementFeeDeferral = true
		f.incentiveFeeSharing = true
	case "Mag14":
		f.turboPrincipal = true
		f.equityClawBack = true
		f.managementFeeDeferral = true
		f.incentiveFeeSharing = true
		f.reinvestmentOverlayFee = true
	case "Mag15":
		f.turboPrincipal = true
		f.equityClawBack = true
		f.managementFeeDeferral = true
		f.incentiveFeeSharing = true
		f.reinvestmentOverlayFee = true
		f.irrHurdleTriggers = true
	case "Mag16":
		f.turboPrincipal = true
		f.equityClawBack = true
		f.managementFeeDeferral = true
		f.incentiveFeeSharing = true
		f.reinvestmentOverlayFee = true
		f.irrHurdleTriggers = true
		f.distributionStopper = true
	case "Mag17":
		f = magFeatures{true, true, true, true, true, true, true, true, true}
	default:
		return magFeatures{}, fmt.Errorf("waterfall: unknown Mag version %q", version)
	}
	return f, nil
}

// magHurdleRate resolves the Config's hurdle rate for its MagVersion,
// enforcing the Mag 12 required-field rule.
func magHurdleRate(cfg Config) (money.Decimal, error) {
	if cfg.MagVersion == "Mag12" {
		if cfg.MagHurdleRate.IsZero() {
			return money.Zero, ErrMagHurdleRateRequired
		}
		return cfg.MagHurdleRate, nil
	}
	if !cfg.MagHurdleRate.IsZero() {
		return cfg.MagHurdleRate, nil
	}
	rate, ok := magHurdleTable[cfg.MagVersion]
	if !ok {
		return money.Zero, fmt.Errorf("waterfall: no documented hurdle rate for Mag version %q", cfg.MagVersion)
	}
	return money.NewFromFloat(rate), nil
}

// NewMagStrategy builds a Magnetar-family strategy (Mag 6 through Mag 17)
// layered on top of Traditional Sequential Pay, per spec §4.7's feature
// matrix. Turbo-enabled versions reorder principal ahead of reserve
// funding exactly as NewTurboStrategy does; equity-claw-back-enabled
// versions install the hurdle/catch-up residual; later versions
// progressively add management-fee deferral, incentive-fee sharing, a
// reinvestment overlay fee, a second IRR hurdle tier, a distribution
// stopper, and (Mag 17) the call-protection override plus excess-spread
// capture — each flag installs its own cash-moving step rather than just
// being recorded and ignored.
func NewMagStrategy(cfg Config) (*Strategy, error) {
	features, err := featuresFor(cfg.MagVersion)
	if err != nil {
		return nil, err
	}
	hurdleRate, err := magHurdleRate(cfg)
	if err != nil {
		return nil, err
	}

	var base *Strategy
	if features.turboPrincipal {
		base, err = NewTurboStrategy(cfg)
	} else {
		base, err = NewTraditionalStrategy(cfg)
	}
	if err != nil {
		return nil, err
	}
	base.Name = cfg.MagVersion

	if features.equityClawBack {
		base.HurdlePolicy = HurdlePolicy{
			HurdleRate:    hurdleRate,
			CatchUpRate:   cfg.CatchUpRate,
			EscrowAccount: "EQUITY_ESCROW",
		}
		installClawBackResidual(base, cfg)
	}

	if features.managementFeeDeferral {
		installManagementFeeDeferral(base, cfg, hurdleRate)
	}

	if features.incentiveFeeSharing {
		installIncentiveFeeSharing(base, cfg.MagVersion)
	}

	if features.reinvestmentOverlayFee {
		installReinvestmentOverlayFee(base, cfg)
	}

	if features.irrHurdleTriggers {
		installIRRHurdleTriggers(base, hurdleRate)
	}

	if features.distributionStopper {
		installDistributionStopper(base)
	}

	if features.callProtectionOverride {
		releaseNonCallGates(base)
	}

	if features.excessSpreadCapture {
		installExcessSpreadCapture(base, cfg)
	}

	return base, nil
}

// installManagementFeeDeferral installs the management fee as a hurdle-
// gated step (spec §4.7 Mag 10/11: "management fee deferral ... when
// equity IRR is below minimum"): while the cumulative equity IRR sits
// below the strategy's hurdle, the period's fee due diverts into an
// escrow account instead of being paid; once the hurdle is met, the
// current fee pays directly and the entire escrowed balance releases in
// one catch-up sweep. This mirrors the Equity Claw-Back escrow/release
// idiom (clawback.go) with the collateral manager as beneficiary instead
// of equity.
func installManagementFeeDeferral(base *Strategy, cfg Config, hurdleRate money.Decimal) {
	intSrc := interestSource(cfg)
	fee, _ := parseOrDefault("management_fee", "", defaultManagementFeeFormula)
	release, _ := parseOrDefault("management_fee_catchup", "", "available_cash")

	hurdleMet := func(view EngineView) (bool, error) {
		return view.CumulativeEquityIRR().GreaterThanOrEqual(hurdleRate), nil
	}
	hurdleUnmet := func(view EngineView) (bool, error) {
		met, err := hurdleMet(view)
		return !met, err
	}

	base.Sequence = insertBefore(base.Sequence, StepTrancheInterest,
		Step{
			Name: "management_fee_current", Kind: StepJuniorFees, Trigger: hurdleMet,
			Amount: fee, Source: intSrc, Destination: feesacct.Custodial,
		},
		Step{
			Name: "management_fee_deferred", Kind: StepJuniorFees, Trigger: hurdleUnmet,
			Amount: fee, Source: intSrc, Destination: managementFeeEscrowAccount,
		},
		Step{
			Name: "management_fee_catchup", Kind: StepJuniorFees, Trigger: hurdleMet,
			Amount: release, Source: managementFeeEscrowAccount, Destination: feesacct.Custodial,
		},
	)
}

// installIncentiveFeeSharing skims a version-dependent share of the GP
// catch-up allocation into a separate collateral-manager pool (spec §4.7
// Mag 12+: "incentive fee sharing"), run immediately after the claw-back
// residual's catch-up step deposits cash into gpCatchUpAccount. Versions
// with no documented share (anything before Mag 12) install nothing,
// which is how Mag 6 and Mag 12 differ under this flag.
func installIncentiveFeeSharing(base *Strategy, version string) {
	share, ok := incentiveFeeShareTable[version]
	if !ok {
		return
	}
	formula, _ := parseOrDefault("incentive_fee_share", "", fmt.Sprintf("available_cash * %s", money.NewFromFloat(share).String()))
	base.Sequence = append(base.Sequence, Step{
		Name: "incentive_fee_share", Kind: StepResidual, Trigger: AlwaysFires,
		Amount: formula, Source: gpCatchUpAccount, Destination: incentiveFeeSharePool,
	})
}

// installReinvestmentOverlayFee charges an overlay fee against the
// period's reinvestment spend (spec §4.7 Mag 14+: "reinvestment overlay
// fee"), skimming from the same named custody account dealengine parks
// reinvestment spend in (reinvestmentCustodyAccount) before the waterfall
// sees it, active only during the reinvestment phase.
func installReinvestmentOverlayFee(base *Strategy, cfg Config) {
	amount, _ := parseOrDefault("reinvestment_overlay_fee", "", defaultReinvestmentOverlayFormula)
	trigger := func(view EngineView) (bool, error) { return view.Phase() == PhaseReinvestment, nil }
	base.Sequence = insertBefore(base.Sequence, StepTrancheInterest, Step{
		Name: "reinvestment_overlay_fee", Kind: StepReinvestment, Trigger: trigger,
		Amount: amount, Source: reinvestmentCustodyAccount, Destination: feesacct.Custodial,
	})
}

// installIRRHurdleTriggers installs a second, higher IRR hurdle tier
// (spec §4.7 Mag 15+: "IRR hurdle triggers") above the claw-back escrow's
// base hurdle: once cumulative equity IRR clears hurdleRate plus
// secondHurdleMargin, an additional promote skims out of the escrow
// account before the ordinary residual release sweeps the remainder to
// equity.
func installIRRHurdleTriggers(base *Strategy, hurdleRate money.Decimal) {
	secondHurdle := hurdleRate.Add(money.NewFromFloat(secondHurdleMargin))
	secondMet := func(view EngineView) (bool, error) {
		return view.CumulativeEquityIRR().GreaterThanOrEqual(secondHurdle), nil
	}
	promote, _ := parseOrDefault("second_tier_promote", "", defaultSecondTierPromoteFormula)

	escrow := base.HurdlePolicy.EscrowAccount
	base.Sequence = insertAfterName(base.Sequence, "residual_catchup", Step{
		Name: "second_tier_promote", Kind: StepResidual, Trigger: secondMet,
		Amount: promote, Source: escrow, Destination: gpCatchUpAccount,
	})
}

// installDistributionStopper gates the residual step on every compliance
// test passing (spec §4.7 Mag 16: "a distribution stopper when covenants
// are breached").
func installDistributionStopper(s *Strategy) {
	for i, step := range s.Sequence {
		if step.Kind == StepResidual {
			prior := step.Trigger
			s.Sequence[i].Trigger = func(view EngineView) (bool, error) {
				if !view.AllTestsPass() {
					return false, nil
				}
				return prior(view)
			}
		}
	}
}

// releaseNonCallGates removes any non-call-period restriction from
// principal steps (spec §4.7 Mag 17: "call-protection override").
func releaseNonCallGates(s *Strategy) {
	for i, step := range s.Sequence {
		if step.Kind == StepTranchePrincipal {
			s.Sequence[i].Trigger = AlwaysFires
		}
	}
}

// installExcessSpreadCapture sweeps a fixed share of remaining cash into
// a dedicated capture account immediately before the residual steps run
// (spec §4.7 Mag 17: "excess spread capture"), so that share never
// reaches the equity claw-back escrow at all.
func installExcessSpreadCapture(base *Strategy, cfg Config) {
	amount, _ := parseOrDefault("excess_spread_capture", "", defaultExcessSpreadFormula)
	base.Sequence = insertBefore(base.Sequence, StepResidual, Step{
		Name: "excess_spread_capture", Kind: StepSubordinated, Trigger: AlwaysFires,
		Amount: amount, Source: principalSource(cfg), Destination: excessSpreadCaptureAccount,
	})
}

// insertBefore splices steps into seq immediately before the first step
// of the given kind, or at the end if no such step exists.
func insertBefore(seq []Step, kind StepKind, steps ...Step) []Step {
	idx := len(seq)
	for i, s := range seq {
		if s.Kind == kind {
			idx = i
			break
		}
	}
	out := make([]Step, 0, len(seq)+len(steps))
	out = append(out, seq[:idx]...)
	out = append(out, steps...)
	out = append(out, seq[idx:]...)
	return out
}

// insertAfterName splices steps into seq immediately after the named
// step, or at the end if no step with that name exists.
func insertAfterName(seq []Step, name string, steps ...Step) []Step {
	idx := len(seq)
	for i, s := range seq {
		if s.Name == name {
			idx = i + 1
			break
		}
	}
	out := make([]Step, 0, len(seq)+len(steps))
	out = append(out, seq[:idx]...)
	out = append(out, steps...)
	out = append(out, seq[idx:]...)
	return out
}
