package dealengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/daycount"
	"github.com/cloanalytics/dealengine/dealengine"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/rating"
	"github.com/cloanalytics/dealengine/reinvest"
	"github.com/cloanalytics/dealengine/waterfall"
)

var asOfBase = time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

// lenientSuite builds a 54-test suite with thresholds so generous that
// every test passes regardless of the actual pool/tranche state, mirroring
// compliance_test.go's TestSuiteRunAggregatesAllPass fixture.
func lenientSuite() *compliance.Suite {
	reg := compliance.NewRegistry()
	var history []compliance.ThresholdRecord
	for _, test := range reg.All() {
		threshold := money.Zero
		if test.Direction() == compliance.DirectionMax {
			threshold = money.NewFromFloat(1_000_000)
		}
		history = append(history, compliance.ThresholdRecord{
			TestNumber:    test.Number(),
			Value:         threshold,
			Source:        compliance.SourceDefault,
			EffectiveDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return compliance.NewSuite(compliance.NewThresholdStore(history))
}

func lenientInputs(p *pool.Pool, asOf time.Time) compliance.Inputs {
	in := compliance.Inputs{
		Pool: p,
		AsOf: asOf,
		CoverageRatios: map[string]money.Decimal{
			"OC_A": money.NewFromFloat(1_000_000), "OC_B": money.NewFromFloat(1_000_000), "OC_C": money.NewFromFloat(1_000_000),
			"IC_A": money.NewFromFloat(1_000_000), "IC_B": money.NewFromFloat(1_000_000), "IC_C": money.NewFromFloat(1_000_000),
		},
		Metrics: map[string]money.Decimal{
			"WAL": money.Zero, "DIVERSITY": money.NewFromFloat(1_000_000), "JROC": money.NewFromFloat(1_000_000),
			"WA_MARKET_PRICE": money.NewFromFloat(1_000_000), "deferrable_share": money.Zero,
			"long_dated_share": money.Zero, "bridge_loan_share": money.Zero,
		},
		Concentrations: map[string]money.Decimal{},
	}
	for _, key := range []string{
		"industry_sp:largest", "industry_moody:largest", "industry_moody:second_largest",
		"industry_moody:industry_1", "industry_moody:industry_2", "industry_moody:industry_3", "industry_moody:industry_4",
		"industry_moody:top2", "industry_moody:top3", "industry_moody:top5",
		"group:I", "group:II", "group:III", "country:non_us", "country:US", "country:GB", "country:CA", "country:DE",
		"country:largest_outside_group_i", "country:emerging_market",
	} {
		in.Concentrations[key] = money.Zero
	}
	return in
}

func basicAsset(id string, par float64) *asset.Asset {
	return &asset.Asset{
		ID:                     id,
		InitialPar:             money.NewFromFloat(par),
		CurrentBalance:         money.NewFromFloat(par),
		CouponType:             asset.CouponFixed,
		FixedRate:              money.NewFromFloat(0.08),
		PaymentFrequencyMonths: 3,
		OriginationDate:        asOfBase.AddDate(-1, 0, 0),
		FirstPaymentDate:       asOfBase,
		MaturityDate:           asOfBase.AddDate(6, 0, 0),
		LegalFinalDate:         asOfBase.AddDate(6, 6, 0),
		DayCount:               daycount.ACT360,
		Seniority:              asset.SeniorSecuredFirstLien,
		Secured:                true,
		IndustryMoody:          "retail",
		Country:                "US",
		GroupCategory:          "I",
		Rating:                 asset.Ratings{Moody: rating.B2},
	}
}

func basicTranche(name string, seniority int, balance float64) *liability.Tranche {
	return &liability.Tranche{
		Name:            name,
		Seniority:       seniority,
		OriginalBalance: money.NewFromFloat(balance),
		CurrentBalance:  money.NewFromFloat(balance),
		CouponType:      asset.CouponFixed,
		FixedRate:       money.NewFromFloat(0.05),
		DayCount:        daycount.ACT360,
	}
}

func baseDealConfig(t *testing.T) dealengine.DealConfig {
	t.Helper()

	p := pool.New([]*asset.Asset{basicAsset("LOAN-1", 10_000_000)})
	tranches := []*liability.Tranche{
		basicTranche("A", 1, 7_000_000),
		basicTranche("B", 2, 3_000_000),
	}

	strategy, err := waterfall.NewTraditionalStrategy(waterfall.Config{
		Tranches: []waterfall.TrancheSpec{{Name: "A"}, {Name: "B"}},
		ResidualDest: feesacct.AccountName("EQUITY"),
	})
	require.NoError(t, err)

	grid := []asset.PeriodBoundary{
		{Index: 1, Start: asOfBase, End: asOfBase.AddDate(0, 3, 0)},
		{Index: 2, Start: asOfBase.AddDate(0, 3, 0), End: asOfBase.AddDate(0, 6, 0)},
	}

	return dealengine.DealConfig{
		ClosingDate:        asOfBase,
		Grid:               grid,
		Hazard:             []money.Decimal{money.Zero, money.Zero},
		Prepay:             []money.Decimal{money.Zero, money.Zero},
		RecoveryLagPeriods: 1,
		Amortize: func(_ int, beginBalance money.Decimal) money.Decimal {
			return beginBalance.Mul(money.NewFromFloat(0.1))
		},
		Pool:     p,
		Tranches: tranches,
		Strategy: strategy,
		Suite:    lenientSuite(),
		RecomputeComplianceInputs: func(p *pool.Pool, _ map[string]*liability.Tranche, _ *feesacct.Ledger, _ int, asOf time.Time) compliance.Inputs {
			return lenientInputs(p, asOf)
		},
		EquityAccount: feesacct.AccountName("EQUITY"),
	}
}

func TestRunAdvancesPeriodsAndCollectsCash(t *testing.T) {
	cfg := baseDealConfig(t)

	engine := dealengine.NewEngine(nil)
	result, err := engine.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, result.Journal, 2)

	first := result.Journal[0]
	require.True(t, first.InterestCollected.IsPositive())
	require.True(t, first.PrincipalCollected.IsPositive())
	require.True(t, first.ComplianceOutcome.AllPass)
	require.False(t, first.EventOfDefault)

	aEnd, ok := first.EndTrancheBalances["A"]
	require.True(t, ok)
	require.True(t, aEnd.LessThan(money.NewFromFloat(7_000_000)))
}

func TestRunRespectsContextCancellation(t *testing.T) {
	cfg := baseDealConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := dealengine.NewEngine(nil)
	_, err := engine.Run(ctx, cfg)
	require.Error(t, err)
	var cancelled *dealerr.Cancelled
	require.ErrorAs(t, err, &cancelled)
}

func TestRunFundsReinvestmentDuringReinvestmentPhase(t *testing.T) {
	cfg := baseDealConfig(t)
	cfg.ReinvestmentPeriods = 2
	cfg.ReinvestmentProfile = reinvest.Profile{
		PurchaseSize:  money.NewFromFloat(100_000),
		CouponType:    asset.CouponFixed,
		FixedRate:     money.NewFromFloat(0.08),
		Rating:        rating.B2,
		Seniority:     asset.SeniorSecuredFirstLien,
		Secured:       true,
		IndustryMoody: "retail",
		Country:       "US",
		GroupCategory: "I",
		DayCount:      daycount.ACT360,
	}
	cfg.ReinvestmentConcentrationTests = []int{9}

	engine := dealengine.NewEngine(nil)
	result, err := engine.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, waterfall.PhaseReinvestment, result.Journal[0].Phase)
	require.True(t, result.Journal[0].ReinvestResult.Spent.IsPositive())
}

// TestRunMag17JournalDivergesFromMag6 is a full-engine regression for the
// Mag feature matrix: Mag6 and Mag17 must not execute the same waterfall
// journal period over period. A synthetic fixture that hand-builds lenient
// compliance inputs (like the other tests in this file) would not catch the
// five Mag feature flags silently doing nothing, so this test runs the real
// dealengine.Engine with both Mag versions' built strategies and checks the
// per-period journal for Mag17-only step names.
func TestRunMag17JournalDivergesFromMag6(t *testing.T) {
	buildWith := func(t *testing.T, version string, hurdle money.Decimal) dealengine.DealConfig {
		t.Helper()
		cfg := baseDealConfig(t)
		cfg.MagVersion = version
		strategy, err := waterfall.NewMagStrategy(waterfall.Config{
			Tranches:      []waterfall.TrancheSpec{{Name: "A"}, {Name: "B"}},
			ResidualDest:  feesacct.AccountName("EQUITY"),
			MagVersion:    version,
			MagHurdleRate: hurdle,
		})
		require.NoError(t, err)
		cfg.Strategy = strategy
		return cfg
	}

	engine := dealengine.NewEngine(nil)

	mag6Result, err := engine.Run(context.Background(), buildWith(t, "Mag6", money.Zero))
	require.NoError(t, err)

	mag17Result, err := engine.Run(context.Background(), buildWith(t, "Mag17", money.Zero))
	require.NoError(t, err)

	hasStep := func(journal []waterfall.StepRecord, name string) bool {
		for _, r := range journal {
			if r.StepName == name {
				return true
			}
		}
		return false
	}

	require.False(t, hasStep(mag6Result.Journal[0].WaterfallJournal, "excess_spread_capture"),
		"Mag6 must not run Mag17-only steps")
	require.True(t, hasStep(mag17Result.Journal[0].WaterfallJournal, "excess_spread_capture"),
		"Mag17 must run its excess-spread-capture step")
	require.True(t, hasStep(mag17Result.Journal[0].WaterfallJournal, "management_fee_current") ||
		hasStep(mag17Result.Journal[0].WaterfallJournal, "management_fee_deferred"),
		"Mag17 must run its management-fee-deferral steps")
	require.NotEqual(t, len(mag6Result.Journal[0].WaterfallJournal), len(mag17Result.Journal[0].WaterfallJournal),
		"Mag6 and Mag17 must not execute the same step journal")
}

func TestRunDetectsEventOfDefaultAfterConsecutiveFailures(t *testing.T) {
	cfg := baseDealConfig(t)
	cfg.EventOfDefaultTests = []int{1}
	cfg.RecomputeComplianceInputs = func(p *pool.Pool, _ map[string]*liability.Tranche, _ *feesacct.Ledger, _ int, asOf time.Time) compliance.Inputs {
		in := lenientInputs(p, asOf)
		return in
	}
	// Force test 1 (largest single obligor concentration, a Max-direction
	// test) to fail every period by overriding its threshold to zero.
	reg := compliance.NewRegistry()
	var history []compliance.ThresholdRecord
	for _, test := range reg.All() {
		threshold := money.Zero
		if test.Direction() == compliance.DirectionMax {
			threshold = money.NewFromFloat(1_000_000)
		}
		history = append(history, compliance.ThresholdRecord{
			TestNumber:    test.Number(),
			Value:         threshold,
			Source:        compliance.SourceDefault,
			EffectiveDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	history = append(history, compliance.ThresholdRecord{
		TestNumber:    1,
		Value:         money.Zero,
		Source:        compliance.SourceDealOverride,
		EffectiveDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	cfg.Suite = compliance.NewSuite(compliance.NewThresholdStore(history))

	engine := dealengine.NewEngine(nil)
	result, err := engine.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.False(t, result.Journal[0].EventOfDefault, "first failure alone should not trip EOD")
	require.True(t, result.Journal[1].EventOfDefault, "second consecutive failure should trip EOD")
}
