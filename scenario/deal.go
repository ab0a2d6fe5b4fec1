package scenario

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/calendar"
	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/curve"
	"github.com/cloanalytics/dealengine/daycount"
	"github.com/cloanalytics/dealengine/dealengine"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/reinvest"
	"github.com/cloanalytics/dealengine/rating"
	"github.com/cloanalytics/dealengine/schedule"
	"github.com/cloanalytics/dealengine/waterfall"
)

// dateLayout is the YAML deal file's date encoding ("2026-07-31").
const dateLayout = "2006-01-02"

// AssetSpec is one collateral position in a YAML deal file, the subset of
// asset.Asset fields a deal definition needs to name explicitly; fields
// left blank take the documented zero value (e.g. CouponType defaults to
// FIXED, DayCount to ACT/360).
type AssetSpec struct {
	ID                string  `yaml:"id"`
	Par               float64 `yaml:"par"`
	CouponType        string  `yaml:"coupon_type"` // "FIXED" | "FLOATING"
	FixedRate         float64 `yaml:"fixed_rate"`
	Spread            float64 `yaml:"spread"`
	PaymentFrequency  int     `yaml:"payment_frequency_months"`
	MaturityYears     float64 `yaml:"maturity_years"`
	DayCount          string  `yaml:"day_count"`
	Seniority         string  `yaml:"seniority"`
	IndustryMoody     string  `yaml:"industry_moody"`
	IndustrySP        string  `yaml:"industry_sp"`
	Country           string  `yaml:"country"`
	GroupCategory     string  `yaml:"group_category"`
	RatingMoody       string  `yaml:"rating_moody"`
	CovLite           bool    `yaml:"cov_lite"`
	DIP               bool    `yaml:"dip"`
	MarketPrice       float64 `yaml:"market_price"`
}

// TrancheSpec is one note class in a YAML deal file.
type TrancheSpec struct {
	Name       string  `yaml:"name"`
	Seniority  int     `yaml:"seniority"`
	Balance    float64 `yaml:"balance"`
	FixedRate  float64 `yaml:"fixed_rate"`
	Spread     float64 `yaml:"spread"`
	Floating   bool    `yaml:"floating"`
	PIKAllowed bool    `yaml:"pik_allowed"`
	DayCount   string  `yaml:"day_count"`
}

// CurvePointSpec is one (tenor, rate) pillar of a YAML reference curve.
type CurvePointSpec struct {
	TenorYears float64 `yaml:"tenor_years"`
	Rate       float64 `yaml:"rate"`
}

// ReinvestmentProfileSpec mirrors reinvest.Profile for YAML loading.
type ReinvestmentProfileSpec struct {
	PurchaseSize     float64 `yaml:"purchase_size"`
	CouponType       string  `yaml:"coupon_type"`
	FixedRate        float64 `yaml:"fixed_rate"`
	Spread           float64 `yaml:"spread"`
	RatingMoody      string  `yaml:"rating_moody"`
	Seniority        string  `yaml:"seniority"`
	IndustryMoody    string  `yaml:"industry_moody"`
	IndustrySP       string  `yaml:"industry_sp"`
	Country          string  `yaml:"country"`
	GroupCategory    string  `yaml:"group_category"`
	CovLite          bool    `yaml:"cov_lite"`
	PaymentFrequency int     `yaml:"payment_frequency_months"`
	MaturityYears    int     `yaml:"maturity_years"`
	DayCount         string  `yaml:"day_count"`
}

// StrategySpec selects and configures a waterfall.Strategy by name (spec
// §4.7: "a registry maps a strategy name to a factory").
type StrategySpec struct {
	Name               string  `yaml:"name"` // "Traditional", "Turbo", "Mag6".."Mag17", ...
	MagHurdleRate      float64 `yaml:"mag_hurdle_rate"`
	CatchUpRate        float64 `yaml:"catch_up_rate"`
	ClawBackHurdleRate float64 `yaml:"claw_back_hurdle_rate"`
	NonCall            bool    `yaml:"non_call"`
}

// DealFile is the top-level YAML deal definition cmd/dealrunner loads
// (spec §6: "run_deal(deal_config, initial_pool, payment_schedule,
// yield_curves, strategy_config, random_seed?)" expressed as one file for
// a CLI/test-fixture entrypoint — production callers assemble
// dealengine.DealConfig programmatically instead).
type DealFile struct {
	ClosingDate            string `yaml:"closing_date"`
	PaymentFrequencyMonths int    `yaml:"payment_frequency_months"`
	Periods                int    `yaml:"periods"`
	RecoveryLagPeriods     int    `yaml:"recovery_lag_periods"`

	// Calendar selects the business-day convention payment dates roll
	// against ("TARGET", "FD", "GT"); empty defaults to TARGET.
	Calendar string   `yaml:"calendar"`
	Holidays []string `yaml:"holidays"` // deal-specific closures, "2006-01-02"

	HazardRate float64 `yaml:"hazard_rate"` // flat per-period default rate applied to every period
	PrepayRate float64 `yaml:"prepay_rate"` // flat per-period prepayment (SMM) rate

	Assets   []AssetSpec   `yaml:"assets"`
	Tranches []TrancheSpec `yaml:"tranches"`
	Curve    []CurvePointSpec `yaml:"curve"`

	Strategy      StrategySpec            `yaml:"strategy"`
	MagVersion    string                  `yaml:"mag_version"`
	Reinvestment  ReinvestmentProfileSpec `yaml:"reinvestment"`

	NonCallPeriods              int      `yaml:"non_call_periods"`
	ReinvestmentPeriods         int      `yaml:"reinvestment_periods"`
	StepDownPeriod              int      `yaml:"step_down_period"`
	EventOfDefaultTests         []int    `yaml:"event_of_default_tests"`
	ReinvestmentConcentrationTests []int `yaml:"reinvestment_concentration_tests"`

	EquityInitialInvestment float64 `yaml:"equity_initial_investment"`
}

// LoadDealFile parses a YAML deal definition from r.
func LoadDealFile(r io.Reader) (DealFile, error) {
	var df DealFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&df); err != nil {
		return DealFile{}, dealerr.NewBadInput("scenario: failed to parse deal file: %v", err)
	}
	return df, nil
}

// Built bundles the typed objects Build assembles from a DealFile, ready
// to hand to a dealengine.Engine (the Pool/Tranches/Suite are also exposed
// directly since cfg.RecomputeComplianceInputs callers and reporting code
// need live references to them, not just the embedded DealConfig).
type Built struct {
	Config   dealengine.DealConfig
	Pool     *pool.Pool
	Tranches []*liability.Tranche
	Suite    *compliance.Suite
}

// Build assembles df into a dealengine.DealConfig plus the pool/tranche/
// suite objects the caller needs a live handle on. thresholds seeds the
// compliance suite's ThresholdStore (spec §6's threshold-store input);
// fwdCurve is optional and only required when a floating-rate asset or
// tranche is present.
func Build(df DealFile, thresholds []compliance.ThresholdRecord) (Built, error) {
	closing, err := time.Parse(dateLayout, df.ClosingDate)
	if err != nil {
		return Built{}, dealerr.NewBadInput("scenario: invalid closing_date %q", df.ClosingDate)
	}
	if df.Periods <= 0 {
		return Built{}, dealerr.NewBadInput("scenario: periods must be positive")
	}

	cal := calendar.CalendarID(coalesce(df.Calendar, string(calendar.TARGET)))
	if len(df.Holidays) > 0 {
		calendar.AddHolidays(cal, df.Holidays)
	}
	grid, err := schedule.Grid(closing, df.PaymentFrequencyMonths, df.Periods, cal)
	if err != nil {
		return Built{}, err
	}

	assets := make([]*asset.Asset, 0, len(df.Assets))
	for _, as := range df.Assets {
		a, err := buildAsset(as, closing)
		if err != nil {
			return Built{}, err
		}
		assets = append(assets, a)
	}
	p := pool.New(assets)

	tranches := make([]*liability.Tranche, 0, len(df.Tranches))
	trancheSpecs := make([]waterfall.TrancheSpec, 0, len(df.Tranches))
	for _, ts := range df.Tranches {
		t, err := buildTranche(ts)
		if err != nil {
			return Built{}, err
		}
		tranches = append(tranches, t)
		trancheSpecs = append(trancheSpecs, waterfall.TrancheSpec{Name: t.Name, PIKAllowed: t.PIKAllowed})
	}

	var fwdCurve *curve.Curve
	if len(df.Curve) > 0 {
		points := make([]curve.Point, 0, len(df.Curve))
		for _, cp := range df.Curve {
			points = append(points, curve.Point{TenorYears: cp.TenorYears, Rate: money.NewFromFloat(cp.Rate)})
		}
		fwdCurve, err = curve.New(closing, points)
		if err != nil {
			return Built{}, err
		}
	}

	strategyCfg := waterfall.Config{
		Tranches:           trancheSpecs,
		MagVersion:         df.MagVersion,
		MagHurdleRate:      money.NewFromFloat(df.Strategy.MagHurdleRate),
		CatchUpRate:        money.NewFromFloat(df.Strategy.CatchUpRate),
		ClawBackHurdleRate: money.NewFromFloat(df.Strategy.ClawBackHurdleRate),
		NonCall:            df.Strategy.NonCall,
	}
	strategy, err := waterfall.NewRegistry().Build(df.Strategy.Name, strategyCfg)
	if err != nil {
		return Built{}, err
	}

	store := compliance.NewThresholdStore(thresholds)
	suite := compliance.NewSuite(store)

	hazard := make([]money.Decimal, df.Periods)
	prepay := make([]money.Decimal, df.Periods)
	for i := range hazard {
		hazard[i] = money.NewFromFloat(df.HazardRate)
		prepay[i] = money.NewFromFloat(df.PrepayRate)
	}

	profile := buildReinvestmentProfile(df.Reinvestment)

	cfg := dealengine.DealConfig{
		ClosingDate:                    closing,
		Grid:                           grid,
		Hazard:                         hazard,
		Prepay:                         prepay,
		RecoveryLagPeriods:             df.RecoveryLagPeriods,
		FwdCurve:                       fwdCurve,
		Pool:                           p,
		Tranches:                       tranches,
		Strategy:                       strategy,
		Suite:                          suite,
		MagVersion:                     df.MagVersion,
		RecomputeComplianceInputs:      DefaultComplianceInputs,
		EventOfDefaultTests:            df.EventOfDefaultTests,
		NonCallPeriods:                 df.NonCallPeriods,
		ReinvestmentPeriods:            df.ReinvestmentPeriods,
		StepDownPeriod:                 df.StepDownPeriod,
		ReinvestmentProfile:            profile,
		ReinvestmentConcentrationTests: df.ReinvestmentConcentrationTests,
		EquityInitialInvestment:        money.NewFromFloat(df.EquityInitialInvestment),
		EquityAccount:                  feesacct.AccountName("EQUITY"),
	}

	return Built{Config: cfg, Pool: p, Tranches: tranches, Suite: suite}, nil
}

func buildAsset(as AssetSpec, closing time.Time) (*asset.Asset, error) {
	if as.ID == "" {
		return nil, dealerr.NewBadInput("scenario: asset missing id")
	}
	couponType := asset.CouponFixed
	if as.CouponType == string(asset.CouponFloating) {
		couponType = asset.CouponFloating
	}
	dc := daycount.Convention(coalesce(as.DayCount, string(daycount.ACT360)))
	freq := as.PaymentFrequency
	if freq == 0 {
		freq = 3
	}
	maturity := schedule.AddMonths(closing, int(as.MaturityYears*12))

	moody := rating.MoodyRating(coalesce(as.RatingMoody, string(rating.B1)))
	if _, err := rating.Index(moody); err != nil {
		return nil, dealerr.NewBadInput("scenario: asset %s has unknown rating_moody %q", as.ID, as.RatingMoody)
	}

	par := money.NewFromFloat(as.Par)
	a := &asset.Asset{
		ID:                     as.ID,
		InitialPar:             par,
		CurrentBalance:         par,
		CouponType:             couponType,
		FixedRate:              money.NewFromFloat(as.FixedRate),
		Spread:                 money.NewFromFloat(as.Spread),
		PaymentFrequencyMonths: freq,
		OriginationDate:        closing,
		FirstPaymentDate:       schedule.AddMonths(closing, freq),
		MaturityDate:           maturity,
		LegalFinalDate:         maturity,
		DayCount:               dc,
		Seniority:              asset.Seniority(coalesce(as.Seniority, string(asset.SeniorSecuredFirstLien))),
		Secured:                true,
		IndustrySP:             as.IndustrySP,
		IndustryMoody:          as.IndustryMoody,
		Country:                coalesce(as.Country, "US"),
		GroupCategory:          coalesce(as.GroupCategory, "I"),
		Rating:                 asset.Ratings{Moody: moody},
		CovLite:                as.CovLite,
		DIP:                    as.DIP,
		CurrentPay:             true,
		MarketPrice:            money.NewFromFloat(coalesceFloat(as.MarketPrice, 100)),
	}
	if rr, err := rating.Recovery(moody); err == nil {
		a.RecoveryExpectation = money.NewFromFloat(rr)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func buildTranche(ts TrancheSpec) (*liability.Tranche, error) {
	if ts.Name == "" {
		return nil, dealerr.NewBadInput("scenario: tranche missing name")
	}
	couponType := asset.CouponFixed
	if ts.Floating {
		couponType = asset.CouponFloating
	}
	balance := money.NewFromFloat(ts.Balance)
	return &liability.Tranche{
		Name:            ts.Name,
		Seniority:       ts.Seniority,
		OriginalBalance: balance,
		CurrentBalance:  balance,
		CouponType:      couponType,
		FixedRate:       money.NewFromFloat(ts.FixedRate),
		Spread:          money.NewFromFloat(ts.Spread),
		DayCount:        daycount.Convention(coalesce(ts.DayCount, string(daycount.ACT360))),
		PIKAllowed:      ts.PIKAllowed,
	}, nil
}

func buildReinvestmentProfile(rs ReinvestmentProfileSpec) reinvest.Profile {
	couponType := asset.CouponFixed
	if rs.CouponType == string(asset.CouponFloating) {
		couponType = asset.CouponFloating
	}
	freq := rs.PaymentFrequency
	if freq == 0 {
		freq = 3
	}
	maturityYears := rs.MaturityYears
	if maturityYears == 0 {
		maturityYears = 7
	}
	return reinvest.Profile{
		PurchaseSize:           money.NewFromFloat(rs.PurchaseSize),
		CouponType:             couponType,
		FixedRate:              money.NewFromFloat(rs.FixedRate),
		Spread:                 money.NewFromFloat(rs.Spread),
		Rating:                 rating.MoodyRating(coalesce(rs.RatingMoody, string(rating.B1))),
		Seniority:              asset.Seniority(coalesce(rs.Seniority, string(asset.SeniorSecuredFirstLien))),
		Secured:                true,
		IndustryMoody:          rs.IndustryMoody,
		IndustrySP:             rs.IndustrySP,
		Country:                coalesce(rs.Country, "US"),
		GroupCategory:          coalesce(rs.GroupCategory, "I"),
		CovLite:                rs.CovLite,
		PaymentFrequencyMonths: freq,
		MaturityYears:          maturityYears,
		DayCount:               daycount.Convention(coalesce(rs.DayCount, string(daycount.ACT360))),
	}
}

func coalesceFloat(f, fallback float64) float64 {
	if f == 0 {
		return fallback
	}
	return f
}
