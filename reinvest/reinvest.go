// Package reinvest implements the reinvestment engine of spec §4.9/§9
// (C7): during the reinvestment period, redeploys principal collections
// into new collateral matching a target profile, subject to the
// compliance suite's concentration limits pre-checked before each
// purchase commits. Halts on budget exhaustion or the first breach;
// unspent budget diverts to principal, per spec §4.9 and scenario 5 of
// spec §8.
package reinvest

import (
	"time"

	"github.com/google/uuid"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/daycount"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/rating"
)

// Profile describes the target asset characteristics synthetic purchases
// are constructed from (spec §4.9: "target asset profile: average spread,
// rating, recovery").
type Profile struct {
	PurchaseSize     money.Decimal // par amount per synthetic purchase
	CouponType       asset.CouponType
	FixedRate        money.Decimal
	Spread           money.Decimal
	Rating           rating.MoodyRating
	RecoveryOverride money.Decimal // zero means use the rating table
	Seniority        asset.Seniority
	Secured          bool
	IndustryMoody    string
	IndustrySP       string
	Country          string
	GroupCategory    string
	CovLite          bool

	PaymentFrequencyMonths int
	MaturityYears          int
	DayCount               daycount.Convention
}

// Config bundles a reinvestment pass's inputs (spec §4.9/§4.8 step 6).
type Config struct {
	Budget  money.Decimal
	Profile Profile
	Pool    *pool.Pool
	Suite   *compliance.Suite

	// ConcentrationTests lists the compliance test numbers pre-checked
	// before each tentative purchase commits (spec: "subject to
	// concentration limits pre-checked via C8").
	ConcentrationTests []int

	// RecomputeInputs rebuilds compliance.Inputs from the pool's current
	// (tentative) state — concentration/coverage aggregates are the
	// caller's concern (spec §4.6 Inputs docs), not reinvest's.
	RecomputeInputs func(p *pool.Pool) compliance.Inputs

	MagVersion string
	AsOf       time.Time
}

// Result is the outcome of one reinvestment pass.
type Result struct {
	Spent     money.Decimal
	Diverted  money.Decimal
	Purchased []*asset.Asset
}

// Run executes the reinvestment loop of spec §4.9: while budget remains,
// construct a synthetic purchase matching cfg.Profile, tentatively add it
// to the pool, and pre-check cfg.ConcentrationTests; if every test still
// passes, commit the purchase, otherwise roll it back and divert the
// remaining budget to principal.
func Run(cfg Config) (Result, error) {
	if cfg.Pool == nil || cfg.Suite == nil || cfg.RecomputeInputs == nil {
		return Result{}, dealerr.NewBadInput("reinvest: Pool, Suite, and RecomputeInputs are required")
	}
	if cfg.Profile.PurchaseSize.IsZero() || cfg.Profile.PurchaseSize.IsNegative() {
		return Result{}, dealerr.NewBadInput("reinvest: Profile.PurchaseSize must be positive")
	}

	res := Result{Spent: money.Zero, Diverted: money.Zero}
	remaining := cfg.Budget

	for remaining.IsPositive() {
		size := money.Min(remaining, cfg.Profile.PurchaseSize)
		candidate := buildAsset(cfg.Profile, size, cfg.AsOf)

		cfg.Pool.Add(candidate)
		inputs := cfg.RecomputeInputs(cfg.Pool)

		breached, err := anyBreach(cfg, inputs)
		if err != nil {
			cfg.Pool.Remove(candidate.ID)
			return Result{}, err
		}
		if breached {
			cfg.Pool.Remove(candidate.ID)
			res.Diverted = res.Diverted.Add(remaining)
			remaining = money.Zero
			break
		}

		res.Spent = res.Spent.Add(size)
		res.Purchased = append(res.Purchased, candidate)
		remaining = remaining.Sub(size)
	}

	return res, nil
}

func anyBreach(cfg Config, inputs compliance.Inputs) (bool, error) {
	for _, tn := range cfg.ConcentrationTests {
		result, err := cfg.Suite.RunOne(tn, inputs, cfg.MagVersion, cfg.AsOf)
		if err != nil {
			return false, err
		}
		if !result.Pass {
			return true, nil
		}
	}
	return false, nil
}

// buildAsset constructs a synthetic Asset matching profile, sized at par,
// originated asOf. Its identifier is a fresh UUID since reinvestment
// purchases have no natural external key (spec §3: created "at purchase
// during reinvestment").
func buildAsset(profile Profile, par money.Decimal, asOf time.Time) *asset.Asset {
	recovery := profile.RecoveryOverride
	if recovery.IsZero() {
		if r, err := rating.Recovery(profile.Rating); err == nil {
			recovery = money.NewFromFloat(r)
		}
	}

	freq := profile.PaymentFrequencyMonths
	if freq == 0 {
		freq = 3
	}
	maturityYears := profile.MaturityYears
	if maturityYears == 0 {
		maturityYears = 7
	}

	return &asset.Asset{
		ID:                     "REINV-" + uuid.NewString(),
		InitialPar:             par,
		CurrentBalance:         par,
		CouponType:             profile.CouponType,
		FixedRate:              profile.FixedRate,
		Spread:                 profile.Spread,
		PaymentFrequencyMonths: freq,
		OriginationDate:        asOf,
		FirstPaymentDate:       asOf.AddDate(0, freq, 0),
		MaturityDate:           asOf.AddDate(maturityYears, 0, 0),
		LegalFinalDate:         asOf.AddDate(maturityYears, 0, 0),
		DayCount:               profile.DayCount,
		Seniority:              profile.Seniority,
		Secured:                profile.Secured,
		IndustrySP:             profile.IndustrySP,
		IndustryMoody:          profile.IndustryMoody,
		Country:                profile.Country,
		GroupCategory:          profile.GroupCategory,
		Rating:                 asset.Ratings{Moody: profile.Rating},
		CovLite:                profile.CovLite,
		CurrentPay:             true,
		RecoveryExpectation:    recovery,
	}
}
