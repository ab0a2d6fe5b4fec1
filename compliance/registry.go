package compliance

import (
	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/rating"
)

// Registry maps test number (1-54) to its implementation.
type Registry struct {
	tests map[int]Test
}

// NewRegistry constructs the full 54-test suite of spec §4.6, grouped by
// category exactly as named there: obligor concentration, industry,
// geography (groups I/II/III plus individual countries), rating-based,
// collateral quality, and coverage.
func NewRegistry() *Registry {
	r := &Registry{tests: make(map[int]Test)}

	// 1-5: obligor concentration.
	obligor := []struct {
		n    int
		name string
		k    int
	}{
		{1, "Largest single obligor concentration", 1},
		{2, "Top 3 obligor concentration", 3},
		{3, "Top 5 obligor concentration", 5},
		{4, "Top 10 obligor concentration", 10},
		{5, "Top 20 obligor concentration", 20},
	}
	for _, o := range obligor {
		r.register(&metricTest{number: o.n, name: o.name, category: CategoryObligorConcentration, direction: DirectionMax, compute: obligorTopN(o.k)})
	}

	// 6-15: industry concentration (S&P and Moody's classifications, named
	// industries plus a largest-single-industry catch-all).
	industries := []struct {
		n     int
		name  string
		field string
	}{
		{6, "Largest S&P industry concentration", "industry_sp:largest"},
		{7, "Largest Moody's industry concentration", "industry_moody:largest"},
		{8, "Second-largest Moody's industry concentration", "industry_moody:second_largest"},
		{9, "Industry 1 concentration", "industry_moody:industry_1"},
		{10, "Industry 2 concentration", "industry_moody:industry_2"},
		{11, "Industry 3 concentration", "industry_moody:industry_3"},
		{12, "Industry 4 concentration", "industry_moody:industry_4"},
		{13, "Top 2 industries combined concentration", "industry_moody:top2"},
		{14, "Top 3 industries combined concentration", "industry_moody:top3"},
		{15, "Top 5 industries combined concentration", "industry_moody:top5"},
	}
	for _, ind := range industries {
		r.register(&metricTest{number: ind.n, name: ind.name, category: CategoryIndustry, direction: DirectionMax, compute: concentrationOf(ind.field)})
	}

	// 16-25: geography groups I/II/III plus named countries.
	geography := []struct {
		n     int
		name  string
		field string
	}{
		{16, "Geography Group I concentration", "group:I"},
		{17, "Geography Group II concentration", "group:II"},
		{18, "Geography Group III concentration", "group:III"},
		{19, "Non-US concentration", "country:non_us"},
		{20, "United States concentration", "country:US"},
		{21, "United Kingdom concentration", "country:GB"},
		{22, "Canada concentration", "country:CA"},
		{23, "Germany concentration", "country:DE"},
		{24, "Largest individual country outside Group I", "country:largest_outside_group_i"},
		{25, "Emerging-market country concentration", "country:emerging_market"},
	}
	for _, g := range geography {
		r.register(&metricTest{number: g.n, name: g.name, category: CategoryGeography, direction: DirectionMax, compute: concentrationOf(g.field)})
	}

	// 26-40: rating-based tests.
	r.register(&metricTest{number: 26, name: "CCC and below concentration", category: CategoryRating, direction: DirectionMax, compute: ratingShareAtOrBelow(mustIndex(rating.Caa1))})
	r.register(&metricTest{number: 27, name: "CC and below concentration", category: CategoryRating, direction: DirectionMax, compute: ratingShareAtOrBelow(mustIndex(rating.Ca))})
	r.register(&metricTest{number: 28, name: "Single-B and below concentration", category: CategoryRating, direction: DirectionMax, compute: ratingShareAtOrBelow(mustIndex(rating.B1))})
	r.register(&metricTest{number: 29, name: "Covenant-lite maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.CovLite })})
	r.register(&metricTest{number: 30, name: "Fixed-rate asset maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.CouponType == asset.CouponFixed })})
	r.register(&metricTest{number: 31, name: "DIP loan maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.DIP })})
	r.register(&metricTest{number: 32, name: "Second-lien maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.Seniority == asset.SeniorSecuredSecondLien })})
	r.register(&metricTest{number: 33, name: "Unsecured maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.Seniority == asset.SeniorUnsecured })})
	r.register(&metricTest{number: 34, name: "Defaulted asset maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.Defaulted })})
	r.register(&metricTest{number: 35, name: "Current-pay minimum", category: CategoryRating, direction: DirectionMin, compute: flagShare(func(a *asset.Asset) bool { return a.CurrentPay })})
	r.register(&metricTest{number: 36, name: "Deferrable-interest asset maximum", category: CategoryRating, direction: DirectionMax, compute: metricOf("deferrable_share")})
	r.register(&metricTest{number: 37, name: "Long-dated asset maximum", category: CategoryRating, direction: DirectionMax, compute: metricOf("long_dated_share")})
	r.register(&metricTest{number: 38, name: "Moody's rating-watch-negative maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.Rating.MoodyWatch })})
	r.register(&metricTest{number: 39, name: "S&P rating-watch-negative maximum", category: CategoryRating, direction: DirectionMax, compute: flagShare(func(a *asset.Asset) bool { return a.Rating.SPWatch })})
	r.register(&metricTest{number: 40, name: "Bridge loan maximum", category: CategoryRating, direction: DirectionMax, compute: metricOf("bridge_loan_share")})

	// 41-48: collateral quality.
	r.register(&metricTest{number: 41, name: "Weighted average spread minimum", category: CategoryCollateralQuality, direction: DirectionMin, compute: waMetricOf(pool.MetricSpread)})
	r.register(&metricTest{number: 42, name: "Weighted average coupon minimum", category: CategoryCollateralQuality, direction: DirectionMin, compute: waMetricOf(pool.MetricCoupon)})
	r.register(&metricTest{number: 43, name: "Weighted average life maximum", category: CategoryCollateralQuality, direction: DirectionMax, compute: metricOf("WAL")})
	r.register(&metricTest{number: 44, name: "Weighted average rating factor maximum", category: CategoryCollateralQuality, direction: DirectionMax, compute: waMetricOf(pool.MetricRatingFactor)})
	r.register(&metricTest{number: 45, name: "Moody diversity score minimum", category: CategoryCollateralQuality, direction: DirectionMin, compute: metricOf("DIVERSITY")})
	r.register(&metricTest{number: 46, name: "Weighted average recovery rate minimum", category: CategoryCollateralQuality, direction: DirectionMin, compute: waMetricOf(pool.MetricRecovery)})
	r.register(&metricTest{number: 47, name: "Junior-class relative overcollateralization (JROC) minimum", category: CategoryCollateralQuality, direction: DirectionMin, compute: metricOf("JROC")})
	r.register(&metricTest{number: 48, name: "Weighted average market price minimum", category: CategoryCollateralQuality, direction: DirectionMin, compute: metricOf("WA_MARKET_PRICE")})

	// 49-54: coverage (OC/IC per class).
	classes := []string{"A", "B", "C"}
	num := 49
	for _, cls := range classes {
		r.register(&metricTest{number: num, name: "Class " + cls + " overcollateralization ratio minimum", category: CategoryCoverage, direction: DirectionMin, compute: coverageRatioOf("OC_" + cls)})
		num++
	}
	for _, cls := range classes {
		r.register(&metricTest{number: num, name: "Class " + cls + " interest coverage ratio minimum", category: CategoryCoverage, direction: DirectionMin, compute: coverageRatioOf("IC_" + cls)})
		num++
	}

	return r
}

func (r *Registry) register(t Test) {
	r.tests[t.Number()] = t
}

// Get returns the test registered under number.
func (r *Registry) Get(number int) (Test, error) {
	t, ok := r.tests[number]
	if !ok {
		return nil, dealerr.NewBadInput("compliance: no test registered for number %d", number)
	}
	return t, nil
}

// All returns every registered test, ordered by number.
func (r *Registry) All() []Test {
	out := make([]Test, 0, len(r.tests))
	for i := 1; i <= 54; i++ {
		if t, ok := r.tests[i]; ok {
			out = append(out, t)
		}
	}
	return out
}

func mustIndex(r rating.MoodyRating) int {
	idx, err := rating.Index(r)
	if err != nil {
		panic(err) // rating constants are package-level and always valid
	}
	return idx
}
