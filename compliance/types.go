// Package compliance implements the 54-test compliance suite of spec §4.6:
// obligor concentration, industry, geography, rating-based, collateral
// quality, and coverage tests, each evaluated against a threshold resolved
// by an append-only effective-date history (deal override > template >
// default).
package compliance

import (
	"time"

	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
)

// Category groups the 54 tests per spec §4.6.
type Category string

const (
	CategoryObligorConcentration Category = "obligor_concentration"
	CategoryIndustry             Category = "industry"
	CategoryGeography            Category = "geography"
	CategoryRating               Category = "rating"
	CategoryCollateralQuality    Category = "collateral_quality"
	CategoryCoverage             Category = "coverage"
)

// Direction determines whether a test passes at or below (Max) or at or
// above (Min) its threshold (spec §4.6: "minimum-type tests pass when
// value >= threshold; maximum-type tests pass when value <= threshold").
type Direction int

const (
	DirectionMax Direction = iota
	DirectionMin
)

// Result is one test's evaluation outcome.
type Result struct {
	TestNumber int
	Name       string
	Category   Category
	Value      money.Decimal
	Threshold  money.Decimal
	Pass       bool
	Buffer     money.Decimal // signed distance from the threshold, positive when passing

	// Applicable is false when the test's tranche class has no corresponding
	// CoverageRatios key in this deal (e.g. a Class A/B-only deal has no
	// "OC_C"/"IC_C" entry) — the test is reported but does not count as a
	// failure, matching spec §8 Scenario 1's single-tranche deal.
	Applicable bool
}

// Inputs is the per-period evaluation context handed to every test. Some
// aggregates (WAS, WARF, recovery) are re-derivable directly from the pool;
// others (WAL, diversity score, JROC, coverage ratios) depend on the
// projected cash-flow stream and tranche state computed upstream by the
// deal engine, so they are passed in as precomputed scalars.
type Inputs struct {
	Pool           *pool.Pool
	AsOf           time.Time
	Concentrations map[string]money.Decimal // e.g. "industry_moody:retail", "country:US", "group:I", "obligor:LOAN-1"
	CoverageRatios map[string]money.Decimal // e.g. "OC_A", "IC_B"
	Metrics        map[string]money.Decimal // e.g. "WAL", "DIVERSITY", "JROC"
}

// Test is a single compliance test contract (spec §4.6:
// "evaluate(pool_state, deal_state, thresholds) -> {value, threshold,
// pass/fail, buffer}").
type Test interface {
	Number() int
	Name() string
	Category() Category
	Direction() Direction
	Evaluate(in Inputs, threshold money.Decimal) (Result, error)
}
