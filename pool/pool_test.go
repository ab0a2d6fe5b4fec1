package pool_test

import (
	"testing"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/pool/filter"
	"github.com/cloanalytics/dealengine/rating"
)

func newAsset(id string, balance float64, industry string, r rating.MoodyRating) *asset.Asset {
	return &asset.Asset{
		ID:             id,
		InitialPar:     money.NewFromFloat(balance),
		CurrentBalance: money.NewFromFloat(balance),
		CouponType:     asset.CouponFixed,
		FixedRate:      money.NewFromFloat(0.06),
		IndustryMoody:  industry,
		Rating:         asset.Ratings{Moody: r},
	}
}

func samplePool() *pool.Pool {
	return pool.New([]*asset.Asset{
		newAsset("A1", 1_000_000, "retail", rating.B1),
		newAsset("A2", 2_000_000, "healthcare", rating.Ba2),
		newAsset("A3", 500_000, "retail", rating.Caa1),
	})
}

func TestTotalParSumsCurrentBalances(t *testing.T) {
	p := samplePool()
	want := money.NewFromFloat(3_500_000)
	if !p.TotalPar().Equal(want) {
		t.Fatalf("TotalPar() = %s, want %s", p.TotalPar(), want)
	}
}

func TestAddAndRemove(t *testing.T) {
	p := samplePool()
	p.Add(newAsset("A4", 100_000, "energy", rating.B3))
	if len(p.Assets()) != 4 {
		t.Fatalf("expected 4 assets after Add, got %d", len(p.Assets()))
	}
	if !p.Remove("A4") {
		t.Fatal("expected Remove to find A4")
	}
	if len(p.Assets()) != 3 {
		t.Fatalf("expected 3 assets after Remove, got %d", len(p.Assets()))
	}
	if p.Remove("does-not-exist") {
		t.Fatal("expected Remove of unknown id to report false")
	}
}

func TestDefaultedParExcludesPerforming(t *testing.T) {
	p := samplePool()
	p.Assets()[2].Defaulted = true
	want := money.NewFromFloat(500_000)
	if !p.DefaultedPar().Equal(want) {
		t.Fatalf("DefaultedPar() = %s, want %s", p.DefaultedPar(), want)
	}
}

func TestWeightedAverageCouponExcludesDefaulted(t *testing.T) {
	p := samplePool()
	p.Assets()[0].Defaulted = true // 1,000,000 excluded
	wa, err := p.WeightedAverage(pool.MetricCoupon)
	if err != nil {
		t.Fatal(err)
	}
	// Only A2 and A3 remain, both at 6% fixed, so WA coupon is still 6%.
	want := money.NewFromFloat(0.06)
	if !wa.Equal(want) {
		t.Fatalf("WeightedAverage(MetricCoupon) = %s, want %s", wa, want)
	}
}

func TestWeightedAverageEmptyPoolIsZero(t *testing.T) {
	p := pool.New(nil)
	wa, err := p.WeightedAverage(pool.MetricCoupon)
	if err != nil {
		t.Fatal(err)
	}
	if !wa.IsZero() {
		t.Fatalf("expected zero WA for empty pool, got %s", wa)
	}
}

func TestFilterByIndustryAndBalance(t *testing.T) {
	p := samplePool()
	expr, err := filter.Parse(`industry_moody == "retail" and current_balance > 600000`)
	if err != nil {
		t.Fatal(err)
	}
	matches, err := p.Filter(expr)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].ID != "A1" {
		t.Fatalf("expected only A1 to match, got %v", matches)
	}
}

func TestFilterRejectsUnknownField(t *testing.T) {
	p := samplePool()
	expr, err := filter.Parse(`nonexistent_field == "x"`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Filter(expr); err == nil {
		t.Fatal("expected error filtering on unknown field")
	}
}
