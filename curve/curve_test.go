package curve_test

import (
	"math"
	"testing"
	"time"

	"github.com/cloanalytics/dealengine/curve"
	"github.com/cloanalytics/dealengine/money"
)

func TestSpotRateInterpolation(t *testing.T) {
	c, err := curve.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), []curve.Point{
		{TenorYears: 1, Rate: money.NewFromFloat(0.02)},
		{TenorYears: 3, Rate: money.NewFromFloat(0.04)},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := c.SpotRate(2)
	want := money.NewFromFloat(0.03)
	if !got.Equal(want) {
		t.Fatalf("SpotRate(2) = %s, want %s", got, want)
	}
}

func TestSpotRateExtrapolatesFlat(t *testing.T) {
	c, _ := curve.New(time.Now(), []curve.Point{
		{TenorYears: 1, Rate: money.NewFromFloat(0.02)},
		{TenorYears: 5, Rate: money.NewFromFloat(0.05)},
	})
	if got := c.SpotRate(0.1); !got.Equal(money.NewFromFloat(0.02)) {
		t.Fatalf("short extrapolation = %s, want 0.02", got)
	}
	if got := c.SpotRate(30); !got.Equal(money.NewFromFloat(0.05)) {
		t.Fatalf("long extrapolation = %s, want 0.05", got)
	}
}

func TestForwardRateMatchesClosedForm(t *testing.T) {
	c, _ := curve.New(time.Now(), []curve.Point{
		{TenorYears: 1, Rate: money.NewFromFloat(0.02)},
		{TenorYears: 2, Rate: money.NewFromFloat(0.03)},
	})
	f, err := c.Forward(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	ff, _ := f.Float64()
	want := math.Pow(math.Pow(1.03, 2)/math.Pow(1.02, 1), 1.0) - 1.0
	if math.Abs(ff-want) > 1e-9 {
		t.Fatalf("Forward(1,2) = %v, want %v", ff, want)
	}
}

func TestForwardRejectsNonIncreasingTenor(t *testing.T) {
	c, _ := curve.New(time.Now(), []curve.Point{{TenorYears: 1, Rate: money.Zero}})
	if _, err := c.Forward(2, 1); err == nil {
		t.Fatal("expected error for t2 <= t1")
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := curve.New(time.Now(), nil); err == nil {
		t.Fatal("expected error for empty pillar set")
	}
}
