package asset_test

import (
	"testing"
	"time"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/daycount"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/rating"
)

func quarterlyGrid(n int, start time.Time) []asset.PeriodBoundary {
	grid := make([]asset.PeriodBoundary, n)
	cur := start
	for i := 0; i < n; i++ {
		next := cur.AddDate(0, 3, 0)
		grid[i] = asset.PeriodBoundary{Index: i, Start: cur, End: next}
		cur = next
	}
	return grid
}

func newBulletAsset() *asset.Asset {
	return &asset.Asset{
		ID:             "LOAN-1",
		InitialPar:     money.NewFromInt(1_000_000),
		CurrentBalance: money.NewFromInt(1_000_000),
		CouponType:     asset.CouponFixed,
		FixedRate:      money.NewFromFloat(0.05),
		DayCount:       daycount.ACT360,
		Rating:         asset.Ratings{Moody: rating.B2},
		RecoveryExpectation: money.NewFromFloat(0.4),
	}
}

func zeros(n int) []money.Decimal {
	out := make([]money.Decimal, n)
	for i := range out {
		out[i] = money.Zero
	}
	return out
}

func TestProjectNoDefaultsFullInterestEachPeriod(t *testing.T) {
	a := newBulletAsset()
	grid := quarterlyGrid(4, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	hazard := zeros(4)
	prepay := zeros(4)

	rows, err := asset.Project(a, grid, hazard, prepay, 2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	for _, r := range rows {
		if !r.ScheduledInterest.IsPositive() {
			t.Errorf("period %d: expected positive interest, got %s", r.Period, r.ScheduledInterest)
		}
		if !r.Default.IsZero() {
			t.Errorf("period %d: expected zero default, got %s", r.Period, r.Default)
		}
	}
	if !rows[3].EndBalance.Equal(money.NewFromInt(1_000_000)) {
		t.Fatalf("expected balance unchanged with no amortization, got %s", rows[3].EndBalance)
	}
}

func TestProjectDefaultEntersRecoveryQueueWithLag(t *testing.T) {
	a := newBulletAsset()
	grid := quarterlyGrid(6, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	hazard := zeros(6)
	hazard[0] = money.NewFromFloat(0.5) // 50% of balance defaults in period 0
	prepay := zeros(6)

	rows, err := asset.Project(a, grid, hazard, prepay, 2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !rows[0].Default.Equal(money.NewFromInt(500_000)) {
		t.Fatalf("period 0 default = %s, want 500000", rows[0].Default)
	}
	if !rows[0].Recovery.IsZero() {
		t.Fatalf("period 0 recovery should be zero before lag elapses, got %s", rows[0].Recovery)
	}
	if !rows[2].Recovery.IsPositive() {
		t.Fatalf("period 2 (lag=2) should realize recovery, got %s", rows[2].Recovery)
	}
	wantRecovery := rows[0].Default.Mul(money.NewFromFloat(0.42)) // B2 recovery rate
	if !rows[2].Recovery.Equal(wantRecovery) {
		t.Fatalf("period 2 recovery = %s, want %s", rows[2].Recovery, wantRecovery)
	}
}

func TestProjectRejectsMismatchedVectorLengths(t *testing.T) {
	a := newBulletAsset()
	grid := quarterlyGrid(2, time.Now())
	if _, err := asset.Project(a, grid, zeros(1), zeros(2), 1, nil, nil); err == nil {
		t.Fatal("expected error for mismatched hazard vector length")
	}
}

func TestProjectFloatingWithoutCurveFails(t *testing.T) {
	a := newBulletAsset()
	a.CouponType = asset.CouponFloating
	a.Spread = money.NewFromFloat(0.02)
	grid := quarterlyGrid(1, time.Now())
	if _, err := asset.Project(a, grid, zeros(1), zeros(1), 1, nil, nil); err == nil {
		t.Fatal("expected error for floating coupon with nil curve")
	}
}

func TestIsExhaustedAfterFullPaydown(t *testing.T) {
	a := newBulletAsset()
	a.CurrentBalance = money.Zero
	if !a.IsExhausted() {
		t.Fatal("expected asset with zero balance and no pending recovery to be exhausted")
	}
}
