package xirr_test

import (
	"math"
	"testing"
	"time"

	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/xirr"
)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestSolveSimpleAnnualReturn(t *testing.T) {
	// -100 today, +110 in exactly one year => ~10% IRR.
	flows := []xirr.CashFlow{
		{Date: d("2026-01-01"), Amount: money.NewFromInt(-100)},
		{Date: d("2027-01-01"), Amount: money.NewFromInt(110)},
	}
	res, err := xirr.Solve("test-asset", flows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rate, _ := res.Rate.Float64()
	if math.Abs(rate-0.10) > 1e-4 {
		t.Fatalf("rate = %v, want ~0.10", rate)
	}
}

func TestSolveTooFewFlows(t *testing.T) {
	if _, err := xirr.Solve("x", []xirr.CashFlow{{Date: d("2026-01-01"), Amount: money.Zero}}); err == nil {
		t.Fatal("expected BadInput error for < 2 flows")
	}
}

func TestNPVZeroAtSolvedRate(t *testing.T) {
	flows := []xirr.CashFlow{
		{Date: d("2026-01-01"), Amount: money.NewFromInt(-1000)},
		{Date: d("2027-01-01"), Amount: money.NewFromInt(400)},
		{Date: d("2028-01-01"), Amount: money.NewFromInt(400)},
		{Date: d("2029-01-01"), Amount: money.NewFromInt(400)},
	}
	res, err := xirr.Solve("multi", flows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	npv := xirr.NPV(flows, res.Rate)
	npvF, _ := npv.Float64()
	if math.Abs(npvF) > 1e-6 {
		t.Fatalf("NPV at solved rate = %v, want ~0", npvF)
	}
}
