package money_test

import (
	"testing"

	"github.com/cloanalytics/dealengine/money"
)

func TestSum(t *testing.T) {
	got := money.Sum(money.NewFromInt(1), money.NewFromInt(2), money.NewFromInt(3))
	if !got.Equal(money.NewFromInt(6)) {
		t.Fatalf("Sum = %s, want 6", got)
	}
}

func TestSumEmpty(t *testing.T) {
	if got := money.Sum(); !got.Equal(money.Zero) {
		t.Fatalf("Sum() = %s, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	lo, hi := money.NewFromInt(0), money.NewFromInt(10)
	cases := []struct {
		in   money.Decimal
		want money.Decimal
	}{
		{money.NewFromInt(-5), lo},
		{money.NewFromInt(5), money.NewFromInt(5)},
		{money.NewFromInt(50), hi},
	}
	for _, c := range cases {
		if got := money.Clamp(c.in, lo, hi); !got.Equal(c.want) {
			t.Errorf("Clamp(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestIsNegligible(t *testing.T) {
	tol := money.NewFromFloat(0.01)
	if !money.IsNegligible(money.NewFromFloat(0.005), tol) {
		t.Fatal("expected 0.005 to be negligible at tolerance 0.01")
	}
	if money.IsNegligible(money.NewFromFloat(0.02), tol) {
		t.Fatal("expected 0.02 to exceed tolerance 0.01")
	}
}

func TestRoundBankers(t *testing.T) {
	// Banker's rounding: 0.5 rounds to even.
	got := money.RoundBankers(money.NewFromFloat(2.5), 0)
	if !got.Equal(money.NewFromInt(2)) {
		t.Fatalf("RoundBankers(2.5, 0) = %s, want 2", got)
	}
	got = money.RoundBankers(money.NewFromFloat(3.5), 0)
	if !got.Equal(money.NewFromInt(4)) {
		t.Fatalf("RoundBankers(3.5, 0) = %s, want 4", got)
	}
}
