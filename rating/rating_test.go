package rating_test

import (
	"testing"

	"github.com/cloanalytics/dealengine/rating"
)

func TestFactorKnownRating(t *testing.T) {
	f, err := rating.Factor(rating.Baa2)
	if err != nil {
		t.Fatal(err)
	}
	if f != 360 {
		t.Fatalf("Factor(Baa2) = %d, want 360", f)
	}
}

func TestFactorUnknownRating(t *testing.T) {
	if _, err := rating.Factor("NotARating"); err == nil {
		t.Fatal("expected error for unknown rating")
	}
}

func TestRecoveryMonotonicByRating(t *testing.T) {
	hi, _ := rating.Recovery(rating.Aaa)
	lo, _ := rating.Recovery(rating.C)
	if hi <= lo {
		t.Fatalf("expected Aaa recovery (%v) > C recovery (%v)", hi, lo)
	}
}

func TestSetRecoveryOverride(t *testing.T) {
	rating.SetRecovery(rating.B1, 0.33)
	got, err := rating.Recovery(rating.B1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.33 {
		t.Fatalf("Recovery(B1) = %v, want 0.33", got)
	}
}

func TestIndexOrdering(t *testing.T) {
	i, err := rating.Index(rating.Aaa)
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 {
		t.Fatalf("Index(Aaa) = %d, want 0", i)
	}
	j, _ := rating.Index(rating.C)
	if j != len(rating.Ratings())-1 {
		t.Fatalf("Index(C) = %d, want last", j)
	}
}
