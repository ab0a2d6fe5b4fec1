package pool_test

import (
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/cloanalytics/dealengine/pool"
	"github.com/cloanalytics/dealengine/rating"
)

func identityTransition(n int) *mat.Dense {
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	return mat.NewDense(n, n, data)
}

func TestMigrateWithIdentityTransitionLeavesRatingsUnchanged(t *testing.T) {
	p := samplePool()
	n := len(rating.Ratings())
	annual := identityTransition(n)
	corr := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	src := rand.NewSource(42)
	rng := rand.New(src)

	before := make([]rating.MoodyRating, 0, len(p.Assets()))
	for _, a := range p.Assets() {
		before = append(before, a.Rating.Moody)
	}

	if err := pool.Migrate(p, annual, corr, 4, rng); err != nil {
		t.Fatal(err)
	}
	for i, a := range p.Assets() {
		if a.Rating.Moody != before[i] {
			t.Fatalf("asset %s rating changed under identity transition: %s -> %s", a.ID, before[i], a.Rating.Moody)
		}
	}
}

func TestMigrateRejectsMismatchedCorrelationDimension(t *testing.T) {
	p := samplePool()
	n := len(rating.Ratings())
	annual := identityTransition(n)
	corr := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	rng := rand.New(rand.NewSource(1))

	if err := pool.Migrate(p, annual, corr, 4, rng); err == nil {
		t.Fatal("expected error for correlation matrix dimension mismatch")
	}
}
