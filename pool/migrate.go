package pool

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"golang.org/x/exp/rand"

	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/matrix"
	"github.com/cloanalytics/dealengine/rating"
)

// Migrate simulates one period of correlated rating migration across the
// pool (spec §4.4). annual is the Moody transition matrix indexed by
// rating.Ratings() order; corr is the asset-pair correlation matrix in the
// same asset order as p.Assets(); periodsPerYear converts annual to a
// per-period transition matrix via matrix.Root. rng supplies one
// independent stream per Monte-Carlo path (spec §5: "each path seeds from
// an independent RNG stream").
func Migrate(p *Pool, annual *mat.Dense, corr *mat.SymDense, periodsPerYear int, rng *rand.Rand) error {
	n := len(p.assets)
	if n == 0 {
		return nil
	}
	corrRows, corrCols := corr.Dims()
	if corrRows != n || corrCols != n {
		return dealerr.NewBadInput("pool: correlation matrix dimension %dx%d does not match asset count %d", corrRows, corrCols, n)
	}

	perPeriod, err := matrix.Root(annual, periodsPerYear)
	if err != nil {
		return err
	}

	chol, err := matrix.Cholesky(corr)
	if err != nil {
		return err
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	z := make([]float64, n)
	for i := range z {
		z[i] = normal.Rand()
	}
	var zVec mat.VecDense
	zVec.MulVec(chol, mat.NewVecDense(n, z))

	ratings := rating.Ratings()
	for i, a := range p.assets {
		if a.Defaulted || a.CurrentBalance.IsZero() {
			continue
		}
		idx, err := rating.Index(a.Rating.Moody)
		if err != nil {
			continue
		}
		newRating, defaulted := sampleTransition(perPeriod, idx, zVec.AtVec(i), ratings)
		a.Rating.Moody = newRating
		if defaulted {
			a.Defaulted = true
		}
	}
	return nil
}

// sampleTransition maps a standard normal draw to a transition-matrix
// cumulative-probability bin, returning the resulting rating and whether the
// terminal (default) state was reached.
func sampleTransition(perPeriod *mat.Dense, fromIdx int, z float64, ratings []rating.MoodyRating) (rating.MoodyRating, bool) {
	u := stdNormalCDF(z)
	_, cols := perPeriod.Dims()

	cumulative := 0.0
	for j := 0; j < cols; j++ {
		cumulative += perPeriod.At(fromIdx, j)
		if u <= cumulative {
			if j == len(ratings)-1 {
				return ratings[j], true
			}
			return ratings[j], false
		}
	}
	return ratings[len(ratings)-1], true
}

// stdNormalCDF approximates the standard normal CDF via the error function
// identity Phi(z) = (1 + erf(z/sqrt2)) / 2.
func stdNormalCDF(z float64) float64 {
	return 0.5 * (1 + erf(z/sqrt2))
}

const sqrt2 = 1.4142135623730951

// erf is the Gauss error function, implemented via Abramowitz & Stegun
// 7.1.26 (max error 1.5e-7) since math.Erf is not used elsewhere in the
// pack's numeric code.
func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	const a1, a2, a3, a4, a5, p = 0.254829592, -0.284496736, 1.421413741, -1.453152027, 1.061405429, 0.3275911
	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}
