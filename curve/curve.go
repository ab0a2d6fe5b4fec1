// Package curve implements the deal engine's yield curve: an ordered set of
// (tenor, zero rate) pillars supporting spot-rate interpolation and forward
// rate derivation (spec §3, §4.1). The pillar/bracket-search shape is
// carried over from the teacher's swap/curve/curve.go (DF/ZeroRateAt/
// PillarDFs method set, binary-search bracketing helpers), but curve
// construction here is a direct par/zero pillar table rather than an OIS
// bootstrap — the deal engine consumes externally supplied reference curves
// (spec §6 "yield curves" input), it does not bootstrap swap quotes.
package curve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cloanalytics/dealengine/money"
)

// Point is a single (tenor in years, zero rate as a decimal, e.g. 0.035 for
// 3.5%) pillar.
type Point struct {
	TenorYears float64
	Rate       money.Decimal
}

// Curve is an ordered set of zero-rate pillars anchored at AnalysisDate.
type Curve struct {
	AnalysisDate time.Time
	pillars      []Point // sorted ascending by TenorYears
}

// New constructs a Curve from unordered points, sorting them by tenor.
func New(asOf time.Time, points []Point) (*Curve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("curve: at least one pillar required")
	}
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TenorYears < sorted[j].TenorYears })
	return &Curve{AnalysisDate: asOf, pillars: sorted}, nil
}

// SpotRate returns the zero rate at tenor (years) by linear interpolation in
// rate space between the bracketing pillars (spec §4.1: "spot-rate lookup
// by linear interpolation in rate space" — distinct from the teacher's
// log-linear-in-discount-factor bootstrap interpolation). Tenors outside the
// pillar range are flat-extrapolated from the nearest end.
func (c *Curve) SpotRate(tenorYears float64) money.Decimal {
	p := c.pillars
	if tenorYears <= p[0].TenorYears {
		return p[0].Rate
	}
	if tenorYears >= p[len(p)-1].TenorYears {
		return p[len(p)-1].Rate
	}

	i := sort.Search(len(p), func(i int) bool { return p[i].TenorYears >= tenorYears })
	lo, hi := p[i-1], p[i]
	if hi.TenorYears == lo.TenorYears {
		return lo.Rate
	}

	ratio := (tenorYears - lo.TenorYears) / (hi.TenorYears - lo.TenorYears)
	span := hi.Rate.Sub(lo.Rate)
	return lo.Rate.Add(span.Mul(money.NewFromFloat(ratio)))
}

// DF returns the discount factor at tenor years, derived from the spot rate
// under annual compounding: DF(t) = (1+z(t))^-t.
func (c *Curve) DF(tenorYears float64) money.Decimal {
	z := c.SpotRate(tenorYears)
	zf, _ := z.Float64()
	df := math.Pow(1.0+zf, -tenorYears)
	return money.NewFromFloat(df)
}

// Forward derives the discrete forward rate between t1 and t2 (years) using
// the spec's closed form:
//
//	f(t1,t2) = ((1+z2)^t2 / (1+z1)^t1)^(1/(t2-t1)) - 1
func (c *Curve) Forward(t1, t2 float64) (money.Decimal, error) {
	if t2 <= t1 {
		return money.Zero, fmt.Errorf("curve: Forward requires t2 > t1, got t1=%v t2=%v", t1, t2)
	}
	z1, _ := c.SpotRate(t1).Float64()
	z2, _ := c.SpotRate(t2).Float64()

	num := math.Pow(1.0+z2, t2)
	den := math.Pow(1.0+z1, t1)
	f := math.Pow(num/den, 1.0/(t2-t1)) - 1.0
	return money.NewFromFloat(f), nil
}

// TenorYears returns the year fraction from AnalysisDate to t, ACT/365F.
func (c *Curve) TenorYears(t time.Time) float64 {
	return t.Sub(c.AnalysisDate).Hours() / 24 / 365.0
}

// Pillars returns a copy of the curve's sorted pillar set, for diagnostics.
func (c *Curve) Pillars() []Point {
	out := make([]Point, len(c.pillars))
	copy(out, c.pillars)
	return out
}
