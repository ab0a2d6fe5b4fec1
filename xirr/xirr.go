// Package xirr solves for the internal rate of return and net present value
// of an arbitrary dated cash-flow stream. The solver shape — Newton-Raphson
// with each iterate clamped to a rate range and a secant fallback when the
// derivative is ill-conditioned — is carried over directly from the teacher's
// bond/yield.go solveYield/dirtyPriceAndDeriv, generalized from bond
// dirty-price matching to XIRR/XNPV over arbitrary dates.
package xirr

import (
	"fmt"
	"math"
	"time"

	"github.com/cloanalytics/dealengine/config"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
)

// CashFlow is a single dated, signed cash flow (negative = outflow).
type CashFlow struct {
	Date   time.Time
	Amount money.Decimal
}

const (
	rateFloor   = -0.99
	rateCeiling = 10.0
)

// NPV computes the net present value of flows at annualized rate.
func NPV(flows []CashFlow, rate money.Decimal) money.Decimal {
	if len(flows) == 0 {
		return money.Zero
	}
	t0 := flows[0].Date
	total := money.Zero
	r, _ := rate.Float64()
	for _, cf := range flows {
		years := cf.Date.Sub(t0).Hours() / 24 / 365.0
		disc := math.Pow(1.0+r, years)
		amt, _ := cf.Amount.Float64()
		total = total.Add(money.NewFromFloat(amt / disc))
	}
	return total
}

// npvAndDeriv returns (NPV, dNPV/dr) as float64 for the solver's inner loop.
func npvAndDeriv(flows []CashFlow, r float64) (float64, float64) {
	if len(flows) == 0 {
		return 0, 0
	}
	t0 := flows[0].Date
	var npv, deriv float64
	for _, cf := range flows {
		years := cf.Date.Sub(t0).Hours() / 24 / 365.0
		amt, _ := cf.Amount.Float64()
		disc := math.Pow(1.0+r, years)
		npv += amt / disc
		deriv += -years * amt / math.Pow(1.0+r, years+1)
	}
	return npv, deriv
}

// Result is the outcome of a Solve call.
type Result struct {
	Rate       money.Decimal
	Iterations int
}

// Solve finds the annualized rate r such that NPV(flows, r) == 0, via
// Newton-Raphson (full steps, each iterate clamped to [-0.99, 10]) with a
// secant fallback when the derivative is ill-conditioned. Tolerance and
// iteration cap come from config.GetConfig.
//
// On non-convergence it returns a *dealerr.NonConvergent wrapping the last
// iterate, per spec §7: numeric warnings are collected, never thrown
// mid-computation, so callers should record this and continue rather than
// abort the deal.
func Solve(subject string, flows []CashFlow) (Result, error) {
	if len(flows) < 2 {
		return Result{}, dealerr.NewBadInput("xirr: at least two cash flows required")
	}

	cfg := config.GetConfig()
	tol, _ := cfg.XIRRTolerance.Float64()
	maxIter := cfg.XIRRMaxIterations

	r := 0.1 // initial guess: 10%
	r = clamp(r, rateFloor, rateCeiling)

	var lastIterate float64
	for iter := 0; iter < maxIter; iter++ {
		npv, deriv := npvAndDeriv(flows, r)
		lastIterate = r

		if math.Abs(npv) < tol {
			return Result{Rate: money.NewFromFloat(r), Iterations: iter + 1}, nil
		}

		if math.Abs(deriv) < 1e-15 {
			// Derivative too small for Newton; fall back to a secant step
			// using a small rate perturbation.
			bump := r + 1e-4
			npvBump, _ := npvAndDeriv(flows, bump)
			secantDeriv := (npvBump - npv) / 1e-4
			if math.Abs(secantDeriv) < 1e-15 {
				break
			}
			r = clamp(r-npv/secantDeriv, rateFloor, rateCeiling)
			continue
		}

		r = clamp(r-npv/deriv, rateFloor, rateCeiling)
	}

	return Result{Rate: money.NewFromFloat(r), Iterations: maxIter},
		&dealerr.NonConvergent{Subject: subject, LastIterate: lastIterate, Iterations: maxIter}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MustSolve is a test/fixture convenience that panics on error. Not used by
// engine code.
func MustSolve(subject string, flows []CashFlow) Result {
	res, err := Solve(subject, flows)
	if err != nil {
		panic(fmt.Sprintf("xirr.MustSolve(%s): %v", subject, err))
	}
	return res
}
