// Package config holds solver and engine tolerances, mirroring the
// teacher's swap/config package: a typed Config struct, a package-level
// DefaultConfig, and GetConfig/SetConfig accessors. These were previously
// magic numbers scattered through spec.md's components; centralizing them
// here is the "scenario table -> typed config" re-architecture of spec §9.
package config

import "github.com/cloanalytics/dealengine/money"

// Config holds solver, rounding, and invariant-tolerance parameters shared
// across the engine's components.
type Config struct {
	// XIRRTolerance is the convergence tolerance for the XIRR/XNPV solver.
	XIRRTolerance money.Decimal

	// XIRRMaxIterations is the solver iteration cap (spec: 100).
	XIRRMaxIterations int

	// CurveBootstrapTolerance is an NPV tolerance for bootstrapping
	// discount factors. No package in this module bootstraps a curve, so
	// it is not read.
	CurveBootstrapTolerance money.Decimal

	// CurveBootstrapMaxIterations caps Newton-Raphson bootstrap steps. Not
	// read, for the same reason.
	CurveBootstrapMaxIterations int

	// DampingFactor is a Newton step-size limit (a delta clamped to
	// DampingFactor * currentGuess). The xirr solver does not read it; it
	// takes full Newton steps.
	DampingFactor money.Decimal

	// AccountTolerance is a negative-balance tolerance for accounts (spec
	// §7: 1e-8). No engine check reads it.
	AccountTolerance money.Decimal

	// ParTolerance is the tolerance of the deal engine's tranche
	// balance-identity check (spec §8: 0.01).
	ParTolerance money.Decimal

	// RoundingPlaces is a number of decimal places for banker's rounding at
	// report/output boundaries. No report path reads it.
	RoundingPlaces int32
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	XIRRTolerance:               money.NewFromFloat(1e-10),
	XIRRMaxIterations:           100,
	CurveBootstrapTolerance:     money.NewFromFloat(1e-12),
	CurveBootstrapMaxIterations: 100,
	DampingFactor:               money.NewFromFloat(0.5),
	AccountTolerance:            money.NewFromFloat(1e-8),
	ParTolerance:                money.NewFromFloat(0.01),
	RoundingPlaces:              2,
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}
