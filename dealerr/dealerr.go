// Package dealerr defines the five error kinds of the deal engine's error
// handling design: BadInput, NonConvergent, InvariantBreach, UndefinedStep,
// and Cancelled. Each is a distinct type so callers can discriminate with
// errors.As, following the sentinel-error style of swap/types.go
// (ErrNilCurve) and the %w-wrapped fmt.Errorf style of bond/yield.go in the
// teacher repo.
package dealerr

import "fmt"

// BadInput marks an input-validation failure detected at load time, before
// any period computation begins. The engine refuses to run.
type BadInput struct {
	Reason string
}

func (e *BadInput) Error() string { return fmt.Sprintf("bad input: %s", e.Reason) }

// NewBadInput constructs a BadInput error.
func NewBadInput(format string, args ...any) error {
	return &BadInput{Reason: fmt.Sprintf(format, args...)}
}

// NonConvergent marks a numeric solver (XIRR, curve bootstrap) that failed
// to converge. It is recorded against a specific asset/tranche and reported
// as a warning; the engine continues.
type NonConvergent struct {
	Subject    string // asset/tranche identifier
	LastIterate float64
	Iterations int
}

func (e *NonConvergent) Error() string {
	return fmt.Sprintf("non-convergent solve for %s after %d iterations (last iterate %g)",
		e.Subject, e.Iterations, e.LastIterate)
}

// InvariantBreach marks a fatal consistency violation (balance invariant,
// negative account beyond tolerance, aggregate disagreement). The engine
// aborts immediately, reporting the offending period and component.
type InvariantBreach struct {
	Period    int
	Component string
	Reason    string
}

func (e *InvariantBreach) Error() string {
	return fmt.Sprintf("invariant breach in period %d (%s): %s", e.Period, e.Component, e.Reason)
}

// NewInvariantBreach constructs an InvariantBreach error.
func NewInvariantBreach(period int, component, format string, args ...any) error {
	return &InvariantBreach{Period: period, Component: component, Reason: fmt.Sprintf(format, args...)}
}

// UndefinedStep marks a waterfall strategy step with no registered formula
// or destination. Fatal at engine setup.
type UndefinedStep struct {
	Step string
}

func (e *UndefinedStep) Error() string {
	return fmt.Sprintf("undefined waterfall step: %s", e.Step)
}

// Cancelled marks caller-initiated cancellation observed between periods.
// The engine returns its partial journal.
type Cancelled struct {
	Period int
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("cancelled before period %d", e.Period)
}
