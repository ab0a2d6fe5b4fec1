package compliance

import "time"

// Suite binds a test registry to a threshold store, running every test for
// a given period (spec §4.8 step 4: "invoke C8 to evaluate all tests
// against current state").
type Suite struct {
	Registry  *Registry
	Thresholds *ThresholdStore
}

// NewSuite constructs a suite with the full 54-test registry.
func NewSuite(thresholds *ThresholdStore) *Suite {
	return &Suite{Registry: NewRegistry(), Thresholds: thresholds}
}

// Outcome is the aggregate result of running every test once.
type Outcome struct {
	Results []Result
	AllPass bool
}

// Run evaluates every registered test against in at asOf/magVersion, per
// spec §4.6's aggregate status ("all_pass if every test passes").
func (s *Suite) Run(in Inputs, magVersion string, asOf time.Time) (Outcome, error) {
	out := Outcome{AllPass: true}
	for _, t := range s.Registry.All() {
		record, err := s.Thresholds.Resolve(t.Number(), magVersion, asOf)
		if err != nil {
			return Outcome{}, err
		}
		result, err := t.Evaluate(in, record.Value)
		if err != nil {
			return Outcome{}, err
		}
		out.Results = append(out.Results, result)
		if !result.Pass {
			out.AllPass = false
		}
	}
	return out, nil
}

// RunOne evaluates a single test by number, used by the reinvestment engine
// to pre-check a proposed purchase (spec §4.9) without re-running the full
// suite.
func (s *Suite) RunOne(number int, in Inputs, magVersion string, asOf time.Time) (Result, error) {
	t, err := s.Registry.Get(number)
	if err != nil {
		return Result{}, err
	}
	record, err := s.Thresholds.Resolve(number, magVersion, asOf)
	if err != nil {
		return Result{}, err
	}
	return t.Evaluate(in, record.Value)
}
