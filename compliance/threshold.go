package compliance

import (
	"sort"
	"time"

	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
)

// ThresholdSource ranks where a threshold record came from, highest
// priority first (spec §4.6: "deal override > template > default").
type ThresholdSource string

const (
	SourceDefault      ThresholdSource = "default"
	SourceTemplate     ThresholdSource = "template"
	SourceDealOverride ThresholdSource = "deal override"
)

func (s ThresholdSource) priority() int {
	switch s {
	case SourceDealOverride:
		return 2
	case SourceTemplate:
		return 1
	default:
		return 0
	}
}

// ThresholdRecord is one entry in the append-only threshold history (spec
// §3: Compliance Threshold).
type ThresholdRecord struct {
	TestNumber    int
	Name          string
	Category      Category
	Value         money.Decimal
	Source        ThresholdSource
	EffectiveDate time.Time
	ExpiryDate    *time.Time // nil means open-ended
	MagVersion    string     // empty means applies regardless of Mag version
}

// ThresholdStore holds the append-only history and resolves the effective
// threshold at a given analysis date.
type ThresholdStore struct {
	history []ThresholdRecord
}

// NewThresholdStore constructs a store from an initial history slice.
func NewThresholdStore(history []ThresholdRecord) *ThresholdStore {
	s := &ThresholdStore{}
	s.history = append(s.history, history...)
	return s
}

// Append adds a new record to the history (append-only per spec §3).
func (s *ThresholdStore) Append(r ThresholdRecord) {
	s.history = append(s.history, r)
}

// History returns the raw history for a test number, in insertion order.
func (s *ThresholdStore) History(testNumber int) []ThresholdRecord {
	var out []ThresholdRecord
	for _, r := range s.history {
		if r.TestNumber == testNumber {
			out = append(out, r)
		}
	}
	return out
}

// Resolve returns the effective threshold for testNumber at asOf, optionally
// scoped to magVersion (empty string matches only version-agnostic records).
// Candidates are the records with effective_date <= asOf < expiry_date;
// among them the highest source priority wins (deal override > template >
// default), and the most recent effective date breaks ties within the same
// source. An older deal override therefore outranks a newer default record.
// This function is pure
// over (history, testNumber, magVersion, asOf), so resolving twice with the
// same inputs always returns the same record (spec §8's idempotence law).
func (s *ThresholdStore) Resolve(testNumber int, magVersion string, asOf time.Time) (ThresholdRecord, error) {
	var candidates []ThresholdRecord
	for _, r := range s.history {
		if r.TestNumber != testNumber {
			continue
		}
		if r.MagVersion != "" && r.MagVersion != magVersion {
			continue
		}
		if r.EffectiveDate.After(asOf) {
			continue
		}
		if r.ExpiryDate != nil && !asOf.Before(*r.ExpiryDate) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return ThresholdRecord{}, dealerr.NewBadInput("compliance: no effective threshold for test %d as of %s", testNumber, asOf.Format("2006-01-02"))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Source.priority() != candidates[j].Source.priority() {
			return candidates[i].Source.priority() > candidates[j].Source.priority()
		}
		return candidates[i].EffectiveDate.After(candidates[j].EffectiveDate)
	})
	return candidates[0], nil
}
