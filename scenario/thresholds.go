package scenario

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
)

// thresholdColumns matches spec §6's threshold-history record shape:
// "(test_id, value, effective_date, expiry_date?, mag_version?, notes)",
// with name/category/source added since compliance.ThresholdRecord carries
// them for display and source-priority resolution.
var thresholdColumns = []string{
	"test_id", "name", "category", "value", "source",
	"effective_date", "expiry_date", "mag_version",
}

const thresholdDateLayout = "2006-01-02"

// LoadThresholdHistory reads a CSV threshold history (spec §6) into
// compliance.ThresholdRecord values, ready to seed a
// compliance.ThresholdStore via compliance.NewThresholdStore. expiry_date
// and mag_version may be blank.
func LoadThresholdHistory(r io.Reader) ([]compliance.ThresholdRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, dealerr.NewBadInput("scenario: threshold history file is empty")
		}
		return nil, dealerr.NewBadInput("scenario: failed to read threshold header: %v", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, want := range []string{"test_id", "value", "source", "effective_date"} {
		if _, ok := index[want]; !ok {
			return nil, dealerr.NewBadInput("scenario: threshold history missing required column %q", want)
		}
	}

	var out []compliance.ThresholdRecord
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dealerr.NewBadInput("scenario: failed to read threshold row: %v", err)
		}
		tr, err := parseThresholdRow(rec, index)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

func parseThresholdRow(rec []string, index map[string]int) (compliance.ThresholdRecord, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	testNumber, err := strconv.Atoi(field("test_id"))
	if err != nil {
		return compliance.ThresholdRecord{}, dealerr.NewBadInput("scenario: non-integer test_id %q", field("test_id"))
	}
	value, err := strconv.ParseFloat(field("value"), 64)
	if err != nil {
		return compliance.ThresholdRecord{}, dealerr.NewBadInput("scenario: non-numeric threshold value %q for test %d", field("value"), testNumber)
	}
	effective, err := time.Parse(thresholdDateLayout, field("effective_date"))
	if err != nil {
		return compliance.ThresholdRecord{}, dealerr.NewBadInput("scenario: invalid effective_date %q for test %d", field("effective_date"), testNumber)
	}

	tr := compliance.ThresholdRecord{
		TestNumber:    testNumber,
		Name:          field("name"),
		Category:      compliance.Category(field("category")),
		Value:         money.NewFromFloat(value),
		Source:        compliance.ThresholdSource(coalesce(field("source"), string(compliance.SourceDefault))),
		EffectiveDate: effective,
		MagVersion:    field("mag_version"),
	}

	if raw := field("expiry_date"); raw != "" {
		expiry, err := time.Parse(thresholdDateLayout, raw)
		if err != nil {
			return compliance.ThresholdRecord{}, dealerr.NewBadInput("scenario: invalid expiry_date %q for test %d", raw, testNumber)
		}
		tr.ExpiryDate = &expiry
	}

	return tr, nil
}

func coalesce(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
