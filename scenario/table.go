// Package scenario loads the external collaborator inputs of spec §6 into
// the engine's typed configuration shapes: the tabular scenario input
// file, the threshold history, and a YAML deal definition assembled into a
// dealengine.DealConfig. Persistence of these records (the database behind
// a threshold store or a reference-data table) is explicitly out of scope
// (spec §1); this package only covers the load-time translation from the
// external wire formats into the typed records the engine consumes — the
// "scenario table -> typed config" re-architecture of spec §9.
package scenario

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cloanalytics/dealengine/dealerr"
)

// Parameter is one row of the scenario input file (spec §6: "tabular
// (scenario_name, scenario_type, section_name, parameter_name,
// parameter_value, parameter_type, row, column)"). Row/Column preserve the
// source table's original ordering, since the loader must not reorder by
// name ("loader must preserve ordering via the row/column fields").
type Parameter struct {
	ScenarioName   string
	ScenarioType   string
	SectionName    string
	ParameterName  string
	ParameterValue string
	ParameterType  string
	Row            int
	Column         int
}

var tableColumns = []string{
	"scenario_name", "scenario_type", "section_name", "parameter_name",
	"parameter_value", "parameter_type", "row", "column",
}

// LoadTable reads the scenario input file of spec §6 from r. It expects a
// header row naming every column in tableColumns (any order); a header
// missing one of them is rejected, which is how a misnamed column is
// caught. Header columns outside tableColumns are ignored.
func LoadTable(r io.Reader) ([]Parameter, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, dealerr.NewBadInput("scenario: table file is empty")
		}
		return nil, dealerr.NewBadInput("scenario: failed to read table header: %v", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []Parameter
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dealerr.NewBadInput("scenario: failed to read table row: %v", err)
		}
		p, err := parseRow(rec, index)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, want := range tableColumns {
		if _, ok := index[want]; !ok {
			return nil, dealerr.NewBadInput("scenario: table header missing required column %q", want)
		}
	}
	return index, nil
}

func parseRow(rec []string, index map[string]int) (Parameter, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	row, err := strconv.Atoi(field("row"))
	if err != nil {
		return Parameter{}, dealerr.NewBadInput("scenario: non-integer row field %q", field("row"))
	}
	col, err := strconv.Atoi(field("column"))
	if err != nil {
		return Parameter{}, dealerr.NewBadInput("scenario: non-integer column field %q", field("column"))
	}

	return Parameter{
		ScenarioName:   field("scenario_name"),
		ScenarioType:   field("scenario_type"),
		SectionName:    field("section_name"),
		ParameterName:  field("parameter_name"),
		ParameterValue: field("parameter_value"),
		ParameterType:  field("parameter_type"),
		Row:            row,
		Column:         col,
	}, nil
}

// BySection groups params by SectionName. Each section's slice keeps the
// order the params arrive in (file-read order for LoadTable output); it is
// not sorted by Row/Column.
func BySection(params []Parameter) map[string][]Parameter {
	out := make(map[string][]Parameter)
	for _, p := range params {
		out[p.SectionName] = append(out[p.SectionName], p)
	}
	return out
}
