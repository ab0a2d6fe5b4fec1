// Package run implements the "run" subcommand of cmd/dealrunner: load a
// YAML deal file (and an optional threshold-history CSV),
// execute the deal engine's period loop to termination, and print the
// end-of-deal summary as JSON. This is the one CLI surface of the engine
// boundary (spec §6): no wire protocol or server lives in this module,
// just a thin load/run/print harness for test fixtures and ad hoc runs.
package run

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/dealengine"
	"github.com/cloanalytics/dealengine/dealengine/summary"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/scenario"
)

// Run implements the dispatch-by-subcommand idiom of the teacher's
// cmd/npv/main.go: parse flags, load inputs, execute, print JSON.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dealPath := fs.String("deal", "", "path to a YAML deal file (required)")
	thresholdsPath := fs.String("thresholds", "", "path to a CSV threshold-history file (optional)")
	verbose := fs.Bool("v", false, "log period-by-period progress to stderr")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}
	if strings.TrimSpace(*dealPath) == "" {
		fmt.Fprintln(stderr, "error: -deal is required")
		usage(stderr)
		return 2
	}

	logHandler := slog.NewJSONHandler(stderr, nil)
	logger := slog.New(logHandler)

	dealFile, err := os.Open(*dealPath)
	if err != nil {
		return fail(stderr, "failed to open deal file: %v", err)
	}
	defer dealFile.Close()

	df, err := scenario.LoadDealFile(dealFile)
	if err != nil {
		return fail(stderr, "failed to parse deal file: %v", err)
	}

	var thresholds []compliance.ThresholdRecord
	if path := strings.TrimSpace(*thresholdsPath); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fail(stderr, "failed to open thresholds file: %v", err)
		}
		defer f.Close()
		thresholds, err = scenario.LoadThresholdHistory(f)
		if err != nil {
			return fail(stderr, "failed to parse thresholds file: %v", err)
		}
	}

	built, err := scenario.Build(df, thresholds)
	if err != nil {
		return fail(stderr, "failed to build deal: %v", err)
	}

	if *verbose {
		built.Config.OnPeriodComplete = func(period int, stats dealengine.PeriodStats) {
			logger.Info("period complete",
				"period", period,
				"as_of", stats.AsOf.Format("2006-01-02"),
				"interest_collected", stats.InterestCollected.String(),
				"principal_collected", stats.PrincipalCollected.String(),
				"all_tests_pass", stats.AllTestsPass,
				"event_of_default", stats.EventOfDefault,
			)
		}
	}

	engine := dealengine.NewEngine(logger)
	start := time.Now()
	result, err := engine.Run(context.Background(), built.Config)
	elapsed := time.Since(start)
	if err != nil {
		return fail(stderr, "deal run failed after %s: %v", elapsed, err)
	}

	report := summary.Summarize(result)
	output := output{
		PeriodsRun:               report.PeriodsRun,
		InterestPaidByTranche:    decimalMap(report.InterestPaidByTranche),
		PrincipalPaidByTranche:   decimalMap(report.PrincipalPaidByTranche),
		EquityDistributionsTotal: report.EquityDistributionsTotal.String(),
		EquityIRR:                report.EquityIRR.String(),
		RealizedLosses:           report.RealizedLosses.String(),
		FinalTestsAllPass:        report.FinalTestOutcome.AllPass,
		Warnings:                 warningStrings(result.Warnings),
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return fail(stderr, "failed to encode output: %v", err)
	}
	return 0
}

// output is the CLI's JSON report shape, a flattened view of
// dealengine/summary.Report suited to stdout consumption (decimals as
// strings to avoid float round-tripping).
type output struct {
	PeriodsRun               int               `json:"periods_run"`
	InterestPaidByTranche    map[string]string `json:"interest_paid_by_tranche"`
	PrincipalPaidByTranche   map[string]string `json:"principal_paid_by_tranche"`
	EquityDistributionsTotal string            `json:"equity_distributions_total"`
	EquityIRR                string            `json:"equity_irr"`
	RealizedLosses           string            `json:"realized_losses"`
	FinalTestsAllPass        bool              `json:"final_tests_all_pass"`
	Warnings                 []string          `json:"warnings,omitempty"`
}

func decimalMap(in map[string]money.Decimal) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v.String()
	}
	return out
}

func warningStrings(warnings []error) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.Error()
	}
	return out
}

func fail(stderr io.Writer, format string, args ...any) int {
	fmt.Fprintf(stderr, format+"\n", args...)
	return 1
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: dealrunner run -deal deal.yaml [-thresholds thresholds.csv] [-v]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Runs the deal engine's period loop to termination and prints an")
	fmt.Fprintln(w, "end-of-deal summary (interest/principal paid per tranche, equity IRR,")
	fmt.Fprintln(w, "realized losses, final compliance outcome) as JSON to stdout.")
}
