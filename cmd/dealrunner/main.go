// Command dealrunner is the CLI entrypoint to the deal engine: it loads a
// YAML deal file (and an optional CSV threshold-history input) and
// drives dealengine.Engine.Run to termination, printing an
// end-of-deal summary as JSON.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloanalytics/dealengine/cmd/dealrunner/internal/run"
)

func main() {
	os.Exit(dispatch(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func dispatch(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "run":
		return run.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: dealrunner <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run   Load a deal file and run the engine's period loop to termination")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `dealrunner <command> -h` for command-specific help.")
}
