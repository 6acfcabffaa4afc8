// Command tsolver checks scenario files against the type relation engine.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tsolver/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tsolver",
	Short: "Structural type relation engine",
	Long: `tsolver runs scenario files against a structural type system: subtype and
assignability relations, type evaluation, property access and call inference.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupRun,
	PersistentPostRunE: finishRun,
}

// errSilent marks a failure that was already reported on stdout.
var errSilent = errors.New("")

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")

	flags.String("trace", "", "trace output path (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")

	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file")
	flags.String("runtime-trace", "", "write a runtime trace to this file")

	err := rootCmd.Execute()
	runCleanups()
	if err != nil {
		if !errors.Is(err, errSilent) {
			rootCmd.PrintErrln("error:", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
