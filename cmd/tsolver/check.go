package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"tsolver/internal/scenario"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [file.toml|directory]...",
	Short: "Run scenario files",
	Long: `Run every case of the given scenario files. Directories are searched
recursively for *.toml files; with no arguments the current directory is used.
The command exits with status 1 when any case fails or any file is broken.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("jobs", 0, "max files checked in parallel (0=auto)")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().Bool("sound", false, "check every file under the sound preset")
	checkCmd.Flags().Bool("verbose", false, "list passing cases too")
}

func runCheck(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	sound, err := cmd.Flags().GetBool("sound")
	if err != nil {
		return fmt.Errorf("failed to get sound flag: %w", err)
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := collectScenarioFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no scenario files found in %s", strings.Join(args, ", "))
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	opts := scenario.Options{Jobs: jobs, Sound: sound}

	var results []scenario.FileResult
	if format == "pretty" && !quiet && shouldUseTUI(mode) {
		results, err = runWithUI(cmd.Context(), "checking", files, opts)
	} else {
		results, err = scenario.RunAll(cmd.Context(), files, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		printResults(out, results, printOptions{quiet: quiet, verbose: verbose})
	}
	if showTimings {
		printTimings(cmd.ErrOrStderr(), results)
	}

	for i := range results {
		if !results[i].OK() {
			return errSilent
		}
	}
	return nil
}

// collectScenarioFiles expands directories into the *.toml files below them.
// Hidden directories are skipped. The result keeps argument order, with each
// directory's files sorted, and lists every file once.
func collectScenarioFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path: %w", err)
		}
		if !st.IsDir() {
			add(arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".toml" {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(found)
		for _, path := range found {
			add(path)
		}
	}
	return files, nil
}
