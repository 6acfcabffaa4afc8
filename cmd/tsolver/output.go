package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tsolver/internal/observ"
	"tsolver/internal/scenario"
)

type printOptions struct {
	quiet   bool
	verbose bool
}

var (
	passColor   = color.New(color.FgGreen, color.Bold)
	failColor   = color.New(color.FgRed, color.Bold)
	brokenColor = color.New(color.FgYellow, color.Bold)
	dimColor    = color.New(color.Faint)
)

func outcomeColor(o scenario.Outcome) *color.Color {
	switch o {
	case scenario.Pass:
		return passColor
	case scenario.Fail:
		return failColor
	default:
		return brokenColor
	}
}

// printResults writes one line per file followed by its failing cases, then
// a summary line. Quiet output keeps only the summary and broken files.
func printResults(out io.Writer, results []scenario.FileResult, opts printOptions) {
	width := 0
	for i := range results {
		width = max(width, runewidth.StringWidth(results[i].Path))
	}

	var files, pass, fail, broken int
	for i := range results {
		res := &results[i]
		files++
		p, f, b := res.Counts()
		pass, fail, broken = pass+p, fail+f, broken+b

		if res.Err != nil {
			broken++
			fmt.Fprintf(out, "%s %s %s\n", brokenColor.Sprint("ERROR"), runewidth.FillRight(res.Path, width), res.Error)
			continue
		}
		if opts.quiet {
			continue
		}
		tag := passColor.Sprint("PASS ")
		if !res.OK() {
			tag = failColor.Sprint("FAIL ")
		}
		fmt.Fprintf(out, "%s %s %s\n", tag, runewidth.FillRight(res.Path, width), countSummary(p, f, b))
		for _, c := range res.Cases {
			if c.Outcome == scenario.Pass && !opts.verbose {
				continue
			}
			printCase(out, c)
		}
	}

	summary := fmt.Sprintf("%d files, %s", files, countSummary(pass, fail, broken))
	switch {
	case broken > 0:
		fmt.Fprintln(out, brokenColor.Sprint(summary))
	case fail > 0:
		fmt.Fprintln(out, failColor.Sprint(summary))
	default:
		fmt.Fprintln(out, passColor.Sprint(summary))
	}
}

func printCase(out io.Writer, c scenario.CaseResult) {
	fmt.Fprintf(out, "  %s #%d %s\n", outcomeColor(c.Outcome).Sprintf("%-5s", c.Outcome), c.Number, c.Title())
	if c.Outcome == scenario.Pass {
		return
	}
	if c.Subject != "" {
		fmt.Fprintf(out, "        %s %s\n", dimColor.Sprint("subject:"), c.Subject)
	}
	if c.Got != "" || c.Want != "" {
		fmt.Fprintf(out, "        %s %s\n", dimColor.Sprint("got:    "), c.Got)
		fmt.Fprintf(out, "        %s %s\n", dimColor.Sprint("want:   "), c.Want)
	}
	if c.Detail != "" {
		fmt.Fprint(out, indent(c.Detail, "        "))
	}
}

func countSummary(pass, fail, broken int) string {
	parts := []string{fmt.Sprintf("%d passed", pass)}
	if fail > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", fail))
	}
	if broken > 0 {
		parts = append(parts, fmt.Sprintf("%d broken", broken))
	}
	return strings.Join(parts, ", ")
}

func indent(text, prefix string) string {
	var b strings.Builder
	for line := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

type checkPayload struct {
	Files   []scenario.FileResult `json:"files"`
	Passed  int                   `json:"passed"`
	Failed  int                   `json:"failed"`
	Broken  int                   `json:"broken"`
	Timings observ.Report         `json:"timings"`
}

func writeJSON(out io.Writer, results []scenario.FileResult) error {
	payload := checkPayload{Files: results, Timings: mergeTimings(results)}
	for i := range results {
		p, f, b := results[i].Counts()
		payload.Passed += p
		payload.Failed += f
		payload.Broken += b
		if results[i].Err != nil {
			payload.Broken++
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func mergeTimings(results []scenario.FileResult) observ.Report {
	reports := make([]observ.Report, 0, len(results))
	for i := range results {
		reports = append(reports, results[i].Timings)
	}
	return observ.Merge(reports...)
}

func printTimings(out io.Writer, results []scenario.FileResult) {
	fmt.Fprint(out, mergeTimings(results).Summary())
}
