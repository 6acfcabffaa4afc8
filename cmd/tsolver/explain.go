package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tsolver/internal/scenario"
	"tsolver/internal/types"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] <file.toml>",
	Short: "Explain the verdicts of a scenario file",
	Long: `Run one scenario file and print why its cases were decided the way they
were. Without --case every case that did not pass is explained.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().Int("case", -1, "explain only the case with this number")
	explainCmd.Flags().Bool("all", false, "explain passing cases too")
	explainCmd.Flags().Bool("sound", false, "check under the sound preset")
}

func runExplain(cmd *cobra.Command, args []string) error {
	number, err := cmd.Flags().GetInt("case")
	if err != nil {
		return fmt.Errorf("failed to get case flag: %w", err)
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	sound, err := cmd.Flags().GetBool("sound")
	if err != nil {
		return fmt.Errorf("failed to get sound flag: %w", err)
	}

	f, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	in := types.NewInterner()
	res := scenario.Run(cmd.Context(), in, f, scenario.Options{Sound: sound})
	if res.Err != nil {
		return res.Err
	}

	selected, err := selectCases(res.Cases, number, all)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(selected) == 0 {
		fmt.Fprintf(out, "%s: every case passed\n", res.Path)
		return nil
	}
	for i, c := range selected {
		if i > 0 {
			fmt.Fprintln(out)
		}
		explainCase(out, in, c)
	}
	return nil
}

func selectCases(cases []scenario.CaseResult, number int, all bool) ([]scenario.CaseResult, error) {
	if number >= 0 {
		if number >= len(cases) {
			return nil, fmt.Errorf("case %d out of range (file has %d cases)", number, len(cases))
		}
		return cases[number : number+1], nil
	}
	var out []scenario.CaseResult
	for _, c := range cases {
		if all || c.Outcome != scenario.Pass {
			out = append(out, c)
		}
	}
	return out, nil
}

func explainCase(out io.Writer, in *types.Interner, c scenario.CaseResult) {
	fmt.Fprintf(out, "#%d %s: %s\n", c.Number, c.Title(), outcomeColor(c.Outcome).Sprint(c.Outcome))
	if c.Subject != "" {
		fmt.Fprintf(out, "  subject: %s\n", c.Subject)
	}
	if c.Got != "" || c.Want != "" {
		fmt.Fprintf(out, "  got:     %s\n  want:    %s\n", c.Got, c.Want)
	}
	switch {
	case c.Reason != nil:
		fmt.Fprintln(out, "  because:")
		fmt.Fprint(out, indent(c.Reason.Format(in), "    "))
	case c.Detail != "":
		fmt.Fprint(out, indent(c.Detail, "  "))
	}
}
