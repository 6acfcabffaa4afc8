package fuzztests

import (
	"context"
	"testing"
	"time"

	"tsolver/internal/scenario"
	"tsolver/internal/testkit"
	"tsolver/internal/types"
)

const maxFuzzInput = 1 << 16

// runTimeout bounds one scenario run. Exceeding it means a relation or
// evaluation escaped its recursion budget.
const runTimeout = 5 * time.Second

func clamp(input []byte) string {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return string(input)
}

func FuzzScenarioParse(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		_, _ = scenario.Parse("fuzz.toml", clamp(input))
	})
}

func FuzzScenarioRunNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		file, err := scenario.Parse("fuzz.toml", clamp(input))
		if err != nil {
			return
		}
		in := types.NewInterner()
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = scenario.Run(context.Background(), in, file, scenario.Options{})
		}()

		select {
		case <-done:
		case <-time.After(runTimeout):
			t.Fatalf("scenario run took longer than %v\ninput (%d bytes): %q",
				runTimeout, len(input), truncateForLog(input, 200))
		}
		if err := testkit.CheckInternerInvariants(in); err != nil {
			t.Fatalf("interner invariants: %v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}
