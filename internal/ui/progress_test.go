package ui

import (
	"strings"
	"testing"

	"tsolver/internal/scenario"
)

func TestApplyEventTracksStages(t *testing.T) {
	events := make(chan scenario.Event)
	m := NewProgressModel("check", []string{"a.toml", "b.toml"}, events).(*progressModel)

	m.applyEvent(scenario.Event{File: "a.toml", Stage: scenario.StageLower, Status: scenario.StatusWorking})
	m.applyEvent(scenario.Event{File: "b.toml", Stage: scenario.StageRun, Status: scenario.StatusFailed})
	m.applyEvent(scenario.Event{File: "unknown.toml", Stage: scenario.StageRun, Status: scenario.StatusDone})

	if m.items[0].status != "lowering" || m.items[0].final {
		t.Fatalf("a.toml: %+v", m.items[0])
	}
	if m.items[1].status != "failed" || !m.items[1].final {
		t.Fatalf("b.toml: %+v", m.items[1])
	}
	if view := m.View(); !strings.Contains(view, "check (1/2)") || !strings.Contains(view, "lowering") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short.toml", 20, "short.toml"},
		{"testdata/very/long/path.toml", 12, "testdata/..."},
		{"日本語.toml", 5, "日..."},
		{"abc", 2, "ab"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
