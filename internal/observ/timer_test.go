package observ

import (
	"strings"
	"testing"
)

func TestTimerReportKeepsOrder(t *testing.T) {
	timer := NewTimer()
	done := timer.Track("load")
	done("2 cases")
	idx := timer.Begin("run")
	timer.End(idx, "")
	timer.End(42, "ignored")

	r := timer.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "load" || r.Phases[1].Name != "run" {
		t.Fatalf("unexpected phases %+v", r.Phases)
	}
	if r.Phases[0].Note != "2 cases" {
		t.Fatalf("note = %q", r.Phases[0].Note)
	}
	if !strings.Contains(timer.Summary(), "// 2 cases") {
		t.Fatalf("summary misses the note:\n%s", timer.Summary())
	}
	if (&Timer{}).Report().Phases != nil {
		t.Fatalf("empty timer should report nothing")
	}
}

func TestMergeSumsByName(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "load", DurationMS: 1}, {Name: "run", DurationMS: 2}}}
	b := Report{TotalMS: 5, Phases: []PhaseReport{{Name: "lower", DurationMS: 1}, {Name: "load", DurationMS: 4}}}
	m := Merge(a, b)
	if m.TotalMS != 8 {
		t.Fatalf("total = %v", m.TotalMS)
	}
	var names []string
	for _, p := range m.Phases {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, ","); got != "load,run,lower" {
		t.Fatalf("order = %s", got)
	}
	if m.Phases[0].DurationMS != 5 {
		t.Fatalf("load = %v, want 5", m.Phases[0].DurationMS)
	}
}
