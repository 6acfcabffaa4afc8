package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelError, ScopeRun, false},
		{LevelPhase, ScopeFile, true},
		{LevelPhase, ScopePass, false},
		{LevelDetail, ScopePass, true},
		{LevelDetail, ScopeQuery, false},
		{LevelDebug, ScopeQuery, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
	for _, name := range []string{"off", "ERROR", "Phase", "detail", "debug"} {
		l, err := ParseLevel(name)
		if err != nil || !strings.EqualFold(l.String(), name) {
			t.Fatalf("ParseLevel(%q) = %v, %v", name, l, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRingWrapsOldestFirst(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeQuery, Name: name})
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ","); got != "c,d,e" {
		t.Fatalf("snapshot = %s, want c,d,e", got)
	}
}

func TestRingFiltersByLevel(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	ring.Emit(&Event{Kind: KindSpanBegin, Scope: ScopeQuery, Name: "is_subtype"})
	ring.Emit(&Event{Kind: KindSpanBegin, Scope: ScopeFile, Name: "file:unions.toml"})
	ring.Emit(&Event{Kind: KindPoint, Scope: ScopeQuery, Name: "budget_exceeded"})
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[0].Name != "file:unions.toml" || snap[1].Name != "budget_exceeded" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSpanStreamsNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)
	ctx, pass := BeginFrom(ctx, ScopePass, "run")
	_, q := BeginFrom(ctx, ScopeQuery, "is_subtype")
	q.WithExtra("result", "true").End("")
	pass.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d:\n%s", len(lines), buf.String())
	}
	var end struct {
		Kind     string            `json:"kind"`
		Name     string            `json:"name"`
		ParentID uint64            `json:"parent_id"`
		Extra    map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[2]), &end); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if end.Kind != "end" || end.Name != "is_subtype" || end.ParentID != pass.ID() || end.Extra["result"] != "true" {
		t.Fatalf("unexpected end event %+v", end)
	}
}

func TestTextFormatSortsExtras(t *testing.T) {
	ev := &Event{Kind: KindSpanEnd, Scope: ScopeQuery, Name: "assignable", Extra: map[string]string{"target": "T", "source": "S"}}
	line := string(FormatEvent(ev, FormatText))
	if !strings.Contains(line, "← assignable {source=S, target=T}") {
		t.Fatalf("unexpected text line %q", line)
	}
}

func TestNopSpansAreInert(t *testing.T) {
	s := Begin(Nop, ScopeQuery, "evaluate", 0)
	if s.ID() != 0 || s.WithExtra("k", "v").End("") != 0 {
		t.Fatalf("nop span emitted")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should carry Nop")
	}
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
}
