package guard

import (
	"errors"
	"testing"
)

func TestProfileBudgets(t *testing.T) {
	cases := []struct {
		p     Profile
		depth uint32
	}{
		{SubtypeCheck, 100},
		{Evaluation, 50},
		{Instantiation, 50},
		{PropertyAccess, 50},
		{ShallowTraversal, 20},
	}
	for _, tc := range cases {
		if tc.p.MaxDepth != tc.depth || tc.p.MaxIterations != 100_000 {
			t.Fatalf("%s: unexpected budgets", tc.p)
		}
	}
}

func TestGuardEnterLeave(t *testing.T) {
	g := New[int](SubtypeCheck)
	if r := g.Enter(1); r != Entered {
		t.Fatalf("first enter: %v", r)
	}
	if r := g.Enter(1); r != Cycle {
		t.Fatalf("re-enter should be a cycle, got %v", r)
	}
	if !g.IsVisiting(1) || g.Depth() != 1 {
		t.Fatalf("unexpected state: visiting=%v depth=%d", g.IsVisiting(1), g.Depth())
	}
	g.Leave(1)
	if g.Depth() != 0 || g.IsVisiting(1) {
		t.Fatalf("leave did not pop the key")
	}
	if err := g.Check(); err != nil {
		t.Fatalf("balanced guard reported %v", err)
	}
	if g.Iterations() != 2 {
		t.Fatalf("expected 2 iterations, got %d", g.Iterations())
	}
}

func TestGuardDepthExceededIsSticky(t *testing.T) {
	g := New[int](Custom("t", 3, 1000))
	var hooked []Result
	g.OnExceeded(func(_ Profile, r Result) { hooked = append(hooked, r) })
	for i := range 3 {
		if r := g.Enter(i); r != Entered {
			t.Fatalf("enter %d: %v", i, r)
		}
	}
	if r := g.Enter(99); r != DepthExceeded {
		t.Fatalf("expected depth exceeded, got %v", r)
	}
	for i := 2; i >= 0; i-- {
		g.Leave(i)
	}
	if !g.Exceeded() {
		t.Fatalf("exceeded flag must be sticky")
	}
	if len(hooked) != 1 || hooked[0] != DepthExceeded {
		t.Fatalf("hook saw %v", hooked)
	}
	g.Reset()
	if g.Exceeded() || g.Iterations() != 0 {
		t.Fatalf("reset did not clear state")
	}
}

func TestGuardIterationBudget(t *testing.T) {
	g := New[int](Custom("t", 10, 5))
	for i := range 5 {
		if r := g.Scope(i, func() {}); r != Entered {
			t.Fatalf("scope %d: %v", i, r)
		}
	}
	if r := g.Enter(6); r != IterationExceeded || !r.Exceeded() {
		t.Fatalf("expected iteration exceeded, got %v", r)
	}
}

func TestGuardDetectsLeaksAndDoubleRelease(t *testing.T) {
	if debugChecks {
		t.Skip("debug build panics instead of recording")
	}
	g := New[string](Evaluation)
	g.Enter("a")
	if err := g.Check(); !errors.Is(err, ErrLeaked) {
		t.Fatalf("expected leak, got %v", err)
	}
	g.Leave("a")
	g.Leave("a")
	if err := g.Check(); !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected unbalanced leave, got %v", err)
	}
}

func TestDepthCounter(t *testing.T) {
	c := NewDepthCounter(Custom("t", 2, 0))
	if !c.Enter() || !c.Enter() {
		t.Fatalf("expected two levels")
	}
	if c.Enter() {
		t.Fatalf("third level should be denied")
	}
	c.Leave()
	c.Leave()
	if !c.Exceeded() || c.Depth() != 0 {
		t.Fatalf("unexpected state depth=%d exceeded=%v", c.Depth(), c.Exceeded())
	}
	if err := c.Check(); err != nil {
		t.Fatalf("balanced counter reported %v", err)
	}

	if debugChecks {
		return
	}
	inherited := NewDepthCounterAt(10, 4)
	inherited.Enter()
	if err := inherited.Check(); !errors.Is(err, ErrLeaked) {
		t.Fatalf("expected leak above base depth, got %v", err)
	}
	inherited.Leave()
	if err := inherited.Check(); err != nil {
		t.Fatalf("base depth must not count as leaked: %v", err)
	}
}
