package guard

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
)

var (
	// ErrLeaked reports keys still entered when a computation finished.
	ErrLeaked = errors.New("guard: entries leaked")
	// ErrUnbalanced reports a Leave without a matching Enter.
	ErrUnbalanced = errors.New("guard: leave without enter")
)

// ExceededHook observes budget exhaustion.
type ExceededHook func(p Profile, r Result)

// Guard tracks the keys currently being visited by one recursive
// computation together with its depth and total work. It is not safe for
// concurrent use; each query owns its guards.
type Guard[K comparable] struct {
	profile    Profile
	visiting   map[K]struct{}
	depth      uint32
	iterations uint32
	exceeded   bool
	unbalanced int
	onExceed   ExceededHook
}

// New creates a guard for profile.
func New[K comparable](profile Profile) *Guard[K] {
	if profile.MaxVisiting == 0 {
		profile.MaxVisiting = defaultMaxVisiting
	}
	return &Guard[K]{profile: profile, visiting: make(map[K]struct{})}
}

// OnExceeded installs a hook called each time entry is denied for budget
// reasons.
func (g *Guard[K]) OnExceeded(hook ExceededHook) {
	g.onExceed = hook
}

// Enter tries to start work on key. Only Entered obliges a Leave.
func (g *Guard[K]) Enter(key K) Result {
	if g.iterations < ^uint32(0) {
		g.iterations++
	}
	if g.iterations > g.profile.MaxIterations {
		return g.deny(IterationExceeded)
	}
	if g.depth >= g.profile.MaxDepth {
		return g.deny(DepthExceeded)
	}
	if _, ok := g.visiting[key]; ok {
		return Cycle
	}
	if g.visitingLen() >= g.profile.MaxVisiting {
		return g.deny(DepthExceeded)
	}
	g.visiting[key] = struct{}{}
	g.depth++
	return Entered
}

func (g *Guard[K]) deny(r Result) Result {
	g.exceeded = true
	if g.onExceed != nil {
		g.onExceed(g.profile, r)
	}
	return r
}

// Leave ends work on key.
func (g *Guard[K]) Leave(key K) {
	if _, ok := g.visiting[key]; !ok {
		g.unbalanced++
		if debugChecks {
			panic(fmt.Errorf("%w: %v (%s)", ErrUnbalanced, key, g.profile.Name))
		}
		return
	}
	delete(g.visiting, key)
	if g.depth > 0 {
		g.depth--
	}
}

// Scope runs fn between Enter and Leave. It reports the denial reason when
// fn did not run.
func (g *Guard[K]) Scope(key K, fn func()) Result {
	r := g.Enter(key)
	if r != Entered {
		return r
	}
	defer g.Leave(key)
	fn()
	return Entered
}

// IsVisiting reports whether key is on the stack.
func (g *Guard[K]) IsVisiting(key K) bool {
	_, ok := g.visiting[key]
	return ok
}

// Depth returns the number of active entries.
func (g *Guard[K]) Depth() uint32 { return g.depth }

// Iterations returns the number of Enter calls so far.
func (g *Guard[K]) Iterations() uint32 { return g.iterations }

// Profile returns the configured budgets.
func (g *Guard[K]) Profile() Profile { return g.profile }

// Exceeded is sticky: once a budget ran out it stays set until Reset.
func (g *Guard[K]) Exceeded() bool { return g.exceeded }

// MarkExceeded blocks further work as if a budget ran out.
func (g *Guard[K]) MarkExceeded() { g.exceeded = true }

// Check reports leaked entries and unbalanced leaves. Callers invoke it when
// the outermost computation returns.
func (g *Guard[K]) Check() error {
	var errs []error
	if n := len(g.visiting); n > 0 {
		errs = append(errs, fmt.Errorf("%w: %d active in %s", ErrLeaked, n, g.profile.Name))
	}
	if g.unbalanced > 0 {
		errs = append(errs, fmt.Errorf("%w: %d times in %s", ErrUnbalanced, g.unbalanced, g.profile.Name))
	}
	err := errors.Join(errs...)
	if err != nil && debugChecks {
		panic(err)
	}
	return err
}

// Reset clears all state and keeps the profile.
func (g *Guard[K]) Reset() {
	clear(g.visiting)
	g.depth = 0
	g.iterations = 0
	g.exceeded = false
	g.unbalanced = 0
}

func (g *Guard[K]) visitingLen() uint32 {
	n, err := safecast.Conv[uint32](len(g.visiting))
	if err != nil {
		return ^uint32(0)
	}
	return n
}

// DepthCounter limits nesting without cycle detection, for computations that
// legitimately revisit the same input.
type DepthCounter struct {
	depth      uint32
	base       uint32
	max        uint32
	exceeded   bool
	unbalanced int
}

// NewDepthCounter creates a counter using profile's depth budget.
func NewDepthCounter(profile Profile) *DepthCounter {
	return &DepthCounter{max: profile.MaxDepth}
}

// NewDepthCounterAt creates a counter that inherits depth from a parent
// computation; only depth above initial counts as a leak.
func NewDepthCounterAt(maxDepth, initial uint32) *DepthCounter {
	return &DepthCounter{max: maxDepth, depth: initial, base: initial}
}

// Enter reports whether another level is allowed. On false nothing was
// entered and Leave must not be called.
func (c *DepthCounter) Enter() bool {
	if c.depth >= c.max {
		c.exceeded = true
		return false
	}
	c.depth++
	return true
}

// Leave pops one level.
func (c *DepthCounter) Leave() {
	if c.depth == 0 {
		c.unbalanced++
		if debugChecks {
			panic(ErrUnbalanced)
		}
		return
	}
	c.depth--
}

// Depth returns the current depth.
func (c *DepthCounter) Depth() uint32 { return c.depth }

// Exceeded is sticky until Reset.
func (c *DepthCounter) Exceeded() bool { return c.exceeded }

// MarkExceeded sets the exceeded flag.
func (c *DepthCounter) MarkExceeded() { c.exceeded = true }

// Check reports leaked levels and unbalanced leaves.
func (c *DepthCounter) Check() error {
	var errs []error
	if c.depth > c.base {
		errs = append(errs, fmt.Errorf("%w: depth %d above base %d", ErrLeaked, c.depth, c.base))
	}
	if c.unbalanced > 0 {
		errs = append(errs, fmt.Errorf("%w: %d times", ErrUnbalanced, c.unbalanced))
	}
	err := errors.Join(errs...)
	if err != nil && debugChecks {
		panic(err)
	}
	return err
}

// Reset returns to the base depth and clears the exceeded flag.
func (c *DepthCounter) Reset() {
	c.depth = c.base
	c.exceeded = false
	c.unbalanced = 0
}
