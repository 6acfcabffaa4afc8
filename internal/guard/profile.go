// Package guard bounds recursive algorithms. Every recursive step asks a
// Guard (cycle detection plus depth and work budgets) or a DepthCounter
// (depth only) before descending and releases it on every exit path. Running
// out of budget is not an error: callers return a documented conservative
// value instead.
package guard

import "fmt"

// Profile names a set of budgets for one family of algorithms.
type Profile struct {
	Name          string
	MaxDepth      uint32
	MaxIterations uint32
	MaxVisiting   uint32
}

const defaultMaxVisiting = 10_000

var (
	// SubtypeCheck nests deepest: structural comparison of recursive types can
	// go far before a cycle shows up.
	SubtypeCheck = Profile{Name: "subtype", MaxDepth: 100, MaxIterations: 100_000, MaxVisiting: defaultMaxVisiting}
	// Evaluation covers conditional, mapped and indexed-access reduction.
	Evaluation = Profile{Name: "evaluate", MaxDepth: 50, MaxIterations: 100_000, MaxVisiting: defaultMaxVisiting}
	// Instantiation covers generic application and substitution.
	Instantiation = Profile{Name: "instantiate", MaxDepth: 50, MaxIterations: 100_000, MaxVisiting: defaultMaxVisiting}
	// PropertyAccess covers member lookup through wrappers and unions.
	PropertyAccess = Profile{Name: "property-access", MaxDepth: 50, MaxIterations: 100_000, MaxVisiting: defaultMaxVisiting}
	// Inference covers structural candidate collection.
	Inference = Profile{Name: "infer", MaxDepth: 50, MaxIterations: 100_000, MaxVisiting: defaultMaxVisiting}
	// ShallowTraversal covers contains-type style walks.
	ShallowTraversal = Profile{Name: "traversal", MaxDepth: 20, MaxIterations: 100_000, MaxVisiting: defaultMaxVisiting}
)

// Custom returns a profile with explicit budgets.
func Custom(name string, maxDepth, maxIterations uint32) Profile {
	return Profile{Name: name, MaxDepth: maxDepth, MaxIterations: maxIterations, MaxVisiting: defaultMaxVisiting}
}

func (p Profile) String() string {
	return fmt.Sprintf("%s(depth=%d, iterations=%d)", p.Name, p.MaxDepth, p.MaxIterations)
}

// Result tells the caller whether it may descend.
type Result uint8

const (
	// Entered means the caller may proceed and must call Leave.
	Entered Result = iota
	// Cycle means the key is already on the stack.
	Cycle
	// DepthExceeded means nesting (or the visiting set) is too large.
	DepthExceeded
	// IterationExceeded means the total work budget is spent.
	IterationExceeded
)

func (r Result) String() string {
	switch r {
	case Entered:
		return "entered"
	case Cycle:
		return "cycle"
	case DepthExceeded:
		return "depth-exceeded"
	case IterationExceeded:
		return "iteration-exceeded"
	default:
		return fmt.Sprintf("Result(%d)", r)
	}
}

// Exceeded reports whether r denied entry because a budget ran out.
func (r Result) Exceeded() bool {
	return r == DepthExceeded || r == IterationExceeded
}
