// Package subtype implements sound structural subtyping over interned types.
//
// The checker is coinductive: a (source, target) pair that is met again while
// it is still being decided is assumed to hold, which is what makes
// recursive types terminate. Every step is bounded by guard.SubtypeCheck.
package subtype

import (
	"fmt"

	"tsolver/internal/guard"
	"tsolver/internal/types"
)

// Ternary is the outcome of a relation query.
type Ternary uint8

const (
	False Ternary = iota
	True
	// Provisional holds under an in-progress cycle assumption or an
	// exhausted budget; callers treat it as success.
	Provisional
)

func (t Ternary) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	case Provisional:
		return "provisional"
	default:
		return fmt.Sprintf("Ternary(%d)", t)
	}
}

// Holds reports whether the relation is (provisionally) satisfied.
func (t Ternary) Holds() bool { return t != False }

// and combines the results of goals that must all hold.
func and(a, b Ternary) Ternary {
	switch {
	case a == False || b == False:
		return False
	case a == Provisional || b == Provisional:
		return Provisional
	}
	return True
}

// or combines the results of alternatives of which one must hold.
func or(a, b Ternary) Ternary {
	switch {
	case a == True || b == True:
		return True
	case a == Provisional || b == Provisional:
		return Provisional
	}
	return False
}

// Options selects relation rules. The zero value is the strictest sound
// relation except for StrictNullChecks, which callers normally enable.
type Options struct {
	// StrictFunctionTypes compares parameters contravariantly; when off they
	// are compared bivariantly.
	StrictFunctionTypes bool
	// MethodBivariance compares parameters of method signatures bivariantly
	// even under StrictFunctionTypes.
	MethodBivariance bool
	// StrictNullChecks keeps null and undefined out of other types.
	StrictNullChecks bool
	// ExactOptionalPropertyTypes stops optional properties from implicitly
	// accepting undefined.
	ExactOptionalPropertyTypes bool
	// AnyIsBottom lets `any` flow into every type.
	AnyIsBottom bool
	// AllowVoidReturn accepts any return type where void is expected.
	AllowVoidReturn bool
	// StrictReadonly rejects readonly source properties for mutable targets.
	StrictReadonly bool
	// Profile overrides guard.SubtypeCheck when its name is set.
	Profile guard.Profile
}

// SoundOptions returns the strict relation used for tooling and testing.
func SoundOptions() Options {
	return Options{
		StrictFunctionTypes:        true,
		StrictNullChecks:           true,
		ExactOptionalPropertyTypes: true,
		StrictReadonly:             true,
	}
}

// Evaluator reduces meta types (conditional, mapped, indexed access, keyof,
// applications) to structural ones. It returns its input when the type
// cannot be reduced yet.
type Evaluator interface {
	Evaluate(t types.TypeID) types.TypeID
}

// Instantiator infers and substitutes the type parameters of a generic
// source signature so that it can be compared with target.
type Instantiator interface {
	InstantiateSignature(source, target *types.FunctionShape) (types.FunctionShape, bool)
}

// Override decides a pair before structural comparison. It runs for every
// nested pair once identity and the intrinsic fast paths are exhausted.
// Returning false leaves the pair to the structural rules.
type Override interface {
	Override(c *Checker, source, target types.TypeID) (Ternary, bool)
}
