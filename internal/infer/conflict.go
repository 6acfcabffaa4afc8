package infer

import (
	"fmt"

	"tsolver/internal/types"
)

// ConflictKind classifies an unsatisfiable constraint set.
type ConflictKind uint8

const (
	// DisjointUpperBounds means two upper bounds share no inhabitant.
	DisjointUpperBounds ConflictKind = iota
	// LowerExceedsUpper means the inferred type does not satisfy an upper
	// bound.
	LowerExceedsUpper
	// OccursCheck means a variable would be bound to a type containing it.
	OccursCheck
	// BudgetExceeded means candidate collection ran out of budget.
	BudgetExceeded
	// Incompatible means two fixed types were unified.
	Incompatible
)

var conflictNames = [...]string{
	DisjointUpperBounds: "disjoint-upper-bounds",
	LowerExceedsUpper:   "lower-exceeds-upper",
	OccursCheck:         "occurs-check",
	BudgetExceeded:      "budget-exceeded",
	Incompatible:        "incompatible",
}

func (k ConflictKind) String() string {
	if int(k) < len(conflictNames) {
		return conflictNames[k]
	}
	return fmt.Sprintf("ConflictKind(%d)", k)
}

// ParseConflictKind maps a name produced by String back to its kind.
func ParseConflictKind(name string) (ConflictKind, bool) {
	for k, n := range conflictNames {
		if n == name {
			return ConflictKind(k), true
		}
	}
	return 0, false
}

// Conflict reports why a variable could not be resolved. Left and Right
// are the offending types: the two upper bounds, the inferred type and the
// bound it violates, or the type failing the occurs check (Right unset).
type Conflict struct {
	Kind  ConflictKind
	Param types.TypeID
	Left  types.TypeID
	Right types.TypeID

	in *types.Interner
}

func (c *Conflict) Error() string {
	label := func(t types.TypeID) string {
		if c.in == nil {
			return fmt.Sprintf("#%d", t)
		}
		return types.Label(c.in, t)
	}
	param := "inference"
	if c.Param != types.NoTypeID {
		param = label(c.Param)
	}
	switch c.Kind {
	case DisjointUpperBounds:
		return fmt.Sprintf("%s: upper bounds %s and %s are disjoint", param, label(c.Left), label(c.Right))
	case LowerExceedsUpper:
		return fmt.Sprintf("%s: %s does not satisfy %s", param, label(c.Left), label(c.Right))
	case OccursCheck:
		return fmt.Sprintf("%s: %s refers to itself", param, label(c.Left))
	case BudgetExceeded:
		return fmt.Sprintf("%s: inference budget exceeded", param)
	default:
		return fmt.Sprintf("%s: cannot unify %s with %s", param, label(c.Left), label(c.Right))
	}
}
