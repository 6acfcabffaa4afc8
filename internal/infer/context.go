// Package infer solves generic type arguments. Each type parameter under
// inference is a variable in a union-find forest; the root of a class owns
// the constraint set shared by every variable unified into it.
package infer

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"tsolver/internal/evaluate"
	"tsolver/internal/guard"
	"tsolver/internal/subtype"
	"tsolver/internal/types"
)

// Relation decides the relations resolution validates bounds with.
type Relation interface {
	Relate(source, target types.TypeID) subtype.Ternary
}

// Instantiator substitutes resolved variables into declared constraints
// that mention other parameters.
type Instantiator interface {
	Instantiate(t types.TypeID, subst evaluate.Substitution) types.TypeID
}

// Var is an inference variable.
type Var uint32

// Priority orders candidates: lower values win. Candidates inferred from
// arguments beat candidates inferred from the contextual return type.
type Priority uint8

const (
	// PriorityDirect marks candidates from argument positions.
	PriorityDirect Priority = iota
	// PriorityReturnType marks candidates from a contextual return type.
	PriorityReturnType
)

// Candidate is one lower bound together with where it came from.
type Candidate struct {
	Type     types.TypeID
	Priority Priority
}

// ConstraintSet accumulates what is known about one variable class.
type ConstraintSet struct {
	Lower         []Candidate
	Contravariant []types.TypeID
	Upper         []types.TypeID
}

func (cs *ConstraintSet) addLower(c Candidate) {
	if !slices.Contains(cs.Lower, c) {
		cs.Lower = append(cs.Lower, c)
	}
}

func (cs *ConstraintSet) addUpper(t types.TypeID) {
	if !slices.Contains(cs.Upper, t) {
		cs.Upper = append(cs.Upper, t)
	}
}

func (cs *ConstraintSet) addContravariant(t types.TypeID) {
	if !slices.Contains(cs.Contravariant, t) {
		cs.Contravariant = append(cs.Contravariant, t)
	}
}

func (cs *ConstraintSet) merge(other ConstraintSet) {
	for _, c := range other.Lower {
		cs.addLower(c)
	}
	for _, t := range other.Contravariant {
		cs.addContravariant(t)
	}
	for _, t := range other.Upper {
		cs.addUpper(t)
	}
}

// IsEmpty reports whether nothing was collected.
func (cs *ConstraintSet) IsEmpty() bool {
	return len(cs.Lower) == 0 && len(cs.Contravariant) == 0 && len(cs.Upper) == 0
}

type node struct {
	parent   Var
	rank     uint8
	param    types.TypeID
	set      ConstraintSet
	resolved types.TypeID
	conflict *Conflict
}

// Context is the inference state of one generic call or signature
// comparison. It is not safe for concurrent use.
type Context struct {
	in      *types.Interner
	rel     Relation
	inst    Instantiator
	nodes   []node
	byParam map[types.TypeID]Var
	guard   *guard.Guard[walkKey]
	budget  *Conflict
}

type walkKey struct {
	source, target types.TypeID
	contra         bool
	priority       Priority
}

// New returns an empty context. rel validates bounds; inst substitutes
// resolved variables into constraints that mention other variables and may
// be nil when no constraint does.
func New(in *types.Interner, rel Relation, inst Instantiator) *Context {
	return &Context{
		in:      in,
		rel:     rel,
		inst:    inst,
		byParam: make(map[types.TypeID]Var),
		guard:   guard.New[walkKey](guard.Inference),
	}
}

// Interner returns the interner the context reads.
func (c *Context) Interner() *types.Interner { return c.in }

// OnBudgetExceeded installs a hook observing collection budget exhaustion.
func (c *Context) OnBudgetExceeded(hook guard.ExceededHook) { c.guard.OnExceeded(hook) }

// NewVar registers param for inference. Its declared constraint becomes an
// upper bound. Registering the same parameter twice returns the same
// variable.
func (c *Context) NewVar(param types.TypeID) Var {
	if v, ok := c.byParam[param]; ok {
		return v
	}
	n, err := safecast.Conv[uint32](len(c.nodes))
	if err != nil {
		panic(fmt.Errorf("infer: too many variables: %w", err))
	}
	v := Var(n)
	nd := node{parent: v, param: param}
	if info, ok := c.in.TypeParamInfo(param); ok && info.Constraint != types.NoTypeID {
		nd.set.addUpper(info.Constraint)
	}
	c.nodes = append(c.nodes, nd)
	c.byParam[param] = v
	return v
}

// Var returns the variable registered for param.
func (c *Context) Var(param types.TypeID) (Var, bool) {
	v, ok := c.byParam[param]
	return v, ok
}

// Vars lists the registered variables in registration order.
func (c *Context) Vars() []Var {
	out := make([]Var, len(c.nodes))
	for i := range c.nodes {
		out[i] = Var(i)
	}
	return out
}

// Param returns the type parameter v was registered for.
func (c *Context) Param(v Var) types.TypeID { return c.nodes[v].param }

func (c *Context) find(v Var) Var {
	root := v
	for c.nodes[root].parent != root {
		root = c.nodes[root].parent
	}
	for v != root {
		next := c.nodes[v].parent
		c.nodes[v].parent = root
		v = next
	}
	return root
}

// Unify merges the classes of a and b. Two classes already fixed to
// incompatible types are reported as a conflict and left apart.
func (c *Context) Unify(a, b Var) error {
	ra, rb := c.find(a), c.find(b)
	if ra == rb {
		return nil
	}
	ta, tb := c.nodes[ra].resolved, c.nodes[rb].resolved
	if ta != types.NoTypeID && tb != types.NoTypeID && !compatibleFixed(ta, tb) {
		return &Conflict{Kind: Incompatible, Param: c.nodes[a].param, Left: ta, Right: tb, in: c.in}
	}
	if c.nodes[ra].rank < c.nodes[rb].rank {
		ra, rb = rb, ra
	}
	c.nodes[rb].parent = ra
	if c.nodes[ra].rank == c.nodes[rb].rank {
		c.nodes[ra].rank++
	}
	c.nodes[ra].set.merge(c.nodes[rb].set)
	c.nodes[rb].set = ConstraintSet{}
	if c.nodes[ra].resolved == types.NoTypeID {
		c.nodes[ra].resolved = c.nodes[rb].resolved
		c.nodes[ra].conflict = c.nodes[rb].conflict
	}
	c.nodes[rb].resolved, c.nodes[rb].conflict = types.NoTypeID, nil
	return nil
}

func compatibleFixed(a, b types.TypeID) bool {
	if a == b {
		return true
	}
	for _, t := range []types.TypeID{a, b} {
		switch t {
		case types.TypeAny, types.TypeUnknown, types.TypeNever:
			return true
		}
	}
	return false
}

// Bind fixes v's class to t. Binding a class to a type that mentions one
// of its own parameters fails the occurs check.
func (c *Context) Bind(v Var, t types.TypeID) error {
	root := c.find(v)
	if c.occurs(root, t) {
		return &Conflict{Kind: OccursCheck, Param: c.nodes[v].param, Left: t, in: c.in}
	}
	if cur := c.nodes[root].resolved; cur != types.NoTypeID {
		if !compatibleFixed(cur, t) {
			return &Conflict{Kind: Incompatible, Param: c.nodes[v].param, Left: cur, Right: t, in: c.in}
		}
		return nil
	}
	c.nodes[root].resolved = t
	return nil
}

// occurs reports whether t mentions a parameter of root's class.
func (c *Context) occurs(root Var, t types.TypeID) bool {
	return c.in.Contains(t, func(id types.TypeID) bool {
		v, ok := c.byParam[id]
		return ok && c.find(v) == root
	})
}

// AddLowerBound records `t <: v` from an argument position.
func (c *Context) AddLowerBound(v Var, t types.TypeID) {
	c.addCandidate(v, Candidate{Type: t, Priority: PriorityDirect})
}

func (c *Context) addCandidate(v Var, cand Candidate) {
	root := c.find(v)
	c.nodes[root].set.addLower(cand)
}

// AddUpperBound records `v <: t`.
func (c *Context) AddUpperBound(v Var, t types.TypeID) {
	root := c.find(v)
	c.nodes[root].set.addUpper(t)
}

// AddContravariantCandidate records a candidate found in a parameter
// position. Such candidates are used only when no covariant candidate
// exists.
func (c *Context) AddContravariantCandidate(v Var, t types.TypeID) {
	root := c.find(v)
	c.nodes[root].set.addContravariant(t)
}

// Constraints returns a copy of the constraint set of v's class.
func (c *Context) Constraints(v Var) ConstraintSet {
	set := c.nodes[c.find(v)].set
	return ConstraintSet{
		Lower:         slices.Clone(set.Lower),
		Contravariant: slices.Clone(set.Contravariant),
		Upper:         slices.Clone(set.Upper),
	}
}
