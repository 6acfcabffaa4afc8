// Package evaluate reduces meta types (references, generic applications,
// conditional, mapped, indexed-access, keyof, template literal and string
// mapping types) to the structural types the relation layers compare.
//
// Evaluation is shallow: only the outermost meta type is reduced, together
// with the members of unions, intersections and template spans. Results are
// memoized per Evaluator by input handle.
package evaluate

import (
	"tsolver/internal/guard"
	"tsolver/internal/subtype"
	"tsolver/internal/types"
)

// DefaultMaxTemplateSize bounds the number of strings a template literal
// may expand to.
const DefaultMaxTemplateSize = 100_000

const (
	maxDistribution   = 100
	maxTailRecursions = 1000
)

// Options configures an Evaluator.
type Options struct {
	// MaxTemplateSize caps template literal expansion; zero means
	// DefaultMaxTemplateSize.
	MaxTemplateSize int
	// NoUncheckedIndexedAccess adds undefined to reads through index
	// signatures.
	NoUncheckedIndexedAccess bool
	// Profile overrides guard.Evaluation when its name is set.
	Profile guard.Profile
}

// Relation decides the `extends` clause of conditional types.
type Relation interface {
	Relate(source, target types.TypeID) subtype.Ternary
}

// Evaluator reduces meta types. It is not safe for concurrent use.
type Evaluator struct {
	in   *types.Interner
	rel  Relation
	opts Options

	memo   map[types.TypeID]types.TypeID
	guard  *guard.Guard[types.TypeID]
	active int
}

// New creates an evaluator. rel may be nil, in which case conditional types
// whose outcome needs a relation stay deferred.
func New(in *types.Interner, rel Relation, opts Options) *Evaluator {
	if opts.MaxTemplateSize <= 0 {
		opts.MaxTemplateSize = DefaultMaxTemplateSize
	}
	profile := guard.Evaluation
	if opts.Profile.Name != "" {
		profile = opts.Profile
	}
	return &Evaluator{
		in:    in,
		rel:   rel,
		opts:  opts,
		memo:  make(map[types.TypeID]types.TypeID),
		guard: guard.New[types.TypeID](profile),
	}
}

// SetRelation installs the relation used by conditional types.
func (e *Evaluator) SetRelation(rel Relation) {
	e.rel = rel
	clear(e.memo)
}

// Interner returns the interner the evaluator writes to.
func (e *Evaluator) Interner() *types.Interner { return e.in }

// Options returns the evaluator's options.
func (e *Evaluator) Options() Options { return e.opts }

// OnBudgetExceeded observes the evaluation guard running out of budget.
func (e *Evaluator) OnBudgetExceeded(hook guard.ExceededHook) { e.guard.OnExceeded(hook) }

// Evaluate returns the reduced form of t, or t itself when nothing can be
// reduced yet (for example because it depends on an unresolved type
// parameter). A type that refers to itself while being reduced stays
// deferred; running out of budget yields the error type.
func (e *Evaluator) Evaluate(t types.TypeID) types.TypeID {
	if t == types.NoTypeID || e.in.KindOf(t).IsIntrinsic() {
		return t
	}
	if r, ok := e.memo[t]; ok {
		return r
	}
	if e.active == 0 {
		e.guard.Reset()
	}
	switch e.guard.Enter(t) {
	case guard.Entered:
	case guard.Cycle:
		return t
	default:
		return types.TypeError
	}
	e.active++
	r := types.Visit[types.TypeID](e.in, t, reducer{e: e, id: t})
	e.active--
	e.guard.Leave(t)
	if !e.guard.Exceeded() {
		e.memo[t] = r
	}
	if e.active == 0 {
		if err := e.guard.Check(); err != nil {
			e.guard.Reset()
		}
	}
	return r
}

func (e *Evaluator) relate(s, t types.TypeID) subtype.Ternary {
	if e.rel == nil {
		return subtype.Provisional
	}
	return e.rel.Relate(s, t)
}

// reducer reduces one level of a type.
type reducer struct {
	e  *Evaluator
	id types.TypeID
}

func (r reducer) VisitIntrinsic(types.TypeID, types.Kind) types.TypeID           { return r.id }
func (r reducer) VisitLiteral(types.TypeID, types.Literal) types.TypeID          { return r.id }
func (r reducer) VisitArray(_, _ types.TypeID) types.TypeID                      { return r.id }
func (r reducer) VisitTuple(types.TypeID, []types.TupleElement) types.TypeID     { return r.id }
func (r reducer) VisitObject(types.TypeID, *types.ObjectShape) types.TypeID      { return r.id }
func (r reducer) VisitFunction(types.TypeID, *types.FunctionShape) types.TypeID  { return r.id }
func (r reducer) VisitCallable(types.TypeID, *types.CallableShape) types.TypeID  { return r.id }
func (r reducer) VisitTypeParam(types.TypeID, types.TypeParamInfo) types.TypeID  { return r.id }
func (r reducer) VisitInfer(types.TypeID, types.TypeParamInfo) types.TypeID      { return r.id }
func (r reducer) VisitUniqueSymbol(types.TypeID, types.DeclID) types.TypeID      { return r.id }
func (r reducer) VisitEnum(types.TypeID, types.DeclID, types.TypeID) types.TypeID { return r.id }

func (r reducer) VisitUnion(_ types.TypeID, members []types.TypeID) types.TypeID {
	return r.e.in.UnionOf(r.e.evaluateAll(members))
}

func (r reducer) VisitIntersection(_ types.TypeID, members []types.TypeID) types.TypeID {
	return r.e.in.IntersectionOf(r.e.evaluateAll(members))
}

func (r reducer) VisitConditional(_ types.TypeID, c types.ConditionalType) types.TypeID {
	return r.e.conditional(c)
}

func (r reducer) VisitMapped(_ types.TypeID, m types.MappedType) types.TypeID {
	return r.e.mapped(r.id, m)
}

func (r reducer) VisitLazy(_ types.TypeID, _ types.DeclID) types.TypeID {
	if body, ok := r.e.in.ResolveLazy(r.id); ok {
		return r.e.Evaluate(body)
	}
	return r.id
}

func (r reducer) VisitApplication(_, base types.TypeID, args []types.TypeID) types.TypeID {
	if expanded, ok := r.e.expandApplication(base, args); ok {
		return r.e.Evaluate(expanded)
	}
	return r.id
}

func (r reducer) VisitTemplateLiteral(_ types.TypeID, spans []types.TemplateSpan) types.TypeID {
	return r.e.template(r.id, spans)
}

func (r reducer) VisitIndexAccess(_, object, index types.TypeID) types.TypeID {
	return r.e.indexAccess(object, index)
}

func (r reducer) VisitKeyOf(_, operand types.TypeID) types.TypeID {
	return r.e.keyOf(operand)
}

func (r reducer) VisitReadonly(_, inner types.TypeID) types.TypeID {
	return r.e.in.Readonly(r.e.Evaluate(inner))
}

func (r reducer) VisitStringIntrinsic(_ types.TypeID, kind types.StringIntrinsicKind, arg types.TypeID) types.TypeID {
	return r.e.stringIntrinsic(kind, arg)
}

func (e *Evaluator) evaluateAll(ids []types.TypeID) []types.TypeID {
	out := make([]types.TypeID, len(ids))
	for i, id := range ids {
		out[i] = e.Evaluate(id)
	}
	return out
}

// deferred reports whether t still depends on an unresolved parameter.
func (e *Evaluator) deferred(t types.TypeID) bool {
	return e.in.ContainsTypeParams(t)
}
