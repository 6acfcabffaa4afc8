package subtype

import (
	"slices"

	"tsolver/internal/guard"
	"tsolver/internal/types"
)

type mode uint8

// modeBivariant marks a pair compared for a method-shaped property.
const modeBivariant mode = 1 << iota

type pairKey struct {
	source types.TypeID
	target types.TypeID
	mode   mode
}

// Checker decides structural subtyping. A Checker is not safe for
// concurrent use; create one per goroutine over a shared interner.
type Checker struct {
	in       *types.Interner
	opts     Options
	eval     Evaluator
	inst     Instantiator
	override Override

	guard *guard.Guard[pairKey]
	cache map[pairKey]Ternary
	views map[types.TypeID]*Apparent

	mode    mode
	active  int
	cycles  int
	explain bool
	last    *Reason
}

// New creates a checker over in.
func New(in *types.Interner, opts Options) *Checker {
	profile := guard.SubtypeCheck
	if opts.Profile.Name != "" {
		profile = opts.Profile
	}
	return &Checker{
		in:    in,
		opts:  opts,
		guard: guard.New[pairKey](profile),
		cache: make(map[pairKey]Ternary),
		views: make(map[types.TypeID]*Apparent),
	}
}

// Interner returns the interner the checker reads.
func (c *Checker) Interner() *types.Interner { return c.in }

// Options returns the active relation options.
func (c *Checker) Options() Options { return c.opts }

// SetEvaluator installs the meta-type evaluator.
func (c *Checker) SetEvaluator(e Evaluator) { c.eval = e }

// SetInstantiator installs generic signature instantiation.
func (c *Checker) SetInstantiator(i Instantiator) { c.inst = i }

// SetOverride installs a pre-structural decision hook.
func (c *Checker) SetOverride(o Override) {
	c.override = o
	clear(c.cache)
}

// OnBudgetExceeded observes the checker's guard running out of budget.
func (c *Checker) OnBudgetExceeded(hook guard.ExceededHook) { c.guard.OnExceeded(hook) }

// IsSubtype reports whether source is a subtype of target. Cycles resolved
// within the query yield True; Provisional means a budget ran out and the
// relation is assumed.
func (c *Checker) IsSubtype(source, target types.TypeID) Ternary {
	r, _ := c.run(source, target, false)
	return r
}

// ExplainFailure retraces IsSubtype and returns the reason tree when the
// relation does not hold. A relation assumed because of an exhausted budget
// is reported as RecursionLimitExceeded. It returns nil when the relation
// holds.
func (c *Checker) ExplainFailure(source, target types.TypeID) *Reason {
	r, exceeded := c.run(source, target, true)
	switch {
	case r == False:
		if c.last == nil {
			return &Reason{Kind: TypeMismatch, Source: source, Target: target}
		}
		return c.last
	case exceeded:
		return &Reason{Kind: RecursionLimitExceeded, Source: source, Target: target}
	}
	return nil
}

func (c *Checker) run(source, target types.TypeID, explain bool) (Ternary, bool) {
	if c.active > 0 {
		// re-entered from the evaluator while deciding an outer pair
		savedMode, savedLast := c.mode, c.last
		c.mode = 0
		r := c.Relate(source, target)
		c.mode, c.last = savedMode, savedLast
		return r, false
	}
	c.guard.Reset()
	c.cycles = 0
	c.mode = 0
	c.last = nil
	c.explain = explain
	c.active++
	r := c.Relate(source, target)
	c.active--
	c.explain = false
	exceeded := c.guard.Exceeded()
	if err := c.guard.Check(); err != nil {
		c.guard.Reset()
	}
	if r == Provisional && !exceeded {
		r = True
	}
	return r, exceeded
}

// Explaining reports whether failure reasons are being collected.
func (c *Checker) Explaining() bool { return c.explain }

// Fail records r as the current failure when explaining and returns False.
func (c *Checker) Fail(r Reason) Ternary {
	if c.explain {
		c.last = &r
	}
	return False
}

func (c *Checker) fail(kind ReasonKind, s, t types.TypeID) Ternary {
	if c.explain {
		c.last = &Reason{Kind: kind, Source: s, Target: t}
	}
	return False
}

func (c *Checker) failNamed(kind ReasonKind, s, t types.TypeID, name string) Ternary {
	if c.explain {
		c.last = &Reason{Kind: kind, Source: s, Target: t, Name: name}
	}
	return False
}

// wrap records a reason whose cause is the failure recorded last.
func (c *Checker) wrap(r Reason) Ternary {
	if c.explain {
		r.Cause = c.last
		c.last = &r
	}
	return False
}

// Relate is the recursive entry point: identity, intrinsic fast paths, the
// cache and the cycle guard, then the structural rules. Overrides call it to
// relate nested pairs.
func (c *Checker) Relate(s, t types.TypeID) Ternary {
	if s == t {
		return True
	}
	if r, ok := c.fastPath(s, t); ok {
		return r
	}
	key := pairKey{source: s, target: t, mode: c.mode}
	if r, ok := c.cache[key]; ok && (r == True || !c.explain) {
		return r
	}
	switch c.guard.Enter(key) {
	case guard.Entered:
	case guard.Cycle:
		c.cycles++
		return Provisional
	default:
		return Provisional
	}
	before := c.cycles
	r := c.relate(s, t)
	c.guard.Leave(key)
	if r == False || (r == True && c.cycles == before) {
		c.cache[key] = r
	}
	return r
}

func (c *Checker) fastPath(s, t types.TypeID) (Ternary, bool) {
	switch {
	case t == types.TypeAny || t == types.TypeUnknown:
		return True, true
	case s == types.TypeNever:
		return True, true
	case s == types.TypeError || t == types.TypeError:
		return c.fail(ErrorType, s, t), true
	case s == types.TypeAny:
		if c.opts.AnyIsBottom {
			return True, true
		}
		return c.fail(IntrinsicTypeMismatch, s, t), true
	case t == types.TypeNever || s == types.TypeUnknown:
		return c.fail(IntrinsicTypeMismatch, s, t), true
	case s == types.TypeNull || s == types.TypeUndefined:
		if !c.opts.StrictNullChecks {
			return True, true
		}
		if s == types.TypeUndefined && t == types.TypeVoid {
			return True, true
		}
	}
	return False, false
}

// resolve reduces references and meta types one step.
func (c *Checker) resolve(t types.TypeID) types.TypeID {
	switch c.in.KindOf(t) {
	case types.KindLazy:
		if body, ok := c.in.ResolveLazy(t); ok {
			return body
		}
		if c.eval != nil {
			return c.eval.Evaluate(t)
		}
	case types.KindConditional, types.KindMapped, types.KindApplication, types.KindIndexAccess,
		types.KindKeyOf, types.KindStringIntrinsic:
		if c.eval != nil {
			return c.eval.Evaluate(t)
		}
	}
	return t
}

func (c *Checker) relate(s, t types.TypeID) Ternary {
	if s2, t2 := c.resolve(s), c.resolve(t); s2 != s || t2 != t {
		return c.Relate(s2, t2)
	}
	if c.override != nil {
		if r, ok := c.override.Override(c, s, t); ok {
			return r
		}
	}
	sk, tk := c.in.KindOf(s), c.in.KindOf(t)
	switch {
	case sk == types.KindUnion:
		return c.unionSource(s, t)
	case tk == types.KindIntersection:
		return c.intersectionTarget(s, t)
	case tk == types.KindUnion:
		return c.unionTarget(s, t)
	case sk == types.KindIntersection:
		return c.intersectionSource(s, t)
	case sk == types.KindTypeParam || sk == types.KindInfer:
		return c.typeParamSource(s, t)
	case tk == types.KindReadonly && sk != types.KindReadonly:
		inner, _ := c.in.Lookup(t)
		return c.Relate(s, inner.Elem)
	case tk == types.KindConditional && sk != types.KindConditional:
		cond, _ := c.in.ConditionalType(t)
		r := c.Relate(s, cond.True)
		if r == False {
			return r
		}
		return and(r, c.Relate(s, cond.False))
	}
	return types.Visit[Ternary](c.in, s, sourceVisitor{c: c, target: t})
}

func (c *Checker) unionSource(s, t types.TypeID) Ternary {
	res := True
	for _, m := range c.in.Members(s) {
		r := c.Relate(m, t)
		if r == False {
			return c.wrap(Reason{Kind: TypeMismatch, Source: m, Target: t})
		}
		res = and(res, r)
	}
	return res
}

func (c *Checker) unionTarget(s, t types.TypeID) Ternary {
	members := c.in.Members(t)
	if slices.Contains(members, s) {
		return True
	}
	res := False
	for _, m := range members {
		res = or(res, c.Relate(s, m))
		if res == True {
			return True
		}
	}
	if res == Provisional {
		return res
	}
	return c.fail(NoUnionMemberMatches, s, t)
}

func (c *Checker) intersectionTarget(s, t types.TypeID) Ternary {
	res := True
	for _, m := range c.in.Members(t) {
		r := c.Relate(s, m)
		if r == False {
			return c.wrap(Reason{Kind: IntersectionMemberMismatch, Source: s, Target: m})
		}
		res = and(res, r)
	}
	return res
}

func (c *Checker) intersectionSource(s, t types.TypeID) Ternary {
	res := False
	for _, m := range c.in.Members(s) {
		res = or(res, c.Relate(m, t))
		if res == True {
			return True
		}
	}
	if res == Provisional {
		return res
	}
	// the members may only satisfy the target together
	if tv, ok := c.Apparent(t); ok {
		if sv, ok := c.Apparent(s); ok {
			return c.structural(s, sv, t, tv)
		}
	}
	return c.fail(NoIntersectionMemberMatches, s, t)
}

func (c *Checker) typeParamSource(s, t types.TypeID) Ternary {
	info, _ := c.in.TypeParamInfo(s)
	constraint := info.Constraint
	if constraint == types.NoTypeID {
		constraint = types.TypeUnknown
	}
	if r := c.Relate(constraint, t); r != False {
		return r
	}
	return c.wrap(Reason{Kind: TypeMismatch, Source: s, Target: t})
}

func (c *Checker) isEmptyObject(t types.TypeID) bool {
	if c.in.KindOf(t) != types.KindObject {
		return false
	}
	shape, _ := c.in.ObjectShape(t)
	return len(shape.Props) == 0
}

// objectTarget relates any non-primitive source to an object-like target
// through the source's apparent members.
func (c *Checker) objectTarget(s, t types.TypeID) Ternary {
	switch c.in.KindOf(t) {
	case types.KindNonPrimitive:
		if _, ok := c.Apparent(s); ok {
			return True
		}
	case types.KindGlobalFunction:
		if sv, ok := c.Apparent(s); ok && (len(sv.Calls) > 0 || len(sv.Constructs) > 0) {
			return True
		}
	case types.KindObject, types.KindObjectWithIndex, types.KindFunction, types.KindCallable:
		sv, ok := c.Apparent(s)
		if !ok {
			break
		}
		tv, _ := c.Apparent(t)
		return c.structural(s, sv, t, tv)
	}
	return c.fail(TypeMismatch, s, t)
}
