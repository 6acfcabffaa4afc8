package infer

import (
	"errors"
	"slices"

	"tsolver/internal/evaluate"
	"tsolver/internal/types"
)

// Widener widens literal candidates the way mutable bindings are widened.
// A Relation implementing it is used for candidate widening; otherwise
// literals widen to their primitive.
type Widener interface {
	Widen(t types.TypeID) types.TypeID
}

// Resolve returns the type inferred for v's class, computing it on first
// use. Candidates of the best priority are widened (unless an upper bound
// is primitive-like) and reduced to their best common supertype; without
// candidates contravariant candidates, then upper bounds, then unknown are
// used. An unsatisfiable class is reported as a *Conflict together with a
// fallback: the intersection of its upper bounds, or unknown.
func (c *Context) Resolve(v Var) (types.TypeID, error) {
	root := c.find(v)
	if t := c.nodes[root].resolved; t != types.NoTypeID {
		return t, conflictError(c.nodes[root].conflict)
	}
	t, conflict := c.compute(root)
	c.nodes[root].resolved = t
	c.nodes[root].conflict = conflict
	return t, conflictError(conflict)
}

func conflictError(c *Conflict) error {
	if c == nil {
		return nil
	}
	return c
}

// ResolveAll resolves every variable. Variables whose upper bounds mention
// other variables are resolved after them. All conflicts, including an
// exhausted collection budget, are joined into the returned error; the
// substitution is complete either way.
func (c *Context) ResolveAll() (evaluate.Substitution, error) {
	c.strengthen()
	var errs []error
	if c.budget != nil {
		errs = append(errs, c.budget)
	}
	pending := c.Vars()
	for len(pending) > 0 {
		var next []Var
		for _, v := range pending {
			if c.waitsOnOthers(v) {
				next = append(next, v)
				continue
			}
			if _, err := c.Resolve(v); err != nil {
				errs = append(errs, err)
			}
		}
		if len(next) == len(pending) {
			// cyclic constraints: resolve in registration order
			for _, v := range next {
				if _, err := c.Resolve(v); err != nil {
					errs = append(errs, err)
				}
			}
			break
		}
		pending = next
	}
	return c.Substitution(), errors.Join(errs...)
}

// waitsOnOthers reports whether an upper bound of v mentions an unresolved
// variable of another class.
func (c *Context) waitsOnOthers(v Var) bool {
	root := c.find(v)
	if c.nodes[root].resolved != types.NoTypeID {
		return false
	}
	for _, u := range c.nodes[root].set.Upper {
		waiting := c.in.Contains(u, func(id types.TypeID) bool {
			w, ok := c.byParam[id]
			if !ok {
				return false
			}
			r := c.find(w)
			return r != root && c.nodes[r].resolved == types.NoTypeID
		})
		if waiting {
			return true
		}
	}
	return false
}

// strengthen copies the candidates of `T extends U` into U, so that U
// admits whatever T resolves to.
func (c *Context) strengthen() {
	for range len(c.nodes) {
		changed := false
		for i := range c.nodes {
			root := c.find(Var(i))
			if root != Var(i) {
				continue
			}
			for _, u := range c.nodes[root].set.Upper {
				w, ok := c.byParam[u]
				if !ok {
					continue
				}
				target := c.find(w)
				if target == root {
					continue
				}
				for _, cand := range c.nodes[root].set.Lower {
					if !slices.Contains(c.nodes[target].set.Lower, cand) {
						c.nodes[target].set.addLower(cand)
						changed = true
					}
				}
			}
		}
		if !changed {
			return
		}
	}
}

// Substitution maps the parameter of every resolved variable to its type.
func (c *Context) Substitution() evaluate.Substitution {
	subst := make(evaluate.Substitution, len(c.nodes))
	for i, nd := range c.nodes {
		if t := c.nodes[c.find(Var(i))].resolved; t != types.NoTypeID {
			subst[nd.param] = t
		}
	}
	return subst
}

// upperBounds returns the class's upper bounds with resolved variables of
// other classes substituted. Bounds still naming a variable are skipped.
func (c *Context) upperBounds(root Var) []types.TypeID {
	var subst evaluate.Substitution
	out := make([]types.TypeID, 0, len(c.nodes[root].set.Upper))
	for _, u := range c.nodes[root].set.Upper {
		if c.mentions(u) {
			if c.inst == nil {
				continue
			}
			if subst == nil {
				subst = c.Substitution()
			}
			u = c.inst.Instantiate(u, subst)
			if c.mentions(u) {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

func (c *Context) compute(root Var) (types.TypeID, *Conflict) {
	in := c.in
	set := c.nodes[root].set
	param := c.nodes[root].param
	upper := c.upperBounds(root)
	fallback := types.TypeUnknown
	if len(upper) > 0 {
		fallback = in.IntersectionOf(upper)
	}
	if conflict := c.disjointBounds(param, upper); conflict != nil {
		return fallback, conflict
	}

	var result types.TypeID
	lower := c.bestCandidates(set.Lower, len(upper) > 0)
	switch {
	case len(lower) > 0:
		result = c.fromCandidates(lower, upper)
	case len(set.Contravariant) > 0:
		result = c.commonSubtype(set.Contravariant)
	default:
		return fallback, nil
	}

	if c.occurs(root, result) {
		return fallback, &Conflict{Kind: OccursCheck, Param: param, Left: result, in: in}
	}
	for _, u := range upper {
		if result == types.TypeAny || result == types.TypeError || u == types.TypeAny || u == types.TypeError {
			continue
		}
		if !c.holds(result, u) {
			return fallback, &Conflict{Kind: LowerExceedsUpper, Param: param, Left: result, Right: u, in: in}
		}
	}
	return result, nil
}

// disjointBounds reports two upper bounds whose intersection is empty.
func (c *Context) disjointBounds(param types.TypeID, upper []types.TypeID) *Conflict {
	for i, a := range upper {
		for _, b := range upper[i+1:] {
			if a == types.TypeNever || b == types.TypeNever {
				continue
			}
			if c.in.Intersection(a, b) == types.TypeNever {
				return &Conflict{Kind: DisjointUpperBounds, Param: param, Left: a, Right: b, in: c.in}
			}
		}
	}
	return nil
}

// bestCandidates keeps the candidates of the best priority. With upper
// bounds present, any, unknown and error candidates carry no information
// and are dropped unless nothing else remains.
func (c *Context) bestCandidates(cands []Candidate, bounded bool) []types.TypeID {
	if len(cands) == 0 {
		return nil
	}
	best := cands[0].Priority
	for _, cand := range cands[1:] {
		best = min(best, cand.Priority)
	}
	var out, weak []types.TypeID
	for _, cand := range cands {
		if cand.Priority != best {
			continue
		}
		switch cand.Type {
		case types.TypeAny, types.TypeUnknown, types.TypeError:
			if bounded {
				weak = append(weak, cand.Type)
				continue
			}
		}
		out = append(out, cand.Type)
	}
	if len(out) == 0 {
		return weak
	}
	return out
}

func (c *Context) fromCandidates(cands, upper []types.TypeID) types.TypeID {
	list := make([]types.TypeID, 0, len(cands))
	for _, t := range cands {
		if t != types.TypeNever && !slices.Contains(list, t) {
			list = append(list, t)
		}
	}
	if len(list) == 0 {
		return types.TypeNever
	}
	if slices.Contains(list, types.TypeAny) {
		return types.TypeAny
	}
	preserve := slices.ContainsFunc(upper, func(u types.TypeID) bool { return c.primitiveLike(u, 0) })
	if !preserve {
		widened := list[:0:0]
		for _, t := range list {
			if w := c.widen(t); !slices.Contains(widened, w) {
				widened = append(widened, w)
			}
		}
		list = widened
	}
	return c.bestCommonType(list)
}

func (c *Context) widen(t types.TypeID) types.TypeID {
	if w, ok := c.rel.(Widener); ok {
		return w.Widen(t)
	}
	in := c.in
	switch in.KindOf(t) {
	case types.KindLiteral, types.KindUniqueSymbol:
		return in.PrimitiveBase(t)
	case types.KindUnion:
		members := in.Members(t)
		out := make([]types.TypeID, len(members))
		for i, m := range members {
			out[i] = c.widen(m)
		}
		return in.UnionOf(out)
	}
	return t
}

// primitiveLike reports whether a constraint asks for literal precision:
// primitives, literals, template literals, enums and unions of them.
func (c *Context) primitiveLike(t types.TypeID, depth int) bool {
	switch t {
	case types.TypeString, types.TypeNumber, types.TypeBigInt, types.TypeBoolean, types.TypeSymbol:
		return true
	}
	if depth > 8 {
		return false
	}
	switch c.in.KindOf(t) {
	case types.KindLiteral, types.KindTemplateLiteral, types.KindStringIntrinsic, types.KindEnum, types.KindUniqueSymbol:
		return true
	case types.KindUnion, types.KindIntersection:
		return slices.ContainsFunc(c.in.Members(t), func(m types.TypeID) bool { return c.primitiveLike(m, depth+1) })
	case types.KindTypeParam:
		info, _ := c.in.TypeParamInfo(t)
		return info.Constraint != types.NoTypeID && c.primitiveLike(info.Constraint, depth+1)
	}
	return false
}

func (c *Context) holds(s, t types.TypeID) bool {
	if c.rel == nil {
		return true
	}
	return c.rel.Relate(s, t).Holds()
}

// bestCommonType picks the candidate every other candidate is assignable
// to, or the union of all candidates.
func (c *Context) bestCommonType(list []types.TypeID) types.TypeID {
	if len(list) == 1 {
		return list[0]
	}
	best := list[0]
	for _, t := range list[1:] {
		if c.holds(best, t) {
			best = t
		}
	}
	if c.rel != nil && !slices.ContainsFunc(list, func(t types.TypeID) bool { return !c.holds(t, best) }) {
		return best
	}
	return c.in.UnionOf(list)
}

// commonSubtype picks the contravariant candidate assignable to every
// other one, or their intersection.
func (c *Context) commonSubtype(list []types.TypeID) types.TypeID {
	if len(list) == 1 {
		return list[0]
	}
	best := list[0]
	for _, t := range list[1:] {
		if c.holds(t, best) {
			best = t
		}
	}
	if c.rel != nil && !slices.ContainsFunc(list, func(t types.TypeID) bool { return !c.holds(best, t) }) {
		return best
	}
	return c.in.IntersectionOf(list)
}
