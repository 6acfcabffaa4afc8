package evaluate

import (
	"maps"
	"slices"

	"tsolver/internal/guard"
	"tsolver/internal/types"
)

// Substitution maps type parameters (or infer placeholders) to the types
// that replace them.
type Substitution map[types.TypeID]types.TypeID

// Instantiate replaces the parameters in t according to subst. The result
// is not evaluated. Distributive conditional types whose checked parameter
// is replaced by a union are split per member, and indexed accesses whose
// object and index no longer mention parameters are reduced. Nesting deeper
// than the guard.Instantiation budget yields any.
func (e *Evaluator) Instantiate(t types.TypeID, subst Substitution) types.TypeID {
	if len(subst) == 0 || t == types.NoTypeID {
		return t
	}
	s := &substituter{
		in:    e.in,
		eval:  e,
		subst: subst,
		memo:  make(map[types.TypeID]types.TypeID),
		depth: guard.NewDepthCounter(guard.Instantiation),
	}
	return s.apply(t)
}

// InstantiateSignature substitutes the signature's own type parameters.
// Parameters bound by subst are removed from the result's type parameter
// list.
func (e *Evaluator) InstantiateSignature(fn types.FunctionShape, subst Substitution) types.FunctionShape {
	s := &substituter{
		in:    e.in,
		eval:  e,
		subst: subst,
		memo:  make(map[types.TypeID]types.TypeID),
		depth: guard.NewDepthCounter(guard.Instantiation),
	}
	var remaining []types.TypeID
	for _, p := range fn.TypeParams {
		if _, ok := subst[p]; !ok {
			remaining = append(remaining, p)
		}
	}
	fn.TypeParams = nil
	out := s.signature(fn)
	out.TypeParams = remaining
	return out
}

type substituter struct {
	in    *types.Interner
	eval  *Evaluator
	subst Substitution
	memo  map[types.TypeID]types.TypeID
	depth *guard.DepthCounter
}

func (s *substituter) apply(t types.TypeID) types.TypeID {
	if t == types.NoTypeID {
		return t
	}
	if r, ok := s.subst[t]; ok {
		return r
	}
	if s.in.KindOf(t).IsIntrinsic() {
		return t
	}
	if r, ok := s.memo[t]; ok {
		return r
	}
	if !s.depth.Enter() {
		return types.TypeAny
	}
	r := types.Visit[types.TypeID](s.in, t, rebuilder{s: s, id: t})
	s.depth.Leave()
	s.memo[t] = r
	return r
}

// without returns a substituter that leaves the given parameters alone, for
// scopes that rebind them.
func (s *substituter) without(params ...types.TypeID) *substituter {
	shadowed := false
	for _, p := range params {
		if _, ok := s.subst[p]; ok {
			shadowed = true
			break
		}
	}
	if !shadowed {
		return s
	}
	next := maps.Clone(s.subst)
	for _, p := range params {
		delete(next, p)
	}
	return &substituter{in: s.in, eval: s.eval, subst: next, memo: make(map[types.TypeID]types.TypeID), depth: s.depth}
}

func (s *substituter) all(ids []types.TypeID) []types.TypeID {
	out := make([]types.TypeID, len(ids))
	for i, id := range ids {
		out[i] = s.apply(id)
	}
	return out
}

func (s *substituter) props(props []types.Property) []types.Property {
	if len(props) == 0 {
		return nil
	}
	out := slices.Clone(props)
	for i := range out {
		out[i].Type = s.apply(out[i].Type)
		out[i].Write = s.apply(out[i].Write)
	}
	return out
}

func (s *substituter) index(sig *types.IndexSignature) *types.IndexSignature {
	if sig == nil {
		return nil
	}
	next := *sig
	next.Key = s.apply(sig.Key)
	next.Value = s.apply(sig.Value)
	return &next
}

func (s *substituter) signature(fn types.FunctionShape) types.FunctionShape {
	inner := s.without(fn.TypeParams...)
	fn.Params = slices.Clone(fn.Params)
	for i := range fn.Params {
		fn.Params[i].Type = inner.apply(fn.Params[i].Type)
	}
	fn.This = inner.apply(fn.This)
	fn.Return = inner.apply(fn.Return)
	return fn
}

func (s *substituter) signatures(list []types.FunctionShape) []types.FunctionShape {
	if len(list) == 0 {
		return nil
	}
	out := make([]types.FunctionShape, len(list))
	for i, fn := range list {
		out[i] = s.signature(fn)
	}
	return out
}

// rebuilder reconstructs one level of a type with substituted children.
type rebuilder struct {
	s  *substituter
	id types.TypeID
}

func (r rebuilder) VisitIntrinsic(types.TypeID, types.Kind) types.TypeID          { return r.id }
func (r rebuilder) VisitLiteral(types.TypeID, types.Literal) types.TypeID         { return r.id }
func (r rebuilder) VisitLazy(types.TypeID, types.DeclID) types.TypeID             { return r.id }
func (r rebuilder) VisitTypeParam(types.TypeID, types.TypeParamInfo) types.TypeID { return r.id }
func (r rebuilder) VisitInfer(types.TypeID, types.TypeParamInfo) types.TypeID     { return r.id }
func (r rebuilder) VisitUniqueSymbol(types.TypeID, types.DeclID) types.TypeID     { return r.id }

func (r rebuilder) VisitEnum(_ types.TypeID, _ types.DeclID, _ types.TypeID) types.TypeID {
	return r.id
}

func (r rebuilder) VisitArray(_, elem types.TypeID) types.TypeID {
	return r.s.in.Array(r.s.apply(elem))
}

func (r rebuilder) VisitTuple(_ types.TypeID, elems []types.TupleElement) types.TypeID {
	next := slices.Clone(elems)
	for i := range next {
		next[i].Type = r.s.apply(next[i].Type)
	}
	return r.s.in.Tuple(next)
}

func (r rebuilder) VisitObject(_ types.TypeID, shape *types.ObjectShape) types.TypeID {
	next := types.ObjectShape{
		Props:       r.s.props(shape.Props),
		StringIndex: r.s.index(shape.StringIndex),
		NumberIndex: r.s.index(shape.NumberIndex),
		Nominal:     shape.Nominal,
	}
	if r.s.in.IsFresh(r.id) {
		return r.s.in.FreshObject(next)
	}
	return r.s.in.Object(next)
}

func (r rebuilder) VisitFunction(_ types.TypeID, shape *types.FunctionShape) types.TypeID {
	return r.s.in.Function(r.s.signature(*shape))
}

func (r rebuilder) VisitCallable(_ types.TypeID, shape *types.CallableShape) types.TypeID {
	return r.s.in.Callable(types.CallableShape{
		Calls:       r.s.signatures(shape.Calls),
		Constructs:  r.s.signatures(shape.Constructs),
		Props:       r.s.props(shape.Props),
		StringIndex: r.s.index(shape.StringIndex),
		NumberIndex: r.s.index(shape.NumberIndex),
	})
}

func (r rebuilder) VisitUnion(_ types.TypeID, members []types.TypeID) types.TypeID {
	return r.s.in.UnionOf(r.s.all(members))
}

func (r rebuilder) VisitIntersection(_ types.TypeID, members []types.TypeID) types.TypeID {
	return r.s.in.IntersectionOf(r.s.all(members))
}

func (r rebuilder) VisitConditional(_ types.TypeID, c types.ConditionalType) types.TypeID {
	in := r.s.in
	if c.Distributive && in.KindOf(c.Check) == types.KindTypeParam {
		arg, ok := r.s.subst[c.Check]
		if ok && arg == types.TypeNever {
			return types.TypeNever
		}
		if ok && in.KindOf(arg) == types.KindUnion && len(in.Members(arg)) <= maxDistribution {
			members := in.Members(arg)
			out := make([]types.TypeID, len(members))
			for i, m := range members {
				next := maps.Clone(r.s.subst)
				next[c.Check] = m
				per := &substituter{in: in, eval: r.s.eval, subst: next, memo: make(map[types.TypeID]types.TypeID), depth: r.s.depth}
				out[i] = per.apply(r.id)
			}
			return in.UnionOf(out)
		}
	}
	return in.Conditional(types.ConditionalType{
		Check:        r.s.apply(c.Check),
		Extends:      r.s.apply(c.Extends),
		True:         r.s.apply(c.True),
		False:        r.s.apply(c.False),
		Distributive: c.Distributive,
	})
}

func (r rebuilder) VisitMapped(_ types.TypeID, m types.MappedType) types.TypeID {
	inner := r.s.without(m.Param)
	m.Constraint = r.s.apply(m.Constraint)
	m.NameType = inner.apply(m.NameType)
	m.Template = inner.apply(m.Template)
	return r.s.in.Mapped(m)
}

func (r rebuilder) VisitApplication(_, base types.TypeID, args []types.TypeID) types.TypeID {
	return r.s.in.ApplicationOf(r.s.apply(base), r.s.all(args))
}

func (r rebuilder) VisitTemplateLiteral(_ types.TypeID, spans []types.TemplateSpan) types.TypeID {
	next := slices.Clone(spans)
	for i := range next {
		if !next[i].IsText() {
			next[i].Type = r.s.apply(next[i].Type)
		}
	}
	return r.s.in.TemplateLiteral(next)
}

func (r rebuilder) VisitIndexAccess(_, object, index types.TypeID) types.TypeID {
	in := r.s.in
	object, index = r.s.apply(object), r.s.apply(index)
	if r.s.eval != nil && !in.ContainsTypeParams(object) && !in.ContainsTypeParams(index) {
		return r.s.eval.indexAccess(object, index)
	}
	return in.IndexAccess(object, index)
}

func (r rebuilder) VisitKeyOf(_, operand types.TypeID) types.TypeID {
	return r.s.in.KeyOf(r.s.apply(operand))
}

func (r rebuilder) VisitReadonly(_, inner types.TypeID) types.TypeID {
	return r.s.in.Readonly(r.s.apply(inner))
}

func (r rebuilder) VisitStringIntrinsic(_ types.TypeID, kind types.StringIntrinsicKind, arg types.TypeID) types.TypeID {
	return r.s.in.StringIntrinsic(kind, r.s.apply(arg))
}

// expandApplication substitutes args into the body of a generic
// declaration. Missing arguments take the parameter's default (which may
// refer to earlier parameters), then its constraint, then unknown.
func (e *Evaluator) expandApplication(base types.TypeID, args []types.TypeID) (types.TypeID, bool) {
	decl, ok := e.in.DeclOf(base)
	if !ok || e.in.KindOf(base) != types.KindLazy {
		return types.NoTypeID, false
	}
	info, ok := e.in.DeclInfo(decl)
	if !ok || info.Body == types.NoTypeID {
		return types.NoTypeID, false
	}
	if len(info.Params) == 0 {
		return info.Body, true
	}
	return e.Instantiate(info.Body, e.bindParams(info.Params, args)), true
}

// bindParams pairs declared parameters with arguments, filling defaults.
func (e *Evaluator) bindParams(params, args []types.TypeID) Substitution {
	subst := make(Substitution, len(params))
	for i, p := range params {
		if i < len(args) && args[i] != types.NoTypeID {
			subst[p] = args[i]
			continue
		}
		pi, _ := e.in.TypeParamInfo(p)
		switch {
		case pi.Default != types.NoTypeID:
			subst[p] = e.Instantiate(pi.Default, subst)
		case pi.Constraint != types.NoTypeID:
			subst[p] = e.Instantiate(pi.Constraint, subst)
		default:
			subst[p] = types.TypeUnknown
		}
	}
	return subst
}
