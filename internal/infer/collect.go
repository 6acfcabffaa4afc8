package infer

import (
	"slices"

	"tsolver/internal/guard"
	"tsolver/internal/types"
)

// InferFromTypes collects candidates from a value of type source flowing
// into a position of type target, where target mentions the variables.
func (c *Context) InferFromTypes(source, target types.TypeID) {
	c.collect(source, target, false, PriorityDirect)
}

// InferFromContextualType collects candidates from the type the result of
// a call is expected to have. They rank below argument candidates.
func (c *Context) InferFromContextualType(contextual, returnType types.TypeID) {
	c.collect(contextual, returnType, false, PriorityReturnType)
}

// InferFromArguments pairs argument types with declared parameters. A rest
// parameter receives the remaining arguments: as a tuple when its type is a
// variable, element by element when it is an array.
func (c *Context) InferFromArguments(params []types.Param, args []types.TypeID) {
	for i, p := range params {
		if p.Rest {
			rest := args[min(i, len(args)):]
			if _, ok := c.byParam[p.Type]; ok || c.in.KindOf(p.Type) == types.KindTuple {
				c.InferFromTypes(c.in.TupleOf(rest...), p.Type)
				return
			}
			elem := arrayElement(c.in, p.Type)
			for _, arg := range rest {
				c.InferFromTypes(arg, elem)
			}
			return
		}
		if i >= len(args) {
			return
		}
		c.InferFromTypes(args[i], p.Type)
	}
}

// mentions reports whether t refers to a variable of this context.
func (c *Context) mentions(t types.TypeID) bool {
	if len(c.byParam) == 0 || !c.in.ContainsTypeParams(t) {
		return false
	}
	return c.in.Contains(t, func(id types.TypeID) bool {
		_, ok := c.byParam[id]
		return ok
	})
}

func (c *Context) exceeded() {
	if c.budget == nil {
		c.budget = &Conflict{Kind: BudgetExceeded, in: c.in}
	}
}

func (c *Context) collect(source, target types.TypeID, contra bool, prio Priority) {
	if source == types.NoTypeID || target == types.NoTypeID || source == target {
		return
	}
	if v, ok := c.byParam[target]; ok {
		if contra {
			c.AddContravariantCandidate(v, source)
		} else {
			c.addCandidate(v, Candidate{Type: source, Priority: prio})
		}
		return
	}
	if v, ok := c.byParam[source]; ok && !contra && !c.mentions(target) {
		c.AddUpperBound(v, target)
		return
	}
	if !c.mentions(target) {
		return
	}
	key := walkKey{source: source, target: target, contra: contra, priority: prio}
	switch c.guard.Enter(key) {
	case guard.Entered:
	case guard.Cycle:
		return
	default:
		c.exceeded()
		return
	}
	defer c.guard.Leave(key)
	c.structural(source, target, contra, prio)
}

func (c *Context) structural(source, target types.TypeID, contra bool, prio Priority) {
	in := c.in
	sk, tk := in.KindOf(source), in.KindOf(target)
	switch {
	case tk == types.KindUnion:
		c.toUnion(source, target, contra, prio)
		return
	case sk == types.KindUnion:
		for _, m := range in.Members(source) {
			c.collect(m, target, contra, prio)
		}
		return
	case tk == types.KindIntersection:
		for _, m := range in.Members(target) {
			c.collect(source, m, contra, prio)
		}
		return
	case tk == types.KindReadonly:
		if sk == types.KindReadonly {
			source = in.MustLookup(source).Elem
		}
		c.collect(source, in.MustLookup(target).Elem, contra, prio)
		return
	case sk == types.KindReadonly:
		c.collect(in.MustLookup(source).Elem, target, contra, prio)
		return
	}

	switch tk {
	case types.KindArray:
		elem := in.MustLookup(target).Elem
		switch sk {
		case types.KindArray:
			c.collect(in.MustLookup(source).Elem, elem, contra, prio)
		case types.KindTuple:
			elems, _ := in.TupleElements(source)
			for _, el := range elems {
				t := el.Type
				if el.Rest {
					t = arrayElement(in, t)
				}
				c.collect(t, elem, contra, prio)
			}
		}
	case types.KindTuple:
		c.tuples(source, target, contra, prio)
	case types.KindObject, types.KindObjectWithIndex:
		c.objects(source, target, contra, prio)
	case types.KindFunction, types.KindCallable:
		c.signatures(source, target, false, contra, prio)
		c.signatures(source, target, true, contra, prio)
		if tk == types.KindCallable {
			c.objects(source, target, contra, prio)
		}
	case types.KindApplication:
		if sk != types.KindApplication {
			return
		}
		sb, sargs, _ := in.Application(source)
		tb, targs, _ := in.Application(target)
		if sb != tb {
			return
		}
		for i := range min(len(sargs), len(targs)) {
			c.collect(sargs[i], targs[i], contra, prio)
		}
	case types.KindTemplateLiteral:
		c.template(source, target, contra, prio)
	case types.KindIndexAccess:
		if sk == types.KindIndexAccess {
			so, si := in.MustLookup(source).Elem, indexOf(in, source)
			to, ti := in.MustLookup(target).Elem, indexOf(in, target)
			c.collect(so, to, contra, prio)
			c.collect(si, ti, contra, prio)
		}
	case types.KindKeyOf:
		if sk == types.KindKeyOf {
			c.collect(in.MustLookup(source).Elem, in.MustLookup(target).Elem, !contra, prio)
		}
	case types.KindConditional:
		if sk == types.KindConditional {
			sc, _ := in.ConditionalType(source)
			tc, _ := in.ConditionalType(target)
			c.collect(sc.Check, tc.Check, contra, prio)
			c.collect(sc.Extends, tc.Extends, contra, prio)
			c.collect(sc.True, tc.True, contra, prio)
			c.collect(sc.False, tc.False, contra, prio)
		}
	case types.KindMapped:
		c.mapped(source, target, contra, prio)
	}
}

// toUnion infers to a union target. Source members identical to fixed
// target members are matched first; the rest go to the structured members
// and, when exactly one member is a naked variable, to that variable.
func (c *Context) toUnion(source, target types.TypeID, contra bool, prio Priority) {
	in := c.in
	var fixed, naked, structured []types.TypeID
	for _, t := range in.Members(target) {
		_, isVar := c.byParam[t]
		switch {
		case isVar:
			naked = append(naked, t)
		case c.mentions(t):
			structured = append(structured, t)
		default:
			fixed = append(fixed, t)
		}
	}
	var remaining []types.TypeID
	for _, s := range in.UnionMembers(source) {
		if !slices.Contains(fixed, s) {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		return
	}
	var unmatched []types.TypeID
	for _, s := range remaining {
		matched := false
		for _, t := range structured {
			if sameShape(in, s, t) {
				c.collect(s, t, contra, prio)
				matched = true
			}
		}
		if !matched {
			unmatched = append(unmatched, s)
		}
	}
	if len(naked) == 1 && len(unmatched) > 0 {
		c.collect(in.UnionOf(unmatched), naked[0], contra, prio)
		return
	}
	if len(naked) == 0 {
		for _, t := range structured {
			for _, s := range unmatched {
				c.collect(s, t, contra, prio)
			}
		}
	}
}

// sameShape reports whether a source member can be matched structurally
// against a target member.
func sameShape(in *types.Interner, s, t types.TypeID) bool {
	sk, tk := in.KindOf(s), in.KindOf(t)
	if sk == tk {
		return true
	}
	objectLike := func(k types.Kind) bool {
		return k == types.KindObject || k == types.KindObjectWithIndex || k == types.KindCallable || k == types.KindFunction
	}
	arrayLike := func(k types.Kind) bool {
		return k == types.KindArray || k == types.KindTuple || k == types.KindReadonly
	}
	return objectLike(sk) && objectLike(tk) || arrayLike(sk) && arrayLike(tk) ||
		tk == types.KindTemplateLiteral && in.PrimitiveBase(s) == types.TypeString
}

func (c *Context) tuples(source, target types.TypeID, contra bool, prio Priority) {
	in := c.in
	telems, _ := in.TupleElements(target)
	if in.KindOf(source) == types.KindArray {
		elem := in.MustLookup(source).Elem
		for _, el := range telems {
			if el.Rest {
				c.collect(source, el.Type, contra, prio)
			} else {
				c.collect(elem, el.Type, contra, prio)
			}
		}
		return
	}
	selems, ok := in.TupleElements(source)
	if !ok {
		return
	}
	rest := slices.IndexFunc(telems, func(el types.TupleElement) bool { return el.Rest })
	if rest < 0 {
		for i := range min(len(selems), len(telems)) {
			c.collect(selems[i].Type, telems[i].Type, contra, prio)
		}
		return
	}
	prefix, suffix := rest, len(telems)-rest-1
	if len(selems) < prefix+suffix {
		return
	}
	for i := range prefix {
		c.collect(selems[i].Type, telems[i].Type, contra, prio)
	}
	for i := range suffix {
		c.collect(selems[len(selems)-suffix+i].Type, telems[rest+1+i].Type, contra, prio)
	}
	middle := selems[prefix : len(selems)-suffix]
	restType := telems[rest].Type
	if _, ok := c.byParam[restType]; ok {
		c.collect(in.Tuple(middle), restType, contra, prio)
		return
	}
	elem := arrayElement(in, restType)
	for _, el := range middle {
		t := el.Type
		if el.Rest {
			t = arrayElement(in, t)
		}
		c.collect(t, elem, contra, prio)
	}
}

type members struct {
	props    []types.Property
	str, num *types.IndexSignature
}

func membersOf(in *types.Interner, t types.TypeID) (members, bool) {
	if shape, ok := in.ObjectShape(t); ok {
		return members{props: shape.Props, str: shape.StringIndex, num: shape.NumberIndex}, true
	}
	if shape, ok := in.CallableShape(t); ok {
		return members{props: shape.Props, str: shape.StringIndex, num: shape.NumberIndex}, true
	}
	return members{}, false
}

func (c *Context) objects(source, target types.TypeID, contra bool, prio Priority) {
	in := c.in
	tm, ok := membersOf(in, target)
	if !ok {
		return
	}
	sm, ok := membersOf(in, source)
	if !ok {
		return
	}
	for _, tp := range tm.props {
		if sp, found := in.FindProperty(sm.props, tp.Name); found {
			c.collect(sp.Type, tp.Type, contra, prio)
		}
	}
	if tm.str != nil {
		for _, sp := range sm.props {
			c.collect(sp.Type, tm.str.Value, contra, prio)
		}
		if sm.str != nil {
			c.collect(sm.str.Value, tm.str.Value, contra, prio)
		}
	}
	if tm.num != nil {
		for _, sp := range sm.props {
			if _, numeric := types.ParseNumericString(in.AtomString(sp.Name)); numeric {
				c.collect(sp.Type, tm.num.Value, contra, prio)
			}
		}
		if sm.num != nil {
			c.collect(sm.num.Value, tm.num.Value, contra, prio)
		}
	}
}

// signatures pairs the last signatures of both sides.
func (c *Context) signatures(source, target types.TypeID, construct, contra bool, prio Priority) {
	ssigs := c.in.Signatures(source, construct)
	tsigs := c.in.Signatures(target, construct)
	n := min(len(ssigs), len(tsigs))
	for i := range n {
		c.signature(ssigs[len(ssigs)-n+i], tsigs[len(tsigs)-n+i], contra, prio)
	}
}

func (c *Context) signature(s, t types.FunctionShape, contra bool, prio Priority) {
	in := c.in
	for i, tp := range t.Params {
		if tp.Rest {
			rest := make([]types.TupleElement, 0, len(s.Params))
			for _, sp := range s.Params[min(i, len(s.Params)):] {
				rest = append(rest, types.TupleElement{Type: sp.Type, Name: sp.Name, Optional: sp.Optional, Rest: sp.Rest})
			}
			if _, ok := c.byParam[tp.Type]; ok {
				c.collect(in.Tuple(rest), tp.Type, !contra, prio)
			} else {
				elem := arrayElement(in, tp.Type)
				for _, el := range rest {
					c.collect(el.Type, elem, !contra, prio)
				}
			}
			break
		}
		if i >= len(s.Params) {
			break
		}
		st := s.Params[i].Type
		if s.Params[i].Rest {
			st = arrayElement(in, st)
		}
		c.collect(st, tp.Type, !contra, prio)
	}
	if s.This != types.NoTypeID && t.This != types.NoTypeID {
		c.collect(s.This, t.This, !contra, prio)
	}
	c.collect(s.Return, t.Return, contra, prio)
}

// template splits a string literal along a template target and infers each
// interpolated piece.
func (c *Context) template(source, target types.TypeID, contra bool, prio Priority) {
	in := c.in
	spans, _ := in.TemplateSpans(target)
	lit, ok := in.LiteralValue(source)
	if !ok || lit.Kind != types.LiteralString {
		return
	}
	pieces, ok := in.SplitTemplate(lit.Str, spans)
	if !ok {
		return
	}
	holes := 0
	for _, sp := range spans {
		if sp.IsText() {
			continue
		}
		if holes < len(pieces) {
			c.collect(in.StringLiteral(pieces[holes]), sp.Type, contra, prio)
		}
		holes++
	}
}

// mapped infers through `{ [P in keyof T]: T[P] }` (T receives the source)
// and `{ [P in K]: X }` (K receives the source keys, X the property types).
func (c *Context) mapped(source, target types.TypeID, contra bool, prio Priority) {
	in := c.in
	m, _ := in.MappedType(target)
	sm, ok := membersOf(in, source)
	if !ok {
		return
	}
	if in.KindOf(m.Constraint) == types.KindKeyOf {
		operand := in.MustLookup(m.Constraint).Elem
		if _, ok := c.byParam[operand]; ok && in.KindOf(m.Template) == types.KindIndexAccess &&
			in.MustLookup(m.Template).Elem == operand && indexOf(in, m.Template) == m.Param {
			c.collect(source, operand, contra, prio)
		}
		return
	}
	keys := make([]types.TypeID, 0, len(sm.props))
	for _, p := range sm.props {
		keys = append(keys, in.StringLiteral(in.AtomString(p.Name)))
		c.collect(p.Type, m.Template, contra, prio)
	}
	if sm.str != nil {
		keys = append(keys, types.TypeString)
		c.collect(sm.str.Value, m.Template, contra, prio)
	}
	c.collect(in.UnionOf(keys), m.Constraint, contra, prio)
}

func indexOf(in *types.Interner, t types.TypeID) types.TypeID {
	return in.MustLookup(t).Index
}

// arrayElement returns the element type of an array-like rest type.
func arrayElement(in *types.Interner, t types.TypeID) types.TypeID {
	switch in.KindOf(t) {
	case types.KindArray:
		return in.MustLookup(t).Elem
	case types.KindReadonly:
		return arrayElement(in, in.MustLookup(t).Elem)
	case types.KindTuple:
		elems, _ := in.TupleElements(t)
		out := make([]types.TypeID, len(elems))
		for i, el := range elems {
			out[i] = el.Type
			if el.Rest {
				out[i] = arrayElement(in, el.Type)
			}
		}
		return in.UnionOf(out)
	}
	return t
}
