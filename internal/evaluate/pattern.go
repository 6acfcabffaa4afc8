package evaluate

import (
	"maps"

	"tsolver/internal/types"
)

// matchPattern matches source against a pattern containing infer
// placeholders, recording what each placeholder captured. Parts of the
// pattern without placeholders are decided by the relation.
func (e *Evaluator) matchPattern(source, pattern types.TypeID, bindings Substitution) bool {
	in := e.in
	if in.KindOf(pattern) == types.KindInfer {
		if prev, ok := bindings[pattern]; ok {
			bindings[pattern] = in.Union(prev, source)
		} else {
			bindings[pattern] = source
		}
		return true
	}
	if !in.ContainsInfer(pattern) {
		return e.relate(source, pattern).Holds()
	}
	if in.KindOf(source).IsMeta() {
		source = e.Evaluate(source)
	}
	if source == types.TypeNever {
		return true
	}
	if source == types.TypeAny {
		for _, p := range e.inferPlaceholders(pattern) {
			bindings[p] = types.TypeAny
		}
		return true
	}
	if in.KindOf(source) == types.KindUnion {
		for _, m := range in.Members(source) {
			if !e.matchPattern(m, pattern, bindings) {
				return false
			}
		}
		return true
	}

	switch in.KindOf(pattern) {
	case types.KindUnion:
		return e.matchUnionPattern(source, pattern, bindings)
	case types.KindReadonly:
		inner := e.in.MustLookup(pattern).Elem
		if in.KindOf(source) == types.KindReadonly {
			source = in.MustLookup(source).Elem
		}
		return e.matchPattern(source, inner, bindings)
	case types.KindArray:
		return e.matchArrayPattern(source, in.MustLookup(pattern).Elem, bindings)
	case types.KindTuple:
		elems, _ := in.TupleElements(pattern)
		return e.matchTuplePattern(source, elems, bindings)
	case types.KindObject, types.KindObjectWithIndex:
		shape, _ := in.ObjectShape(pattern)
		return e.matchObjectPattern(source, shape, bindings)
	case types.KindFunction:
		fn, _ := in.FunctionShape(pattern)
		return e.matchFunctionPattern(source, fn, bindings)
	case types.KindApplication:
		return e.matchApplicationPattern(source, pattern, bindings)
	case types.KindTemplateLiteral:
		spans, _ := in.TemplateSpans(pattern)
		return e.matchTemplatePattern(source, spans, bindings)
	case types.KindIntersection:
		for _, m := range in.Members(pattern) {
			if !e.matchPattern(source, m, bindings) {
				return false
			}
		}
		return true
	}
	return false
}

// matchUnionPattern handles `infer U | X`: members of the source that match
// the placeholder-free members are removed first and the rest is matched
// against the remaining alternatives.
func (e *Evaluator) matchUnionPattern(source, pattern types.TypeID, bindings Substitution) bool {
	var fixed, open []types.TypeID
	for _, m := range e.in.Members(pattern) {
		if e.in.ContainsInfer(m) {
			open = append(open, m)
		} else {
			fixed = append(fixed, m)
		}
	}
	if len(fixed) > 0 && e.relate(source, e.in.UnionOf(fixed)).Holds() {
		return true
	}
	for _, alt := range open {
		trial := maps.Clone(bindings)
		if e.matchPattern(source, alt, trial) {
			maps.Copy(bindings, trial)
			return true
		}
	}
	return false
}

func (e *Evaluator) matchArrayPattern(source, elem types.TypeID, bindings Substitution) bool {
	in := e.in
	if in.KindOf(source) == types.KindReadonly {
		// a readonly array does not match a mutable array pattern
		return false
	}
	switch in.KindOf(source) {
	case types.KindArray:
		return e.matchPattern(in.MustLookup(source).Elem, elem, bindings)
	case types.KindTuple:
		elems, _ := in.TupleElements(source)
		return e.matchPattern(e.tupleElementUnion(elems), elem, bindings)
	}
	return false
}

// tupleElementUnion returns the union of the element types of a tuple, rest
// elements contributing their element type.
func (e *Evaluator) tupleElementUnion(elems []types.TupleElement) types.TypeID {
	out := make([]types.TypeID, 0, len(elems))
	for _, el := range elems {
		t := el.Type
		if el.Rest {
			t = e.restElement(t)
		}
		out = append(out, t)
	}
	return e.in.UnionOf(out)
}

func (e *Evaluator) restElement(t types.TypeID) types.TypeID {
	tt, ok := e.in.Lookup(t)
	if !ok {
		return types.TypeUnknown
	}
	switch tt.Kind {
	case types.KindArray:
		return tt.Elem
	case types.KindReadonly:
		return e.restElement(tt.Elem)
	}
	return t
}

// matchTuplePattern matches fixed-length sources against patterns with at
// most one rest element: the prefix and suffix line up with the pattern and
// the middle is captured as a tuple.
func (e *Evaluator) matchTuplePattern(source types.TypeID, pattern []types.TupleElement, bindings Substitution) bool {
	in := e.in
	if in.KindOf(source) == types.KindReadonly {
		source = in.MustLookup(source).Elem
	}
	elems, ok := in.TupleElements(source)
	if !ok {
		if in.KindOf(source) == types.KindArray && len(pattern) == 1 && pattern[0].Rest {
			return e.matchPattern(source, pattern[0].Type, bindings)
		}
		return false
	}
	rest := -1
	for i, p := range pattern {
		if p.Rest {
			rest = i
			break
		}
	}
	for _, el := range elems {
		if el.Rest && rest < 0 {
			return false
		}
	}
	if rest < 0 {
		required := 0
		for _, p := range pattern {
			if !p.Optional {
				required++
			}
		}
		if len(elems) < required || len(elems) > len(pattern) {
			return false
		}
		for i, p := range pattern {
			if i >= len(elems) {
				if !e.matchPattern(types.TypeUndefined, p.Type, bindings) {
					return false
				}
				continue
			}
			if !e.matchPattern(elems[i].Type, p.Type, bindings) {
				return false
			}
		}
		return true
	}

	prefix, suffix := rest, len(pattern)-rest-1
	if len(elems) < prefix+suffix {
		return false
	}
	for i := range prefix {
		if elems[i].Rest || !e.matchPattern(elems[i].Type, pattern[i].Type, bindings) {
			return false
		}
	}
	for i := range suffix {
		src := elems[len(elems)-suffix+i]
		if src.Rest || !e.matchPattern(src.Type, pattern[rest+1+i].Type, bindings) {
			return false
		}
	}
	middle := elems[prefix : len(elems)-suffix]
	return e.matchPattern(in.Tuple(middle), pattern[rest].Type, bindings)
}

// objectMembers returns the members of an object-like type.
func (e *Evaluator) objectMembers(t types.TypeID) (props []types.Property, str, num *types.IndexSignature, ok bool) {
	if shape, isObj := e.in.ObjectShape(t); isObj {
		return shape.Props, shape.StringIndex, shape.NumberIndex, true
	}
	if c, isCallable := e.in.CallableShape(t); isCallable {
		return c.Props, c.StringIndex, c.NumberIndex, true
	}
	return nil, nil, nil, false
}

func (e *Evaluator) matchObjectPattern(source types.TypeID, pattern *types.ObjectShape, bindings Substitution) bool {
	in := e.in
	if in.KindOf(source) == types.KindIntersection {
		source = e.Evaluate(source)
	}
	props, str, num, ok := e.objectMembers(source)
	if !ok {
		return false
	}
	for _, p := range pattern.Props {
		sp, found := in.FindProperty(props, p.Name)
		if !found {
			if p.Optional {
				if !e.matchPattern(types.TypeUndefined, p.Type, bindings) {
					return false
				}
				continue
			}
			return false
		}
		if !e.matchPattern(sp.Type, p.Type, bindings) {
			return false
		}
	}
	if pattern.StringIndex != nil {
		if str == nil || !e.matchPattern(str.Value, pattern.StringIndex.Value, bindings) {
			return false
		}
	}
	if pattern.NumberIndex != nil {
		idx := num
		if idx == nil {
			idx = str
		}
		if idx == nil || !e.matchPattern(idx.Value, pattern.NumberIndex.Value, bindings) {
			return false
		}
	}
	return true
}

// matchFunctionPattern matches the last signature of the source, the way
// overloaded sources are inferred from.
func (e *Evaluator) matchFunctionPattern(source types.TypeID, pattern *types.FunctionShape, bindings Substitution) bool {
	sigs := e.in.Signatures(source, pattern.Constructor)
	if len(sigs) == 0 {
		return false
	}
	sig := sigs[len(sigs)-1]
	for i, p := range pattern.Params {
		if p.Rest {
			elems := make([]types.TupleElement, 0, len(sig.Params))
			for _, sp := range sig.Params[min(i, len(sig.Params)):] {
				elems = append(elems, types.TupleElement{Type: sp.Type, Name: sp.Name, Optional: sp.Optional, Rest: sp.Rest})
			}
			if !e.matchPattern(e.in.Tuple(elems), p.Type, bindings) {
				return false
			}
			break
		}
		if i >= len(sig.Params) {
			if !e.matchPattern(types.TypeUnknown, p.Type, bindings) {
				return false
			}
			continue
		}
		sp := sig.Params[i]
		t := sp.Type
		if sp.Rest {
			t = e.restElement(t)
		}
		if !e.matchPattern(t, p.Type, bindings) {
			return false
		}
	}
	if pattern.This != types.NoTypeID && sig.This != types.NoTypeID {
		if !e.matchPattern(sig.This, pattern.This, bindings) {
			return false
		}
	}
	return e.matchPattern(sig.Return, pattern.Return, bindings)
}

// matchApplicationPattern matches `Box<infer U>` either argument-wise
// against another application of the same alias, or structurally against
// the alias body.
func (e *Evaluator) matchApplicationPattern(source, pattern types.TypeID, bindings Substitution) bool {
	in := e.in
	pbase, pargs, _ := in.Application(pattern)
	if sbase, sargs, ok := in.Application(source); ok && sbase == pbase && len(sargs) == len(pargs) {
		trial := maps.Clone(bindings)
		matched := true
		for i := range pargs {
			if !e.matchPattern(sargs[i], pargs[i], trial) {
				matched = false
				break
			}
		}
		if matched {
			maps.Copy(bindings, trial)
			return true
		}
	}
	expanded, ok := e.expandApplication(pbase, pargs)
	if !ok {
		return false
	}
	return e.matchPattern(e.Evaluate(source), expanded, bindings)
}

// matchTemplatePattern splits a string literal source along the text spans
// of the pattern; each interpolation captures the text between them.
func (e *Evaluator) matchTemplatePattern(source types.TypeID, spans []types.TemplateSpan, bindings Substitution) bool {
	in := e.in
	text, ok := in.TemplateText(source)
	if !ok || in.PrimitiveBase(source) != types.TypeString {
		return false
	}
	pieces, ok := in.SplitTemplate(text, spans)
	if !ok {
		return false
	}
	i := 0
	for _, sp := range spans {
		if sp.IsText() {
			continue
		}
		piece := in.StringLiteral(pieces[i])
		i++
		if in.KindOf(sp.Type) == types.KindInfer {
			info, _ := in.TypeParamInfo(sp.Type)
			piece = e.inferredPiece(pieces[i-1], info.Constraint)
		}
		if !e.matchPattern(piece, sp.Type, bindings) {
			return false
		}
	}
	return true
}

// inferredPiece converts captured text for placeholders constrained to
// number or boolean, so `infer N extends number` captures 42 rather than
// "42".
func (e *Evaluator) inferredPiece(text string, constraint types.TypeID) types.TypeID {
	switch constraint {
	case types.TypeNumber:
		if v, ok := types.ParseNumericString(text); ok {
			return e.in.NumberLiteral(v)
		}
	case types.TypeBoolean:
		switch text {
		case "true":
			return types.TypeTrue
		case "false":
			return types.TypeFalse
		}
	}
	return e.in.StringLiteral(text)
}
