package types

// Children returns the handles id refers to directly. Lazy references are
// leaves: their bodies are reached only through the declaration.
func (in *Interner) Children(id TypeID) []TypeID {
	return Visit[[]TypeID](in, id, childVisitor{})
}

// Walk calls fn for id and every type reachable from it, each exactly once.
// Returning false from fn prunes the children of that type.
func (in *Interner) Walk(id TypeID, fn func(TypeID) bool) {
	seen := make(map[TypeID]struct{})
	stack := []TypeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == NoTypeID {
			continue
		}
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		if !fn(cur) {
			continue
		}
		stack = append(stack, in.Children(cur)...)
	}
}

// Contains reports whether pred holds for id or any type reachable from it.
func (in *Interner) Contains(id TypeID, pred func(TypeID) bool) bool {
	found := false
	in.Walk(id, func(t TypeID) bool {
		if found {
			return false
		}
		if pred(t) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ContainsTypeParams reports whether id mentions a type parameter or an infer
// placeholder, i.e. whether instantiation could change it.
func (in *Interner) ContainsTypeParams(id TypeID) bool {
	return in.Contains(id, func(t TypeID) bool {
		k := in.KindOf(t)
		return k == KindTypeParam || k == KindInfer
	})
}

// ContainsInfer reports whether id mentions an infer placeholder.
func (in *Interner) ContainsInfer(id TypeID) bool {
	return in.Contains(id, func(t TypeID) bool { return in.KindOf(t) == KindInfer })
}

// ContainsMeta reports whether id mentions a type that needs evaluation.
func (in *Interner) ContainsMeta(id TypeID) bool {
	return in.Contains(id, func(t TypeID) bool { return in.KindOf(t).IsMeta() })
}

type childVisitor struct{}

func nonZero(ids ...TypeID) []TypeID {
	out := ids[:0]
	for _, id := range ids {
		if id != NoTypeID {
			out = append(out, id)
		}
	}
	return out
}

func propChildren(out []TypeID, props []Property) []TypeID {
	for _, p := range props {
		out = append(out, p.Type)
		if p.HasSplitAccessor() {
			out = append(out, p.Write)
		}
	}
	return out
}

func indexChildren(out []TypeID, idx ...*IndexSignature) []TypeID {
	for _, sig := range idx {
		if sig != nil {
			out = append(out, sig.Key, sig.Value)
		}
	}
	return out
}

func signatureChildren(out []TypeID, fn *FunctionShape) []TypeID {
	out = append(out, fn.TypeParams...)
	for _, p := range fn.Params {
		out = append(out, p.Type)
	}
	return append(out, fn.This, fn.Return)
}

func (childVisitor) VisitIntrinsic(TypeID, Kind) []TypeID      { return nil }
func (childVisitor) VisitLiteral(TypeID, Literal) []TypeID     { return nil }
func (childVisitor) VisitArray(_, elem TypeID) []TypeID        { return []TypeID{elem} }
func (childVisitor) VisitLazy(TypeID, DeclID) []TypeID         { return nil }
func (childVisitor) VisitUniqueSymbol(TypeID, DeclID) []TypeID { return nil }

func (childVisitor) VisitTuple(_ TypeID, elems []TupleElement) []TypeID {
	out := make([]TypeID, 0, len(elems))
	for _, el := range elems {
		out = append(out, el.Type)
	}
	return out
}

func (childVisitor) VisitObject(_ TypeID, shape *ObjectShape) []TypeID {
	out := propChildren(nil, shape.Props)
	return indexChildren(out, shape.StringIndex, shape.NumberIndex)
}

func (childVisitor) VisitFunction(_ TypeID, shape *FunctionShape) []TypeID {
	return nonZero(signatureChildren(nil, shape)...)
}

func (childVisitor) VisitCallable(_ TypeID, shape *CallableShape) []TypeID {
	var out []TypeID
	for i := range shape.Calls {
		out = signatureChildren(out, &shape.Calls[i])
	}
	for i := range shape.Constructs {
		out = signatureChildren(out, &shape.Constructs[i])
	}
	out = propChildren(out, shape.Props)
	return nonZero(indexChildren(out, shape.StringIndex, shape.NumberIndex)...)
}

func (childVisitor) VisitUnion(_ TypeID, members []TypeID) []TypeID        { return members }
func (childVisitor) VisitIntersection(_ TypeID, members []TypeID) []TypeID { return members }

func (childVisitor) VisitConditional(_ TypeID, c ConditionalType) []TypeID {
	return nonZero(c.Check, c.Extends, c.True, c.False)
}

func (childVisitor) VisitMapped(_ TypeID, m MappedType) []TypeID {
	return nonZero(m.Param, m.Constraint, m.NameType, m.Template)
}

func (childVisitor) VisitApplication(_, base TypeID, args []TypeID) []TypeID {
	return append([]TypeID{base}, args...)
}

func (childVisitor) VisitTemplateLiteral(_ TypeID, spans []TemplateSpan) []TypeID {
	var out []TypeID
	for _, sp := range spans {
		if !sp.IsText() {
			out = append(out, sp.Type)
		}
	}
	return out
}

func (childVisitor) VisitTypeParam(_ TypeID, info TypeParamInfo) []TypeID {
	return nonZero(info.Constraint, info.Default)
}

func (childVisitor) VisitInfer(_ TypeID, info TypeParamInfo) []TypeID {
	return nonZero(info.Constraint)
}

func (childVisitor) VisitIndexAccess(_, object, index TypeID) []TypeID {
	return []TypeID{object, index}
}

func (childVisitor) VisitKeyOf(_, operand TypeID) []TypeID  { return []TypeID{operand} }
func (childVisitor) VisitReadonly(_, inner TypeID) []TypeID { return []TypeID{inner} }

func (childVisitor) VisitEnum(_ TypeID, _ DeclID, value TypeID) []TypeID {
	return nonZero(value)
}

func (childVisitor) VisitStringIntrinsic(_ TypeID, _ StringIntrinsicKind, arg TypeID) []TypeID {
	return []TypeID{arg}
}
