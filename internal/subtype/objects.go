package subtype

import (
	"strconv"

	"tsolver/internal/types"
)

// Apparent is the member view of an object-like type: what property access,
// index signatures and calls see. Arrays, tuples, functions and
// intersections of object types all have one.
type Apparent struct {
	Props       []types.Property
	StringIndex *types.IndexSignature
	NumberIndex *types.IndexSignature
	Calls       []types.FunctionShape
	Constructs  []types.FunctionShape
	Nominal     types.DeclID
}

// Apparent returns the member view of t, or false for primitives and types
// without a structural reading.
func (c *Checker) Apparent(t types.TypeID) (*Apparent, bool) {
	if v, ok := c.views[t]; ok {
		return v, v != nil
	}
	c.views[t] = nil // a type that reaches itself has no view while it is built
	v := c.buildApparent(t)
	c.views[t] = v
	return v, v != nil
}

func (c *Checker) buildApparent(t types.TypeID) *Apparent {
	tt, ok := c.in.Lookup(t)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case types.KindObject, types.KindObjectWithIndex:
		shape, _ := c.in.ObjectShape(t)
		return &Apparent{Props: shape.Props, StringIndex: shape.StringIndex, NumberIndex: shape.NumberIndex, Nominal: shape.Nominal}
	case types.KindFunction:
		fn, _ := c.in.FunctionShape(t)
		if fn.Constructor {
			return &Apparent{Constructs: []types.FunctionShape{*fn}}
		}
		return &Apparent{Calls: []types.FunctionShape{*fn}}
	case types.KindCallable:
		shape, _ := c.in.CallableShape(t)
		return &Apparent{
			Props:       shape.Props,
			StringIndex: shape.StringIndex,
			NumberIndex: shape.NumberIndex,
			Calls:       shape.Calls,
			Constructs:  shape.Constructs,
		}
	case types.KindNonPrimitive, types.KindGlobalFunction:
		return &Apparent{}
	case types.KindArray:
		return &Apparent{
			Props:       []types.Property{{Name: c.in.Atom("length"), Type: types.TypeNumber}},
			NumberIndex: &types.IndexSignature{Key: types.TypeNumber, Value: tt.Elem},
		}
	case types.KindTuple:
		return c.tupleApparent(t)
	case types.KindReadonly:
		inner, ok := c.Apparent(tt.Elem)
		if !ok {
			return nil
		}
		return readonlyApparent(inner)
	case types.KindIntersection:
		return c.intersectionApparent(c.in.Members(t))
	case types.KindLazy, types.KindConditional, types.KindMapped, types.KindApplication, types.KindIndexAccess:
		if r := c.resolve(t); r != t {
			v, _ := c.Apparent(r)
			return v
		}
	case types.KindTypeParam, types.KindInfer:
		info, _ := c.in.TypeParamInfo(t)
		if info.Constraint != types.NoTypeID {
			v, _ := c.Apparent(info.Constraint)
			return v
		}
	}
	return nil
}

func (c *Checker) tupleApparent(t types.TypeID) *Apparent {
	elems, _ := c.in.TupleElements(t)
	props := make([]types.Property, 0, len(elems)+1)
	values := make([]types.TypeID, 0, len(elems))
	length := types.TypeNumber
	fixed := true
	for i, el := range elems {
		if el.Rest {
			fixed = false
			values = append(values, c.restElement(el.Type))
			continue
		}
		values = append(values, el.Type)
		if fixed {
			props = append(props, types.Property{Name: c.in.Atom(strconv.Itoa(i)), Type: el.Type, Optional: el.Optional})
		}
	}
	if fixed && !hasOptional(elems) {
		length = c.in.NumberLiteral(float64(len(elems)))
	}
	props = append(props, types.Property{Name: c.in.Atom("length"), Type: length})
	sorted, _ := c.in.ObjectShape(c.in.Object(types.ObjectShape{Props: props}))
	return &Apparent{
		Props:       sorted.Props,
		NumberIndex: &types.IndexSignature{Key: types.TypeNumber, Value: c.in.UnionOf(values)},
	}
}

func hasOptional(elems []types.TupleElement) bool {
	for _, el := range elems {
		if el.Optional {
			return true
		}
	}
	return false
}

func readonlyApparent(v *Apparent) *Apparent {
	out := *v
	out.Props = make([]types.Property, len(v.Props))
	for i, p := range v.Props {
		p.Readonly = true
		out.Props[i] = p
	}
	if v.StringIndex != nil {
		idx := *v.StringIndex
		idx.Readonly = true
		out.StringIndex = &idx
	}
	if v.NumberIndex != nil {
		idx := *v.NumberIndex
		idx.Readonly = true
		out.NumberIndex = &idx
	}
	return &out
}

func (c *Checker) intersectionApparent(members []types.TypeID) *Apparent {
	var views []*Apparent
	for _, m := range members {
		if v, ok := c.Apparent(m); ok {
			views = append(views, v)
		}
	}
	switch len(views) {
	case 0:
		return nil
	case 1:
		return views[0]
	}
	byName := make(map[types.Atom]int)
	var props []types.Property
	out := &Apparent{}
	for _, v := range views {
		for _, p := range v.Props {
			i, seen := byName[p.Name]
			if !seen {
				byName[p.Name] = len(props)
				props = append(props, p)
				continue
			}
			prev := props[i]
			prev.Type = c.in.Intersection(prev.Type, p.Type)
			prev.Write = c.in.Intersection(prev.WriteType(), p.WriteType())
			prev.Optional = prev.Optional && p.Optional
			prev.Readonly = prev.Readonly && p.Readonly
			props[i] = prev
		}
		out.StringIndex = intersectIndex(c.in, out.StringIndex, v.StringIndex)
		out.NumberIndex = intersectIndex(c.in, out.NumberIndex, v.NumberIndex)
		out.Calls = append(out.Calls, v.Calls...)
		out.Constructs = append(out.Constructs, v.Constructs...)
		if out.Nominal == types.NoDeclID {
			out.Nominal = v.Nominal
		}
	}
	sorted, _ := c.in.ObjectShape(c.in.Object(types.ObjectShape{Props: props}))
	out.Props = sorted.Props
	return out
}

func intersectIndex(in *types.Interner, a, b *types.IndexSignature) *types.IndexSignature {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return &types.IndexSignature{Key: a.Key, Value: in.Intersection(a.Value, b.Value), Readonly: a.Readonly && b.Readonly}
}

// restElement returns the element type contributed by a rest position.
func (c *Checker) restElement(rest types.TypeID) types.TypeID {
	tt, ok := c.in.Lookup(rest)
	if !ok {
		return rest
	}
	switch tt.Kind {
	case types.KindArray:
		return tt.Elem
	case types.KindReadonly:
		return c.restElement(tt.Elem)
	}
	return rest
}

// readType is the type observed when reading p; optional properties may be
// absent, which reads as undefined.
func (c *Checker) readType(p types.Property) types.TypeID {
	if p.Optional && c.opts.StrictNullChecks && !c.opts.ExactOptionalPropertyTypes {
		return c.in.Union(p.Type, types.TypeUndefined)
	}
	return p.Type
}

// structural checks every member the target view requires.
func (c *Checker) structural(s types.TypeID, sv *Apparent, t types.TypeID, tv *Apparent) Ternary {
	res := True
	for _, tp := range tv.Props {
		r := c.property(s, sv, t, tp)
		if r == False {
			return r
		}
		res = and(res, r)
	}
	r := c.indexSignatures(s, sv, t, tv)
	if r == False {
		return r
	}
	res = and(res, r)
	if len(tv.Calls) > 0 {
		r := c.signatures(s, sv.Calls, t, tv.Calls)
		if r == False {
			return r
		}
		res = and(res, r)
	}
	if len(tv.Constructs) > 0 {
		r := c.signatures(s, sv.Constructs, t, tv.Constructs)
		if r == False {
			return r
		}
		res = and(res, r)
	}
	return res
}

func (c *Checker) property(s types.TypeID, sv *Apparent, t types.TypeID, tp types.Property) Ternary {
	sp, ok := c.in.FindProperty(sv.Props, tp.Name)
	if !ok {
		if tp.Optional {
			return True
		}
		return c.failNamed(MissingProperty, s, t, c.in.AtomString(tp.Name))
	}
	if sp.Visibility != tp.Visibility {
		return c.failNamed(PropertyVisibilityMismatch, s, t, c.in.AtomString(tp.Name))
	}
	if sp.Optional && !tp.Optional {
		return c.failNamed(OptionalPropertyRequired, s, t, c.in.AtomString(tp.Name))
	}
	if c.opts.StrictReadonly && sp.Readonly && !tp.Readonly {
		return c.failNamed(ReadonlyPropertyMismatch, s, t, c.in.AtomString(tp.Name))
	}

	saved := c.mode
	if c.opts.MethodBivariance && (sp.Method || tp.Method) {
		c.mode |= modeBivariant
	}
	r := c.Relate(c.readType(sp), c.readType(tp))
	c.mode = saved
	if r == False {
		return c.wrap(Reason{Kind: PropertyTypeMismatch, Source: sp.Type, Target: tp.Type, Name: c.in.AtomString(tp.Name)})
	}
	if tp.Readonly || sp.Readonly || !(sp.HasSplitAccessor() || tp.HasSplitAccessor()) {
		return r
	}
	// writes flow from the target's view into the source's setter
	w := c.Relate(tp.WriteType(), sp.WriteType())
	if w == False {
		return c.wrap(Reason{Kind: PropertyWriteTypeMismatch, Source: sp.WriteType(), Target: tp.WriteType(), Name: c.in.AtomString(tp.Name)})
	}
	return and(r, w)
}

func (c *Checker) indexSignatures(s types.TypeID, sv *Apparent, t types.TypeID, tv *Apparent) Ternary {
	res := True
	if idx := tv.StringIndex; idx != nil {
		r := c.indexSignature(s, sv, t, idx, sv.StringIndex, "string", func(types.Atom) bool { return true })
		if r == False {
			return r
		}
		res = and(res, r)
		if sv.NumberIndex != nil {
			r := c.Relate(sv.NumberIndex.Value, idx.Value)
			if r == False {
				return c.wrap(Reason{Kind: IndexSignatureMismatch, Source: s, Target: t, Name: "number"})
			}
			res = and(res, r)
		}
	}
	if idx := tv.NumberIndex; idx != nil {
		own := sv.NumberIndex
		if own == nil {
			own = sv.StringIndex
		}
		numeric := func(name types.Atom) bool {
			_, ok := types.ParseNumericString(c.in.AtomString(name))
			return ok
		}
		r := c.indexSignature(s, sv, t, idx, own, "number", numeric)
		if r == False {
			return r
		}
		res = and(res, r)
	}
	return res
}

// indexSignature relates the source's own signature and every property the
// target signature covers. Only non-nominal sources get an implicit signature
// from their properties.
func (c *Checker) indexSignature(s types.TypeID, sv *Apparent, t types.TypeID, idx, own *types.IndexSignature, key string, covers func(types.Atom) bool) Ternary {
	res := True
	switch {
	case own != nil:
		if c.opts.StrictReadonly && own.Readonly && !idx.Readonly {
			return c.failNamed(ReadonlyPropertyMismatch, s, t, "["+key+"]")
		}
		r := c.Relate(own.Value, idx.Value)
		if r == False {
			return c.wrap(Reason{Kind: IndexSignatureMismatch, Source: own.Value, Target: idx.Value, Name: key})
		}
		res = r
	case sv.Nominal != types.NoDeclID:
		return c.failNamed(MissingIndexSignature, s, t, key)
	}
	for _, sp := range sv.Props {
		if !covers(sp.Name) {
			continue
		}
		r := c.Relate(c.readType(sp), idx.Value)
		if r == False {
			return c.wrap(Reason{Kind: IndexSignatureMismatch, Source: sp.Type, Target: idx.Value, Name: c.in.AtomString(sp.Name)})
		}
		res = and(res, r)
	}
	return res
}
