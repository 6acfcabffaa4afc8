package evaluate

import (
	"strconv"

	"tsolver/internal/types"
)

// EvaluateIndexAccess reduces `object[index]`.
func (e *Evaluator) EvaluateIndexAccess(object, index types.TypeID) types.TypeID {
	return e.Evaluate(e.in.IndexAccess(object, index))
}

// EvaluateKeyOf reduces `keyof t`.
func (e *Evaluator) EvaluateKeyOf(t types.TypeID) types.TypeID {
	return e.Evaluate(e.in.KeyOf(t))
}

func (e *Evaluator) allKeys() types.TypeID {
	return e.in.Union(types.TypeString, types.TypeNumber, types.TypeSymbol)
}

// keyOf computes the key union of an operand. Unions yield the keys common
// to every member, intersections the keys of any member. Non-public
// properties are not keys.
func (e *Evaluator) keyOf(operand types.TypeID) types.TypeID {
	in := e.in
	t := e.Evaluate(operand)
	switch t {
	case types.TypeAny, types.TypeNever:
		return e.allKeys()
	case types.TypeError:
		return types.TypeError
	}
	tt, ok := in.Lookup(t)
	if !ok {
		return types.TypeNever
	}
	switch tt.Kind {
	case types.KindUnion, types.KindIntersection:
		members := in.Members(t)
		keys := make([]types.TypeID, len(members))
		for i, m := range members {
			keys[i] = e.keyOf(m)
		}
		if tt.Kind == types.KindUnion {
			return in.IntersectionOf(keys)
		}
		return in.UnionOf(keys)
	case types.KindObject, types.KindObjectWithIndex, types.KindCallable:
		props, str, num, _ := e.objectMembers(t)
		keys := make([]types.TypeID, 0, len(props)+2)
		for _, p := range props {
			if p.Visibility == types.Public {
				keys = append(keys, e.keyLiteral(in.AtomString(p.Name)))
			}
		}
		if str != nil {
			keys = append(keys, types.TypeString, types.TypeNumber)
		}
		if num != nil {
			keys = append(keys, types.TypeNumber)
		}
		return in.UnionOf(keys)
	case types.KindArray:
		return in.Union(types.TypeNumber, in.StringLiteral("length"))
	case types.KindTuple:
		elems, _ := in.TupleElements(t)
		keys := []types.TypeID{types.TypeNumber, in.StringLiteral("length")}
		for i, el := range elems {
			if el.Rest {
				break
			}
			keys = append(keys, in.StringLiteral(strconv.Itoa(i)))
		}
		return in.UnionOf(keys)
	case types.KindReadonly:
		return e.keyOf(tt.Elem)
	case types.KindMapped:
		m, _ := in.MappedType(t)
		if m.NameType == types.NoTypeID {
			return e.Evaluate(m.Constraint)
		}
	}
	if e.deferred(t) || tt.Kind.IsMeta() {
		return in.KeyOf(t)
	}
	return types.TypeNever
}

// keyLiteral returns the key type of a property name: canonical numeric
// names are number literals.
func (e *Evaluator) keyLiteral(name string) types.TypeID {
	if v, ok := types.ParseNumericString(name); ok {
		return e.in.NumberLiteral(v)
	}
	return e.in.StringLiteral(name)
}

// indexAccess distributes over unions of keys and objects. A key that does
// not exist yields the error type.
func (e *Evaluator) indexAccess(object, index types.TypeID) types.TypeID {
	in := e.in
	obj, idx := e.Evaluate(object), e.Evaluate(index)
	switch {
	case obj == types.TypeError || idx == types.TypeError:
		return types.TypeError
	case obj == types.TypeAny:
		return types.TypeAny
	case e.deferred(obj) || e.deferred(idx) || in.KindOf(obj).IsMeta() || in.KindOf(idx).IsMeta():
		return in.IndexAccess(obj, idx)
	}
	if in.KindOf(idx) == types.KindUnion {
		members := in.Members(idx)
		out := make([]types.TypeID, len(members))
		for i, k := range members {
			out[i] = e.accessKey(obj, k)
		}
		return in.UnionOf(out)
	}
	return e.accessKey(obj, idx)
}

func (e *Evaluator) accessKey(obj, key types.TypeID) types.TypeID {
	in := e.in
	if in.KindOf(obj) == types.KindUnion {
		members := in.Members(obj)
		out := make([]types.TypeID, len(members))
		for i, m := range members {
			out[i] = e.accessKey(m, key)
		}
		return in.UnionOf(out)
	}
	if name, ok := propertyName(in, enumValue(in, key)); ok {
		r := e.lookup(obj, name, false)
		switch r.Status {
		case Found:
			return r.Type
		case IsAny:
			return types.TypeAny
		}
		return types.TypeError
	}
	switch key {
	case types.TypeNumber:
		if t, ok := e.numberIndex(obj, false); ok {
			return t
		}
	case types.TypeString:
		if sig := e.indexSignature(obj, false); sig != nil {
			return sig.Value
		}
	}
	return types.TypeError
}

// numberIndex returns what `obj[number]` reads. unchecked adds undefined
// to reads that may miss.
func (e *Evaluator) numberIndex(obj types.TypeID, unchecked bool) (types.TypeID, bool) {
	in := e.in
	tt, _ := in.Lookup(obj)
	switch tt.Kind {
	case types.KindArray:
		return e.indexRead(tt.Elem, unchecked), true
	case types.KindTuple:
		elems, _ := in.TupleElements(obj)
		return e.indexRead(e.tupleElementUnion(elems), unchecked), true
	case types.KindReadonly:
		return e.numberIndex(tt.Elem, unchecked)
	}
	if sig := e.indexSignature(obj, true); sig != nil {
		return e.indexRead(sig.Value, unchecked), true
	}
	return types.NoTypeID, false
}

// indexSignature returns the number (falling back to string) or string
// index signature of an object-like type.
func (e *Evaluator) indexSignature(obj types.TypeID, number bool) *types.IndexSignature {
	_, str, num, ok := e.objectMembers(obj)
	if !ok {
		return nil
	}
	if number && num != nil {
		return num
	}
	return str
}

func (e *Evaluator) indexRead(t types.TypeID, unchecked bool) types.TypeID {
	if unchecked {
		return e.in.Union(t, types.TypeUndefined)
	}
	return t
}

// enumValue unwraps enum member keys to their literal value.
func enumValue(in *types.Interner, t types.TypeID) types.TypeID {
	if tt, ok := in.Lookup(t); ok && tt.Kind == types.KindEnum {
		return tt.Elem
	}
	return t
}
