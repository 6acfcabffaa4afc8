package types

import "slices"

// maxIntersectionDistribution bounds the cross product produced when an
// intersection with union members is distributed into a union.
const maxIntersectionDistribution = 64

// domain is the runtime value space a type lives in, used to detect
// intersections with no inhabitants.
type domain uint8

const (
	domainOther domain = iota
	domainString
	domainNumber
	domainBigInt
	domainBoolean
	domainSymbol
	domainNull
	domainUndefined
	domainObject
)

func (d domain) primitive() bool {
	return d >= domainString && d <= domainUndefined
}

func (in *Interner) domainOf(id TypeID) domain {
	switch in.PrimitiveBase(id) {
	case TypeString:
		return domainString
	case TypeNumber:
		return domainNumber
	case TypeBigInt:
		return domainBigInt
	case TypeBoolean:
		return domainBoolean
	case TypeSymbol:
		return domainSymbol
	case TypeNull:
		return domainNull
	case TypeUndefined:
		return domainUndefined
	}
	tt, _ := in.Lookup(id)
	switch tt.Kind {
	case KindNonPrimitive, KindGlobalFunction, KindArray, KindTuple, KindObject, KindObjectWithIndex,
		KindFunction, KindCallable:
		return domainObject
	case KindReadonly:
		return in.domainOf(tt.Elem)
	}
	return domainOther
}

// Intersection builds a normalized intersection. Nested intersections are
// flattened, `unknown` dropped and duplicates removed. `error`, then `never`,
// then `any` absorb everything. Function members keep their source order
// after the sorted non-callable members, as that order is overload order.
// Members from disjoint primitive domains or distinct unit types collapse to
// `never`, a literal absorbs its primitive and plain object members merge
// into one object shape. An intersection with
// union members distributes into a union of intersections when the product
// stays small.
func (in *Interner) Intersection(members ...TypeID) TypeID {
	flat := make([]TypeID, 0, len(members))
	var walk func(ids []TypeID)
	walk = func(ids []TypeID) {
		for _, id := range ids {
			if id == NoTypeID || id == TypeUnknown {
				continue
			}
			if in.KindOf(id) == KindIntersection {
				walk(in.Members(id))
				continue
			}
			flat = append(flat, id)
		}
	}
	walk(members)

	for _, top := range []TypeID{TypeError, TypeNever, TypeAny} {
		if slices.Contains(flat, top) {
			return top
		}
	}
	flat = in.canonicalMembers(flat)

	if res, ok := in.distributeIntersection(flat); ok {
		return res
	}

	flat, never := in.reduceDomains(flat)
	if never {
		return TypeNever
	}

	flat, never = in.mergeObjectMembers(flat)
	if never {
		return TypeNever
	}

	switch len(flat) {
	case 0:
		return TypeUnknown
	case 1:
		return flat[0]
	}
	return in.Intern(Type{Kind: KindIntersection, Payload: uint32(in.List(flat))})
}

// canonicalMembers sorts and dedupes the non-callable members and appends
// the callable ones deduped in their original order.
func (in *Interner) canonicalMembers(flat []TypeID) []TypeID {
	var calls []TypeID
	rest := make([]TypeID, 0, len(flat))
	for _, id := range flat {
		switch in.KindOf(id) {
		case KindFunction, KindCallable:
			if !slices.Contains(calls, id) {
				calls = append(calls, id)
			}
		default:
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(slices.Compact(rest), calls...)
}

// IntersectionOf is Intersection over a slice.
func (in *Interner) IntersectionOf(members []TypeID) TypeID {
	return in.Intersection(members...)
}

func (in *Interner) distributeIntersection(flat []TypeID) (TypeID, bool) {
	product := 1
	hasUnion := false
	for _, id := range flat {
		if in.KindOf(id) == KindUnion {
			hasUnion = true
			product *= len(in.Members(id))
			if product > maxIntersectionDistribution {
				return NoTypeID, false
			}
		}
	}
	if !hasUnion {
		return NoTypeID, false
	}
	combos := [][]TypeID{nil}
	for _, id := range flat {
		choices := in.UnionMembers(id)
		next := make([][]TypeID, 0, len(combos)*len(choices))
		for _, prefix := range combos {
			for _, c := range choices {
				combo := make([]TypeID, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, c))
			}
		}
		combos = next
	}
	parts := make([]TypeID, 0, len(combos))
	for _, combo := range combos {
		parts = append(parts, in.Intersection(combo...))
	}
	return in.Union(parts...), true
}

// unitValue maps an enum member to its literal value so that enum members and
// plain literals of equal value compare equal.
func (in *Interner) unitValue(id TypeID) TypeID {
	if tt, ok := in.Lookup(id); ok && tt.Kind == KindEnum {
		return tt.Elem
	}
	return id
}

func (in *Interner) reduceDomains(flat []TypeID) ([]TypeID, bool) {
	var prim domain
	hasObject := false
	hasObjectKeyword := false
	for _, id := range flat {
		d := in.domainOf(id)
		switch {
		case d.primitive():
			if prim != domainOther && prim != d {
				return nil, true
			}
			prim = d
		case d == domainObject:
			hasObject = true
			if id == TypeObject {
				hasObjectKeyword = true
			}
		}
	}
	if prim == domainNull || prim == domainUndefined {
		if hasObject {
			return nil, true
		}
	}
	if prim != domainOther && hasObjectKeyword {
		return nil, true
	}

	// distinct unit values in the same domain have no common inhabitant
	var unit TypeID
	for _, id := range flat {
		if !in.IsUnitType(id) || in.domainOf(id) == domainOther {
			continue
		}
		v := in.unitValue(id)
		if unit != NoTypeID && unit != v {
			return nil, true
		}
		unit = v
	}

	if prim == domainOther {
		return flat, false
	}
	base := primitiveOfDomain(prim)
	hasNarrower := false
	for _, id := range flat {
		if id != base && in.domainOf(id) == prim {
			hasNarrower = true
			break
		}
	}
	if !hasNarrower {
		return flat, false
	}
	out := slices.DeleteFunc(flat, func(id TypeID) bool { return id == base })
	if unit != NoTypeID {
		// keep the enum member over the equal plain literal
		hasEnum := slices.ContainsFunc(out, func(id TypeID) bool { return in.KindOf(id) == KindEnum })
		if hasEnum {
			out = slices.DeleteFunc(out, func(id TypeID) bool { return id == unit })
		}
	}
	return out, false
}

func primitiveOfDomain(d domain) TypeID {
	switch d {
	case domainString:
		return TypeString
	case domainNumber:
		return TypeNumber
	case domainBigInt:
		return TypeBigInt
	case domainBoolean:
		return TypeBoolean
	case domainSymbol:
		return TypeSymbol
	case domainNull:
		return TypeNull
	case domainUndefined:
		return TypeUndefined
	}
	return NoTypeID
}

// mergeObjectMembers folds plain anonymous objects into one shape. Objects
// with a nominal identity, callables and everything else stay separate.
func (in *Interner) mergeObjectMembers(flat []TypeID) ([]TypeID, bool) {
	var objs []TypeID
	for _, id := range flat {
		if shape, ok := in.ObjectShape(id); ok && shape.Nominal == NoDeclID {
			objs = append(objs, id)
		}
	}
	if len(objs) < 2 {
		return flat, false
	}
	merged, ok := in.mergeObjects(objs)
	if !ok {
		return flat, false
	}
	if merged == TypeNever {
		return nil, true
	}
	out := slices.DeleteFunc(flat, func(id TypeID) bool { return slices.Contains(objs, id) })
	return in.canonicalMembers(append(out, merged)), false
}

func (in *Interner) mergeObjects(ids []TypeID) (TypeID, bool) {
	byName := make(map[Atom]int)
	var props []Property
	var strIdx, numIdx *IndexSignature
	for _, id := range ids {
		shape, _ := in.ObjectShape(id)
		for _, p := range shape.Props {
			p.Write = p.WriteType()
			i, seen := byName[p.Name]
			if !seen {
				byName[p.Name] = len(props)
				props = append(props, p)
				continue
			}
			q := &props[i]
			if q.Visibility != p.Visibility || q.Parent != p.Parent {
				return NoTypeID, false
			}
			bothUnit := in.IsUnitType(q.Type) && in.IsUnitType(p.Type)
			q.Type = in.Intersection(q.Type, p.Type)
			q.Write = in.Intersection(q.Write, p.Write)
			if bothUnit && q.Type == TypeNever {
				return TypeNever, true
			}
			q.Optional = q.Optional && p.Optional
			q.Readonly = q.Readonly && p.Readonly
			q.Method = q.Method && p.Method
		}
		strIdx = in.mergeIndex(strIdx, shape.StringIndex)
		numIdx = in.mergeIndex(numIdx, shape.NumberIndex)
	}
	return in.Object(ObjectShape{Props: props, StringIndex: strIdx, NumberIndex: numIdx}), true
}

func (in *Interner) mergeIndex(a, b *IndexSignature) *IndexSignature {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		c := *b
		return &c
	case b == nil:
		return a
	}
	return &IndexSignature{Key: a.Key, Value: in.Intersection(a.Value, b.Value), Readonly: a.Readonly && b.Readonly}
}
