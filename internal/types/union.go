package types

import "slices"

// Union builds a normalized union: nested unions are flattened, `never` is
// dropped, duplicates removed, literals absorbed into a present primitive and
// `true|false` folded into `boolean`. `any`, then `error`, then `unknown`
// absorb everything. Members are ordered by handle so that member order does
// not affect identity.
func (in *Interner) Union(members ...TypeID) TypeID {
	flat := make([]TypeID, 0, len(members))
	var walk func(ids []TypeID)
	walk = func(ids []TypeID) {
		for _, id := range ids {
			if id == NoTypeID || id == TypeNever {
				continue
			}
			if in.KindOf(id) == KindUnion {
				walk(in.Members(id))
				continue
			}
			flat = append(flat, id)
		}
	}
	walk(members)

	var hasAny, hasError, hasUnknown bool
	for _, id := range flat {
		switch id {
		case TypeAny:
			hasAny = true
		case TypeError:
			hasError = true
		case TypeUnknown:
			hasUnknown = true
		}
	}
	switch {
	case hasAny:
		return TypeAny
	case hasError:
		return TypeError
	case hasUnknown:
		return TypeUnknown
	}

	slices.Sort(flat)
	flat = slices.Compact(flat)

	if slices.Contains(flat, TypeTrue) && slices.Contains(flat, TypeFalse) {
		flat = slices.DeleteFunc(flat, func(id TypeID) bool { return id == TypeTrue || id == TypeFalse })
		idx, found := slices.BinarySearch(flat, TypeBoolean)
		if !found {
			flat = slices.Insert(flat, idx, TypeBoolean)
		}
	}
	flat = in.absorbLiterals(flat)

	switch len(flat) {
	case 0:
		return TypeNever
	case 1:
		return flat[0]
	}
	return in.Intern(Type{Kind: KindUnion, Payload: uint32(in.List(flat))})
}

// UnionOf is Union over a slice.
func (in *Interner) UnionOf(members []TypeID) TypeID {
	return in.Union(members...)
}

func (in *Interner) absorbLiterals(flat []TypeID) []TypeID {
	present := make(map[TypeID]bool, 5)
	for _, id := range flat {
		switch id {
		case TypeString, TypeNumber, TypeBigInt, TypeBoolean, TypeSymbol:
			present[id] = true
		}
	}
	if len(present) == 0 {
		return flat
	}
	return slices.DeleteFunc(flat, func(id TypeID) bool {
		base := in.PrimitiveBase(id)
		return base != id && present[base]
	})
}

// PrimitiveBase returns the primitive a literal-like type widens to, or id
// itself when it is not literal-like. Template literals and string mappings
// widen to string, enum members to the primitive of their value.
func (in *Interner) PrimitiveBase(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindLiteral:
		lit, _ := in.LiteralValue(id)
		switch lit.Kind {
		case LiteralString:
			return TypeString
		case LiteralNumber:
			return TypeNumber
		case LiteralBigInt:
			return TypeBigInt
		case LiteralBoolean:
			return TypeBoolean
		}
	case KindTemplateLiteral, KindStringIntrinsic:
		return TypeString
	case KindUniqueSymbol:
		return TypeSymbol
	case KindEnum:
		if in.KindOf(tt.Elem) == KindLiteral {
			return in.PrimitiveBase(tt.Elem)
		}
	}
	return id
}

// IsUnitType reports whether id has exactly one inhabitant.
func (in *Interner) IsUnitType(id TypeID) bool {
	switch id {
	case TypeNull, TypeUndefined, TypeVoid:
		return true
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindLiteral, KindUniqueSymbol:
		return true
	case KindEnum:
		return in.KindOf(tt.Elem) == KindLiteral
	}
	return false
}

// RemoveFromUnion returns t without the members for which drop reports true.
func (in *Interner) RemoveFromUnion(t TypeID, drop func(TypeID) bool) TypeID {
	if in.KindOf(t) != KindUnion {
		if drop(t) {
			return TypeNever
		}
		return t
	}
	members := in.Members(t)
	kept := make([]TypeID, 0, len(members))
	for _, m := range members {
		if !drop(m) {
			kept = append(kept, m)
		}
	}
	return in.Union(kept...)
}

// UnionMembers returns the members of a union, or t itself as a singleton.
func (in *Interner) UnionMembers(t TypeID) []TypeID {
	if in.KindOf(t) == KindUnion {
		return in.Members(t)
	}
	return []TypeID{t}
}
