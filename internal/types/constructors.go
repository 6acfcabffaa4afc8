package types

import (
	"math"
	"slices"
	"strings"
)

// StringLiteral returns the literal type "s".
func (in *Interner) StringLiteral(s string) TypeID {
	return in.Intern(Type{Kind: KindLiteral, Payload: in.literalSlot(literalKey{Kind: LiteralString, Str: s})})
}

// NumberLiteral returns a numeric literal type. -0 is folded into 0 and all
// NaNs share one handle.
func (in *Interner) NumberLiteral(v float64) TypeID {
	switch {
	case v == 0:
		v = 0
	case math.IsNaN(v):
		v = math.NaN()
	}
	key := literalKey{Kind: LiteralNumber, Bits: math.Float64bits(v)}
	return in.Intern(Type{Kind: KindLiteral, Payload: in.literalSlot(key)})
}

// BigIntLiteral returns a bigint literal type from its decimal digits.
func (in *Interner) BigIntLiteral(digits string) TypeID {
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimLeft(strings.TrimPrefix(digits, "-"), "0")
	if digits == "" {
		digits, neg = "0", false
	}
	if neg {
		digits = "-" + digits
	}
	return in.Intern(Type{Kind: KindLiteral, Payload: in.literalSlot(literalKey{Kind: LiteralBigInt, Str: digits})})
}

// BooleanLiteral returns `true` or `false`.
func (in *Interner) BooleanLiteral(v bool) TypeID {
	if v {
		return TypeTrue
	}
	return TypeFalse
}

// Array returns `elem[]`.
func (in *Interner) Array(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindArray, Elem: elem})
}

// ReadonlyArray returns `readonly elem[]`.
func (in *Interner) ReadonlyArray(elem TypeID) TypeID {
	return in.Readonly(in.Array(elem))
}

// Tuple returns a tuple type. A rest element whose type is an array is kept
// as `...T[]`; a rest element holding a tuple is spliced in place.
func (in *Interner) Tuple(elems []TupleElement) TypeID {
	flat := make([]TupleElement, 0, len(elems))
	for _, el := range elems {
		if el.Rest {
			if inner, ok := in.TupleElements(el.Type); ok {
				flat = append(flat, inner...)
				continue
			}
		}
		flat = append(flat, el)
	}
	slot := in.tuples.intern(tupleKey(flat), func() []TupleElement { return flat })
	return in.Intern(Type{Kind: KindTuple, Payload: slot})
}

// TupleOf is a shorthand for a tuple of required, unnamed elements.
func (in *Interner) TupleOf(types ...TypeID) TypeID {
	elems := make([]TupleElement, len(types))
	for i, t := range types {
		elems[i] = TupleElement{Type: t}
	}
	return in.Tuple(elems)
}

// Object interns an object shape. Properties are sorted by name; a later
// duplicate name is dropped.
func (in *Interner) Object(shape ObjectShape) TypeID {
	return in.object(shape, 0)
}

// FreshObject interns an object-literal type that is subject to excess
// property checks until widened.
func (in *Interner) FreshObject(shape ObjectShape) TypeID {
	return in.object(shape, FlagFresh)
}

func (in *Interner) object(shape ObjectShape, flags Flags) TypeID {
	shape.Props = in.sortProps(shape.Props)
	kind := KindObject
	if shape.StringIndex != nil || shape.NumberIndex != nil {
		kind = KindObjectWithIndex
	}
	slot := in.objects.intern(shapeKey(&shape), func() ObjectShape { return shape })
	return in.Intern(Type{Kind: kind, Flags: flags, Payload: slot})
}

// ObjectOf builds a plain object from name/type pairs.
func (in *Interner) ObjectOf(props map[string]TypeID) TypeID {
	list := make([]Property, 0, len(props))
	for name, t := range props {
		list = append(list, Property{Name: in.Atom(name), Type: t, Write: t})
	}
	return in.Object(ObjectShape{Props: list})
}

// IsFresh reports whether id is a fresh object literal type.
func (in *Interner) IsFresh(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Flags&FlagFresh != 0
}

// Regular drops freshness from an object literal type.
func (in *Interner) Regular(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Flags&FlagFresh == 0 {
		return id
	}
	tt.Flags &^= FlagFresh
	return in.Intern(tt)
}

func (in *Interner) sortProps(props []Property) []Property {
	if len(props) == 0 {
		return nil
	}
	out := make([]Property, 0, len(props))
	seen := make(map[Atom]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}
		if p.Write == NoTypeID {
			p.Write = p.Type
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Property) int {
		return strings.Compare(in.AtomString(a.Name), in.AtomString(b.Name))
	})
	return out
}

// FindProperty looks up a property by name in a sorted property list.
func (in *Interner) FindProperty(props []Property, name Atom) (Property, bool) {
	target := in.AtomString(name)
	idx, ok := slices.BinarySearchFunc(props, target, func(p Property, s string) int {
		return strings.Compare(in.AtomString(p.Name), s)
	})
	if !ok {
		return Property{}, false
	}
	return props[idx], true
}

// Function interns a single signature.
func (in *Interner) Function(shape FunctionShape) TypeID {
	shape = normalizeSignature(shape)
	slot := in.functions.intern(shapeKey(&shape), func() FunctionShape { return shape })
	return in.Intern(Type{Kind: KindFunction, Payload: slot})
}

// normalizeSignature copies the slices of shape, with empty ones as nil so
// that equal signatures share a key.
func normalizeSignature(shape FunctionShape) FunctionShape {
	shape.TypeParams = cloneIDs(shape.TypeParams)
	if len(shape.Params) == 0 {
		shape.Params = nil
	} else {
		shape.Params = slices.Clone(shape.Params)
	}
	if shape.Return == NoTypeID {
		shape.Return = TypeVoid
	}
	return shape
}

func normalizeSignatures(sigs []FunctionShape, construct bool) []FunctionShape {
	if len(sigs) == 0 {
		return nil
	}
	out := make([]FunctionShape, len(sigs))
	for i, sig := range sigs {
		out[i] = normalizeSignature(sig)
		if construct {
			out[i].Constructor = true
		}
	}
	return out
}

// Callable interns an overloaded callable. A callable with exactly one call
// signature and nothing else is the plain function type.
func (in *Interner) Callable(shape CallableShape) TypeID {
	if len(shape.Calls) == 1 && len(shape.Constructs) == 0 && len(shape.Props) == 0 &&
		shape.StringIndex == nil && shape.NumberIndex == nil {
		return in.Function(shape.Calls[0])
	}
	if len(shape.Calls) == 0 && len(shape.Constructs) == 1 && len(shape.Props) == 0 &&
		shape.StringIndex == nil && shape.NumberIndex == nil {
		sig := shape.Constructs[0]
		sig.Constructor = true
		return in.Function(sig)
	}
	shape.Calls = normalizeSignatures(shape.Calls, false)
	shape.Constructs = normalizeSignatures(shape.Constructs, true)
	shape.Props = in.sortProps(shape.Props)
	slot := in.callables.intern(shapeKey(&shape), func() CallableShape { return shape })
	return in.Intern(Type{Kind: KindCallable, Payload: slot})
}

// Signatures returns the call (or construct) signatures of a function or
// callable type.
func (in *Interner) Signatures(id TypeID, construct bool) []FunctionShape {
	if fn, ok := in.FunctionShape(id); ok {
		if fn.Constructor == construct {
			return []FunctionShape{*fn}
		}
		return nil
	}
	if c, ok := in.CallableShape(id); ok {
		if construct {
			return c.Constructs
		}
		return c.Calls
	}
	return nil
}

// TypeParam interns a type parameter with an explicit identity.
func (in *Interner) TypeParam(info TypeParamInfo) TypeID {
	slot := in.params.intern(info, func() TypeParamInfo { return info })
	return in.Intern(Type{Kind: KindTypeParam, Payload: slot})
}

// NewTypeParam declares a fresh type parameter distinct from every other.
func (in *Interner) NewTypeParam(name string, constraint, def TypeID) TypeID {
	return in.TypeParam(TypeParamInfo{Name: in.Atom(name), Constraint: constraint, Default: def, Owner: in.NewOwner()})
}

// Infer interns an `infer` placeholder.
func (in *Interner) Infer(info TypeParamInfo) TypeID {
	slot := in.params.intern(info, func() TypeParamInfo { return info })
	return in.Intern(Type{Kind: KindInfer, Payload: slot})
}

// NewInfer declares a fresh `infer name` placeholder.
func (in *Interner) NewInfer(name string, constraint TypeID) TypeID {
	return in.Infer(TypeParamInfo{Name: in.Atom(name), Constraint: constraint, Owner: in.NewOwner()})
}

// Conditional interns `check extends ext ? t : f`.
func (in *Interner) Conditional(c ConditionalType) TypeID {
	slot := in.conditionals.intern(c, func() ConditionalType { return c })
	return in.Intern(Type{Kind: KindConditional, Payload: slot})
}

// Mapped interns a mapped type.
func (in *Interner) Mapped(m MappedType) TypeID {
	slot := in.mapped.intern(m, func() MappedType { return m })
	return in.Intern(Type{Kind: KindMapped, Payload: slot})
}

// IndexAccess returns `object[index]` without evaluating it.
func (in *Interner) IndexAccess(object, index TypeID) TypeID {
	return in.Intern(Type{Kind: KindIndexAccess, Elem: object, Index: index})
}

// KeyOf returns `keyof t` without evaluating it.
func (in *Interner) KeyOf(t TypeID) TypeID {
	return in.Intern(Type{Kind: KindKeyOf, Elem: t})
}

// Readonly returns `readonly t` for arrays, tuples and unresolved operands;
// for anything else the modifier has no effect.
func (in *Interner) Readonly(t TypeID) TypeID {
	switch in.KindOf(t) {
	case KindReadonly:
		return t
	case KindArray, KindTuple, KindTypeParam, KindLazy, KindApplication, KindIndexAccess,
		KindConditional, KindMapped:
		return in.Intern(Type{Kind: KindReadonly, Elem: t})
	default:
		return t
	}
}

// ApplicationOf returns `base<args...>`.
func (in *Interner) ApplicationOf(base TypeID, args []TypeID) TypeID {
	app := Application{Base: base, Args: in.List(args)}
	slot := in.apps.intern(app, func() Application { return app })
	return in.Intern(Type{Kind: KindApplication, Payload: slot})
}

// StringIntrinsic returns `Uppercase<arg>` and friends.
func (in *Interner) StringIntrinsic(kind StringIntrinsicKind, arg TypeID) TypeID {
	return in.Intern(Type{Kind: KindStringIntrinsic, Elem: arg, Payload: uint32(kind)})
}
