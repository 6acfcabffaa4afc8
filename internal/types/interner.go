package types

import (
	"math"
	"sync/atomic"
)

// Interner provides stable TypeIDs by hashing structural descriptors. It is
// safe for concurrent use: interning a novel shape takes a per-shard lock,
// while Lookup and every accessor read published pages without locking.
//
// Descriptors are never mutated or freed; an Interner lives for one session.
type Interner struct {
	types        *table[Type, Type]
	atoms        *table[string, string]
	lists        *table[string, []TypeID]
	literals     *table[literalKey, literalKey]
	objects      *table[string, ObjectShape]
	functions    *table[string, FunctionShape]
	callables    *table[string, CallableShape]
	tuples       *table[string, []TupleElement]
	params       *table[TypeParamInfo, TypeParamInfo]
	conditionals *table[ConditionalType, ConditionalType]
	mapped       *table[MappedType, MappedType]
	templates    *table[string, []TemplateSpan]
	apps         *table[Application, Application]
	decls        arena[*declSlot]

	owners atomic.Uint32
}

type literalKey struct {
	Kind LiteralKind
	Str  string
	Bits uint64
}

// NewInterner constructs an interner seeded with the intrinsic types at
// their fixed handles.
func NewInterner() *Interner {
	in := &Interner{
		types:        newTable[Type, Type](),
		atoms:        newTable[string, string](),
		lists:        newTable[string, []TypeID](),
		literals:     newTable[literalKey, literalKey](),
		objects:      newTable[string, ObjectShape](),
		functions:    newTable[string, FunctionShape](),
		callables:    newTable[string, CallableShape](),
		tuples:       newTable[string, []TupleElement](),
		params:       newTable[TypeParamInfo, TypeParamInfo](),
		conditionals: newTable[ConditionalType, ConditionalType](),
		mapped:       newTable[MappedType, MappedType](),
		templates:    newTable[string, []TemplateSpan](),
		apps:         newTable[Application, Application](),
	}
	in.decls.append(nil) // reserve 0 as invalid sentinel
	in.atoms.intern("", func() string { return "" })

	for _, k := range []Kind{
		KindError, KindNever, KindUnknown, KindAny, KindVoid, KindUndefined, KindNull,
		KindBoolean, KindNumber, KindString, KindBigInt, KindSymbol, KindNonPrimitive,
	} {
		in.Intern(Type{Kind: k})
	}
	in.Intern(Type{Kind: KindLiteral, Payload: in.literalSlot(literalKey{Kind: LiteralBoolean, Bits: 1})})
	in.Intern(Type{Kind: KindLiteral, Payload: in.literalSlot(literalKey{Kind: LiteralBoolean, Bits: 0})})
	in.Intern(Type{Kind: KindGlobalFunction})
	return in
}

// Intern ensures the provided descriptor has a stable TypeID. It stores the
// descriptor as given; use the normalizing constructors for composite kinds.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	return TypeID(in.types.intern(t, func() Type { return t }))
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if in == nil || id == NoTypeID {
		return Type{}, false
	}
	return in.types.get(uint32(id))
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, or KindInvalid.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// Len returns the number of handles allocated so far, the sentinel included.
func (in *Interner) Len() int {
	return in.types.len()
}

// Atom interns a string.
func (in *Interner) Atom(s string) Atom {
	return Atom(in.atoms.intern(s, func() string { return s }))
}

// AtomString returns the string for an atom.
func (in *Interner) AtomString(a Atom) string {
	s, _ := in.atoms.get(uint32(a))
	return s
}

// List interns a sequence of handles.
func (in *Interner) List(ids []TypeID) ListID {
	if len(ids) == 0 {
		return 0
	}
	owned := cloneIDs(ids)
	return ListID(in.lists.intern(idsKey(owned), func() []TypeID { return owned }))
}

// ListTypes returns the handles of an interned list. The slice must not be
// modified.
func (in *Interner) ListTypes(id ListID) []TypeID {
	ids, _ := in.lists.get(uint32(id))
	return ids
}

// Members returns union or intersection members, or nil.
func (in *Interner) Members(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindUnion && tt.Kind != KindIntersection) {
		return nil
	}
	return in.ListTypes(ListID(tt.Payload))
}

// ObjectShape returns the shape of an object type.
func (in *Interner) ObjectShape(id TypeID) (*ObjectShape, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindObject && tt.Kind != KindObjectWithIndex) {
		return nil, false
	}
	shape, ok := in.objects.get(tt.Payload)
	if !ok {
		return nil, false
	}
	return &shape, true
}

// FunctionShape returns the signature of a function type.
func (in *Interner) FunctionShape(id TypeID) (*FunctionShape, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFunction {
		return nil, false
	}
	shape, ok := in.functions.get(tt.Payload)
	if !ok {
		return nil, false
	}
	return &shape, true
}

// CallableShape returns the signatures and members of a callable type.
func (in *Interner) CallableShape(id TypeID) (*CallableShape, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindCallable {
		return nil, false
	}
	shape, ok := in.callables.get(tt.Payload)
	if !ok {
		return nil, false
	}
	return &shape, true
}

// TupleElements returns the elements of a tuple type.
func (in *Interner) TupleElements(id TypeID) ([]TupleElement, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil, false
	}
	return in.tuples.get(tt.Payload)
}

// TypeParamInfo returns the info of a type parameter or infer placeholder.
func (in *Interner) TypeParamInfo(id TypeID) (TypeParamInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindTypeParam && tt.Kind != KindInfer) {
		return TypeParamInfo{}, false
	}
	return in.params.get(tt.Payload)
}

// ConditionalType returns the parts of a conditional type.
func (in *Interner) ConditionalType(id TypeID) (ConditionalType, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindConditional {
		return ConditionalType{}, false
	}
	return in.conditionals.get(tt.Payload)
}

// MappedType returns the parts of a mapped type.
func (in *Interner) MappedType(id TypeID) (MappedType, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindMapped {
		return MappedType{}, false
	}
	return in.mapped.get(tt.Payload)
}

// TemplateSpans returns the spans of a template literal type.
func (in *Interner) TemplateSpans(id TypeID) ([]TemplateSpan, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTemplateLiteral {
		return nil, false
	}
	return in.templates.get(tt.Payload)
}

// Application returns the base and arguments of a generic application.
func (in *Interner) Application(id TypeID) (TypeID, []TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindApplication {
		return NoTypeID, nil, false
	}
	app, ok := in.apps.get(tt.Payload)
	if !ok {
		return NoTypeID, nil, false
	}
	return app.Base, in.ListTypes(app.Args), true
}

// Literal describes a literal type's value.
type Literal struct {
	Kind LiteralKind
	Str  string  // string literal text or bigint decimal digits
	Num  float64 // number literal value
	Bool bool
}

// LiteralValue returns the value of a literal type.
func (in *Interner) LiteralValue(id TypeID) (Literal, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindLiteral {
		return Literal{}, false
	}
	key, ok := in.literals.get(tt.Payload)
	if !ok {
		return Literal{}, false
	}
	lit := Literal{Kind: key.Kind, Str: key.Str}
	switch key.Kind {
	case LiteralNumber:
		lit.Num = math.Float64frombits(key.Bits)
	case LiteralBoolean:
		lit.Bool = key.Bits != 0
	}
	return lit, true
}

// NewOwner allocates a fresh identity for type parameters and infer placeholders.
func (in *Interner) NewOwner() uint32 {
	return in.owners.Add(1)
}

func (in *Interner) literalSlot(key literalKey) uint32 {
	return in.literals.intern(key, func() literalKey { return key })
}

func cloneIDs(ids []TypeID) []TypeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]TypeID, len(ids))
	copy(out, ids)
	return out
}
