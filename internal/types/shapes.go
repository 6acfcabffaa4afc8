package types

import (
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Atom is an interned string (property names, parameter names, template text).
type Atom uint32

// NoAtom marks an absent name.
const NoAtom Atom = 0

// ListID addresses an interned sequence of TypeIDs.
type ListID uint32

// DeclID names a declaration registered with the interner.
type DeclID uint32

// NoDeclID marks the absence of a declaration.
const NoDeclID DeclID = 0

// Visibility of a class member.
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// Property describes one named member of an object shape.
//
// Write differs from Type only for split accessors; consumers ignore Write
// when Readonly is set.
type Property struct {
	_msgpack   struct{} `msgpack:",as_array"`
	Name       Atom
	Type       TypeID
	Write      TypeID
	Optional   bool
	Readonly   bool
	Method     bool
	Visibility Visibility
	Parent     DeclID
}

// WriteType returns the declared write type, defaulting to the read type.
func (p Property) WriteType() TypeID {
	if p.Write == NoTypeID {
		return p.Type
	}
	return p.Write
}

// HasSplitAccessor reports whether reads and writes use different types.
func (p Property) HasSplitAccessor() bool {
	return p.Write != NoTypeID && p.Write != p.Type
}

// IndexSignature is `[key: K]: V`.
type IndexSignature struct {
	_msgpack struct{} `msgpack:",as_array"`
	Key      TypeID
	Value    TypeID
	Readonly bool
}

// ObjectShape is the structural content of object types. Properties are kept
// sorted by name.
type ObjectShape struct {
	_msgpack    struct{} `msgpack:",as_array"`
	Props       []Property
	StringIndex *IndexSignature
	NumberIndex *IndexSignature
	Nominal     DeclID
}

// Param is one function parameter.
type Param struct {
	_msgpack struct{} `msgpack:",as_array"`
	Name     Atom
	Type     TypeID
	Optional bool
	Rest     bool
}

// FunctionShape is a single call or construct signature.
type FunctionShape struct {
	_msgpack    struct{} `msgpack:",as_array"`
	TypeParams  []TypeID
	Params      []Param
	This        TypeID
	Return      TypeID
	Constructor bool
	Method      bool
}

// RequiredParams counts leading parameters that are neither optional nor rest.
func (f *FunctionShape) RequiredParams() int {
	n := 0
	for _, p := range f.Params {
		if p.Optional || p.Rest {
			break
		}
		n++
	}
	return n
}

// RestParam returns the rest parameter, if any.
func (f *FunctionShape) RestParam() (Param, bool) {
	if len(f.Params) == 0 {
		return Param{}, false
	}
	last := f.Params[len(f.Params)-1]
	return last, last.Rest
}

// CallableShape is an overloaded callable: ordered signatures plus members.
type CallableShape struct {
	_msgpack    struct{} `msgpack:",as_array"`
	Calls       []FunctionShape
	Constructs  []FunctionShape
	Props       []Property
	StringIndex *IndexSignature
	NumberIndex *IndexSignature
}

// TupleElement is one position of a tuple.
type TupleElement struct {
	Type     TypeID
	Name     Atom
	Optional bool
	Rest     bool
}

// TypeParamInfo describes a type parameter or an infer placeholder. Owner
// distinguishes same-named parameters declared in different places.
type TypeParamInfo struct {
	Name       Atom
	Constraint TypeID
	Default    TypeID
	Owner      uint32
}

// ConditionalType is `Check extends Extends ? True : False`.
type ConditionalType struct {
	Check        TypeID
	Extends      TypeID
	True         TypeID
	False        TypeID
	Distributive bool
}

// MappedModifier is the +/- prefix of readonly and ? in a mapped type.
type MappedModifier uint8

const (
	ModifierNone MappedModifier = iota
	ModifierAdd
	ModifierRemove
)

// MappedType is `{ [P in Constraint as NameType]: Template }`.
type MappedType struct {
	Param      TypeID
	Constraint TypeID
	NameType   TypeID
	Template   TypeID
	Readonly   MappedModifier
	Optional   MappedModifier
}

// TemplateSpan is either literal text or an interpolated type.
type TemplateSpan struct {
	Text Atom
	Type TypeID
}

// IsText reports whether the span is literal text.
func (s TemplateSpan) IsText() bool { return s.Type == NoTypeID }

// Application is `Base<Args...>`.
type Application struct {
	Base TypeID
	Args ListID
}

// LiteralKind distinguishes literal value domains.
type LiteralKind uint8

const (
	LiteralString LiteralKind = iota + 1
	LiteralNumber
	LiteralBigInt
	LiteralBoolean
)

func shapeKey(v any) string {
	data, err := msgpack.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("types: encode shape key: %w", err))
	}
	return string(data)
}

func idsKey(ids []TypeID) string {
	buf := make([]byte, 0, 4*len(ids))
	for _, id := range ids {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	}
	return string(buf)
}

func tupleKey(elems []TupleElement) string {
	buf := make([]byte, 0, 9*len(elems))
	for _, el := range elems {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(el.Type))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(el.Name))
		var flags byte
		if el.Optional {
			flags |= 1
		}
		if el.Rest {
			flags |= 2
		}
		buf = append(buf, flags)
	}
	return string(buf)
}

func templateKey(spans []TemplateSpan) string {
	buf := make([]byte, 0, 8*len(spans))
	for _, sp := range spans {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(sp.Text))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(sp.Type))
	}
	return string(buf)
}
