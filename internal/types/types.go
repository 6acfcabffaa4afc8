package types

import "fmt"

// TypeID uniquely identifies a type inside the interner. Two handles are equal
// exactly when the structural descriptors they name are equal.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Fixed handles for intrinsic types. NewInterner seeds them in this order.
const (
	TypeError TypeID = iota + 1
	TypeNever
	TypeUnknown
	TypeAny
	TypeVoid
	TypeUndefined
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeBigInt
	TypeSymbol
	TypeObject
	TypeTrue
	TypeFalse
	TypeFunction

	firstUserType
)

// Kind enumerates all descriptor shapes.
type Kind uint8

const (
	KindInvalid Kind = iota
	// intrinsics
	KindError
	KindNever
	KindUnknown
	KindAny
	KindVoid
	KindUndefined
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindBigInt
	KindSymbol
	KindNonPrimitive // the `object` keyword
	KindGlobalFunction
	// structural
	KindLiteral
	KindArray
	KindTuple
	KindObject
	KindObjectWithIndex
	KindFunction
	KindCallable
	KindUnion
	KindIntersection
	// meta types
	KindConditional
	KindMapped
	KindLazy
	KindApplication
	KindTemplateLiteral
	KindTypeParam
	KindInfer
	KindIndexAccess
	KindKeyOf
	KindReadonly
	KindUniqueSymbol
	KindEnum
	KindStringIntrinsic

	kindCount
)

// KindCount is the number of descriptor kinds, KindInvalid included.
const KindCount = int(kindCount)

var kindNames = [...]string{
	KindInvalid:         "invalid",
	KindError:           "error",
	KindNever:           "never",
	KindUnknown:         "unknown",
	KindAny:             "any",
	KindVoid:            "void",
	KindUndefined:       "undefined",
	KindNull:            "null",
	KindBoolean:         "boolean",
	KindNumber:          "number",
	KindString:          "string",
	KindBigInt:          "bigint",
	KindSymbol:          "symbol",
	KindNonPrimitive:    "object",
	KindGlobalFunction:  "Function",
	KindLiteral:         "literal",
	KindArray:           "array",
	KindTuple:           "tuple",
	KindObject:          "object-shape",
	KindObjectWithIndex: "object-with-index",
	KindFunction:        "function",
	KindCallable:        "callable",
	KindUnion:           "union",
	KindIntersection:    "intersection",
	KindConditional:     "conditional",
	KindMapped:          "mapped",
	KindLazy:            "lazy",
	KindApplication:     "application",
	KindTemplateLiteral: "template-literal",
	KindTypeParam:       "type-parameter",
	KindInfer:           "infer",
	KindIndexAccess:     "indexed-access",
	KindKeyOf:           "keyof",
	KindReadonly:        "readonly",
	KindUniqueSymbol:    "unique-symbol",
	KindEnum:            "enum",
	KindStringIntrinsic: "string-intrinsic",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsIntrinsic reports whether k is one of the fixed intrinsic kinds.
func (k Kind) IsIntrinsic() bool {
	return k >= KindError && k <= KindGlobalFunction
}

// IsMeta reports whether k needs evaluation before structural comparison.
func (k Kind) IsMeta() bool {
	switch k {
	case KindConditional, KindMapped, KindLazy, KindApplication, KindIndexAccess,
		KindKeyOf, KindStringIntrinsic:
		return true
	}
	return false
}

// Flags carries per-descriptor bits that participate in identity.
type Flags uint8

const (
	// FlagFresh marks an object literal type that has not been widened yet.
	FlagFresh Flags = 1 << iota
)

// Type is a compact descriptor for any supported type. Composite payloads
// (lists, shapes, literals) live in side tables addressed by Payload.
type Type struct {
	Kind    Kind
	Flags   Flags
	Elem    TypeID // array element, readonly/keyof operand, indexed object, enum value, intrinsic argument
	Index   TypeID // indexed-access index
	Payload uint32 // side-table slot (shape, list, literal, declaration, ...)
}

// StringIntrinsicKind selects one of the built-in string mapping types.
type StringIntrinsicKind uint8

const (
	IntrinsicUppercase StringIntrinsicKind = iota + 1
	IntrinsicLowercase
	IntrinsicCapitalize
	IntrinsicUncapitalize
)

func (k StringIntrinsicKind) String() string {
	switch k {
	case IntrinsicUppercase:
		return "Uppercase"
	case IntrinsicLowercase:
		return "Lowercase"
	case IntrinsicCapitalize:
		return "Capitalize"
	case IntrinsicUncapitalize:
		return "Uncapitalize"
	default:
		return fmt.Sprintf("StringIntrinsic(%d)", k)
	}
}

// ParseStringIntrinsic maps a name such as "Uppercase" to its kind.
func ParseStringIntrinsic(name string) (StringIntrinsicKind, bool) {
	switch name {
	case "Uppercase":
		return IntrinsicUppercase, true
	case "Lowercase":
		return IntrinsicLowercase, true
	case "Capitalize":
		return IntrinsicCapitalize, true
	case "Uncapitalize":
		return IntrinsicUncapitalize, true
	}
	return 0, false
}
