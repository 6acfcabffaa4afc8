package subtype

import (
	"fmt"
	"strings"

	"tsolver/internal/types"
)

// ReasonKind classifies why a relation failed.
type ReasonKind uint8

const (
	TypeMismatch ReasonKind = iota
	MissingProperty
	PropertyTypeMismatch
	PropertyWriteTypeMismatch
	OptionalPropertyRequired
	ReadonlyPropertyMismatch
	PropertyVisibilityMismatch
	PropertyNominalMismatch
	ReturnTypeMismatch
	ParameterTypeMismatch
	TooManyParameters
	ThisTypeMismatch
	ConstructorMismatch
	NoCallSignatureMatches
	TupleArityMismatch
	TupleElementTypeMismatch
	ArrayElementMismatch
	ReadonlyToMutable
	IndexSignatureMismatch
	MissingIndexSignature
	NoUnionMemberMatches
	NoIntersectionMemberMatches
	IntersectionMemberMismatch
	IntrinsicTypeMismatch
	LiteralTypeMismatch
	EnumMismatch
	ErrorType
	RecursionLimitExceeded
	// reported by compatibility rules layered on top of the checker
	ExcessProperty
	WeakTypeNoCommonProperties
	PrivateBrandMismatch
)

var reasonNames = [...]string{
	TypeMismatch:                "type-mismatch",
	MissingProperty:             "missing-property",
	PropertyTypeMismatch:        "property-type-mismatch",
	PropertyWriteTypeMismatch:   "property-write-type-mismatch",
	OptionalPropertyRequired:    "optional-property-required",
	ReadonlyPropertyMismatch:    "readonly-property-mismatch",
	PropertyVisibilityMismatch:  "property-visibility-mismatch",
	PropertyNominalMismatch:     "property-nominal-mismatch",
	ReturnTypeMismatch:          "return-type-mismatch",
	ParameterTypeMismatch:       "parameter-type-mismatch",
	TooManyParameters:           "too-many-parameters",
	ThisTypeMismatch:            "this-type-mismatch",
	ConstructorMismatch:         "constructor-mismatch",
	NoCallSignatureMatches:      "no-call-signature-matches",
	TupleArityMismatch:          "tuple-arity-mismatch",
	TupleElementTypeMismatch:    "tuple-element-type-mismatch",
	ArrayElementMismatch:        "array-element-mismatch",
	ReadonlyToMutable:           "readonly-to-mutable",
	IndexSignatureMismatch:      "index-signature-mismatch",
	MissingIndexSignature:       "missing-index-signature",
	NoUnionMemberMatches:        "no-union-member-matches",
	NoIntersectionMemberMatches: "no-intersection-member-matches",
	IntersectionMemberMismatch:  "intersection-member-mismatch",
	IntrinsicTypeMismatch:       "intrinsic-type-mismatch",
	LiteralTypeMismatch:         "literal-type-mismatch",
	EnumMismatch:                "enum-mismatch",
	ErrorType:                   "error-type",
	RecursionLimitExceeded:      "recursion-limit-exceeded",
	ExcessProperty:              "excess-property",
	WeakTypeNoCommonProperties:  "weak-type-no-common-properties",
	PrivateBrandMismatch:        "private-brand-mismatch",
}

func (k ReasonKind) String() string {
	if int(k) < len(reasonNames) && reasonNames[k] != "" {
		return reasonNames[k]
	}
	return fmt.Sprintf("ReasonKind(%d)", k)
}

// ParseReasonKind maps a name produced by String back to its kind.
func ParseReasonKind(name string) (ReasonKind, bool) {
	for i, n := range reasonNames {
		if n == name {
			return ReasonKind(i), true
		}
	}
	return 0, false
}

// Reason is one node of a failure explanation. Cause holds the nested
// failure that made this step fail, if any.
type Reason struct {
	Kind     ReasonKind
	Source   types.TypeID
	Target   types.TypeID
	Name     string // property name
	Index    int    // parameter or element position
	Expected int    // arity expected by the target
	Actual   int    // arity offered by the source
	Cause    *Reason
}

// Leaf returns the innermost cause.
func (r *Reason) Leaf() *Reason {
	for r != nil && r.Cause != nil {
		r = r.Cause
	}
	return r
}

// Kinds lists the kinds from the outermost step to the leaf.
func (r *Reason) Kinds() []ReasonKind {
	var out []ReasonKind
	for ; r != nil; r = r.Cause {
		out = append(out, r.Kind)
	}
	return out
}

// Format renders the reason chain, one indented line per step.
func (r *Reason) Format(in *types.Interner) string {
	var sb strings.Builder
	for depth := 0; r != nil; depth++ {
		if depth > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(r.message(in))
		r = r.Cause
	}
	return sb.String()
}

func (r *Reason) message(in *types.Interner) string {
	src, dst := types.Label(in, r.Source), types.Label(in, r.Target)
	switch r.Kind {
	case MissingProperty:
		return fmt.Sprintf("property '%s' is missing in type '%s' but required in type '%s'", r.Name, src, dst)
	case PropertyTypeMismatch:
		return fmt.Sprintf("types of property '%s' are incompatible", r.Name)
	case PropertyWriteTypeMismatch:
		return fmt.Sprintf("property '%s' accepts '%s' for writes but the target may write '%s'", r.Name, src, dst)
	case OptionalPropertyRequired:
		return fmt.Sprintf("property '%s' is optional in type '%s' but required in type '%s'", r.Name, src, dst)
	case ReadonlyPropertyMismatch:
		return fmt.Sprintf("property '%s' is readonly in the source but writable in the target", r.Name)
	case PropertyVisibilityMismatch:
		return fmt.Sprintf("property '%s' has different visibility in '%s' and '%s'", r.Name, src, dst)
	case PropertyNominalMismatch:
		return fmt.Sprintf("types have separate declarations of private property '%s'", r.Name)
	case ReturnTypeMismatch:
		return "return types are incompatible"
	case ParameterTypeMismatch:
		return fmt.Sprintf("types of parameter %d are incompatible", r.Index)
	case TooManyParameters:
		return fmt.Sprintf("source requires %d parameters but target provides only %d", r.Actual, r.Expected)
	case ThisTypeMismatch:
		return "'this' types are incompatible"
	case ConstructorMismatch:
		return fmt.Sprintf("'%s' and '%s' differ in construct-ability", src, dst)
	case NoCallSignatureMatches:
		return fmt.Sprintf("no signature of '%s' matches a signature of '%s'", src, dst)
	case TupleArityMismatch:
		if r.Actual < 0 {
			return fmt.Sprintf("source has a variable number of elements but target allows %d", r.Expected)
		}
		return fmt.Sprintf("source has %d element(s) but target allows %d", r.Actual, r.Expected)
	case TupleElementTypeMismatch:
		return fmt.Sprintf("types of element %d are incompatible", r.Index)
	case ArrayElementMismatch:
		return "array element types are incompatible"
	case ReadonlyToMutable:
		return fmt.Sprintf("readonly type '%s' cannot be assigned to mutable type '%s'", src, dst)
	case IndexSignatureMismatch:
		return fmt.Sprintf("'%s' index signatures are incompatible", r.Name)
	case MissingIndexSignature:
		return fmt.Sprintf("index signature for type '%s' is missing in type '%s'", r.Name, src)
	case NoUnionMemberMatches:
		return fmt.Sprintf("type '%s' is not assignable to any member of '%s'", src, dst)
	case NoIntersectionMemberMatches:
		return fmt.Sprintf("no member of '%s' is assignable to '%s'", src, dst)
	case IntersectionMemberMismatch:
		return fmt.Sprintf("type '%s' is not assignable to intersection member '%s'", src, dst)
	case IntrinsicTypeMismatch, LiteralTypeMismatch, TypeMismatch:
		return fmt.Sprintf("type '%s' is not assignable to type '%s'", src, dst)
	case EnumMismatch:
		return fmt.Sprintf("enum type '%s' is not assignable to '%s'", src, dst)
	case ErrorType:
		return "error type only relates to itself"
	case RecursionLimitExceeded:
		return fmt.Sprintf("comparing '%s' to '%s' is excessively deep", src, dst)
	case ExcessProperty:
		return fmt.Sprintf("object literal may only specify known properties, and '%s' does not exist in type '%s'", r.Name, dst)
	case WeakTypeNoCommonProperties:
		return fmt.Sprintf("type '%s' has no properties in common with type '%s'", src, dst)
	case PrivateBrandMismatch:
		return fmt.Sprintf("'%s' and '%s' have separate declarations of a private member", src, dst)
	}
	return r.Kind.String()
}
