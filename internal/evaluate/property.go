package evaluate

import (
	"fmt"
	"strconv"

	"tsolver/internal/guard"
	"tsolver/internal/types"
)

// AccessStatus classifies the outcome of a property access.
type AccessStatus uint8

const (
	// Found means Type holds the type read.
	Found AccessStatus = iota
	// NotFound means no member of that name exists.
	NotFound
	// PossiblyNullish means the object may be null or undefined; Type holds
	// the type read from the non-nullish part, if any, and Nullish the
	// offending members.
	PossiblyNullish
	// IsUnknown means the object is unknown (or an unconstrained parameter).
	IsUnknown
	// IsAny means the object is any; the read is any.
	IsAny
	// IsError means the object is the error type or could not be resolved.
	IsError
)

func (s AccessStatus) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not-found"
	case PossiblyNullish:
		return "possibly-nullish"
	case IsUnknown:
		return "unknown"
	case IsAny:
		return "any"
	case IsError:
		return "error"
	default:
		return fmt.Sprintf("AccessStatus(%d)", s)
	}
}

// ParseAccessStatus maps a name produced by String back to its status.
func ParseAccessStatus(name string) (AccessStatus, bool) {
	for s := Found; s <= IsError; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// PropertyAccessResult describes reading `object.name`.
type PropertyAccessResult struct {
	Status             AccessStatus
	Type               types.TypeID
	WriteType          types.TypeID
	Nullish            types.TypeID
	Readonly           bool
	Optional           bool
	FromIndexSignature bool
}

// ResolvePropertyAccess resolves `object.name` through references, unions,
// intersections, wrappers, type parameter constraints and index
// signatures. With NoUncheckedIndexedAccess reads through an index
// signature include undefined.
func (e *Evaluator) ResolvePropertyAccess(object types.TypeID, name string) PropertyAccessResult {
	return e.lookup(object, name, e.opts.NoUncheckedIndexedAccess)
}

func (e *Evaluator) lookup(object types.TypeID, name string, unchecked bool) PropertyAccessResult {
	a := &accessor{e: e, name: name, unchecked: unchecked, guard: guard.New[types.TypeID](guard.PropertyAccess)}
	return a.resolve(object)
}

type accessor struct {
	e         *Evaluator
	name      string
	unchecked bool
	guard     *guard.Guard[types.TypeID]
}

func (a *accessor) resolve(object types.TypeID) PropertyAccessResult {
	if a.guard.Enter(object) != guard.Entered {
		return PropertyAccessResult{Status: IsError, Type: types.TypeError}
	}
	defer a.guard.Leave(object)

	e, in := a.e, a.e.in
	t := e.Evaluate(object)
	switch t {
	case types.TypeAny:
		return PropertyAccessResult{Status: IsAny, Type: types.TypeAny, WriteType: types.TypeAny}
	case types.TypeError:
		return PropertyAccessResult{Status: IsError, Type: types.TypeError}
	case types.TypeUnknown:
		return PropertyAccessResult{Status: IsUnknown, Type: types.TypeUnknown}
	case types.TypeNever:
		return PropertyAccessResult{Status: Found, Type: types.TypeNever, WriteType: types.TypeNever}
	case types.TypeNull, types.TypeUndefined, types.TypeVoid:
		return PropertyAccessResult{Status: PossiblyNullish, Nullish: t}
	case types.TypeString:
		if a.name == "length" {
			return PropertyAccessResult{Status: Found, Type: types.TypeNumber, Readonly: true}
		}
		if _, ok := types.ParseNumericString(a.name); ok {
			return PropertyAccessResult{Status: Found, Type: a.read(types.TypeString), Readonly: true, FromIndexSignature: true}
		}
		return PropertyAccessResult{Status: NotFound}
	}

	tt, _ := in.Lookup(t)
	switch tt.Kind {
	case types.KindUnion:
		return a.union(in.Members(t))
	case types.KindIntersection:
		return a.intersection(in.Members(t))
	case types.KindObject, types.KindObjectWithIndex, types.KindCallable, types.KindFunction:
		return a.object(t)
	case types.KindArray:
		return a.array(tt.Elem)
	case types.KindTuple:
		elems, _ := in.TupleElements(t)
		return a.tuple(elems)
	case types.KindReadonly:
		r := a.resolve(tt.Elem)
		if r.Status == Found {
			r.Readonly = true
		}
		return r
	case types.KindTypeParam, types.KindInfer:
		info, _ := in.TypeParamInfo(t)
		if info.Constraint == types.NoTypeID {
			return PropertyAccessResult{Status: IsUnknown, Type: types.TypeUnknown}
		}
		return a.resolve(info.Constraint)
	case types.KindLiteral, types.KindTemplateLiteral, types.KindStringIntrinsic, types.KindUniqueSymbol:
		if base := in.PrimitiveBase(t); base != t {
			return a.resolve(base)
		}
	case types.KindEnum:
		return a.resolve(tt.Elem)
	}
	return PropertyAccessResult{Status: NotFound}
}

func (a *accessor) read(t types.TypeID) types.TypeID {
	return a.e.indexRead(t, a.unchecked)
}

// union requires the member on every non-nullish member. Nullish members
// turn a successful read into PossiblyNullish.
func (a *accessor) union(members []types.TypeID) PropertyAccessResult {
	in := a.e.in
	var nullish, reads, writes []types.TypeID
	out := PropertyAccessResult{Status: Found}
	for _, m := range members {
		r := a.resolve(m)
		switch r.Status {
		case PossiblyNullish:
			if r.Nullish != types.NoTypeID {
				nullish = append(nullish, r.Nullish)
			}
			if r.Type == types.NoTypeID {
				continue
			}
		case Found:
		case IsAny, IsError, NotFound, IsUnknown:
			return r
		}
		reads = append(reads, r.Type)
		writes = append(writes, r.WriteType)
		out.Readonly = out.Readonly || r.Readonly
		out.Optional = out.Optional || r.Optional
		out.FromIndexSignature = out.FromIndexSignature || r.FromIndexSignature
	}
	if len(reads) > 0 {
		out.Type = in.UnionOf(reads)
		out.WriteType = in.IntersectionOf(writes)
	}
	if len(nullish) > 0 {
		out.Status = PossiblyNullish
		out.Nullish = in.UnionOf(nullish)
	}
	return out
}

// intersection reads from every member that has the property.
func (a *accessor) intersection(members []types.TypeID) PropertyAccessResult {
	in := a.e.in
	var reads, writes []types.TypeID
	out := PropertyAccessResult{Status: Found, Optional: true}
	for _, m := range members {
		r := a.resolve(m)
		switch r.Status {
		case Found:
		case IsAny:
			return r
		default:
			continue
		}
		reads = append(reads, r.Type)
		writes = append(writes, r.WriteType)
		out.Readonly = out.Readonly || r.Readonly
		out.Optional = out.Optional && r.Optional
		out.FromIndexSignature = r.FromIndexSignature
	}
	if len(reads) == 0 {
		return PropertyAccessResult{Status: NotFound}
	}
	out.Type = in.IntersectionOf(reads)
	out.WriteType = in.IntersectionOf(writes)
	return out
}

func (a *accessor) object(t types.TypeID) PropertyAccessResult {
	e, in := a.e, a.e.in
	props, str, num, _ := e.objectMembers(t)
	if p, ok := in.FindProperty(props, in.Atom(a.name)); ok {
		read := p.Type
		if p.Optional {
			read = in.Union(read, types.TypeUndefined)
		}
		return PropertyAccessResult{
			Status:    Found,
			Type:      read,
			WriteType: p.WriteType(),
			Readonly:  p.Readonly,
			Optional:  p.Optional,
		}
	}
	if len(in.Signatures(t, false)) > 0 || len(in.Signatures(t, true)) > 0 {
		// members of the global Function interface are not modelled
		if a.name == "length" {
			return PropertyAccessResult{Status: Found, Type: types.TypeNumber, Readonly: true}
		}
	}
	sig := str
	if _, numeric := types.ParseNumericString(a.name); numeric && num != nil {
		sig = num
	}
	if sig == nil {
		return PropertyAccessResult{Status: NotFound}
	}
	return PropertyAccessResult{
		Status:             Found,
		Type:               a.read(sig.Value),
		WriteType:          sig.Value,
		Readonly:           sig.Readonly,
		FromIndexSignature: true,
	}
}

func (a *accessor) array(elem types.TypeID) PropertyAccessResult {
	if a.name == "length" {
		return PropertyAccessResult{Status: Found, Type: types.TypeNumber, WriteType: types.TypeNumber}
	}
	if _, ok := types.ParseNumericString(a.name); ok {
		return PropertyAccessResult{Status: Found, Type: a.read(elem), WriteType: elem, FromIndexSignature: true}
	}
	return PropertyAccessResult{Status: NotFound}
}

func (a *accessor) tuple(elems []types.TupleElement) PropertyAccessResult {
	in := a.e.in
	fixed := true
	for _, el := range elems {
		if el.Rest || el.Optional {
			fixed = false
		}
	}
	if a.name == "length" {
		length := types.TypeNumber
		if fixed {
			length = in.NumberLiteral(float64(len(elems)))
		}
		return PropertyAccessResult{Status: Found, Type: length, Readonly: true}
	}
	i, err := strconv.Atoi(a.name)
	if err != nil || i < 0 || strconv.Itoa(i) != a.name {
		return PropertyAccessResult{Status: NotFound}
	}
	if i < len(elems) && !elems[i].Rest {
		el := elems[i]
		read := el.Type
		if el.Optional {
			read = in.Union(read, types.TypeUndefined)
		}
		return PropertyAccessResult{Status: Found, Type: read, WriteType: el.Type, Optional: el.Optional}
	}
	for _, el := range elems {
		if el.Rest {
			elem := a.e.restElement(el.Type)
			return PropertyAccessResult{Status: Found, Type: a.read(elem), WriteType: elem, FromIndexSignature: true}
		}
	}
	return PropertyAccessResult{Status: NotFound}
}
