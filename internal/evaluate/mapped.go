package evaluate

import (
	"slices"
	"strconv"

	"tsolver/internal/types"
)

// EvaluateMapped reduces `{ [P in K as N]: T }`.
func (e *Evaluator) EvaluateMapped(m types.MappedType) types.TypeID {
	return e.Evaluate(e.in.Mapped(m))
}

// mapped builds the object a mapped type stands for. A constraint of the
// form `keyof X` makes the mapping homomorphic: modifiers of X's properties
// are kept, arrays and tuples map to arrays and tuples, and unions of X
// distribute.
func (e *Evaluator) mapped(id types.TypeID, m types.MappedType) types.TypeID {
	in := e.in
	if in.KindOf(m.Constraint) == types.KindKeyOf {
		source := e.Evaluate(in.MustLookup(m.Constraint).Elem)
		switch in.KindOf(source) {
		case types.KindTypeParam, types.KindInfer:
			return id
		case types.KindUnion:
			members := in.Members(source)
			out := make([]types.TypeID, len(members))
			for i, s := range members {
				next := m
				next.Constraint = in.KeyOf(s)
				out[i] = e.Evaluate(in.Mapped(next))
			}
			return in.UnionOf(out)
		}
		if m.NameType == types.NoTypeID {
			if r, ok := e.mappedArrayLike(m, source, false); ok {
				return r
			}
		}
		return e.mappedKeys(id, m, e.keyOf(source), source)
	}
	return e.mappedKeys(id, m, e.Evaluate(m.Constraint), types.NoTypeID)
}

// mappedArrayLike maps arrays and tuples element-wise.
func (e *Evaluator) mappedArrayLike(m types.MappedType, source types.TypeID, readonly bool) (types.TypeID, bool) {
	in := e.in
	switch in.KindOf(source) {
	case types.KindReadonly:
		return e.mappedArrayLike(m, in.MustLookup(source).Elem, true)
	case types.KindArray:
		elem := e.mapValue(m, types.TypeNumber)
		return e.applyReadonly(m, in.Array(elem), readonly), true
	case types.KindTuple:
		elems, _ := in.TupleElements(source)
		out := make([]types.TupleElement, len(elems))
		for i, el := range elems {
			next := el
			if el.Rest {
				next.Type = in.Array(e.mapValue(m, types.TypeNumber))
			} else {
				next.Type = e.mapValue(m, in.StringLiteral(strconv.Itoa(i)))
				next.Optional = modified(m.Optional, el.Optional)
				if m.Optional == types.ModifierRemove && el.Optional {
					next.Type = removeUndefined(in, next.Type)
				}
			}
			out[i] = next
		}
		return e.applyReadonly(m, in.Tuple(out), readonly), true
	}
	return types.NoTypeID, false
}

func (e *Evaluator) applyReadonly(m types.MappedType, t types.TypeID, readonly bool) types.TypeID {
	if modified(m.Readonly, readonly) {
		return e.in.Readonly(t)
	}
	return t
}

func modified(mod types.MappedModifier, current bool) bool {
	switch mod {
	case types.ModifierAdd:
		return true
	case types.ModifierRemove:
		return false
	}
	return current
}

func removeUndefined(in *types.Interner, t types.TypeID) types.TypeID {
	return in.RemoveFromUnion(t, func(m types.TypeID) bool { return m == types.TypeUndefined })
}

// mapValue instantiates the template for one key and evaluates it.
func (e *Evaluator) mapValue(m types.MappedType, key types.TypeID) types.TypeID {
	return e.Evaluate(e.Instantiate(m.Template, Substitution{m.Param: key}))
}

// mappedKeys iterates a key union. String and number keys become index
// signatures; keys whose remapped name is never are dropped.
func (e *Evaluator) mappedKeys(id types.TypeID, m types.MappedType, keys, source types.TypeID) types.TypeID {
	in := e.in
	if e.deferred(keys) {
		return id
	}
	var sourceProps []types.Property
	if source != types.NoTypeID {
		sourceProps, _, _, _ = e.objectMembers(e.Evaluate(source))
	}
	// keyof a string index yields string | number; the number half adds
	// nothing when mapping homomorphically
	skipNumber := source != types.NoTypeID && slices.Contains(in.UnionMembers(keys), types.TypeString)
	var shape types.ObjectShape
	for _, key := range in.UnionMembers(keys) {
		names := []types.TypeID{key}
		if m.NameType != types.NoTypeID {
			names = in.UnionMembers(e.Evaluate(e.Instantiate(m.NameType, Substitution{m.Param: key})))
		}
		value := e.mapValue(m, key)
		for _, name := range names {
			switch name {
			case types.TypeNever:
				continue
			case types.TypeString:
				shape.StringIndex = &types.IndexSignature{Key: types.TypeString, Value: value, Readonly: m.Readonly == types.ModifierAdd}
				continue
			case types.TypeNumber:
				if skipNumber {
					continue
				}
				shape.NumberIndex = &types.IndexSignature{Key: types.TypeNumber, Value: value, Readonly: m.Readonly == types.ModifierAdd}
				continue
			}
			text, ok := propertyName(in, name)
			if !ok {
				continue
			}
			prop := types.Property{Name: in.Atom(text), Type: value}
			if src, found := in.FindProperty(sourceProps, prop.Name); found && source != types.NoTypeID {
				prop.Optional = src.Optional
				prop.Readonly = src.Readonly
			}
			if m.Optional == types.ModifierRemove && prop.Optional {
				prop.Type = removeUndefined(in, prop.Type)
			}
			prop.Optional = modified(m.Optional, prop.Optional)
			prop.Readonly = modified(m.Readonly, prop.Readonly)
			shape.Props = append(shape.Props, prop)
		}
	}
	return in.Object(shape)
}

// propertyName returns the property name a literal key stands for.
func propertyName(in *types.Interner, key types.TypeID) (string, bool) {
	lit, ok := in.LiteralValue(key)
	if !ok {
		return "", false
	}
	switch lit.Kind {
	case types.LiteralString:
		return lit.Str, true
	case types.LiteralNumber:
		return types.FormatNumber(lit.Num), true
	}
	return "", false
}
