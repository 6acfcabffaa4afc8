package compat

import (
	"tsolver/internal/subtype"
	"tsolver/internal/types"
)

// enumRule rejects unions carrying members of a foreign enum and, under
// RuleEnumNumber, admits numbers into non-const numeric enums.
func (c *Checker) enumRule(j *subtype.Checker, s, t types.TypeID) (subtype.Ternary, bool) {
	target, ok := c.in.EnumParent(t)
	if !ok {
		return subtype.False, false
	}
	if c.in.KindOf(s) == types.KindUnion {
		for _, m := range c.in.Members(s) {
			if p, ok := c.in.EnumParent(m); ok && p != target {
				return j.Fail(subtype.Reason{Kind: subtype.EnumMismatch, Source: m, Target: t}), true
			}
		}
		return subtype.False, false
	}
	if _, ok := c.in.EnumParent(s); ok || !c.has(RuleEnumNumber) {
		return subtype.False, false
	}
	if c.in.PrimitiveBase(s) != types.TypeNumber {
		return subtype.False, false
	}
	if info, ok := c.in.DeclInfo(target); ok && info.Const {
		return subtype.False, false
	}
	if !c.isNumericEnum(t) {
		return subtype.False, false
	}
	return subtype.True, true
}

func (c *Checker) isNumericEnum(t types.TypeID) bool {
	tt, ok := c.in.Lookup(t)
	if !ok || tt.Elem == types.NoTypeID {
		return false
	}
	for _, m := range c.in.UnionMembers(tt.Elem) {
		if c.in.PrimitiveBase(m) != types.TypeNumber {
			return false
		}
	}
	return true
}

// weakProps returns the properties of a weak view: at least one property,
// all optional, and neither index nor call signatures.
func weakProps(v *subtype.Apparent) ([]types.Property, bool) {
	if len(v.Props) == 0 || v.StringIndex != nil || v.NumberIndex != nil || len(v.Calls) > 0 || len(v.Constructs) > 0 {
		return nil, false
	}
	for _, p := range v.Props {
		if !p.Optional {
			return nil, false
		}
	}
	return v.Props, true
}

func (c *Checker) hasCommonProperty(source, target []types.Property) bool {
	for _, p := range source {
		if _, ok := c.in.FindProperty(target, p.Name); ok {
			return true
		}
	}
	return false
}

func (c *Checker) violatesWeakType(j *subtype.Checker, s, t types.TypeID) bool {
	if c.in.KindOf(t) == types.KindUnion {
		return false
	}
	tv, ok := j.Apparent(t)
	if !ok {
		return false
	}
	props, weak := weakProps(tv)
	return weak && c.lacksCommonProperty(j, s, [][]types.Property{props})
}

// violatesWeakUnion applies the weak-type rule to a union target whose
// object members are weak or required-property shapes.
func (c *Checker) violatesWeakUnion(j *subtype.Checker, s, t types.TypeID) bool {
	if c.in.KindOf(t) != types.KindUnion {
		return false
	}
	var sets [][]types.Property
	hasWeak := false
	for _, m := range c.in.Members(t) {
		v, ok := j.Apparent(m)
		if !ok {
			continue
		}
		if len(v.Props) == 0 || v.StringIndex != nil || v.NumberIndex != nil {
			return false
		}
		if _, weak := weakProps(v); weak {
			hasWeak = true
		}
		sets = append(sets, v.Props)
	}
	return hasWeak && c.lacksCommonProperty(j, s, sets)
}

// lacksCommonProperty reports whether an object source shares no property
// with any of the target property sets. Empty objects, primitives and
// indexable sources never violate.
func (c *Checker) lacksCommonProperty(j *subtype.Checker, s types.TypeID, targets [][]types.Property) bool {
	switch c.in.KindOf(s) {
	case types.KindUnion:
		for _, m := range c.in.Members(s) {
			if !c.lacksCommonProperty(j, m, targets) {
				return false
			}
		}
		return true
	case types.KindTypeParam, types.KindInfer:
		info, _ := c.in.TypeParamInfo(s)
		return info.Constraint != types.NoTypeID && c.lacksCommonProperty(j, info.Constraint, targets)
	}
	sv, ok := j.Apparent(s)
	if !ok || len(sv.Props) == 0 || sv.StringIndex != nil || sv.NumberIndex != nil {
		return false
	}
	for _, props := range targets {
		if c.hasCommonProperty(sv.Props, props) {
			return false
		}
	}
	return true
}

// knownProperties is the set of names a target accepts from an object
// literal.
type knownProperties struct {
	names   map[types.Atom]bool
	objects int
	open    bool
	numeric bool
}

func (k *knownProperties) accepts(in *types.Interner, name types.Atom) bool {
	if k.open || k.names[name] {
		return true
	}
	if k.numeric {
		_, ok := types.ParseNumericString(in.AtomString(name))
		return ok
	}
	return false
}

func (c *Checker) collectKnown(j *subtype.Checker, t types.TypeID, k *knownProperties) {
	kind := c.in.KindOf(t)
	switch {
	case kind == types.KindUnion:
		for _, m := range c.in.Members(t) {
			c.collectKnown(j, m, k)
		}
		return
	case t == types.TypeObject, t == types.TypeFunction, t == types.TypeUnknown, t == types.TypeAny:
		k.open = true
		return
	case kind.IsIntrinsic(), kind == types.KindLiteral, kind == types.KindTemplateLiteral,
		kind == types.KindEnum, kind == types.KindUniqueSymbol:
		// primitive members accept no object literal
		return
	}
	v, ok := j.Apparent(t)
	if !ok || v.StringIndex != nil || (len(v.Props) == 0 && v.NumberIndex == nil && v.Nominal == types.NoDeclID) {
		k.open = true
		return
	}
	k.objects++
	if v.NumberIndex != nil {
		k.numeric = true
	}
	for _, p := range v.Props {
		k.names[p.Name] = true
	}
}

// excessProperty returns the first property of a fresh object literal that
// the target does not declare.
func (c *Checker) excessProperty(j *subtype.Checker, s, t types.TypeID) (string, bool) {
	sv, ok := j.Apparent(s)
	if !ok {
		return "", false
	}
	known := &knownProperties{names: make(map[types.Atom]bool)}
	c.collectKnown(j, t, known)
	if known.objects == 0 && !known.open {
		return "", false
	}
	for _, p := range sv.Props {
		if !known.accepts(c.in, p.Name) {
			return c.in.AtomString(p.Name), true
		}
	}
	return "", false
}

// privateBrands requires private and protected target members to come from
// the same declaration in the source, and keeps non-public source members
// from satisfying public ones. It decides only failures.
func (c *Checker) privateBrands(j *subtype.Checker, s, t types.TypeID) (subtype.Ternary, bool) {
	switch c.in.KindOf(s) {
	case types.KindUnion, types.KindIntersection:
		return subtype.False, false
	}
	switch c.in.KindOf(t) {
	case types.KindUnion, types.KindIntersection:
		return subtype.False, false
	}
	tv, ok := j.Apparent(t)
	if !ok {
		return subtype.False, false
	}
	sv, ok := j.Apparent(s)
	if !ok {
		return subtype.False, false
	}
	for _, tp := range tv.Props {
		if tp.Visibility == types.Public {
			continue
		}
		name := c.in.AtomString(tp.Name)
		sp, found := c.in.FindProperty(sv.Props, tp.Name)
		if found && sp.Parent == tp.Parent {
			continue
		}
		r := subtype.Reason{Kind: subtype.PrivateBrandMismatch, Source: s, Target: t, Name: name}
		if found {
			r.Cause = &subtype.Reason{Kind: subtype.PropertyNominalMismatch, Source: s, Target: t, Name: name}
		}
		return j.Fail(r), true
	}
	for _, sp := range sv.Props {
		if sp.Visibility == types.Public {
			continue
		}
		if tp, found := c.in.FindProperty(tv.Props, sp.Name); found && tp.Visibility == types.Public {
			return j.Fail(subtype.Reason{Kind: subtype.PrivateBrandMismatch, Source: s, Target: t, Name: c.in.AtomString(sp.Name)}), true
		}
	}
	return subtype.False, false
}

func (c *Checker) isEmptyObject(t types.TypeID) bool {
	if c.in.KindOf(t) != types.KindObject {
		return false
	}
	shape, _ := c.in.ObjectShape(t)
	return len(shape.Props) == 0 && shape.Nominal == types.NoDeclID
}

func (c *Checker) assignableToEmptyObject(s types.TypeID) bool {
	switch s {
	case types.TypeAny, types.TypeNever:
		return true
	case types.TypeError:
		return false
	case types.TypeNull, types.TypeUndefined:
		return !c.cfg.StrictNullChecks
	case types.TypeUnknown, types.TypeVoid:
		return false
	}
	switch c.in.KindOf(s) {
	case types.KindUnion:
		for _, m := range c.in.Members(s) {
			if !c.assignableToEmptyObject(m) {
				return false
			}
		}
		return true
	case types.KindIntersection:
		for _, m := range c.in.Members(s) {
			if c.assignableToEmptyObject(m) {
				return true
			}
		}
		return false
	case types.KindTypeParam, types.KindInfer:
		info, _ := c.in.TypeParamInfo(s)
		return info.Constraint != types.NoTypeID && c.assignableToEmptyObject(info.Constraint)
	}
	return true
}
