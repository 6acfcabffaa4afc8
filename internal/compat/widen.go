package compat

import "tsolver/internal/types"

// Widen returns the type a mutable binding initialised with t receives:
// literals become their primitive, unique symbols become symbol, and fresh
// object literals lose freshness with their properties widened. Without
// strict null checks null and undefined widen to any. With
// RuleLiteralWidening off t is returned unchanged.
func (c *Checker) Widen(t types.TypeID) types.TypeID {
	if !c.has(RuleLiteralWidening) {
		return t
	}
	return c.widen(t)
}

func (c *Checker) widen(t types.TypeID) types.TypeID {
	switch t {
	case types.TypeNull, types.TypeUndefined:
		if !c.cfg.StrictNullChecks {
			return types.TypeAny
		}
		return t
	}
	switch c.in.KindOf(t) {
	case types.KindLiteral, types.KindUniqueSymbol:
		return c.in.PrimitiveBase(t)
	case types.KindUnion:
		members := c.in.Members(t)
		widened := make([]types.TypeID, len(members))
		for i, m := range members {
			widened[i] = c.widen(m)
		}
		return c.in.UnionOf(widened)
	case types.KindObject, types.KindObjectWithIndex:
		if c.in.IsFresh(t) {
			return c.widenObject(t)
		}
	}
	return t
}

func (c *Checker) widenObject(t types.TypeID) types.TypeID {
	shape, _ := c.in.ObjectShape(t)
	next := *shape
	next.Props = make([]types.Property, len(shape.Props))
	for i, p := range shape.Props {
		if !p.Readonly {
			p.Type = c.widen(p.Type)
			p.Write = types.NoTypeID
		}
		next.Props[i] = p
	}
	return c.in.Object(next)
}

// WidenForBinding returns the declared type of a binding without an
// annotation. Const bindings keep literal types; object literal properties
// are widened either way.
func (c *Checker) WidenForBinding(init types.TypeID, isConst bool) types.TypeID {
	if !c.has(RuleLiteralWidening) {
		return init
	}
	if isConst {
		if c.in.IsFresh(init) {
			return c.widenObject(init)
		}
		return init
	}
	return c.widen(init)
}

// Fresh marks an object type as a fresh object literal.
func (c *Checker) Fresh(t types.TypeID) types.TypeID {
	shape, ok := c.in.ObjectShape(t)
	if !ok {
		return t
	}
	return c.in.FreshObject(*shape)
}

// Regular drops freshness.
func (c *Checker) Regular(t types.TypeID) types.TypeID { return c.in.Regular(t) }
