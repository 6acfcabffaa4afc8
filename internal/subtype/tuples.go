package subtype

import "tsolver/internal/types"

func restIndex(elems []types.TupleElement) int {
	for i, el := range elems {
		if el.Rest {
			return i
		}
	}
	return -1
}

func requiredElements(elems []types.TupleElement) int {
	n := 0
	for _, el := range elems {
		if !el.Optional && !el.Rest {
			n++
		}
	}
	return n
}

func (c *Checker) elementType(el types.TupleElement) types.TypeID {
	if el.Optional && c.opts.StrictNullChecks && !c.opts.ExactOptionalPropertyTypes {
		return c.in.Union(el.Type, types.TypeUndefined)
	}
	return el.Type
}

func (c *Checker) element(s, t types.TypeID, i int) Ternary {
	r := c.Relate(s, t)
	if r == False {
		return c.wrap(Reason{Kind: TupleElementTypeMismatch, Source: s, Target: t, Index: i})
	}
	return r
}

func (c *Checker) tupleToTuple(s types.TypeID, se []types.TupleElement, t types.TypeID, te []types.TupleElement) Ternary {
	arity := func(actual int) Ternary {
		return c.Fail(Reason{Kind: TupleArityMismatch, Source: s, Target: t, Expected: len(te), Actual: actual})
	}
	sRest, tRest := restIndex(se), restIndex(te)
	res := True
	if tRest < 0 {
		if sRest >= 0 {
			return arity(-1)
		}
		if len(se) > len(te) || len(se) < requiredElements(te) {
			return arity(len(se))
		}
		for i, el := range se {
			if el.Optional && !te[i].Optional {
				return arity(len(se))
			}
			r := c.element(c.elementType(el), c.elementType(te[i]), i)
			if r == False {
				return r
			}
			res = and(res, r)
		}
		return res
	}

	prefix, suffix := tRest, len(te)-tRest-1
	restElem := c.restElement(te[tRest].Type)
	if sRest < 0 {
		if requiredElements(se) < requiredElements(te) || len(se) < prefix+suffix {
			return arity(len(se))
		}
		for i, el := range se {
			target := restElem
			switch {
			case i < prefix:
				target = c.elementType(te[i])
			case i >= len(se)-suffix:
				target = te[len(te)-(len(se)-i)].Type
			}
			r := c.element(c.elementType(el), target, i)
			if r == False {
				return r
			}
			res = and(res, r)
		}
		return res
	}

	// both variadic: the source must fix at least the target's prefix and suffix
	if sRest < prefix || len(se)-sRest-1 < suffix {
		return arity(-1)
	}
	for i, el := range se {
		var r Ternary
		switch {
		case i < prefix:
			r = c.element(c.elementType(el), c.elementType(te[i]), i)
		case i >= len(se)-suffix:
			r = c.element(el.Type, te[len(te)-(len(se)-i)].Type, i)
		case el.Rest:
			r = c.element(c.in.Array(c.restElement(el.Type)), c.in.Array(restElem), i)
		default:
			r = c.element(c.elementType(el), restElem, i)
		}
		if r == False {
			return r
		}
		res = and(res, r)
	}
	return res
}

func (c *Checker) tupleToArray(s types.TypeID, se []types.TupleElement, t, elem types.TypeID) Ternary {
	res := True
	for _, el := range se {
		source := c.elementType(el)
		if el.Rest {
			source = c.restElement(el.Type)
		}
		r := c.Relate(source, elem)
		if r == False {
			return c.wrap(Reason{Kind: ArrayElementMismatch, Source: s, Target: t})
		}
		res = and(res, r)
	}
	return res
}

// arrayToTuple accepts an array only where the tuple is a bare rest of an
// array type.
func (c *Checker) arrayToTuple(s types.TypeID, t types.TypeID, te []types.TupleElement) Ternary {
	if len(te) == 1 && te[0].Rest {
		return c.Relate(s, te[0].Type)
	}
	return c.Fail(Reason{Kind: TupleArityMismatch, Source: s, Target: t, Expected: len(te), Actual: -1})
}
