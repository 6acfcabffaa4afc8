package subtype

import "tsolver/internal/types"

// signatures requires every target signature to be matched by some source
// signature.
func (c *Checker) signatures(s types.TypeID, source []types.FunctionShape, t types.TypeID, target []types.FunctionShape) Ternary {
	if len(source) == 0 {
		return c.fail(NoCallSignatureMatches, s, t)
	}
	res := True
	for i := range target {
		best := False
		for j := range source {
			best = or(best, c.signature(&source[j], &target[i]))
			if best == True {
				break
			}
		}
		if best == False {
			if len(source) == 1 && len(target) == 1 {
				return False
			}
			return c.fail(NoCallSignatureMatches, s, t)
		}
		res = and(res, best)
	}
	return res
}

// paramAt returns the type a signature accepts at position i.
func (c *Checker) paramAt(f *types.FunctionShape, i int) (types.TypeID, bool) {
	if i < len(f.Params) && !f.Params[i].Rest {
		p := f.Params[i]
		if p.Optional && c.opts.StrictNullChecks && !c.opts.ExactOptionalPropertyTypes {
			return c.in.Union(p.Type, types.TypeUndefined), true
		}
		return p.Type, true
	}
	rest, ok := f.RestParam()
	if !ok {
		return types.NoTypeID, false
	}
	restAt := len(f.Params) - 1
	if elems, ok := c.in.TupleElements(rest.Type); ok {
		k := i - restAt
		if k < len(elems) && !elems[k].Rest {
			return elems[k].Type, true
		}
		if len(elems) > 0 && elems[len(elems)-1].Rest {
			return c.restElement(elems[len(elems)-1].Type), true
		}
		return types.NoTypeID, false
	}
	return c.restElement(rest.Type), true
}

func (c *Checker) signature(s, t *types.FunctionShape) Ternary {
	bivariant := c.mode&modeBivariant != 0 || !c.opts.StrictFunctionTypes ||
		(c.opts.MethodBivariance && (s.Method || t.Method))
	saved := c.mode
	c.mode = 0
	defer func() { c.mode = saved }()

	if s.Constructor != t.Constructor {
		return c.fail(ConstructorMismatch, c.in.Function(*s), c.in.Function(*t))
	}
	if len(s.TypeParams) > 0 && c.inst != nil {
		if inst, ok := c.inst.InstantiateSignature(s, t); ok {
			s = &inst
		}
	}

	_, targetRest := t.RestParam()
	if req := s.RequiredParams(); !targetRest && req > len(t.Params) {
		return c.Fail(Reason{Kind: TooManyParameters, Source: c.in.Function(*s), Target: c.in.Function(*t), Expected: len(t.Params), Actual: req})
	}

	res := True
	for i := range max(len(s.Params), len(t.Params)) {
		sp, sok := c.paramAt(s, i)
		tp, tok := c.paramAt(t, i)
		if !sok || !tok {
			continue
		}
		r := c.Relate(tp, sp)
		if r == False && bivariant {
			r = c.Relate(sp, tp)
		}
		if r == False {
			return c.wrap(Reason{Kind: ParameterTypeMismatch, Source: sp, Target: tp, Index: i})
		}
		res = and(res, r)
	}

	if s.This != types.NoTypeID && t.This != types.NoTypeID {
		r := c.Relate(t.This, s.This)
		if r == False {
			return c.wrap(Reason{Kind: ThisTypeMismatch, Source: s.This, Target: t.This})
		}
		res = and(res, r)
	}

	if t.Return == types.TypeVoid && c.opts.AllowVoidReturn {
		return res
	}
	r := c.Relate(s.Return, t.Return)
	if r == False {
		return c.wrap(Reason{Kind: ReturnTypeMismatch, Source: s.Return, Target: t.Return})
	}
	return and(res, r)
}
