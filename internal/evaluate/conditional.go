package evaluate

import (
	"tsolver/internal/types"
)

// EvaluateConditional reduces `check extends ext ? t : f`.
func (e *Evaluator) EvaluateConditional(c types.ConditionalType) types.TypeID {
	return e.Evaluate(e.in.Conditional(c))
}

// conditional picks a branch. A branch that is itself a conditional (or an
// application expanding to one) is decided in the same loop, so tail
// recursive aliases are bounded by maxTailRecursions instead of the
// evaluation depth.
func (e *Evaluator) conditional(c types.ConditionalType) types.TypeID {
	in := e.in
	for tail := 0; ; tail++ {
		check := e.Evaluate(c.Check)
		ext := e.Evaluate(c.Extends)

		if c.Distributive && check == types.TypeNever {
			return types.TypeNever
		}
		if check == types.TypeAny {
			bound := e.bindAll(ext, types.TypeAny)
			return in.Union(e.Evaluate(e.Instantiate(c.True, bound)), e.Evaluate(e.Instantiate(c.False, bound)))
		}
		if c.Distributive && in.KindOf(check) == types.KindUnion {
			return e.distribute(c, check, ext)
		}

		var branch types.TypeID
		if in.ContainsInfer(ext) {
			subject := check
			if e.isNakedParam(check) {
				// constrained parameters can still be matched through their
				// constraint
				info, _ := in.TypeParamInfo(check)
				if info.Constraint == types.NoTypeID {
					return in.Conditional(c)
				}
				subject = e.Evaluate(info.Constraint)
			}
			bindings := make(Substitution)
			matched := e.matchPattern(subject, ext, bindings) && e.bindingsSatisfyConstraints(ext, bindings)
			switch {
			case matched:
				branch = e.Instantiate(c.True, e.completeBindings(ext, bindings))
			case subject != check:
				return in.Conditional(c)
			default:
				branch = e.Instantiate(c.False, e.completeBindings(ext, bindings))
			}
		} else {
			if e.deferred(check) || e.deferred(ext) {
				return in.Conditional(types.ConditionalType{Check: check, Extends: ext, True: c.True, False: c.False, Distributive: c.Distributive})
			}
			if e.relate(check, ext).Holds() {
				branch = c.True
			} else {
				branch = c.False
			}
		}

		next, ok := e.tailConditional(branch)
		if !ok || tail >= maxTailRecursions {
			return e.Evaluate(branch)
		}
		c = next
	}
}

// tailConditional returns the conditional a branch stands for, expanding
// applications of generic aliases.
func (e *Evaluator) tailConditional(branch types.TypeID) (types.ConditionalType, bool) {
	for range 2 {
		switch e.in.KindOf(branch) {
		case types.KindConditional:
			return e.in.ConditionalType(branch)
		case types.KindApplication:
			base, args, _ := e.in.Application(branch)
			expanded, ok := e.expandApplication(base, args)
			if !ok {
				return types.ConditionalType{}, false
			}
			branch = expanded
		default:
			return types.ConditionalType{}, false
		}
	}
	return types.ConditionalType{}, false
}

// distribute maps a distributive conditional over the members of its
// checked union. Occurrences of the checked type in the branches are
// replaced by the member. Unions larger than maxDistribution stay deferred.
func (e *Evaluator) distribute(c types.ConditionalType, check, ext types.TypeID) types.TypeID {
	in := e.in
	members := in.Members(check)
	if len(members) > maxDistribution {
		e.guard.MarkExceeded()
		return in.Conditional(c)
	}
	out := make([]types.TypeID, len(members))
	for i, m := range members {
		subst := Substitution{check: m}
		if c.Check != check {
			subst[c.Check] = m
		}
		out[i] = e.Evaluate(in.Conditional(types.ConditionalType{
			Check:   m,
			Extends: ext,
			True:    e.Instantiate(c.True, subst),
			False:   e.Instantiate(c.False, subst),
		}))
		if e.guard.Exceeded() {
			return types.TypeError
		}
	}
	return in.UnionOf(out)
}

func (e *Evaluator) isNakedParam(t types.TypeID) bool {
	k := e.in.KindOf(t)
	return k == types.KindTypeParam || k == types.KindInfer
}

// inferPlaceholders lists the infer placeholders occurring in t.
func (e *Evaluator) inferPlaceholders(t types.TypeID) []types.TypeID {
	var out []types.TypeID
	e.in.Walk(t, func(id types.TypeID) bool {
		if e.in.KindOf(id) == types.KindInfer {
			out = append(out, id)
		}
		return true
	})
	return out
}

// bindAll binds every placeholder of pattern to t.
func (e *Evaluator) bindAll(pattern, t types.TypeID) Substitution {
	subst := make(Substitution)
	for _, p := range e.inferPlaceholders(pattern) {
		subst[p] = t
	}
	return subst
}

// completeBindings binds placeholders the match did not reach to their
// constraint, or unknown.
func (e *Evaluator) completeBindings(pattern types.TypeID, bindings Substitution) Substitution {
	for _, p := range e.inferPlaceholders(pattern) {
		if _, ok := bindings[p]; ok {
			continue
		}
		info, _ := e.in.TypeParamInfo(p)
		if info.Constraint != types.NoTypeID {
			bindings[p] = info.Constraint
		} else {
			bindings[p] = types.TypeUnknown
		}
	}
	return bindings
}

func (e *Evaluator) bindingsSatisfyConstraints(pattern types.TypeID, bindings Substitution) bool {
	for _, p := range e.inferPlaceholders(pattern) {
		bound, ok := bindings[p]
		if !ok {
			continue
		}
		info, _ := e.in.TypeParamInfo(p)
		if info.Constraint != types.NoTypeID && !e.relate(bound, e.Evaluate(info.Constraint)).Holds() {
			return false
		}
	}
	return true
}
