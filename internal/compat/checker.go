package compat

import (
	"tsolver/internal/subtype"
	"tsolver/internal/types"
)

type pair struct {
	source types.TypeID
	target types.TypeID
}

// Checker decides assignability under one configuration. Like the subtype
// checker it wraps, a Checker belongs to a single goroutine.
type Checker struct {
	in    *types.Interner
	cfg   Config
	judge *subtype.Checker
	cache map[pair]subtype.Ternary
}

// New creates a checker whose rules apply at every nesting level of the
// structural relation.
func New(in *types.Interner, cfg Config) *Checker {
	c := &Checker{
		in:    in,
		cfg:   cfg,
		judge: subtype.New(in, cfg.JudgeOptions()),
		cache: make(map[pair]subtype.Ternary),
	}
	if cfg.Rules != 0 {
		c.judge.SetOverride(c)
	}
	return c
}

// Config returns the checker's configuration.
func (c *Checker) Config() Config { return c.cfg }

// Judge exposes the underlying subtype checker so callers can install an
// evaluator or instantiator.
func (c *Checker) Judge() *subtype.Checker { return c.judge }

func (c *Checker) has(rule Rule) bool { return c.cfg.Rules.Has(rule) }

// Relate returns the three-valued assignability result.
func (c *Checker) Relate(source, target types.TypeID) subtype.Ternary {
	key := pair{source: source, target: target}
	if r, ok := c.cache[key]; ok {
		return r
	}
	r := c.judge.IsSubtype(source, target)
	if r != subtype.Provisional {
		c.cache[key] = r
	}
	return r
}

// IsAssignable reports whether source is assignable to target. A relation
// assumed because a budget ran out counts as assignable.
func (c *Checker) IsAssignable(source, target types.TypeID) bool {
	return c.Relate(source, target).Holds()
}

// ExplainFailure returns the reason tree for a failed assignment, or nil.
func (c *Checker) ExplainFailure(source, target types.TypeID) *subtype.Reason {
	return c.judge.ExplainFailure(source, target)
}

// Override implements subtype.Override. The subtype checker has already
// handled identity, error, any, nullish and top/bottom types, so the
// remaining rules run in this order: enums, weak unions, weak types, excess
// properties, private brands, empty-object targets.
func (c *Checker) Override(j *subtype.Checker, s, t types.TypeID) (subtype.Ternary, bool) {
	if r, ok := c.enumRule(j, s, t); ok {
		return r, true
	}
	if c.has(RuleWeakTypes) && (c.violatesWeakUnion(j, s, t) || c.violatesWeakType(j, s, t)) {
		return j.Fail(subtype.Reason{Kind: subtype.WeakTypeNoCommonProperties, Source: s, Target: t}), true
	}
	if c.has(RuleExcessProperties) && c.in.IsFresh(s) {
		if name, ok := c.excessProperty(j, s, t); ok {
			return j.Fail(subtype.Reason{Kind: subtype.ExcessProperty, Source: s, Target: t, Name: name}), true
		}
		return j.Relate(c.in.Regular(s), t), true
	}
	if c.has(RulePrivateBrands) {
		if r, ok := c.privateBrands(j, s, t); ok {
			return r, true
		}
	}
	if c.has(RuleEmptyObject) && c.isEmptyObject(t) {
		if c.assignableToEmptyObject(s) {
			return subtype.True, true
		}
		return j.Fail(subtype.Reason{Kind: subtype.TypeMismatch, Source: s, Target: t}), true
	}
	return subtype.False, false
}
