// Package compat layers the source language's assignability rules on top of
// the sound subtype relation. Every rule that departs from soundness is a bit
// in Rules; clearing them all leaves the plain structural relation.
package compat

import (
	"fmt"
	"strings"

	"tsolver/internal/subtype"
)

// Rule is one independently toggleable compatibility rule.
type Rule uint16

const (
	// RuleAnyPropagation lets `any` flow into every type.
	RuleAnyPropagation Rule = 1 << iota
	// RuleLiteralWidening widens literal types at mutable bindings.
	RuleLiteralWidening
	// RuleExcessProperties rejects unknown properties of fresh object literals.
	RuleExcessProperties
	// RuleWeakTypes rejects sources sharing no property with an all-optional target.
	RuleWeakTypes
	// RuleEnumNumber makes numbers assignable to non-const numeric enums.
	RuleEnumNumber
	// RuleOptionalUndefined lets optional properties hold an explicit undefined.
	RuleOptionalUndefined
	// RulePrivateBrands compares private and protected members by declaration.
	RulePrivateBrands
	// RuleVoidReturn accepts any return type where void is expected.
	RuleVoidReturn
	// RuleEmptyObject decides `{}` targets without structural comparison.
	RuleEmptyObject
	// RuleReadonlyErasure ignores readonly when relating properties.
	RuleReadonlyErasure

	ruleEnd
)

// AllRules is the source language's default behaviour.
const AllRules = ruleEnd - 1

var ruleNames = map[Rule]string{
	RuleAnyPropagation:    "any-propagation",
	RuleLiteralWidening:   "literal-widening",
	RuleExcessProperties:  "excess-properties",
	RuleWeakTypes:         "weak-types",
	RuleEnumNumber:        "enum-number",
	RuleOptionalUndefined: "optional-undefined",
	RulePrivateBrands:     "private-brands",
	RuleVoidReturn:        "void-return",
	RuleEmptyObject:       "empty-object",
	RuleReadonlyErasure:   "readonly-erasure",
}

// Has reports whether every bit of rule is set.
func (r Rule) Has(rule Rule) bool { return r&rule == rule }

// With returns r with rule switched on or off.
func (r Rule) With(rule Rule, on bool) Rule {
	if on {
		return r | rule
	}
	return r &^ rule
}

func (r Rule) String() string {
	if r == 0 {
		return "none"
	}
	var names []string
	for bit := Rule(1); bit < ruleEnd; bit <<= 1 {
		if r.Has(bit) {
			names = append(names, ruleNames[bit])
		}
	}
	return strings.Join(names, "|")
}

// ParseRule maps a rule name such as "weak-types" (or "weak_types") to its bit.
func ParseRule(name string) (Rule, error) {
	name = strings.ReplaceAll(name, "_", "-")
	for rule, n := range ruleNames {
		if n == name {
			return rule, nil
		}
	}
	return 0, fmt.Errorf("unknown compatibility rule %q", name)
}

// Config is the caller-supplied compiler configuration.
type Config struct {
	StrictNullChecks           bool `toml:"strict_null_checks"`
	NoUncheckedIndexedAccess   bool `toml:"no_unchecked_indexed_access"`
	ExactOptionalPropertyTypes bool `toml:"exact_optional_property_types"`
	StrictFunctionTypes        bool `toml:"strict_function_types"`
	DisableMethodBivariance    bool `toml:"disable_method_bivariance"`
	Rules                      Rule `toml:"-"`
}

// DefaultConfig mirrors strict-mode compilation.
func DefaultConfig() Config {
	return Config{StrictNullChecks: true, StrictFunctionTypes: true, Rules: AllRules}
}

// LegacyConfig mirrors compilation without any strictness flags.
func LegacyConfig() Config {
	return Config{Rules: AllRules}
}

// SoundConfig turns every unsound rule off.
func SoundConfig() Config {
	return Config{
		StrictNullChecks:           true,
		NoUncheckedIndexedAccess:   true,
		ExactOptionalPropertyTypes: true,
		StrictFunctionTypes:        true,
		DisableMethodBivariance:    true,
	}
}

// JudgeOptions derives the subtype options the configuration implies.
func (c Config) JudgeOptions() subtype.Options {
	return subtype.Options{
		StrictFunctionTypes:        c.StrictFunctionTypes,
		MethodBivariance:           !c.DisableMethodBivariance,
		StrictNullChecks:           c.StrictNullChecks,
		ExactOptionalPropertyTypes: c.ExactOptionalPropertyTypes || !c.Rules.Has(RuleOptionalUndefined),
		AnyIsBottom:                c.Rules.Has(RuleAnyPropagation),
		AllowVoidReturn:            c.Rules.Has(RuleVoidReturn),
		StrictReadonly:             !c.Rules.Has(RuleReadonlyErasure),
	}
}
