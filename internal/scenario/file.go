// Package scenario runs structural type scenarios against the engine.
//
// A scenario file is TOML. It declares named types under [types.<Name>]
// and lists cases that relate, evaluate, access or infer over them:
//
//	name = "weak types"
//
//	[types.Options]
//	kind = "object"
//	props = { a = { type = "number", optional = true } }
//
//	[[relation]]
//	source = { kind = "object", props = { b = "string" } }
//	target = "Options"
//	expect = false
//	reason = "weak-type-no-common-properties"
//
// Type references are builtin names, declared names, literal shorthands
// ("'a'", "42", "7n", "true") with an optional "[]" suffix, or inline
// tables with a kind.
package scenario

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrUnknownType reports a reference to a name that is neither builtin
	// nor declared.
	ErrUnknownType = errors.New("unknown type")
	// ErrInvalidType reports a malformed type descriptor.
	ErrInvalidType = errors.New("invalid type descriptor")
	// ErrInvalidCase reports a malformed case.
	ErrInvalidCase = errors.New("invalid case")
)

// File is one decoded scenario file.
type File struct {
	Path        string         `toml:"-"`
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Config      ConfigSpec     `toml:"config"`
	Types       map[string]Ref `toml:"types"`
	Relations   []RelationCase `toml:"relation"`
	Evaluations []EvaluateCase `toml:"evaluate"`
	Properties  []PropertyCase `toml:"property"`
	Inferences  []InferCase    `toml:"infer"`
}

// Ref is an undecoded type reference: a string or a table.
type Ref struct {
	raw any
}

// UnmarshalTOML implements toml.Unmarshaler.
func (r *Ref) UnmarshalTOML(data any) error {
	switch data.(type) {
	case string, map[string]any, bool, int64, float64:
		r.raw = data
		return nil
	}
	return fmt.Errorf("%w: unexpected %T", ErrInvalidType, data)
}

// IsZero reports whether the reference was omitted.
func (r Ref) IsZero() bool { return r.raw == nil }

// RefOf wraps a raw value (string or map) as a reference.
func RefOf(raw any) Ref { return Ref{raw: raw} }

func (r Ref) String() string {
	switch v := r.raw.(type) {
	case nil:
		return "<none>"
	case string:
		return v
	case map[string]any:
		if kind, ok := v["kind"].(string); ok {
			return "{" + kind + "}"
		}
		return "{...}"
	}
	return fmt.Sprint(r.raw)
}

// RelationCase checks subtyping or assignability between two types.
type RelationCase struct {
	Label  string `toml:"label"`
	Source Ref    `toml:"source"`
	Target Ref    `toml:"target"`
	// Kind is "assignable" (default) or "subtype".
	Kind string `toml:"kind"`
	// Expect is a bool or one of "true", "false", "provisional".
	Expect any `toml:"expect"`
	// Reason, when set, must occur in the failure chain.
	Reason string `toml:"reason"`
}

// EvaluateCase checks the result of evaluating a type.
type EvaluateCase struct {
	Label  string `toml:"label"`
	Type   Ref    `toml:"type"`
	Expect Ref    `toml:"expect"`
	// Expand runs template literal expansion instead of plain evaluation.
	Expand bool `toml:"expand"`
	// Error names an expected failure; only "template-too-large" exists.
	Error string `toml:"error"`
}

// PropertyCase checks property access resolution.
type PropertyCase struct {
	Label  string `toml:"label"`
	Object Ref    `toml:"object"`
	Name   string `toml:"name"`
	Expect Ref    `toml:"expect"`
	Write  Ref    `toml:"write"`
	Status string `toml:"status"`
}

// InferCase infers type arguments for a generic call.
type InferCase struct {
	Label      string `toml:"label"`
	TypeParams []Ref  `toml:"type_params"`
	Params     []Ref  `toml:"params"`
	Returns    Ref    `toml:"returns"`
	Args       []Ref  `toml:"args"`
	Contextual Ref    `toml:"contextual"`
	Expect     []Ref  `toml:"expect"`
	Conflict   string `toml:"conflict"`
	// Mismatch is the index of the first argument expected to fail its
	// parameter after instantiation.
	Mismatch *int `toml:"mismatch"`
}

// Load decodes a scenario file from disk.
func Load(path string) (*File, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return finish(&f, meta, path)
}

// Parse decodes a scenario from memory; path is used for messages only.
func Parse(path, data string) (*File, error) {
	var f File
	meta, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return finish(&f, meta, path)
}

func finish(f *File, meta toml.MetaData, path string) (*File, error) {
	f.Path = path
	f.Config.record(meta)
	if !meta.IsDefined("name") || strings.TrimSpace(f.Name) == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if f.CaseCount() == 0 {
		return nil, fmt.Errorf("%s: %w: no cases", path, ErrInvalidCase)
	}
	return f, nil
}

// CaseCount returns the number of cases across all sections.
func (f *File) CaseCount() int {
	return len(f.Relations) + len(f.Evaluations) + len(f.Properties) + len(f.Inferences)
}
