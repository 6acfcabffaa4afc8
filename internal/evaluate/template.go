package evaluate

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tsolver/internal/types"
)

// ErrTemplateTooLarge reports a template literal whose interpolated unions
// multiply out past the configured ceiling.
var ErrTemplateTooLarge = errors.New("template literal expansion too large")

// ExpandTemplateLiteral distributes the unions interpolated into a template
// literal, producing a union of templates (string literals when every
// interpolation is a unit type). Expansion stops before allocating when the
// number of alternatives would exceed Options.MaxTemplateSize.
func (e *Evaluator) ExpandTemplateLiteral(t types.TypeID) (types.TypeID, error) {
	spans, ok := e.in.TemplateSpans(t)
	if !ok {
		return e.Evaluate(t), nil
	}
	return e.expandSpans(spans)
}

// template is the Evaluate rule for template literals: an oversized
// expansion widens to string.
func (e *Evaluator) template(id types.TypeID, spans []types.TemplateSpan) types.TypeID {
	r, err := e.expandSpans(spans)
	if err != nil {
		return types.TypeString
	}
	if r == types.NoTypeID {
		return id
	}
	return r
}

func (e *Evaluator) expandSpans(spans []types.TemplateSpan) (types.TypeID, error) {
	in := e.in
	limit := e.opts.MaxTemplateSize
	choices := make([][]types.TypeID, len(spans))
	total := 1
	for i, sp := range spans {
		if sp.IsText() {
			continue
		}
		alts := e.templateAlternatives(e.Evaluate(sp.Type))
		if len(alts) == 0 {
			return types.TypeNever, nil
		}
		if total > limit/len(alts) {
			return types.NoTypeID, fmt.Errorf("%w: more than %d alternatives", ErrTemplateTooLarge, limit)
		}
		total *= len(alts)
		choices[i] = alts
	}

	out := make([]types.TypeID, 0, total)
	cur := slices.Clone(spans)
	var expand func(i int)
	expand = func(i int) {
		if i == len(cur) {
			out = append(out, in.TemplateLiteral(cur))
			return
		}
		if choices[i] == nil {
			expand(i + 1)
			return
		}
		for _, alt := range choices[i] {
			cur[i].Type = alt
			expand(i + 1)
		}
	}
	expand(0)
	return in.UnionOf(out), nil
}

// templateAlternatives lists what an interpolated type can contribute:
// union members, true and false for boolean, and the members of a whole
// enum.
func (e *Evaluator) templateAlternatives(t types.TypeID) []types.TypeID {
	if t == types.TypeNever {
		return nil
	}
	var out []types.TypeID
	for _, m := range e.in.UnionMembers(t) {
		switch {
		case m == types.TypeBoolean:
			out = append(out, types.TypeTrue, types.TypeFalse)
		case e.in.KindOf(m) == types.KindEnum:
			value := e.in.MustLookup(m).Elem
			if e.in.KindOf(value) == types.KindUnion {
				out = append(out, e.in.Members(value)...)
			} else {
				out = append(out, m)
			}
		default:
			out = append(out, m)
		}
	}
	return out
}

// stringIntrinsic applies Uppercase, Lowercase, Capitalize or Uncapitalize.
// Literals are converted, unions distribute, template literals convert
// their text and wrap their interpolations; string and unresolved
// arguments stay deferred.
func (e *Evaluator) stringIntrinsic(kind types.StringIntrinsicKind, arg types.TypeID) types.TypeID {
	in := e.in
	v := e.Evaluate(arg)
	switch v {
	case types.TypeAny, types.TypeNever, types.TypeError:
		return v
	}
	switch in.KindOf(v) {
	case types.KindUnion:
		members := in.Members(v)
		out := make([]types.TypeID, len(members))
		for i, m := range members {
			out[i] = e.stringIntrinsic(kind, m)
		}
		return in.UnionOf(out)
	case types.KindLiteral:
		lit, _ := in.LiteralValue(v)
		if lit.Kind == types.LiteralString {
			return in.StringLiteral(applyCase(kind, lit.Str))
		}
		return types.TypeNever
	case types.KindTemplateLiteral:
		spans, _ := in.TemplateSpans(v)
		return e.templateIntrinsic(kind, spans)
	}
	return in.StringIntrinsic(kind, v)
}

func (e *Evaluator) templateIntrinsic(kind types.StringIntrinsicKind, spans []types.TemplateSpan) types.TypeID {
	in := e.in
	next := slices.Clone(spans)
	for i, sp := range next {
		first := i == 0
		if (kind == types.IntrinsicCapitalize || kind == types.IntrinsicUncapitalize) && !first {
			break
		}
		if sp.IsText() {
			next[i].Text = in.Atom(applyCase(kind, in.AtomString(sp.Text)))
		} else {
			next[i].Type = in.StringIntrinsic(kind, sp.Type)
		}
	}
	return in.TemplateLiteral(next)
}

func applyCase(kind types.StringIntrinsicKind, s string) string {
	switch kind {
	case types.IntrinsicUppercase:
		return cases.Upper(language.Und).String(s)
	case types.IntrinsicLowercase:
		return cases.Lower(language.Und).String(s)
	case types.IntrinsicCapitalize, types.IntrinsicUncapitalize:
		if s == "" {
			return s
		}
		_, size := utf8.DecodeRuneInString(s)
		caser := cases.Upper(language.Und)
		if kind == types.IntrinsicUncapitalize {
			caser = cases.Lower(language.Und)
		}
		return caser.String(s[:size]) + s[size:]
	}
	return s
}
