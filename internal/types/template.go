package types

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TemplateLiteral interns a template literal type. Adjacent text is merged,
// interpolated literals and nested templates are folded in, a `never`
// interpolation makes the whole type `never` and a template without any
// remaining interpolation is the plain string literal.
func (in *Interner) TemplateLiteral(spans []TemplateSpan) TypeID {
	var out []TemplateSpan
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, TemplateSpan{Text: in.Atom(text.String())})
			text.Reset()
		}
	}
	var add func(spans []TemplateSpan) bool
	add = func(spans []TemplateSpan) bool {
		for _, sp := range spans {
			if sp.IsText() {
				text.WriteString(in.AtomString(sp.Text))
				continue
			}
			if sp.Type == TypeNever {
				return false
			}
			if s, ok := in.TemplateText(sp.Type); ok {
				text.WriteString(s)
				continue
			}
			if inner, ok := in.TemplateSpans(sp.Type); ok {
				if !add(inner) {
					return false
				}
				continue
			}
			flush()
			out = append(out, sp)
		}
		return true
	}
	if !add(spans) {
		return TypeNever
	}
	flush()

	if len(out) == 0 {
		return in.StringLiteral("")
	}
	if len(out) == 1 && out[0].IsText() {
		return in.StringLiteral(in.AtomString(out[0].Text))
	}
	slot := in.templates.intern(templateKey(out), func() []TemplateSpan { return out })
	return in.Intern(Type{Kind: KindTemplateLiteral, Payload: slot})
}

// TemplateOf builds a template from alternating parts: strings become text
// spans and TypeIDs become interpolations.
func (in *Interner) TemplateOf(parts ...any) TypeID {
	spans := make([]TemplateSpan, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			spans = append(spans, TemplateSpan{Text: in.Atom(v)})
		case TypeID:
			spans = append(spans, TemplateSpan{Type: v})
		}
	}
	return in.TemplateLiteral(spans)
}

// TemplateText returns the text a unit type contributes when interpolated
// into a template literal.
func (in *Interner) TemplateText(id TypeID) (string, bool) {
	switch id {
	case TypeNull:
		return "null", true
	case TypeUndefined:
		return "undefined", true
	}
	lit, ok := in.LiteralValue(in.unitValue(id))
	if !ok {
		return "", false
	}
	switch lit.Kind {
	case LiteralString, LiteralBigInt:
		return lit.Str, true
	case LiteralNumber:
		return FormatNumber(lit.Num), true
	case LiteralBoolean:
		return strconv.FormatBool(lit.Bool), true
	}
	return "", false
}

// FormatNumber renders v the way the source language's Number#toString does.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

// ParseNumericString reports whether s is the canonical text of a number,
// that is FormatNumber(ParseFloat(s)) == s.
func ParseNumericString(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, FormatNumber(v) == s
}

// MatchTemplate reports whether s can be split so that every text span
// matches literally and accept agrees with every interpolated piece. All
// splits are tried.
func (in *Interner) MatchTemplate(s string, spans []TemplateSpan, accept func(piece string, span TypeID) bool) bool {
	if len(spans) == 0 {
		return s == ""
	}
	sp := spans[0]
	if sp.IsText() {
		prefix := in.AtomString(sp.Text)
		return strings.HasPrefix(s, prefix) && in.MatchTemplate(s[len(prefix):], spans[1:], accept)
	}
	rest := spans[1:]
	if len(rest) == 0 {
		return accept(s, sp.Type)
	}
	for i := 0; i <= len(s); i++ {
		if i < len(s) && !utf8.RuneStart(s[i]) {
			continue
		}
		if accept(s[:i], sp.Type) && in.MatchTemplate(s[i:], rest, accept) {
			return true
		}
	}
	return false
}

// SplitTemplate extracts the text captured by each interpolation when s is
// matched against spans the way `infer` placeholders bind: a placeholder
// followed by text stops at the first occurrence of that text (the final
// text must be a suffix), and a placeholder followed by another placeholder
// takes a single character.
func (in *Interner) SplitTemplate(s string, spans []TemplateSpan) ([]string, bool) {
	var out []string
	pos := 0
	for i, sp := range spans {
		if sp.IsText() {
			txt := in.AtomString(sp.Text)
			if !strings.HasPrefix(s[pos:], txt) {
				return nil, false
			}
			pos += len(txt)
			continue
		}
		if i+1 == len(spans) {
			out = append(out, s[pos:])
			pos = len(s)
			continue
		}
		next := spans[i+1]
		if !next.IsText() {
			if pos >= len(s) {
				return nil, false
			}
			_, size := utf8.DecodeRuneInString(s[pos:])
			out = append(out, s[pos:pos+size])
			pos += size
			continue
		}
		txt := in.AtomString(next.Text)
		var idx int
		if i+2 == len(spans) {
			if !strings.HasSuffix(s, txt) || len(s)-len(txt) < pos {
				return nil, false
			}
			idx = len(s) - len(txt) - pos
		} else {
			idx = strings.Index(s[pos:], txt)
			if idx < 0 {
				return nil, false
			}
		}
		out = append(out, s[pos:pos+idx])
		pos += idx
	}
	return out, pos == len(s)
}
