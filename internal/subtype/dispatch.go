package subtype

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"tsolver/internal/types"
)

// sourceVisitor applies the rules keyed on the source kind. Unions,
// intersections and type parameters are handled before dispatch.
type sourceVisitor struct {
	c      *Checker
	target types.TypeID
}

var _ types.Visitor[Ternary] = sourceVisitor{}

func (v sourceVisitor) kind() types.Kind { return v.c.in.KindOf(v.target) }

func (v sourceVisitor) VisitIntrinsic(s types.TypeID, kind types.Kind) Ternary {
	c, t := v.c, v.target
	switch kind {
	case types.KindBoolean, types.KindNumber, types.KindString, types.KindBigInt, types.KindSymbol,
		types.KindNonPrimitive, types.KindGlobalFunction:
		if c.isEmptyObject(t) {
			return True
		}
		if kind == types.KindString && c.isStringPattern(t) {
			return True
		}
		if kind == types.KindGlobalFunction && t == types.TypeObject {
			return True
		}
	}
	return c.fail(IntrinsicTypeMismatch, s, t)
}

func (v sourceVisitor) VisitLiteral(s types.TypeID, lit types.Literal) Ternary {
	c, t := v.c, v.target
	if c.in.PrimitiveBase(s) == t || c.isEmptyObject(t) {
		return True
	}
	if v.kind() == types.KindTemplateLiteral && lit.Kind == types.LiteralString && c.matchTemplate(lit.Str, t) {
		return True
	}
	return c.fail(LiteralTypeMismatch, s, t)
}

func (v sourceVisitor) VisitArray(s, elem types.TypeID) Ternary {
	c, t := v.c, v.target
	switch v.kind() {
	case types.KindArray:
		tt, _ := c.in.Lookup(t)
		r := c.Relate(elem, tt.Elem)
		if r == False {
			return c.wrap(Reason{Kind: ArrayElementMismatch, Source: s, Target: t})
		}
		return r
	case types.KindTuple:
		te, _ := c.in.TupleElements(t)
		return c.arrayToTuple(s, t, te)
	}
	return c.objectTarget(s, t)
}

func (v sourceVisitor) VisitTuple(s types.TypeID, elems []types.TupleElement) Ternary {
	c, t := v.c, v.target
	switch v.kind() {
	case types.KindTuple:
		te, _ := c.in.TupleElements(t)
		return c.tupleToTuple(s, elems, t, te)
	case types.KindArray:
		tt, _ := c.in.Lookup(t)
		return c.tupleToArray(s, elems, t, tt.Elem)
	}
	return c.objectTarget(s, t)
}

func (v sourceVisitor) VisitObject(s types.TypeID, _ *types.ObjectShape) Ternary {
	switch v.kind() {
	case types.KindArray, types.KindTuple:
		return v.c.fail(TypeMismatch, s, v.target)
	}
	return v.c.objectTarget(s, v.target)
}

func (v sourceVisitor) VisitFunction(s types.TypeID, _ *types.FunctionShape) Ternary {
	return v.c.objectTarget(s, v.target)
}

func (v sourceVisitor) VisitCallable(s types.TypeID, _ *types.CallableShape) Ternary {
	return v.c.objectTarget(s, v.target)
}

func (v sourceVisitor) VisitUnion(s types.TypeID, _ []types.TypeID) Ternary {
	return v.c.unionSource(s, v.target)
}

func (v sourceVisitor) VisitIntersection(s types.TypeID, _ []types.TypeID) Ternary {
	return v.c.intersectionSource(s, v.target)
}

// VisitConditional relates a deferred conditional through both branches.
func (v sourceVisitor) VisitConditional(s types.TypeID, cond types.ConditionalType) Ternary {
	c, t := v.c, v.target
	if other, ok := c.in.ConditionalType(t); ok {
		if cond.Check == other.Check && cond.Extends == other.Extends {
			r := c.Relate(cond.True, other.True)
			if r == False {
				return c.wrap(Reason{Kind: TypeMismatch, Source: s, Target: t})
			}
			return and(r, c.Relate(cond.False, other.False))
		}
	}
	r := c.Relate(cond.True, t)
	if r != False {
		r = and(r, c.Relate(cond.False, t))
	}
	if r == False {
		return c.wrap(Reason{Kind: TypeMismatch, Source: s, Target: t})
	}
	return r
}

func (v sourceVisitor) VisitMapped(s types.TypeID, _ types.MappedType) Ternary {
	return v.c.fail(TypeMismatch, s, v.target)
}

func (v sourceVisitor) VisitLazy(s types.TypeID, _ types.DeclID) Ternary {
	return v.c.fail(TypeMismatch, s, v.target)
}

// VisitApplication compares unresolved applications of the same generic
// argument-wise.
func (v sourceVisitor) VisitApplication(s, base types.TypeID, args []types.TypeID) Ternary {
	c, t := v.c, v.target
	tbase, targs, ok := c.in.Application(t)
	if !ok || tbase != base || len(targs) != len(args) {
		return c.fail(TypeMismatch, s, t)
	}
	res := True
	for i := range args {
		r := c.Relate(args[i], targs[i])
		if r == False {
			return c.wrap(Reason{Kind: TypeMismatch, Source: s, Target: t})
		}
		res = and(res, r)
	}
	return res
}

func (v sourceVisitor) VisitTemplateLiteral(s types.TypeID, spans []types.TemplateSpan) Ternary {
	c, t := v.c, v.target
	switch {
	case t == types.TypeString, c.isEmptyObject(t), c.isStringPattern(t):
		return True
	case v.kind() == types.KindTemplateLiteral:
		for _, alt := range c.expandTemplate(t, maxTemplateAlternatives) {
			if alt == s {
				return True
			}
			if tspans, ok := c.in.TemplateSpans(alt); ok && c.templateSpansRelated(spans, tspans) {
				return True
			}
		}
	}
	return c.fail(TypeMismatch, s, t)
}

func (v sourceVisitor) VisitTypeParam(s types.TypeID, _ types.TypeParamInfo) Ternary {
	return v.c.typeParamSource(s, v.target)
}

func (v sourceVisitor) VisitInfer(s types.TypeID, _ types.TypeParamInfo) Ternary {
	return v.c.typeParamSource(s, v.target)
}

// VisitIndexAccess relates a deferred T[K] through the constraint of T.
func (v sourceVisitor) VisitIndexAccess(s, object, index types.TypeID) Ternary {
	c, t := v.c, v.target
	if tt, ok := c.in.Lookup(t); ok && tt.Kind == types.KindIndexAccess && tt.Elem == object {
		return c.Relate(index, tt.Index)
	}
	if c.eval != nil {
		if info, ok := c.in.TypeParamInfo(object); ok && info.Constraint != types.NoTypeID {
			return c.Relate(c.eval.Evaluate(c.in.IndexAccess(info.Constraint, index)), t)
		}
	}
	return c.fail(TypeMismatch, s, t)
}

// VisitKeyOf: keyof S <: keyof T exactly when T <: S.
func (v sourceVisitor) VisitKeyOf(s, operand types.TypeID) Ternary {
	c, t := v.c, v.target
	if tt, ok := c.in.Lookup(t); ok && tt.Kind == types.KindKeyOf {
		return c.Relate(tt.Elem, operand)
	}
	return c.Relate(c.in.Union(types.TypeString, types.TypeNumber, types.TypeSymbol), t)
}

func (v sourceVisitor) VisitReadonly(s, inner types.TypeID) Ternary {
	c, t := v.c, v.target
	switch v.kind() {
	case types.KindReadonly:
		tt, _ := c.in.Lookup(t)
		return c.Relate(inner, tt.Elem)
	case types.KindArray, types.KindTuple:
		return c.fail(ReadonlyToMutable, s, t)
	}
	return c.objectTarget(s, t)
}

func (v sourceVisitor) VisitUniqueSymbol(s types.TypeID, _ types.DeclID) Ternary {
	c, t := v.c, v.target
	if t == types.TypeSymbol || c.isEmptyObject(t) {
		return True
	}
	return c.fail(IntrinsicTypeMismatch, s, t)
}

// VisitEnum treats enums nominally: a member relates to its own enum and
// to its value, never to another enum.
func (v sourceVisitor) VisitEnum(s types.TypeID, decl types.DeclID, value types.TypeID) Ternary {
	c, t := v.c, v.target
	if v.kind() == types.KindEnum {
		parent, _ := c.in.EnumParent(s)
		tdecl, _ := c.in.DeclOf(t)
		if info, ok := c.in.DeclInfo(tdecl); ok && info.Kind == types.DeclEnum && tdecl == parent && decl != tdecl {
			return True
		}
		return c.fail(EnumMismatch, s, t)
	}
	r := c.Relate(value, t)
	if r == False {
		return c.wrap(Reason{Kind: EnumMismatch, Source: s, Target: t})
	}
	return r
}

func (v sourceVisitor) VisitStringIntrinsic(s types.TypeID, kind types.StringIntrinsicKind, arg types.TypeID) Ternary {
	c, t := v.c, v.target
	if tt, ok := c.in.Lookup(t); ok && tt.Kind == types.KindStringIntrinsic && types.StringIntrinsicKind(tt.Payload) == kind {
		return c.Relate(arg, tt.Elem)
	}
	return c.Relate(types.TypeString, t)
}

// isStringPattern reports whether t is the `${string}` template.
func (c *Checker) isStringPattern(t types.TypeID) bool {
	spans, ok := c.in.TemplateSpans(t)
	return ok && len(spans) == 1 && spans[0].Type == types.TypeString
}

func (c *Checker) matchTemplate(s string, t types.TypeID) bool {
	spans, ok := c.in.TemplateSpans(t)
	return ok && c.in.MatchTemplate(s, spans, c.acceptPiece)
}

// acceptPiece reports whether a slice of a string literal inhabits the
// interpolated type of a template span.
func (c *Checker) acceptPiece(piece string, span types.TypeID) bool {
	switch span {
	case types.TypeString, types.TypeAny, types.TypeUnknown:
		return true
	case types.TypeNumber:
		return isNumericText(piece)
	case types.TypeBigInt:
		return isBigIntText(piece)
	case types.TypeBoolean:
		return piece == "true" || piece == "false"
	}
	switch c.in.KindOf(span) {
	case types.KindLiteral, types.KindEnum, types.KindNull, types.KindUndefined:
		text, ok := c.in.TemplateText(span)
		return ok && text == piece
	case types.KindUnion:
		for _, m := range c.in.Members(span) {
			if c.acceptPiece(piece, m) {
				return true
			}
		}
		return false
	case types.KindTemplateLiteral:
		return c.matchTemplate(piece, span)
	case types.KindTypeParam, types.KindInfer:
		info, _ := c.in.TypeParamInfo(span)
		return info.Constraint == types.NoTypeID || c.acceptPiece(piece, info.Constraint)
	}
	return c.Relate(c.in.StringLiteral(piece), span).Holds()
}

const maxTemplateAlternatives = 64

// expandTemplate distributes union interpolations of t into separate
// templates, up to limit alternatives. Past the limit t is returned as is.
func (c *Checker) expandTemplate(t types.TypeID, limit int) []types.TypeID {
	spans, ok := c.in.TemplateSpans(t)
	if !ok {
		return []types.TypeID{t}
	}
	for i, sp := range spans {
		if sp.IsText() || c.in.KindOf(sp.Type) != types.KindUnion {
			continue
		}
		members := c.in.Members(sp.Type)
		if len(members) > limit {
			return []types.TypeID{t}
		}
		var out []types.TypeID
		for _, m := range members {
			next := slices.Clone(spans)
			next[i] = types.TemplateSpan{Type: m}
			out = append(out, c.expandTemplate(c.in.TemplateLiteral(next), limit/len(members))...)
		}
		return out
	}
	return []types.TypeID{t}
}

// templateSpansRelated compares two templates with identical text layout
// span by span.
func (c *Checker) templateSpansRelated(source, target []types.TemplateSpan) bool {
	if len(target) == 1 && target[0].Type == types.TypeString {
		return true
	}
	if len(source) != len(target) {
		return false
	}
	for i := range source {
		s, t := source[i], target[i]
		if s.IsText() != t.IsText() {
			return false
		}
		if s.IsText() {
			if s.Text != t.Text {
				return false
			}
			continue
		}
		if !c.Relate(s.Type, t.Type).Holds() {
			return false
		}
	}
	return true
}

// isNumericText accepts what the runtime converts to a finite number,
// including unsigned 0x, 0o and 0b integer literals.
func isNumericText(s string) bool {
	if s == "" || s[0] == ' ' || s[len(s)-1] == ' ' {
		return false
	}
	for _, r := range s {
		if r == 'i' || r == 'I' || r == 'n' || r == 'N' || r == '_' {
			return false
		}
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return isDigitsInBase(s[2:], base)
		}
	}
	if strings.ContainsAny(s, "xXpP") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isDigitsInBase(digits string, base int) bool {
	for _, r := range digits {
		v := strings.IndexRune("0123456789abcdef", unicode.ToLower(r))
		if v < 0 || v >= base {
			return false
		}
	}
	return digits != ""
}

func isBigIntText(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
