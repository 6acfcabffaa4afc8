package types

import (
	"strconv"
	"strings"
)

const maxLabelDepth = 8

// Label returns a TypeScript-like rendering of a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > maxLabelDepth {
		return "..."
	}
	return Visit[string](typesIn, id, labeler{in: typesIn, depth: depth})
}

type labeler struct {
	in    *Interner
	depth int
}

func (l labeler) sub(id TypeID) string {
	return labelDepth(l.in, id, l.depth+1)
}

// operand labels id for use inside a postfix or infix position.
func (l labeler) operand(id TypeID) string {
	s := l.sub(id)
	switch l.in.KindOf(id) {
	case KindUnion, KindIntersection, KindFunction, KindConditional, KindKeyOf, KindReadonly:
		return "(" + s + ")"
	}
	return s
}

func (l labeler) VisitIntrinsic(_ TypeID, kind Kind) string {
	if kind == KindInvalid {
		return "?"
	}
	return kind.String()
}

func (l labeler) VisitLiteral(_ TypeID, lit Literal) string {
	switch lit.Kind {
	case LiteralString:
		return strconv.Quote(lit.Str)
	case LiteralNumber:
		return FormatNumber(lit.Num)
	case LiteralBigInt:
		return lit.Str + "n"
	case LiteralBoolean:
		return strconv.FormatBool(lit.Bool)
	}
	return "?"
}

func (l labeler) VisitArray(_, elem TypeID) string {
	return l.operand(elem) + "[]"
}

func (l labeler) VisitTuple(_ TypeID, elems []TupleElement) string {
	parts := make([]string, 0, len(elems))
	for _, el := range elems {
		var sb strings.Builder
		if el.Rest {
			sb.WriteString("...")
		}
		if el.Name != NoAtom {
			sb.WriteString(l.in.AtomString(el.Name))
			if el.Optional {
				sb.WriteString("?")
			}
			sb.WriteString(": ")
			sb.WriteString(l.sub(el.Type))
		} else {
			sb.WriteString(l.sub(el.Type))
			if el.Optional {
				sb.WriteString("?")
			}
		}
		parts = append(parts, sb.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l labeler) members(props []Property, str, num *IndexSignature) []string {
	parts := make([]string, 0, len(props)+2)
	for _, sig := range []*IndexSignature{str, num} {
		if sig == nil {
			continue
		}
		prefix := ""
		if sig.Readonly {
			prefix = "readonly "
		}
		parts = append(parts, prefix+"[key: "+l.sub(sig.Key)+"]: "+l.sub(sig.Value))
	}
	for _, p := range props {
		var sb strings.Builder
		if p.Visibility != Public {
			sb.WriteString(p.Visibility.String())
			sb.WriteByte(' ')
		}
		if p.Readonly {
			sb.WriteString("readonly ")
		}
		sb.WriteString(l.in.AtomString(p.Name))
		if p.Optional {
			sb.WriteByte('?')
		}
		if p.Method {
			if fn, ok := l.in.FunctionShape(p.Type); ok {
				sb.WriteString(l.signature(fn, ": "))
				parts = append(parts, sb.String())
				continue
			}
		}
		sb.WriteString(": ")
		sb.WriteString(l.sub(p.Type))
		if p.HasSplitAccessor() && !p.Readonly {
			sb.WriteString(" (set: ")
			sb.WriteString(l.sub(p.Write))
			sb.WriteByte(')')
		}
		parts = append(parts, sb.String())
	}
	return parts
}

func (l labeler) VisitObject(_ TypeID, shape *ObjectShape) string {
	parts := l.members(shape.Props, shape.StringIndex, shape.NumberIndex)
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// signature renders `<T>(a: A) => R`, or with sep ": " the method form.
func (l labeler) signature(fn *FunctionShape, sep string) string {
	var sb strings.Builder
	if fn.Constructor && sep == " => " {
		sb.WriteString("new ")
	}
	if len(fn.TypeParams) > 0 {
		names := make([]string, len(fn.TypeParams))
		for i, tp := range fn.TypeParams {
			names[i] = l.sub(tp)
		}
		sb.WriteString("<" + strings.Join(names, ", ") + ">")
	}
	params := make([]string, 0, len(fn.Params)+1)
	if fn.This != NoTypeID {
		params = append(params, "this: "+l.sub(fn.This))
	}
	for i, p := range fn.Params {
		name := l.in.AtomString(p.Name)
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		if p.Rest {
			name = "..." + name
		}
		if p.Optional {
			name += "?"
		}
		params = append(params, name+": "+l.sub(p.Type))
	}
	sb.WriteString("(" + strings.Join(params, ", ") + ")")
	sb.WriteString(sep)
	sb.WriteString(l.sub(fn.Return))
	return sb.String()
}

func (l labeler) VisitFunction(_ TypeID, shape *FunctionShape) string {
	return l.signature(shape, " => ")
}

func (l labeler) VisitCallable(_ TypeID, shape *CallableShape) string {
	parts := make([]string, 0, len(shape.Calls)+len(shape.Constructs)+len(shape.Props))
	for i := range shape.Calls {
		parts = append(parts, l.signature(&shape.Calls[i], ": "))
	}
	for i := range shape.Constructs {
		parts = append(parts, "new "+l.signature(&shape.Constructs[i], ": "))
	}
	parts = append(parts, l.members(shape.Props, shape.StringIndex, shape.NumberIndex)...)
	return "{ " + strings.Join(parts, "; ") + " }"
}

func (l labeler) join(members []TypeID, sep string) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = l.operand(m)
	}
	return strings.Join(parts, sep)
}

func (l labeler) VisitUnion(_ TypeID, members []TypeID) string {
	return l.join(members, " | ")
}

func (l labeler) VisitIntersection(_ TypeID, members []TypeID) string {
	return l.join(members, " & ")
}

func (l labeler) VisitConditional(_ TypeID, c ConditionalType) string {
	return l.operand(c.Check) + " extends " + l.operand(c.Extends) + " ? " + l.sub(c.True) + " : " + l.sub(c.False)
}

func modifierPrefix(m MappedModifier) string {
	switch m {
	case ModifierAdd:
		return "+"
	case ModifierRemove:
		return "-"
	}
	return ""
}

func (l labeler) VisitMapped(_ TypeID, m MappedType) string {
	var sb strings.Builder
	sb.WriteString("{ ")
	if m.Readonly != ModifierNone {
		sb.WriteString(modifierPrefix(m.Readonly) + "readonly ")
	}
	sb.WriteString("[" + l.sub(m.Param) + " in " + l.sub(m.Constraint))
	if m.NameType != NoTypeID {
		sb.WriteString(" as " + l.sub(m.NameType))
	}
	sb.WriteString("]")
	if m.Optional != ModifierNone {
		sb.WriteString(modifierPrefix(m.Optional) + "?")
	}
	sb.WriteString(": " + l.sub(m.Template) + " }")
	return sb.String()
}

func (l labeler) declName(decl DeclID) string {
	if info, ok := l.in.DeclInfo(decl); ok && info.Name != "" {
		return info.Name
	}
	return "decl#" + strconv.FormatUint(uint64(decl), 10)
}

func (l labeler) VisitLazy(_ TypeID, decl DeclID) string {
	return l.declName(decl)
}

func (l labeler) VisitApplication(_, base TypeID, args []TypeID) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = l.sub(a)
	}
	return l.sub(base) + "<" + strings.Join(parts, ", ") + ">"
}

func (l labeler) VisitTemplateLiteral(_ TypeID, spans []TemplateSpan) string {
	var sb strings.Builder
	sb.WriteByte('`')
	for _, sp := range spans {
		if sp.IsText() {
			sb.WriteString(l.in.AtomString(sp.Text))
			continue
		}
		sb.WriteString("${" + l.sub(sp.Type) + "}")
	}
	sb.WriteByte('`')
	return sb.String()
}

func (l labeler) VisitTypeParam(_ TypeID, info TypeParamInfo) string {
	return l.in.AtomString(info.Name)
}

func (l labeler) VisitInfer(_ TypeID, info TypeParamInfo) string {
	return "infer " + l.in.AtomString(info.Name)
}

func (l labeler) VisitIndexAccess(_, object, index TypeID) string {
	return l.operand(object) + "[" + l.sub(index) + "]"
}

func (l labeler) VisitKeyOf(_, operand TypeID) string {
	return "keyof " + l.operand(operand)
}

func (l labeler) VisitReadonly(_, inner TypeID) string {
	return "readonly " + l.sub(inner)
}

func (l labeler) VisitUniqueSymbol(_ TypeID, decl DeclID) string {
	return "typeof " + l.declName(decl)
}

func (l labeler) VisitEnum(_ TypeID, decl DeclID, _ TypeID) string {
	info, ok := l.in.DeclInfo(decl)
	if ok && info.Kind == DeclEnumMember && info.Parent != NoDeclID {
		return l.declName(info.Parent) + "." + info.Name
	}
	return l.declName(decl)
}

func (l labeler) VisitStringIntrinsic(_ TypeID, kind StringIntrinsicKind, arg TypeID) string {
	return kind.String() + "<" + l.sub(arg) + ">"
}
