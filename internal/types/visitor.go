package types

// Visitor receives one call per descriptor kind. Every algorithm that needs
// to branch on the shape of a type implements it, so adding a kind is a
// compile error in every consumer until it is handled.
type Visitor[R any] interface {
	VisitIntrinsic(id TypeID, kind Kind) R
	VisitLiteral(id TypeID, lit Literal) R
	VisitArray(id, elem TypeID) R
	VisitTuple(id TypeID, elems []TupleElement) R
	VisitObject(id TypeID, shape *ObjectShape) R
	VisitFunction(id TypeID, shape *FunctionShape) R
	VisitCallable(id TypeID, shape *CallableShape) R
	VisitUnion(id TypeID, members []TypeID) R
	VisitIntersection(id TypeID, members []TypeID) R
	VisitConditional(id TypeID, cond ConditionalType) R
	VisitMapped(id TypeID, mapped MappedType) R
	VisitLazy(id TypeID, decl DeclID) R
	VisitApplication(id, base TypeID, args []TypeID) R
	VisitTemplateLiteral(id TypeID, spans []TemplateSpan) R
	VisitTypeParam(id TypeID, info TypeParamInfo) R
	VisitInfer(id TypeID, info TypeParamInfo) R
	VisitIndexAccess(id, object, index TypeID) R
	VisitKeyOf(id, operand TypeID) R
	VisitReadonly(id, inner TypeID) R
	VisitUniqueSymbol(id TypeID, decl DeclID) R
	VisitEnum(id TypeID, decl DeclID, value TypeID) R
	VisitStringIntrinsic(id TypeID, kind StringIntrinsicKind, arg TypeID) R
}

// Visit has to be extended whenever a Kind is added.
var (
	_ [KindCount - 37]struct{}
	_ [37 - KindCount]struct{}
)

// Visit dispatches id to the matching Visitor method. An invalid handle is
// reported as the intrinsic KindInvalid.
func Visit[R any](in *Interner, id TypeID, v Visitor[R]) R {
	tt, ok := in.Lookup(id)
	if !ok {
		return v.VisitIntrinsic(id, KindInvalid)
	}
	switch tt.Kind {
	case KindError, KindNever, KindUnknown, KindAny, KindVoid, KindUndefined, KindNull,
		KindBoolean, KindNumber, KindString, KindBigInt, KindSymbol, KindNonPrimitive, KindGlobalFunction:
		return v.VisitIntrinsic(id, tt.Kind)
	case KindLiteral:
		lit, _ := in.LiteralValue(id)
		return v.VisitLiteral(id, lit)
	case KindArray:
		return v.VisitArray(id, tt.Elem)
	case KindTuple:
		elems, _ := in.TupleElements(id)
		return v.VisitTuple(id, elems)
	case KindObject, KindObjectWithIndex:
		shape, _ := in.ObjectShape(id)
		return v.VisitObject(id, shape)
	case KindFunction:
		shape, _ := in.FunctionShape(id)
		return v.VisitFunction(id, shape)
	case KindCallable:
		shape, _ := in.CallableShape(id)
		return v.VisitCallable(id, shape)
	case KindUnion:
		return v.VisitUnion(id, in.Members(id))
	case KindIntersection:
		return v.VisitIntersection(id, in.Members(id))
	case KindConditional:
		cond, _ := in.ConditionalType(id)
		return v.VisitConditional(id, cond)
	case KindMapped:
		mapped, _ := in.MappedType(id)
		return v.VisitMapped(id, mapped)
	case KindLazy:
		return v.VisitLazy(id, DeclID(tt.Payload))
	case KindApplication:
		base, args, _ := in.Application(id)
		return v.VisitApplication(id, base, args)
	case KindTemplateLiteral:
		spans, _ := in.TemplateSpans(id)
		return v.VisitTemplateLiteral(id, spans)
	case KindTypeParam:
		info, _ := in.TypeParamInfo(id)
		return v.VisitTypeParam(id, info)
	case KindInfer:
		info, _ := in.TypeParamInfo(id)
		return v.VisitInfer(id, info)
	case KindIndexAccess:
		return v.VisitIndexAccess(id, tt.Elem, tt.Index)
	case KindKeyOf:
		return v.VisitKeyOf(id, tt.Elem)
	case KindReadonly:
		return v.VisitReadonly(id, tt.Elem)
	case KindUniqueSymbol:
		return v.VisitUniqueSymbol(id, DeclID(tt.Payload))
	case KindEnum:
		return v.VisitEnum(id, DeclID(tt.Payload), tt.Elem)
	case KindStringIntrinsic:
		return v.VisitStringIntrinsic(id, StringIntrinsicKind(tt.Payload), tt.Elem)
	default:
		return v.VisitIntrinsic(id, KindInvalid)
	}
}
