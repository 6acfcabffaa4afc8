package types

import "testing"

func TestLabel(t *testing.T) {
	in := NewInterner()
	tp := in.NewTypeParam("T", NoTypeID, NoTypeID)
	fn := in.Function(FunctionShape{
		Params: []Param{{Name: in.Atom("x"), Type: in.Union(TypeString, TypeNumber)}, {Name: in.Atom("rest"), Type: in.Array(TypeBoolean), Rest: true}},
		Return: TypeVoid,
	})
	opt := in.Object(ObjectShape{Props: []Property{
		{Name: in.Atom("a"), Type: TypeString, Optional: true},
		{Name: in.Atom("b"), Type: TypeNumber, Readonly: true},
	}})
	cases := []struct {
		id   TypeID
		want string
	}{
		{TypeString, "string"},
		{TypeObject, "object"},
		{in.StringLiteral("hi"), `"hi"`},
		{in.NumberLiteral(-3), "-3"},
		{in.BigIntLiteral("12"), "12n"},
		{TypeTrue, "true"},
		{in.Array(in.Union(TypeString, TypeNumber)), "(number | string)[]"},
		{in.TupleOf(TypeString, TypeNumber), "[string, number]"},
		{fn, "(x: number | string, ...rest: boolean[]) => void"},
		{opt, "{ a?: string; readonly b: number }"},
		{in.Object(ObjectShape{}), "{}"},
		{in.KeyOf(tp), "keyof T"},
		{in.IndexAccess(tp, in.StringLiteral("k")), `T["k"]`},
		{in.ReadonlyArray(TypeString), "readonly string[]"},
		{in.StringIntrinsic(IntrinsicUppercase, tp), "Uppercase<T>"},
		{in.Conditional(ConditionalType{Check: tp, Extends: TypeString, True: TypeTrue, False: TypeFalse}), "T extends string ? true : false"},
	}
	for _, tc := range cases {
		if got := Label(in, tc.id); got != tc.want {
			t.Fatalf("Label(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestLabelStopsOnDeepNesting(t *testing.T) {
	in := NewInterner()
	id := TypeString
	for range 20 {
		id = in.Array(id)
	}
	if got := Label(in, id); len(got) > 64 {
		t.Fatalf("label should be truncated, got %q", got)
	}
}

// kindCounter records which Visit method fired.
type kindCounter struct{}

func (kindCounter) VisitIntrinsic(_ TypeID, k Kind) Kind                          { return k }
func (kindCounter) VisitLiteral(TypeID, Literal) Kind                             { return KindLiteral }
func (kindCounter) VisitArray(_, _ TypeID) Kind                                   { return KindArray }
func (kindCounter) VisitTuple(TypeID, []TupleElement) Kind                        { return KindTuple }
func (kindCounter) VisitObject(TypeID, *ObjectShape) Kind                         { return KindObject }
func (kindCounter) VisitFunction(TypeID, *FunctionShape) Kind                     { return KindFunction }
func (kindCounter) VisitCallable(TypeID, *CallableShape) Kind                     { return KindCallable }
func (kindCounter) VisitUnion(TypeID, []TypeID) Kind                              { return KindUnion }
func (kindCounter) VisitIntersection(TypeID, []TypeID) Kind                       { return KindIntersection }
func (kindCounter) VisitConditional(TypeID, ConditionalType) Kind                 { return KindConditional }
func (kindCounter) VisitMapped(TypeID, MappedType) Kind                           { return KindMapped }
func (kindCounter) VisitLazy(TypeID, DeclID) Kind                                 { return KindLazy }
func (kindCounter) VisitApplication(_, _ TypeID, _ []TypeID) Kind                 { return KindApplication }
func (kindCounter) VisitTemplateLiteral(TypeID, []TemplateSpan) Kind              { return KindTemplateLiteral }
func (kindCounter) VisitTypeParam(TypeID, TypeParamInfo) Kind                     { return KindTypeParam }
func (kindCounter) VisitInfer(TypeID, TypeParamInfo) Kind                         { return KindInfer }
func (kindCounter) VisitIndexAccess(_, _, _ TypeID) Kind                          { return KindIndexAccess }
func (kindCounter) VisitKeyOf(_, _ TypeID) Kind                                   { return KindKeyOf }
func (kindCounter) VisitReadonly(_, _ TypeID) Kind                                { return KindReadonly }
func (kindCounter) VisitUniqueSymbol(TypeID, DeclID) Kind                         { return KindUniqueSymbol }
func (kindCounter) VisitEnum(TypeID, DeclID, TypeID) Kind                         { return KindEnum }
func (kindCounter) VisitStringIntrinsic(TypeID, StringIntrinsicKind, TypeID) Kind { return KindStringIntrinsic }

func TestVisitDispatchesEveryKind(t *testing.T) {
	in := NewInterner()
	tp := in.NewTypeParam("T", NoTypeID, NoTypeID)
	decl := in.NewDecl(DeclAlias, "A")
	enumDecl := in.NewDecl(DeclEnum, "E")
	samples := []TypeID{
		TypeAny, in.StringLiteral("s"), in.Array(TypeString), in.TupleOf(TypeString),
		in.ObjectOf(map[string]TypeID{"a": TypeString}),
		in.Function(FunctionShape{Return: TypeString}),
		in.Callable(CallableShape{Calls: []FunctionShape{{Return: TypeString}, {Return: TypeNumber}}}),
		in.Union(TypeString, TypeNumber), in.Intersection(tp, in.ObjectOf(map[string]TypeID{"a": TypeString})),
		in.Conditional(ConditionalType{Check: tp, Extends: TypeString, True: TypeString, False: TypeNever}),
		in.Mapped(MappedType{Param: tp, Constraint: TypeString, Template: TypeNumber}),
		in.Lazy(decl), in.ApplicationOf(in.Lazy(decl), []TypeID{TypeString}),
		in.TemplateOf("a", TypeString), tp, in.NewInfer("U", NoTypeID), in.IndexAccess(tp, TypeString),
		in.KeyOf(tp), in.ReadonlyArray(TypeString), in.UniqueSymbol(in.NewDecl(DeclSymbol, "s")),
		in.EnumType(enumDecl, in.NumberLiteral(0)), in.StringIntrinsic(IntrinsicLowercase, tp),
	}
	seen := make(map[Kind]bool)
	for _, id := range samples {
		got := Visit[Kind](in, id, kindCounter{})
		want := in.KindOf(id)
		if want == KindObjectWithIndex {
			want = KindObject
		}
		if got != want {
			t.Fatalf("Visit(%s) dispatched to %v, want %v", Label(in, id), got, want)
		}
		seen[got] = true
	}
	if got := Visit[Kind](in, NoTypeID, kindCounter{}); got != KindInvalid {
		t.Fatalf("invalid handle dispatched to %v", got)
	}
	// every non-intrinsic kind except the index-signature object variant is exercised
	for k := KindLiteral; k < kindCount; k++ {
		if k != KindObjectWithIndex && !seen[k] {
			t.Fatalf("kind %v not exercised", k)
		}
	}
}

func TestWalkFindsTypeParams(t *testing.T) {
	in := NewInterner()
	tp := in.NewTypeParam("T", NoTypeID, NoTypeID)
	nested := in.ObjectOf(map[string]TypeID{"a": in.Array(in.Union(tp, TypeNull))})
	if !in.ContainsTypeParams(nested) {
		t.Fatalf("expected type parameter to be found")
	}
	if in.ContainsTypeParams(in.ObjectOf(map[string]TypeID{"a": TypeString})) {
		t.Fatalf("concrete type reported as generic")
	}
	decl := in.NewDecl(DeclAlias, "Rec")
	ref := in.Lazy(decl)
	_ = in.DefineDecl(decl, nil, in.ObjectOf(map[string]TypeID{"self": ref, "t": tp}))
	if in.ContainsTypeParams(ref) {
		t.Fatalf("walk must not enter declaration bodies")
	}
	if !in.ContainsInfer(in.Array(in.NewInfer("U", NoTypeID))) {
		t.Fatalf("infer placeholder not found")
	}
}
