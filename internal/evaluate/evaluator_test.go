package evaluate

import (
	"errors"
	"testing"

	"tsolver/internal/compat"
	"tsolver/internal/guard"
	"tsolver/internal/types"
)

func newEvaluator(opts Options) (*types.Interner, *Evaluator) {
	in := types.NewInterner()
	rel := compat.New(in, compat.DefaultConfig())
	e := New(in, rel, opts)
	rel.Judge().SetEvaluator(e)
	return in, e
}

func expectType(t *testing.T, in *types.Interner, what string, got, want types.TypeID) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %s, want %s", what, types.Label(in, got), types.Label(in, want))
	}
}

func alias(t *testing.T, in *types.Interner, name string, params []types.TypeID, body func(self types.TypeID) types.TypeID) types.TypeID {
	t.Helper()
	decl := in.NewDecl(types.DeclAlias, name)
	self := in.Lazy(decl)
	if err := in.DefineDecl(decl, params, body(self)); err != nil {
		t.Fatalf("define %s: %v", name, err)
	}
	return self
}

func TestConditionalPicksBranch(t *testing.T) {
	in, e := newEvaluator(Options{})
	yes, no := in.StringLiteral("yes"), in.StringLiteral("no")
	cases := []struct {
		check, ext types.TypeID
		want       types.TypeID
	}{
		{in.StringLiteral("a"), types.TypeString, yes},
		{types.TypeNumber, types.TypeString, no},
		{in.TupleOf(types.TypeString), in.Array(types.TypeString), yes},
		{types.TypeNever, types.TypeString, yes},
	}
	for _, tc := range cases {
		got := e.EvaluateConditional(types.ConditionalType{Check: tc.check, Extends: tc.ext, True: yes, False: no})
		expectType(t, in, types.Label(in, tc.check)+" extends "+types.Label(in, tc.ext), got, tc.want)
	}
}

func TestConditionalOnAnyYieldsBothBranches(t *testing.T) {
	in, e := newEvaluator(Options{})
	yes, no := in.StringLiteral("yes"), in.StringLiteral("no")
	got := e.EvaluateConditional(types.ConditionalType{Check: types.TypeAny, Extends: types.TypeString, True: yes, False: no})
	expectType(t, in, "any extends string", got, in.Union(yes, no))
}

func TestConditionalDefersOnTypeParameter(t *testing.T) {
	in, e := newEvaluator(Options{})
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	got := e.EvaluateConditional(types.ConditionalType{Check: tp, Extends: types.TypeString, True: types.TypeTrue, False: types.TypeFalse})
	if in.KindOf(got) != types.KindConditional {
		t.Fatalf("expected a deferred conditional, got %s", types.Label(in, got))
	}
}

func TestDistributiveConditional(t *testing.T) {
	in, e := newEvaluator(Options{})
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	nonNullable := alias(t, in, "NonNullable", []types.TypeID{tp}, func(types.TypeID) types.TypeID {
		return in.Conditional(types.ConditionalType{
			Check:        tp,
			Extends:      in.Union(types.TypeNull, types.TypeUndefined),
			True:         types.TypeNever,
			False:        tp,
			Distributive: true,
		})
	})
	arg := in.Union(types.TypeString, types.TypeNull, types.TypeUndefined)
	got := e.Evaluate(in.ApplicationOf(nonNullable, []types.TypeID{arg}))
	expectType(t, in, "NonNullable<string | null | undefined>", got, types.TypeString)

	got = e.Evaluate(in.ApplicationOf(nonNullable, []types.TypeID{types.TypeNever}))
	expectType(t, in, "NonNullable<never>", got, types.TypeNever)

	a, one := in.StringLiteral("a"), in.NumberLiteral(1)
	check := in.Union(a, one)
	got = e.EvaluateConditional(types.ConditionalType{Check: check, Extends: types.TypeString, True: check, False: types.TypeNever, Distributive: true})
	expectType(t, in, `Extract<"a" | 1, string>`, got, a)
}

func TestInferFromPatterns(t *testing.T) {
	in, e := newEvaluator(Options{})
	u := in.NewInfer("U", types.NoTypeID)
	r := in.NewInfer("R", types.NoTypeID)
	n := in.NewInfer("N", types.TypeNumber)
	h := in.NewInfer("H", types.NoTypeID)

	fnSource := in.Function(types.FunctionShape{
		Params: []types.Param{{Name: in.Atom("x"), Type: types.TypeNumber}},
		Return: types.TypeBoolean,
	})
	returnPattern := in.Function(types.FunctionShape{
		Params: []types.Param{{Name: in.Atom("args"), Type: in.Array(types.TypeAny), Rest: true}},
		Return: r,
	})
	paramsPattern := in.Function(types.FunctionShape{
		Params: []types.Param{{Name: in.Atom("args"), Type: u, Rest: true}},
		Return: types.TypeAny,
	})
	one, two, three := in.NumberLiteral(1), in.NumberLiteral(2), in.NumberLiteral(3)
	headTail := in.Tuple([]types.TupleElement{{Type: h}, {Type: r, Rest: true}})

	cases := []struct {
		name                string
		check, pattern, out types.TypeID
		want                types.TypeID
	}{
		{"element type", in.Array(types.TypeString), in.Array(u), u, types.TypeString},
		{"return type", fnSource, returnPattern, r, types.TypeBoolean},
		{"parameters", fnSource, paramsPattern, u, in.Tuple([]types.TupleElement{{Type: types.TypeNumber, Name: in.Atom("x")}})},
		{"tuple head", in.TupleOf(one, two, three), headTail, h, one},
		{"tuple tail", in.TupleOf(one, two, three), headTail, r, in.TupleOf(two, three)},
		{"template suffix", in.StringLiteral("get-name"), in.TemplateOf("get-", u), u, in.StringLiteral("name")},
		{"template number", in.StringLiteral("42"), in.TemplateOf("", n), n, in.NumberLiteral(42)},
		{"object member", in.ObjectOf(map[string]types.TypeID{"a": types.TypeString, "b": types.TypeNumber}), in.ObjectOf(map[string]types.TypeID{"a": u}), u, types.TypeString},
		{"no match", types.TypeString, in.Array(u), u, types.TypeNever},
		{"constraint rejects", in.StringLiteral("x1"), in.TemplateOf("", n), n, types.TypeNever},
	}
	for _, tc := range cases {
		got := e.EvaluateConditional(types.ConditionalType{Check: tc.check, Extends: tc.pattern, True: tc.out, False: types.TypeNever})
		expectType(t, in, tc.name, got, tc.want)
	}
}

func TestTailRecursiveConditional(t *testing.T) {
	in, e := newEvaluator(Options{})
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	rest := in.NewInfer("R", types.NoTypeID)
	drop := alias(t, in, "Drop", []types.TypeID{tp}, func(self types.TypeID) types.TypeID {
		return in.Conditional(types.ConditionalType{
			Check:   tp,
			Extends: in.Tuple([]types.TupleElement{{Type: types.TypeAny}, {Type: rest, Rest: true}}),
			True:    in.ApplicationOf(self, []types.TypeID{rest}),
			False:   tp,
		})
	})
	elems := make([]types.TypeID, 200)
	for i := range elems {
		elems[i] = types.TypeNumber
	}
	got := e.Evaluate(in.ApplicationOf(drop, []types.TypeID{in.TupleOf(elems...)}))
	expectType(t, in, "Drop<[number x 200]>", got, in.TupleOf())
}

func TestRunawayExpansionYieldsError(t *testing.T) {
	in, e := newEvaluator(Options{})
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	var exceeded bool
	e.OnBudgetExceeded(func(guard.Profile, guard.Result) { exceeded = true })
	wrap := alias(t, in, "Wrap", []types.TypeID{tp}, func(self types.TypeID) types.TypeID {
		return in.ApplicationOf(self, []types.TypeID{in.Array(tp)})
	})
	got := e.Evaluate(in.ApplicationOf(wrap, []types.TypeID{types.TypeString}))
	expectType(t, in, "Wrap<string>", got, types.TypeError)
	if !exceeded {
		t.Fatalf("expected the budget hook to fire")
	}
}

func TestSelfReferentialAliasStaysDeferred(t *testing.T) {
	in, e := newEvaluator(Options{})
	loop := alias(t, in, "Loop", nil, func(self types.TypeID) types.TypeID { return self })
	if got := e.Evaluate(loop); got != loop {
		t.Fatalf("expected Loop to stay deferred, got %s", types.Label(in, got))
	}
}

func TestMappedTypes(t *testing.T) {
	in, e := newEvaluator(Options{})
	p := in.NewTypeParam("P", types.NoTypeID, types.NoTypeID)
	src := in.Object(types.ObjectShape{Props: []types.Property{
		{Name: in.Atom("a"), Type: types.TypeString},
		{Name: in.Atom("b"), Type: types.TypeNumber, Optional: true},
	}})
	homomorphic := func(source types.TypeID, optional, readonly types.MappedModifier) types.TypeID {
		return e.EvaluateMapped(types.MappedType{
			Param:      p,
			Constraint: in.KeyOf(source),
			Template:   in.IndexAccess(source, p),
			Optional:   optional,
			Readonly:   readonly,
		})
	}

	partial := homomorphic(src, types.ModifierAdd, types.ModifierNone)
	wantPartial := in.Object(types.ObjectShape{Props: []types.Property{
		{Name: in.Atom("a"), Type: types.TypeString, Optional: true},
		{Name: in.Atom("b"), Type: in.Union(types.TypeNumber, types.TypeUndefined), Optional: true},
	}})
	expectType(t, in, "Partial", partial, wantPartial)

	required := homomorphic(src, types.ModifierRemove, types.ModifierNone)
	wantRequired := in.Object(types.ObjectShape{Props: []types.Property{
		{Name: in.Atom("a"), Type: types.TypeString},
		{Name: in.Atom("b"), Type: types.TypeNumber},
	}})
	expectType(t, in, "Required", required, wantRequired)

	ro := homomorphic(in.ObjectOf(map[string]types.TypeID{"a": types.TypeString}), types.ModifierNone, types.ModifierAdd)
	wantRO := in.Object(types.ObjectShape{Props: []types.Property{{Name: in.Atom("a"), Type: types.TypeString, Readonly: true}}})
	expectType(t, in, "Readonly", ro, wantRO)

	arr := in.Array(types.TypeString)
	nullable := e.EvaluateMapped(types.MappedType{
		Param:      p,
		Constraint: in.KeyOf(arr),
		Template:   in.Union(in.IndexAccess(arr, p), types.TypeNull),
	})
	expectType(t, in, "Nullable<string[]>", nullable, in.Array(in.Union(types.TypeString, types.TypeNull)))

	tuple := in.TupleOf(types.TypeString, types.TypeNumber)
	boxed := e.EvaluateMapped(types.MappedType{
		Param:      p,
		Constraint: in.KeyOf(tuple),
		Template:   in.Array(in.IndexAccess(tuple, p)),
	})
	expectType(t, in, "Boxed<[string, number]>", boxed, in.TupleOf(in.Array(types.TypeString), in.Array(types.TypeNumber)))

	src := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString, "b": types.TypeNumber})
	wrapped := e.EvaluateMapped(types.MappedType{
		Param:      p,
		Constraint: in.KeyOf(src),
		Template:   in.ObjectOf(map[string]types.TypeID{"v": in.IndexAccess(src, p)}),
	})
	wantWrapped := in.ObjectOf(map[string]types.TypeID{
		"a": in.ObjectOf(map[string]types.TypeID{"v": types.TypeString}),
		"b": in.ObjectOf(map[string]types.TypeID{"v": types.TypeNumber}),
	})
	expectType(t, in, "Wrapped<{a: string, b: number}>", wrapped, wantWrapped)

	x, y := in.StringLiteral("x"), in.StringLiteral("y")
	record := e.EvaluateMapped(types.MappedType{Param: p, Constraint: in.Union(x, y), Template: types.TypeNumber})
	expectType(t, in, "Record<x | y, number>", record, in.ObjectOf(map[string]types.TypeID{"x": types.TypeNumber, "y": types.TypeNumber}))

	dict := e.EvaluateMapped(types.MappedType{Param: p, Constraint: types.TypeString, Template: types.TypeBoolean})
	wantDict := in.Object(types.ObjectShape{StringIndex: &types.IndexSignature{Key: types.TypeString, Value: types.TypeBoolean}})
	expectType(t, in, "Record<string, boolean>", dict, wantDict)
}

func TestMappedKeyRemapping(t *testing.T) {
	in, e := newEvaluator(Options{})
	p := in.NewTypeParam("P", types.NoTypeID, types.NoTypeID)
	src := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString, "b": types.TypeNumber})

	getters := e.EvaluateMapped(types.MappedType{
		Param:      p,
		Constraint: in.KeyOf(src),
		NameType:   in.TemplateOf("get_", p),
		Template:   in.IndexAccess(src, p),
	})
	want := in.Object(types.ObjectShape{Props: []types.Property{
		{Name: in.Atom("get_a"), Type: types.TypeString},
		{Name: in.Atom("get_b"), Type: types.TypeNumber},
	}})
	expectType(t, in, "Getters", getters, want)

	omitA := e.EvaluateMapped(types.MappedType{
		Param:      p,
		Constraint: in.KeyOf(src),
		NameType:   in.Conditional(types.ConditionalType{Check: p, Extends: in.StringLiteral("a"), True: types.TypeNever, False: p}),
		Template:   in.IndexAccess(src, p),
	})
	wantOmit := in.Object(types.ObjectShape{Props: []types.Property{{Name: in.Atom("b"), Type: types.TypeNumber}}})
	expectType(t, in, "Omit<a>", omitA, wantOmit)
}

func TestKeyOfAndIndexedAccess(t *testing.T) {
	in, e := newEvaluator(Options{NoUncheckedIndexedAccess: true})
	a, b, c := in.StringLiteral("a"), in.StringLiteral("b"), in.StringLiteral("c")
	ab := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString, "b": types.TypeNumber})
	ac := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString, "c": types.TypeNull})
	tuple := in.TupleOf(types.TypeString, types.TypeNumber)
	dict := in.Object(types.ObjectShape{StringIndex: &types.IndexSignature{Key: types.TypeString, Value: types.TypeBoolean}})
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)

	expectType(t, in, "keyof {a, b}", e.EvaluateKeyOf(ab), in.Union(a, b))
	expectType(t, in, "keyof ({a, b} | {a, c})", e.EvaluateKeyOf(in.Union(ab, ac)), a)
	expectType(t, in, "keyof ({a, b} & {a, c})", e.EvaluateKeyOf(in.Intersection(ab, ac)), in.Union(a, b, c))
	expectType(t, in, "keyof any", e.EvaluateKeyOf(types.TypeAny), in.Union(types.TypeString, types.TypeNumber, types.TypeSymbol))
	expectType(t, in, "keyof dict", e.EvaluateKeyOf(dict), in.Union(types.TypeString, types.TypeNumber))
	if got := e.EvaluateKeyOf(tp); in.KindOf(got) != types.KindKeyOf {
		t.Fatalf("keyof T should stay deferred, got %s", types.Label(in, got))
	}

	expectType(t, in, "{a, b}[a | b]", e.EvaluateIndexAccess(ab, in.Union(a, b)), in.Union(types.TypeString, types.TypeNumber))
	expectType(t, in, "{a, b}[c]", e.EvaluateIndexAccess(ab, c), types.TypeError)
	expectType(t, in, "tuple[number]", e.EvaluateIndexAccess(tuple, types.TypeNumber), in.Union(types.TypeString, types.TypeNumber))
	expectType(t, in, "tuple[1]", e.EvaluateIndexAccess(tuple, in.NumberLiteral(1)), types.TypeNumber)
	expectType(t, in, "tuple[length]", e.EvaluateIndexAccess(tuple, in.StringLiteral("length")), in.NumberLiteral(2))
	// type-level reads never add undefined, even under NoUncheckedIndexedAccess
	expectType(t, in, "string[][number]", e.EvaluateIndexAccess(in.Array(types.TypeString), types.TypeNumber), types.TypeString)
	expectType(t, in, "dict[string]", e.EvaluateIndexAccess(dict, types.TypeString), types.TypeBoolean)
	if got := e.EvaluateIndexAccess(tp, a); in.KindOf(got) != types.KindIndexAccess {
		t.Fatalf("T[a] should stay deferred, got %s", types.Label(in, got))
	}
}

func TestTemplateExpansion(t *testing.T) {
	in, e := newEvaluator(Options{MaxTemplateSize: 3})
	ab := in.Union(in.StringLiteral("a"), in.StringLiteral("b"))
	xy := in.Union(in.StringLiteral("x"), in.StringLiteral("y"))

	got, err := e.ExpandTemplateLiteral(in.TemplateOf("", ab, "-", types.TypeBoolean))
	if err == nil {
		t.Fatalf("expected an error for 4 alternatives, got %s", types.Label(in, got))
	}
	if !errors.Is(err, ErrTemplateTooLarge) {
		t.Fatalf("expected ErrTemplateTooLarge, got %v", err)
	}
	if got := e.Evaluate(in.TemplateOf("", ab, "-", xy)); got != types.TypeString {
		t.Fatalf("oversized template should widen to string, got %s", types.Label(in, got))
	}

	in, e = newEvaluator(Options{})
	ab = in.Union(in.StringLiteral("a"), in.StringLiteral("b"))
	got, err = e.ExpandTemplateLiteral(in.TemplateOf("", ab, "-", types.TypeBoolean))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := in.Union(in.StringLiteral("a-true"), in.StringLiteral("a-false"), in.StringLiteral("b-true"), in.StringLiteral("b-false"))
	expectType(t, in, "`${a|b}-${boolean}`", got, want)

	open := in.TemplateOf("id-", types.TypeNumber)
	expectType(t, in, "`id-${number}`", e.Evaluate(open), open)
	expectType(t, in, "`x${never}`", e.Evaluate(in.TemplateOf("x", types.TypeNever)), types.TypeNever)
}

func TestStringIntrinsics(t *testing.T) {
	in, e := newEvaluator(Options{})
	apply := func(kind types.StringIntrinsicKind, arg types.TypeID) types.TypeID {
		return e.Evaluate(in.StringIntrinsic(kind, arg))
	}
	expectType(t, in, "Uppercase<abc | def>",
		apply(types.IntrinsicUppercase, in.Union(in.StringLiteral("abc"), in.StringLiteral("def"))),
		in.Union(in.StringLiteral("ABC"), in.StringLiteral("DEF")))
	expectType(t, in, "Lowercase<ÄB>", apply(types.IntrinsicLowercase, in.StringLiteral("ÄB")), in.StringLiteral("äb"))
	expectType(t, in, "Capitalize<hello world>", apply(types.IntrinsicCapitalize, in.StringLiteral("hello world")), in.StringLiteral("Hello world"))
	expectType(t, in, "Uncapitalize<Hello>", apply(types.IntrinsicUncapitalize, in.StringLiteral("Hello")), in.StringLiteral("hello"))

	got := apply(types.IntrinsicUppercase, in.TemplateOf("a", types.TypeString))
	want := in.TemplateOf("A", in.StringIntrinsic(types.IntrinsicUppercase, types.TypeString))
	expectType(t, in, "Uppercase<`a${string}`>", got, want)

	if got := apply(types.IntrinsicUppercase, types.TypeString); in.KindOf(got) != types.KindStringIntrinsic {
		t.Fatalf("Uppercase<string> should stay deferred, got %s", types.Label(in, got))
	}
}

func TestInstantiate(t *testing.T) {
	in, e := newEvaluator(Options{})
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)

	got := e.Instantiate(in.ObjectOf(map[string]types.TypeID{"value": tp}), Substitution{tp: types.TypeString})
	expectType(t, in, "{value: T}[T=string]", got, in.ObjectOf(map[string]types.TypeID{"value": types.TypeString}))

	generic := in.Function(types.FunctionShape{
		TypeParams: []types.TypeID{tp},
		Params:     []types.Param{{Name: in.Atom("x"), Type: tp}},
		Return:     tp,
	})
	expectType(t, in, "<T>(x: T) => T", e.Instantiate(generic, Substitution{tp: types.TypeString}), generic)

	u := in.NewTypeParam("U", types.NoTypeID, types.NoTypeID)
	k := in.StringLiteral("k")
	nested := in.Array(in.IndexAccess(tp, k))
	obj := in.ObjectOf(map[string]types.TypeID{"k": types.TypeNumber})
	expectType(t, in, "T[k][][T={k: number}]", e.Instantiate(nested, Substitution{tp: obj}), in.Array(types.TypeNumber))
	pending := e.Instantiate(in.Array(in.IndexAccess(tp, u)), Substitution{u: k})
	expectType(t, in, "T[U][][U=k]", pending, in.Array(in.IndexAccess(tp, k)))

	deep := tp
	for range 80 {
		deep = in.Array(deep)
	}
	got = e.Instantiate(deep, Substitution{tp: types.TypeString})
	if !in.Contains(got, func(id types.TypeID) bool { return id == types.TypeAny }) {
		t.Fatalf("overflowing instantiation should degrade to any, got %s", types.Label(in, got))
	}
}

func TestApplicationDefaults(t *testing.T) {
	in, e := newEvaluator(Options{})
	tp := in.NewTypeParam("T", types.NoTypeID, types.TypeString)
	u := in.NewTypeParam("U", types.TypeNumber, types.NoTypeID)
	box := alias(t, in, "Box", []types.TypeID{tp, u}, func(types.TypeID) types.TypeID {
		return in.ObjectOf(map[string]types.TypeID{"value": tp, "size": u})
	})
	got := e.Evaluate(in.ApplicationOf(box, nil))
	want := in.ObjectOf(map[string]types.TypeID{"value": types.TypeString, "size": types.TypeNumber})
	expectType(t, in, "Box", got, want)
}

func TestResolvePropertyAccess(t *testing.T) {
	in, e := newEvaluator(Options{NoUncheckedIndexedAccess: true})
	obj := in.Object(types.ObjectShape{Props: []types.Property{
		{Name: in.Atom("a"), Type: types.TypeString},
		{Name: in.Atom("b"), Type: types.TypeNumber, Optional: true},
		{Name: in.Atom("c"), Type: types.TypeBoolean, Readonly: true},
	}})
	dict := in.Object(types.ObjectShape{StringIndex: &types.IndexSignature{Key: types.TypeString, Value: types.TypeNumber}})
	constrained := in.NewTypeParam("T", obj, types.NoTypeID)
	free := in.NewTypeParam("U", types.NoTypeID, types.NoTypeID)

	cases := []struct {
		object types.TypeID
		name   string
		status AccessStatus
		typ    types.TypeID
	}{
		{obj, "a", Found, types.TypeString},
		{obj, "b", Found, in.Union(types.TypeNumber, types.TypeUndefined)},
		{obj, "zzz", NotFound, types.NoTypeID},
		{in.Union(obj, types.TypeNull), "a", PossiblyNullish, types.TypeString},
		{types.TypeAny, "a", IsAny, types.TypeAny},
		{types.TypeUnknown, "a", IsUnknown, types.TypeUnknown},
		{types.TypeError, "a", IsError, types.TypeError},
		{dict, "anything", Found, in.Union(types.TypeNumber, types.TypeUndefined)},
		{in.TupleOf(types.TypeString, types.TypeNumber), "length", Found, in.NumberLiteral(2)},
		{in.Array(types.TypeString), "0", Found, in.Union(types.TypeString, types.TypeUndefined)},
		{constrained, "a", Found, types.TypeString},
		{free, "a", IsUnknown, types.TypeUnknown},
		{in.StringLiteral("hi"), "length", Found, types.TypeNumber},
	}
	for _, tc := range cases {
		r := e.ResolvePropertyAccess(tc.object, tc.name)
		if r.Status != tc.status {
			t.Fatalf("%s.%s: status %v, want %v", types.Label(in, tc.object), tc.name, r.Status, tc.status)
		}
		if tc.typ != types.NoTypeID && r.Type != tc.typ {
			t.Fatalf("%s.%s: type %s, want %s", types.Label(in, tc.object), tc.name, types.Label(in, r.Type), types.Label(in, tc.typ))
		}
	}

	if r := e.ResolvePropertyAccess(obj, "c"); !r.Readonly {
		t.Fatalf("c should be readonly")
	}
	if r := e.ResolvePropertyAccess(dict, "k"); !r.FromIndexSignature || r.WriteType != types.TypeNumber {
		t.Fatalf("dict.k: %+v", r)
	}
	if r := e.ResolvePropertyAccess(in.Union(obj, types.TypeNull), "a"); r.Nullish != types.TypeNull {
		t.Fatalf("expected null to be reported, got %s", types.Label(in, r.Nullish))
	}
}

func TestAccessStatusNames(t *testing.T) {
	for s := Found; s <= IsError; s++ {
		got, ok := ParseAccessStatus(s.String())
		if !ok || got != s {
			t.Fatalf("ParseAccessStatus(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := ParseAccessStatus("missing"); ok {
		t.Fatalf("unexpected status for an unknown name")
	}
}
