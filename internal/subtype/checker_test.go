package subtype

import (
	"slices"
	"testing"

	"tsolver/internal/guard"
	"tsolver/internal/types"
)

func newChecker(opts Options) (*types.Interner, *Checker) {
	in := types.NewInterner()
	return in, New(in, opts)
}

func fn(in *types.Interner, ret types.TypeID, params ...types.TypeID) types.TypeID {
	ps := make([]types.Param, len(params))
	for i, p := range params {
		ps[i] = types.Param{Name: in.Atom(string(rune('a' + i))), Type: p}
	}
	return in.Function(types.FunctionShape{Params: ps, Return: ret})
}

func expect(t *testing.T, c *Checker, s, tgt types.TypeID, want Ternary) {
	t.Helper()
	if got := c.IsSubtype(s, tgt); got != want {
		in := c.Interner()
		t.Fatalf("IsSubtype(%s, %s) = %v, want %v", types.Label(in, s), types.Label(in, tgt), got, want)
	}
}

func TestSubtypeIsReflexive(t *testing.T) {
	in, c := newChecker(SoundOptions())
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	samples := []types.TypeID{
		types.TypeString, types.TypeNever, types.TypeUnknown, types.TypeAny, types.TypeError,
		in.StringLiteral("x"), in.Array(types.TypeNumber), in.TupleOf(types.TypeString, types.TypeBoolean),
		in.ObjectOf(map[string]types.TypeID{"a": tp}), fn(in, types.TypeVoid, types.TypeString),
		in.Union(types.TypeNull, types.TypeString), in.KeyOf(tp), tp,
	}
	for _, s := range samples {
		expect(t, c, s, s, True)
	}
}

func TestIntrinsicRules(t *testing.T) {
	in, c := newChecker(SoundOptions())
	empty := in.Object(types.ObjectShape{})
	cases := []struct {
		s, t types.TypeID
		want Ternary
	}{
		{types.TypeNever, types.TypeString, True},
		{types.TypeString, types.TypeUnknown, True},
		{types.TypeUnknown, types.TypeString, False},
		{types.TypeAny, types.TypeString, False},
		{types.TypeError, types.TypeString, False},
		{types.TypeString, types.TypeError, False},
		{types.TypeUndefined, types.TypeVoid, True},
		{types.TypeNull, types.TypeString, False},
		{types.TypeString, empty, True},
		{types.TypeNull, empty, False},
		{types.TypeString, types.TypeObject, False},
		{in.ObjectOf(map[string]types.TypeID{"a": types.TypeString}), types.TypeObject, True},
		{in.StringLiteral("a"), types.TypeString, True},
		{types.TypeTrue, types.TypeBoolean, True},
		{in.NumberLiteral(1), types.TypeString, False},
		{in.UniqueSymbol(in.NewDecl(types.DeclSymbol, "s")), types.TypeSymbol, True},
		{fn(in, types.TypeVoid), types.TypeFunction, True},
	}
	for _, tc := range cases {
		expect(t, c, tc.s, tc.t, tc.want)
	}

	loose := New(in, Options{AnyIsBottom: true})
	expect(t, loose, types.TypeNull, types.TypeString, True)
	expect(t, loose, types.TypeAny, in.ObjectOf(map[string]types.TypeID{"a": types.TypeString}), True)
}

func TestRecursiveTypesTerminate(t *testing.T) {
	in, c := newChecker(SoundOptions())
	list := func(name string, value types.TypeID) types.TypeID {
		decl := in.NewDecl(types.DeclAlias, name)
		ref := in.Lazy(decl)
		if err := in.DefineDecl(decl, nil, in.ObjectOf(map[string]types.TypeID{"next": ref, "value": value})); err != nil {
			t.Fatalf("DefineDecl: %v", err)
		}
		return ref
	}
	a := list("A", types.TypeString)
	b := list("B", types.TypeString)
	n := list("N", types.TypeNumber)
	wide := list("W", in.Union(types.TypeString, types.TypeNumber))

	expect(t, c, a, b, True)
	expect(t, c, b, a, True)
	expect(t, c, a, n, False)
	expect(t, c, a, wide, True)
	expect(t, c, wide, a, False)
	// repeated queries hit the cache and agree
	expect(t, c, a, b, True)
	expect(t, c, a, n, False)
}

func TestSplitAccessorIsAsymmetric(t *testing.T) {
	in, c := newChecker(SoundOptions())
	x := in.Atom("x")
	accessor := in.Object(types.ObjectShape{Props: []types.Property{
		{Name: x, Type: types.TypeString, Write: in.Union(types.TypeString, types.TypeNumber)},
	}})
	plain := in.Object(types.ObjectShape{Props: []types.Property{{Name: x, Type: types.TypeString}}})

	expect(t, c, accessor, plain, True)
	expect(t, c, plain, accessor, False)
	if r := c.ExplainFailure(plain, accessor); r == nil || r.Kind != PropertyWriteTypeMismatch {
		t.Fatalf("expected a write-type reason, got %+v", r)
	}
}

func TestFunctionParameterVariance(t *testing.T) {
	in, c := newChecker(SoundOptions())
	wide := fn(in, types.TypeVoid, in.Union(types.TypeString, types.TypeNumber))
	narrow := fn(in, types.TypeVoid, types.TypeString)

	expect(t, c, wide, narrow, True)
	expect(t, c, narrow, wide, False)

	bivariant := New(in, Options{StrictNullChecks: true})
	expect(t, bivariant, narrow, wide, True)

	method := func(f types.TypeID) types.TypeID {
		return in.Object(types.ObjectShape{Props: []types.Property{{Name: in.Atom("m"), Type: f, Method: true}}})
	}
	methods := New(in, Options{StrictFunctionTypes: true, StrictNullChecks: true, MethodBivariance: true})
	expect(t, methods, method(narrow), method(wide), True)
	expect(t, c, method(narrow), method(wide), False)
}

func TestSignatureArityAndReturn(t *testing.T) {
	in, c := newChecker(SoundOptions())
	one := fn(in, types.TypeString, types.TypeString)
	two := fn(in, types.TypeString, types.TypeString, types.TypeNumber)
	none := fn(in, types.TypeString)

	expect(t, c, one, two, True)
	expect(t, c, none, one, True)
	expect(t, c, two, one, False)
	if r := c.ExplainFailure(two, one); r == nil || r.Kind != TooManyParameters {
		t.Fatalf("expected too-many-parameters, got %+v", r)
	}

	toNumber := fn(in, types.TypeNumber, types.TypeString)
	toVoid := fn(in, types.TypeVoid, types.TypeString)
	expect(t, c, toNumber, one, False)
	expect(t, c, toNumber, toVoid, False)
	voidOK := New(in, Options{StrictFunctionTypes: true, StrictNullChecks: true, AllowVoidReturn: true})
	expect(t, voidOK, toNumber, toVoid, True)

	rest := in.Function(types.FunctionShape{
		Params: []types.Param{{Name: in.Atom("xs"), Type: in.Array(types.TypeString), Rest: true}},
		Return: types.TypeString,
	})
	expect(t, c, rest, two, False)
	expect(t, c, rest, one, True)
	ctor := in.Function(types.FunctionShape{Return: types.TypeString, Constructor: true})
	expect(t, c, ctor, none, False)
}

func TestTupleAndArrayRules(t *testing.T) {
	in, c := newChecker(SoundOptions())
	str, num := types.TypeString, types.TypeNumber
	pair := in.TupleOf(str, num)
	variadic := in.Tuple([]types.TupleElement{{Type: str}, {Type: in.Array(num), Rest: true}})
	optional := in.Tuple([]types.TupleElement{{Type: str}, {Type: num, Optional: true}})

	expect(t, c, pair, in.Array(in.Union(str, num)), True)
	expect(t, c, pair, in.Array(str), False)
	expect(t, c, in.Array(str), in.TupleOf(str), False)
	expect(t, c, in.Array(str), in.Tuple([]types.TupleElement{{Type: in.Array(str), Rest: true}}), True)
	expect(t, c, pair, variadic, True)
	expect(t, c, variadic, pair, False)
	expect(t, c, in.TupleOf(str), optional, True)
	expect(t, c, optional, in.TupleOf(str), False)
	expect(t, c, pair, in.TupleOf(str), False)
	expect(t, c, in.ReadonlyArray(str), in.Array(str), False)
	expect(t, c, in.Array(str), in.ReadonlyArray(str), True)
	expect(t, c, pair, in.ObjectOf(map[string]types.TypeID{"length": num, "0": str}), True)

	if r := c.ExplainFailure(pair, in.TupleOf(str)); r == nil || r.Kind != TupleArityMismatch || r.Actual != 2 {
		t.Fatalf("expected arity reason, got %+v", r)
	}
}

func TestOptionalTupleElementWidensArrayElement(t *testing.T) {
	opts := SoundOptions()
	opts.ExactOptionalPropertyTypes = false
	in, c := newChecker(opts)
	str, num := types.TypeString, types.TypeNumber
	optional := in.Tuple([]types.TupleElement{{Type: str}, {Type: num, Optional: true}})

	expect(t, c, optional, in.Array(in.Union(str, num)), False)
	expect(t, c, optional, in.Array(in.Union(str, num, types.TypeUndefined)), True)

	_, exact := newChecker(SoundOptions())
	exactIn := exact.Interner()
	exactOptional := exactIn.Tuple([]types.TupleElement{{Type: str}, {Type: num, Optional: true}})
	expect(t, exact, exactOptional, exactIn.Array(exactIn.Union(str, num)), True)
}

func TestUnionAndIntersectionRules(t *testing.T) {
	in, c := newChecker(SoundOptions())
	a, b := in.StringLiteral("a"), in.StringLiteral("b")
	objA := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString})
	objB := in.ObjectOf(map[string]types.TypeID{"b": types.TypeNumber})
	objAB := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString, "b": types.TypeNumber})
	tp := in.NewTypeParam("T", objA, types.NoTypeID)

	expect(t, c, a, in.Union(a, b), True)
	expect(t, c, in.Union(a, b), types.TypeString, True)
	expect(t, c, types.TypeString, in.Union(a, b), False)
	expect(t, c, in.Union(a, types.TypeNumber), types.TypeString, False)
	expect(t, c, objAB, in.Intersection(objA, objB), True)
	expect(t, c, objA, in.Intersection(objA, objB), False)
	expect(t, c, in.Intersection(tp, objB), objA, True)
	expect(t, c, in.Intersection(tp, objB), objAB, True)
	expect(t, c, tp, objA, True)
	expect(t, c, tp, objB, False)

	if r := c.ExplainFailure(types.TypeString, in.Union(a, b)); r == nil || r.Kind != NoUnionMemberMatches {
		t.Fatalf("expected union reason, got %+v", r)
	}
}

func TestObjectRules(t *testing.T) {
	in, c := newChecker(SoundOptions())
	a := in.Atom("a")
	required := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString})
	optional := in.Object(types.ObjectShape{Props: []types.Property{{Name: a, Type: types.TypeString, Optional: true}}})
	readonly := in.Object(types.ObjectShape{Props: []types.Property{{Name: a, Type: types.TypeString, Readonly: true}}})
	dict := in.Object(types.ObjectShape{StringIndex: &types.IndexSignature{Key: types.TypeString, Value: types.TypeString}})
	numDict := in.Object(types.ObjectShape{StringIndex: &types.IndexSignature{Key: types.TypeString, Value: types.TypeNumber}})

	expect(t, c, required, optional, True)
	expect(t, c, optional, required, False)
	expect(t, c, readonly, required, False)
	expect(t, c, required, readonly, True)
	expect(t, c, required, dict, True)
	expect(t, c, required, numDict, False)
	expect(t, c, dict, in.Object(types.ObjectShape{}), True)

	class := in.NewDecl(types.DeclClass, "C")
	nominal := in.Object(types.ObjectShape{Props: []types.Property{{Name: a, Type: types.TypeString}}, Nominal: class})
	expect(t, c, nominal, dict, False)
	if r := c.ExplainFailure(nominal, dict); r == nil || r.Kind != MissingIndexSignature {
		t.Fatalf("expected missing index signature, got %+v", r)
	}

	private := func(owner types.DeclID) types.TypeID {
		return in.Object(types.ObjectShape{Props: []types.Property{{Name: a, Type: types.TypeString, Visibility: types.Private, Parent: owner}}})
	}
	other := in.NewDecl(types.DeclClass, "D")
	// declaring classes are compared by the private-brand rule, not here
	expect(t, c, private(class), private(other), True)
	expect(t, c, required, private(class), False)
	if r := c.ExplainFailure(required, private(class)); r == nil || r.Kind != PropertyVisibilityMismatch {
		t.Fatalf("expected visibility reason, got %+v", r)
	}

	loose := New(in, Options{StrictNullChecks: true})
	expect(t, loose, readonly, required, True)
}

func TestEnumsAreNominal(t *testing.T) {
	in, c := newChecker(SoundOptions())
	enum := in.NewDecl(types.DeclEnum, "E")
	member := func(name string, v float64) types.TypeID {
		d := in.NewDecl(types.DeclEnumMember, name)
		if err := in.UpdateDecl(d, func(info *types.Decl) { info.Parent = enum }); err != nil {
			t.Fatalf("UpdateDecl: %v", err)
		}
		return in.EnumMember(d, in.NumberLiteral(v))
	}
	ea, eb := member("A", 0), member("B", 1)
	whole := in.EnumType(enum, in.Union(in.NumberLiteral(0), in.NumberLiteral(1)))

	expect(t, c, ea, whole, True)
	expect(t, c, ea, types.TypeNumber, True)
	expect(t, c, ea, eb, False)
	expect(t, c, in.NumberLiteral(0), ea, False)
	if r := c.ExplainFailure(ea, eb); r == nil || r.Kind != EnumMismatch {
		t.Fatalf("expected enum reason, got %+v", r)
	}
}

func TestTemplateLiteralPatterns(t *testing.T) {
	in, c := newChecker(SoundOptions())
	id := in.TemplateOf("id-", types.TypeNumber)
	expect(t, c, in.StringLiteral("id-42"), id, True)
	expect(t, c, in.StringLiteral("id-1.5e3"), id, True)
	expect(t, c, in.StringLiteral("id-x"), id, False)
	expect(t, c, in.StringLiteral("id-0x1F"), id, True)
	expect(t, c, in.StringLiteral("id-0b101"), id, True)
	expect(t, c, in.StringLiteral("id-0o17"), id, True)
	expect(t, c, in.StringLiteral("id-0b102"), id, False)
	expect(t, c, in.StringLiteral("id-0x"), id, False)
	expect(t, c, in.StringLiteral("id-0x1p4"), id, False)
	expect(t, c, in.StringLiteral("ID-1"), id, False)
	expect(t, c, id, types.TypeString, True)
	expect(t, c, types.TypeString, id, False)
	expect(t, c, types.TypeString, in.TemplateOf(types.TypeString), True)

	kinds := in.TemplateOf(in.Union(in.StringLiteral("get"), in.StringLiteral("set")), "-", types.TypeString)
	expect(t, c, in.StringLiteral("get-user"), kinds, True)
	expect(t, c, in.StringLiteral("put-user"), kinds, False)
	expect(t, c, in.TemplateOf("get-", types.TypeString), kinds, True)
}

func TestExplainFailureChains(t *testing.T) {
	in, c := newChecker(SoundOptions())
	source := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString})
	target := in.ObjectOf(map[string]types.TypeID{"a": types.TypeNumber})
	r := c.ExplainFailure(source, target)
	if r == nil {
		t.Fatalf("expected a reason")
	}
	if want := []ReasonKind{PropertyTypeMismatch, IntrinsicTypeMismatch}; !slices.Equal(r.Kinds(), want) {
		t.Fatalf("reason chain = %v, want %v", r.Kinds(), want)
	}
	if r.Name != "a" {
		t.Fatalf("reason names property %q", r.Name)
	}
	if r.Format(in) == "" {
		t.Fatalf("empty formatted reason")
	}

	missing := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString, "b": types.TypeNumber})
	r = c.ExplainFailure(source, missing)
	if r == nil || r.Kind != MissingProperty || r.Name != "b" {
		t.Fatalf("expected missing property b, got %+v", r)
	}
	if c.ExplainFailure(missing, source) != nil {
		t.Fatalf("holding relation must not produce a reason")
	}
}

func TestBudgetExhaustionIsProvisional(t *testing.T) {
	in := types.NewInterner()
	nest := func(leaf types.TypeID) types.TypeID {
		id := leaf
		for range 10 {
			id = in.ObjectOf(map[string]types.TypeID{"a": id})
		}
		return id
	}
	s, tgt := nest(types.TypeString), nest(types.TypeNumber)

	opts := SoundOptions()
	opts.Profile = guard.Custom("tiny", 4, 1000)
	c := New(in, opts)
	hits := 0
	c.OnBudgetExceeded(func(guard.Profile, guard.Result) { hits++ })

	if got := c.IsSubtype(s, tgt); got != Provisional {
		t.Fatalf("expected provisional result, got %v", got)
	}
	if hits == 0 {
		t.Fatalf("budget hook not invoked")
	}
	if r := c.ExplainFailure(s, tgt); r == nil || r.Kind != RecursionLimitExceeded {
		t.Fatalf("expected recursion limit reason, got %+v", r)
	}
	// the full budget decides the same pair
	if got := New(in, SoundOptions()).IsSubtype(s, tgt); got != False {
		t.Fatalf("expected false with the default budget, got %v", got)
	}
}

type denyStrings struct{}

func (denyStrings) Override(c *Checker, s, t types.TypeID) (Ternary, bool) {
	if c.Interner().KindOf(s) == types.KindLiteral && t == types.TypeString {
		return c.Fail(Reason{Kind: LiteralTypeMismatch, Source: s, Target: t}), true
	}
	return False, false
}

func TestOverrideAppliesToNestedPairs(t *testing.T) {
	in, c := newChecker(SoundOptions())
	c.SetOverride(denyStrings{})
	source := in.ObjectOf(map[string]types.TypeID{"a": in.StringLiteral("x")})
	target := in.ObjectOf(map[string]types.TypeID{"a": types.TypeString})
	expect(t, c, source, target, False)
	r := c.ExplainFailure(source, target)
	if r == nil || r.Leaf().Kind != LiteralTypeMismatch {
		t.Fatalf("override reason not propagated: %+v", r)
	}
	// identity is decided before the hook
	expect(t, c, types.TypeString, types.TypeString, True)
}
