package types

import (
	"fmt"
	"math"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestInternerIntrinsicHandles(t *testing.T) {
	in := NewInterner()
	want := map[TypeID]Kind{
		TypeError:     KindError,
		TypeNever:     KindNever,
		TypeUnknown:   KindUnknown,
		TypeAny:       KindAny,
		TypeVoid:      KindVoid,
		TypeUndefined: KindUndefined,
		TypeNull:      KindNull,
		TypeBoolean:   KindBoolean,
		TypeNumber:    KindNumber,
		TypeString:    KindString,
		TypeBigInt:    KindBigInt,
		TypeSymbol:    KindSymbol,
		TypeObject:    KindNonPrimitive,
		TypeTrue:      KindLiteral,
		TypeFalse:     KindLiteral,
		TypeFunction:  KindGlobalFunction,
	}
	for id, kind := range want {
		if got := in.KindOf(id); got != kind {
			t.Fatalf("handle %d: expected %v, got %v", id, kind, got)
		}
	}
	if in.Len() != int(firstUserType) {
		t.Fatalf("expected %d seeded handles, got %d", firstUserType, in.Len())
	}
	if lit, _ := in.LiteralValue(TypeTrue); !lit.Bool || lit.Kind != LiteralBoolean {
		t.Fatalf("true literal has wrong value: %+v", lit)
	}
	if in.BooleanLiteral(false) != TypeFalse {
		t.Fatalf("false literal must use fixed handle")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	if in.Array(TypeString) != in.Array(TypeString) {
		t.Fatalf("array types should be deduplicated")
	}
	if in.StringLiteral("a") != in.StringLiteral("a") {
		t.Fatalf("string literals should be deduplicated")
	}
	if in.StringLiteral("1") == in.NumberLiteral(1) {
		t.Fatalf("string and number literals must differ")
	}
	if in.NumberLiteral(0) != in.NumberLiteral(math.Copysign(0, -1)) {
		t.Fatalf("-0 must fold into 0")
	}
	if in.NumberLiteral(math.NaN()) != in.NumberLiteral(math.NaN()) {
		t.Fatalf("NaN literals should share a handle")
	}
	if in.BigIntLiteral("007") != in.BigIntLiteral("7") || in.BigIntLiteral("-0") != in.BigIntLiteral("0") {
		t.Fatalf("bigint literals should be normalized")
	}
}

func TestObjectPropertyOrderDoesNotAffectIdentity(t *testing.T) {
	in := NewInterner()
	a, b := in.Atom("a"), in.Atom("b")
	x := in.Object(ObjectShape{Props: []Property{{Name: a, Type: TypeString}, {Name: b, Type: TypeNumber}}})
	y := in.Object(ObjectShape{Props: []Property{{Name: b, Type: TypeNumber}, {Name: a, Type: TypeString}}})
	if x != y {
		t.Fatalf("property order must not change identity")
	}
	shape, ok := in.ObjectShape(x)
	if !ok || len(shape.Props) != 2 || shape.Props[0].Name != a {
		t.Fatalf("unexpected shape %+v", shape)
	}
	if shape.Props[0].Write != TypeString {
		t.Fatalf("write type should default to read type")
	}
	if p, ok := in.FindProperty(shape.Props, b); !ok || p.Type != TypeNumber {
		t.Fatalf("FindProperty(b) = %+v, %v", p, ok)
	}
	if _, ok := in.FindProperty(shape.Props, in.Atom("c")); ok {
		t.Fatalf("FindProperty found a missing property")
	}
}

func TestFreshnessIsPartOfIdentity(t *testing.T) {
	in := NewInterner()
	shape := ObjectShape{Props: []Property{{Name: in.Atom("a"), Type: TypeNumber}}}
	fresh := in.FreshObject(shape)
	regular := in.Object(shape)
	if fresh == regular {
		t.Fatalf("fresh and regular object literal types must differ")
	}
	if !in.IsFresh(fresh) || in.IsFresh(regular) {
		t.Fatalf("freshness flag not reported correctly")
	}
	if in.Regular(fresh) != regular {
		t.Fatalf("Regular should drop freshness")
	}
}

func TestIndexSignatureSelectsKind(t *testing.T) {
	in := NewInterner()
	dict := in.Object(ObjectShape{StringIndex: &IndexSignature{Key: TypeString, Value: TypeNumber}})
	if in.KindOf(dict) != KindObjectWithIndex {
		t.Fatalf("expected object-with-index, got %v", in.KindOf(dict))
	}
	if in.KindOf(in.Object(ObjectShape{})) != KindObject {
		t.Fatalf("empty object should be a plain object")
	}
}

func TestCallableWithSingleSignatureIsFunction(t *testing.T) {
	in := NewInterner()
	sig := FunctionShape{Params: []Param{{Name: in.Atom("x"), Type: TypeString}}, Return: TypeNumber}
	fn := in.Function(sig)
	if got := in.Callable(CallableShape{Calls: []FunctionShape{sig}}); got != fn {
		t.Fatalf("single-signature callable should collapse to the function type")
	}
	over := in.Callable(CallableShape{Calls: []FunctionShape{sig, {Return: TypeVoid}}})
	if in.KindOf(over) != KindCallable {
		t.Fatalf("overloads must stay callable, got %v", in.KindOf(over))
	}
	if n := len(in.Signatures(over, false)); n != 2 {
		t.Fatalf("expected 2 call signatures, got %d", n)
	}
	if in.Signatures(fn, true) != nil {
		t.Fatalf("plain function has no construct signatures")
	}
}

func TestEmptySignatureListsShareIdentity(t *testing.T) {
	in := NewInterner()
	fn := in.Function(FunctionShape{Return: TypeNumber})
	if got := in.Function(FunctionShape{Params: []Param{}, TypeParams: []TypeID{}, Return: TypeNumber}); got != fn {
		t.Fatalf("empty params got handle %d, nil params got %d", got, fn)
	}

	sig := FunctionShape{Params: []Param{{Name: in.Atom("x"), Type: TypeString}}, Return: TypeNumber}
	withNil := in.Callable(CallableShape{
		Calls: []FunctionShape{sig, {Return: TypeVoid}},
		Props: []Property{{Name: in.Atom("id"), Type: TypeString}},
	})
	withEmpty := in.Callable(CallableShape{
		Calls:      []FunctionShape{sig, {Params: []Param{}, Return: TypeVoid}},
		Constructs: []FunctionShape{},
		Props:      []Property{{Name: in.Atom("id"), Type: TypeString}},
	})
	if withNil != withEmpty {
		t.Fatalf("callables differing only in empty slices got handles %d and %d", withNil, withEmpty)
	}
}

func TestTupleRestSplicesTuples(t *testing.T) {
	in := NewInterner()
	inner := in.TupleOf(TypeString, TypeNumber)
	outer := in.Tuple([]TupleElement{{Type: TypeBoolean}, {Type: inner, Rest: true}})
	if outer != in.TupleOf(TypeBoolean, TypeString, TypeNumber) {
		t.Fatalf("rest tuple should be spliced, got %s", Label(in, outer))
	}
	variadic := in.Tuple([]TupleElement{{Type: in.Array(TypeString), Rest: true}})
	elems, _ := in.TupleElements(variadic)
	if len(elems) != 1 || !elems[0].Rest {
		t.Fatalf("array rest must be kept, got %+v", elems)
	}
}

func TestTypeParamsAreDistinctPerOwner(t *testing.T) {
	in := NewInterner()
	a := in.NewTypeParam("T", NoTypeID, NoTypeID)
	b := in.NewTypeParam("T", NoTypeID, NoTypeID)
	if a == b {
		t.Fatalf("same-named type parameters from different owners must differ")
	}
	info, ok := in.TypeParamInfo(a)
	if !ok || in.AtomString(info.Name) != "T" {
		t.Fatalf("unexpected info %+v", info)
	}
	if in.TypeParam(info) != a {
		t.Fatalf("re-interning the same parameter must be stable")
	}
}

func TestReadonlyNormalization(t *testing.T) {
	in := NewInterner()
	arr := in.ReadonlyArray(TypeNumber)
	if in.Readonly(arr) != arr {
		t.Fatalf("readonly must be idempotent")
	}
	obj := in.ObjectOf(map[string]TypeID{"a": TypeString})
	if in.Readonly(obj) != obj {
		t.Fatalf("readonly on objects is the identity")
	}
}

func TestRecursiveDeclaration(t *testing.T) {
	in := NewInterner()
	decl := in.NewDecl(DeclAlias, "List")
	ref := in.Lazy(decl)
	body := in.ObjectOf(map[string]TypeID{"next": ref})
	if err := in.DefineDecl(decl, nil, body); err != nil {
		t.Fatalf("DefineDecl: %v", err)
	}
	got, ok := in.ResolveLazy(ref)
	if !ok || got != body {
		t.Fatalf("ResolveLazy = %d, %v; want %d", got, ok, body)
	}
	if err := in.DefineDecl(DeclID(999), nil, body); err == nil {
		t.Fatalf("expected error for unknown declaration")
	}
	if Label(in, body) != "{ next: List }" {
		t.Fatalf("unexpected label %q", Label(in, body))
	}
}

func TestConcurrentInterningYieldsOneHandle(t *testing.T) {
	in := NewInterner()
	const workers = 16
	results := make([][]TypeID, workers)
	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			ids := make([]TypeID, 0, 300)
			for i := range 100 {
				lit := in.StringLiteral(fmt.Sprintf("k%d", i))
				obj := in.Object(ObjectShape{Props: []Property{{Name: in.Atom(fmt.Sprintf("p%d", i)), Type: lit}}})
				ids = append(ids, lit, obj, in.Union(lit, TypeNumber, in.Array(obj)))
			}
			results[w] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("worker failed: %v", err)
	}
	for w := 1; w < workers; w++ {
		for i := range results[0] {
			if results[w][i] != results[0][i] {
				t.Fatalf("worker %d produced %d at %d, worker 0 produced %d", w, results[w][i], i, results[0][i])
			}
		}
	}
}

func TestArenaGrowsAcrossPages(t *testing.T) {
	in := NewInterner()
	ids := make([]TypeID, 0, 3*pageSize)
	for i := range 3 * pageSize {
		ids = append(ids, in.NumberLiteral(float64(i)))
	}
	for i, id := range ids {
		lit, ok := in.LiteralValue(id)
		if !ok || lit.Num != float64(i) {
			t.Fatalf("literal %d resolved to %+v", i, lit)
		}
	}
}
