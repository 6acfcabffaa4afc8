package infer_test

import (
	"errors"
	"testing"

	"tsolver/internal/compat"
	"tsolver/internal/evaluate"
	"tsolver/internal/guard"
	"tsolver/internal/infer"
	"tsolver/internal/types"
)

func newContext() (*types.Interner, *infer.Context) {
	in := types.NewInterner()
	rel := compat.New(in, compat.DefaultConfig())
	ev := evaluate.New(in, rel, evaluate.Options{})
	rel.Judge().SetEvaluator(ev)
	return in, infer.New(in, rel, ev)
}

func resolve(t *testing.T, in *types.Interner, ctx *infer.Context, param types.TypeID) types.TypeID {
	t.Helper()
	v, ok := ctx.Var(param)
	if !ok {
		t.Fatalf("%s is not registered", types.Label(in, param))
	}
	got, err := ctx.Resolve(v)
	if err != nil {
		t.Fatalf("resolve %s: %v", types.Label(in, param), err)
	}
	return got
}

func expectType(t *testing.T, in *types.Interner, what string, got, want types.TypeID) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %s, want %s", what, types.Label(in, got), types.Label(in, want))
	}
}

func expectConflict(t *testing.T, err error, kind infer.ConflictKind) *infer.Conflict {
	t.Helper()
	var conflict *infer.Conflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected %s conflict, got %v", kind, err)
	}
	if conflict.Kind != kind {
		t.Fatalf("conflict kind = %s, want %s (%v)", conflict.Kind, kind, conflict)
	}
	return conflict
}

func prop(in *types.Interner, name string, t types.TypeID) types.Property {
	return types.Property{Name: in.Atom(name), Type: t}
}

func TestLiteralCandidates(t *testing.T) {
	cases := []struct {
		name       string
		constraint func(in *types.Interner) types.TypeID
		args       func(in *types.Interner) []types.TypeID
		want       func(in *types.Interner) types.TypeID
	}{
		{
			name:       "unconstrained widens",
			constraint: func(*types.Interner) types.TypeID { return types.NoTypeID },
			args:       func(in *types.Interner) []types.TypeID { return []types.TypeID{in.NumberLiteral(1)} },
			want:       func(*types.Interner) types.TypeID { return types.TypeNumber },
		},
		{
			name:       "primitive constraint keeps literal",
			constraint: func(*types.Interner) types.TypeID { return types.TypeNumber },
			args:       func(in *types.Interner) []types.TypeID { return []types.TypeID{in.NumberLiteral(1)} },
			want:       func(in *types.Interner) types.TypeID { return in.NumberLiteral(1) },
		},
		{
			name:       "boolean literals widen",
			constraint: func(*types.Interner) types.TypeID { return types.NoTypeID },
			args:       func(*types.Interner) []types.TypeID { return []types.TypeID{types.TypeTrue} },
			want:       func(*types.Interner) types.TypeID { return types.TypeBoolean },
		},
		{
			name:       "same primitive after widening",
			constraint: func(*types.Interner) types.TypeID { return types.NoTypeID },
			args: func(in *types.Interner) []types.TypeID {
				return []types.TypeID{in.StringLiteral("a"), in.StringLiteral("b")}
			},
			want: func(*types.Interner) types.TypeID { return types.TypeString },
		},
		{
			name:       "literal union under a primitive constraint",
			constraint: func(*types.Interner) types.TypeID { return types.TypeString },
			args: func(in *types.Interner) []types.TypeID {
				return []types.TypeID{in.StringLiteral("a"), in.StringLiteral("b")}
			},
			want: func(in *types.Interner) types.TypeID { return in.Union(in.StringLiteral("a"), in.StringLiteral("b")) },
		},
		{
			name:       "unrelated candidates form a union",
			constraint: func(*types.Interner) types.TypeID { return types.NoTypeID },
			args:       func(*types.Interner) []types.TypeID { return []types.TypeID{types.TypeNumber, types.TypeString} },
			want:       func(in *types.Interner) types.TypeID { return in.Union(types.TypeNumber, types.TypeString) },
		},
		{
			name:       "any wins",
			constraint: func(*types.Interner) types.TypeID { return types.NoTypeID },
			args:       func(*types.Interner) []types.TypeID { return []types.TypeID{types.TypeNumber, types.TypeAny} },
			want:       func(*types.Interner) types.TypeID { return types.TypeAny },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, ctx := newContext()
			param := in.NewTypeParam("T", tc.constraint(in), types.NoTypeID)
			v := ctx.NewVar(param)
			for _, arg := range tc.args(in) {
				ctx.AddLowerBound(v, arg)
			}
			expectType(t, in, "T", resolve(t, in, ctx, param), tc.want(in))
		})
	}
}

func TestBestCommonSupertype(t *testing.T) {
	in, ctx := newContext()
	param := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	v := ctx.NewVar(param)
	narrow := in.Object(types.ObjectShape{Props: []types.Property{prop(in, "a", types.TypeString), prop(in, "b", types.TypeNumber)}})
	wide := in.Object(types.ObjectShape{Props: []types.Property{prop(in, "a", types.TypeString)}})
	ctx.AddLowerBound(v, narrow)
	ctx.AddLowerBound(v, wide)
	expectType(t, in, "T", resolve(t, in, ctx, param), wide)
}

func TestNoCandidatesFallsBack(t *testing.T) {
	in, ctx := newContext()
	bounded := in.NewTypeParam("T", types.TypeString, types.NoTypeID)
	free := in.NewTypeParam("U", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(bounded)
	ctx.NewVar(free)
	expectType(t, in, "T", resolve(t, in, ctx, bounded), types.TypeString)
	expectType(t, in, "U", resolve(t, in, ctx, free), types.TypeUnknown)
}

func TestReturnTypeCandidatesRankLower(t *testing.T) {
	in, ctx := newContext()
	param := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(param)
	ctx.InferFromArguments([]types.Param{{Name: in.Atom("x"), Type: param}}, []types.TypeID{in.StringLiteral("a")})
	ctx.InferFromContextualType(types.TypeNumber, param)
	expectType(t, in, "T", resolve(t, in, ctx, param), types.TypeString)

	in, ctx = newContext()
	param = in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(param)
	ctx.InferFromContextualType(types.TypeNumber, param)
	expectType(t, in, "T from context", resolve(t, in, ctx, param), types.TypeNumber)
}

func TestContravariantCandidates(t *testing.T) {
	in, ctx := newContext()
	param := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(param)
	source := in.Function(types.FunctionShape{Params: []types.Param{{Name: in.Atom("x"), Type: types.TypeNumber}}})
	target := in.Function(types.FunctionShape{Params: []types.Param{{Name: in.Atom("x"), Type: param}}})
	ctx.InferFromTypes(source, target)
	v, _ := ctx.Var(param)
	if cs := ctx.Constraints(v); len(cs.Contravariant) != 1 || len(cs.Lower) != 0 {
		t.Fatalf("constraints = %+v, want one contravariant candidate", cs)
	}
	expectType(t, in, "T", resolve(t, in, ctx, param), types.TypeNumber)

	// a covariant candidate takes precedence
	in, ctx = newContext()
	param = in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(param)
	source = in.Function(types.FunctionShape{Params: []types.Param{{Name: in.Atom("x"), Type: types.TypeNumber}}, Return: types.TypeString})
	target = in.Function(types.FunctionShape{Params: []types.Param{{Name: in.Atom("x"), Type: param}}, Return: param})
	ctx.InferFromTypes(source, target)
	expectType(t, in, "T", resolve(t, in, ctx, param), types.TypeString)
}

func TestStructuralCollection(t *testing.T) {
	cases := []struct {
		name   string
		build  func(in *types.Interner, tp types.TypeID) (source, target types.TypeID)
		bound  types.TypeID
		expect func(in *types.Interner) types.TypeID
	}{
		{
			name: "array element",
			build: func(in *types.Interner, tp types.TypeID) (types.TypeID, types.TypeID) {
				return in.Array(types.TypeString), in.Array(tp)
			},
			expect: func(*types.Interner) types.TypeID { return types.TypeString },
		},
		{
			name: "readonly array from mutable",
			build: func(in *types.Interner, tp types.TypeID) (types.TypeID, types.TypeID) {
				return in.Array(types.TypeNumber), in.ReadonlyArray(tp)
			},
			expect: func(*types.Interner) types.TypeID { return types.TypeNumber },
		},
		{
			name: "union with fixed member",
			build: func(in *types.Interner, tp types.TypeID) (types.TypeID, types.TypeID) {
				return in.Union(types.TypeString, types.TypeUndefined), in.Union(tp, types.TypeUndefined)
			},
			expect: func(*types.Interner) types.TypeID { return types.TypeString },
		},
		{
			name: "object property",
			build: func(in *types.Interner, tp types.TypeID) (types.TypeID, types.TypeID) {
				source := in.Object(types.ObjectShape{Props: []types.Property{prop(in, "a", types.TypeBoolean), prop(in, "b", types.TypeString)}})
				return source, in.Object(types.ObjectShape{Props: []types.Property{prop(in, "a", tp)}})
			},
			expect: func(*types.Interner) types.TypeID { return types.TypeBoolean },
		},
		{
			name: "function return",
			build: func(in *types.Interner, tp types.TypeID) (types.TypeID, types.TypeID) {
				return in.Function(types.FunctionShape{Return: types.TypeBigInt}), in.Function(types.FunctionShape{Return: tp})
			},
			expect: func(*types.Interner) types.TypeID { return types.TypeBigInt },
		},
		{
			name: "template hole",
			build: func(in *types.Interner, tp types.TypeID) (types.TypeID, types.TypeID) {
				return in.StringLiteral("user-42"), in.TemplateOf("user-", tp)
			},
			bound:  types.TypeString,
			expect: func(in *types.Interner) types.TypeID { return in.StringLiteral("42") },
		},
		{
			name: "homomorphic mapped type",
			build: func(in *types.Interner, tp types.TypeID) (types.TypeID, types.TypeID) {
				source := in.Object(types.ObjectShape{Props: []types.Property{prop(in, "a", types.TypeString)}})
				key := in.NewTypeParam("P", types.NoTypeID, types.NoTypeID)
				target := in.Mapped(types.MappedType{
					Param:      key,
					Constraint: in.KeyOf(tp),
					Template:   in.IndexAccess(tp, key),
				})
				return source, target
			},
			expect: func(in *types.Interner) types.TypeID {
				return in.Object(types.ObjectShape{Props: []types.Property{prop(in, "a", types.TypeString)}})
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, ctx := newContext()
			tp := in.NewTypeParam("T", tc.bound, types.NoTypeID)
			ctx.NewVar(tp)
			source, target := tc.build(in, tp)
			ctx.InferFromTypes(source, target)
			expectType(t, in, "T", resolve(t, in, ctx, tp), tc.expect(in))
		})
	}
}

func TestTupleRestInference(t *testing.T) {
	in, ctx := newContext()
	head := in.NewTypeParam("H", types.NoTypeID, types.NoTypeID)
	tail := in.NewTypeParam("R", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(head)
	ctx.NewVar(tail)
	source := in.TupleOf(types.TypeString, types.TypeNumber, types.TypeBoolean)
	target := in.Tuple([]types.TupleElement{{Type: head}, {Type: tail, Rest: true}})
	ctx.InferFromTypes(source, target)
	expectType(t, in, "H", resolve(t, in, ctx, head), types.TypeString)
	expectType(t, in, "R", resolve(t, in, ctx, tail), in.TupleOf(types.TypeNumber, types.TypeBoolean))
}

func TestInferFromRestArguments(t *testing.T) {
	in, ctx := newContext()
	variadic := in.NewTypeParam("A", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(variadic)
	ctx.InferFromArguments(
		[]types.Param{{Name: in.Atom("args"), Type: variadic, Rest: true}},
		[]types.TypeID{types.TypeNumber, types.TypeString},
	)
	expectType(t, in, "A", resolve(t, in, ctx, variadic), in.TupleOf(types.TypeNumber, types.TypeString))

	in, ctx = newContext()
	elem := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(elem)
	ctx.InferFromArguments(
		[]types.Param{{Name: in.Atom("first"), Type: types.TypeBoolean}, {Name: in.Atom("rest"), Type: in.Array(elem), Rest: true}},
		[]types.TypeID{types.TypeTrue, in.StringLiteral("a"), in.StringLiteral("b")},
	)
	expectType(t, in, "T", resolve(t, in, ctx, elem), types.TypeString)
}

func TestUnifyMergesConstraints(t *testing.T) {
	in, ctx := newContext()
	a := in.NewTypeParam("A", types.NoTypeID, types.NoTypeID)
	b := in.NewTypeParam("B", types.NoTypeID, types.NoTypeID)
	va, vb := ctx.NewVar(a), ctx.NewVar(b)
	ctx.AddLowerBound(va, in.StringLiteral("x"))
	ctx.AddUpperBound(vb, types.TypeString)
	if err := ctx.Unify(va, vb); err != nil {
		t.Fatalf("unify: %v", err)
	}
	cs := ctx.Constraints(va)
	if len(cs.Lower) != 1 || len(cs.Upper) != 1 {
		t.Fatalf("merged constraints = %+v", cs)
	}
	want := in.StringLiteral("x")
	expectType(t, in, "A", resolve(t, in, ctx, a), want)
	expectType(t, in, "B", resolve(t, in, ctx, b), want)
	if again := ctx.NewVar(a); again != va {
		t.Fatalf("re-registering A returned %d, want %d", again, va)
	}
}

func TestUnifyKeepsBindingOfLowerRankClass(t *testing.T) {
	in, ctx := newContext()
	a := in.NewTypeParam("A", types.NoTypeID, types.NoTypeID)
	b := in.NewTypeParam("B", types.NoTypeID, types.NoTypeID)
	c := in.NewTypeParam("C", types.NoTypeID, types.NoTypeID)
	va, vb, vc := ctx.NewVar(a), ctx.NewVar(b), ctx.NewVar(c)
	if err := ctx.Unify(vb, vc); err != nil {
		t.Fatalf("unify B C: %v", err)
	}
	if err := ctx.Bind(va, types.TypeNumber); err != nil {
		t.Fatalf("bind A: %v", err)
	}
	if err := ctx.Unify(va, vb); err != nil {
		t.Fatalf("unify A B: %v", err)
	}
	for _, p := range []types.TypeID{a, b, c} {
		expectType(t, in, types.Label(in, p), resolve(t, in, ctx, p), types.TypeNumber)
	}
}

func TestBindConflicts(t *testing.T) {
	in, ctx := newContext()
	a := in.NewTypeParam("A", types.NoTypeID, types.NoTypeID)
	b := in.NewTypeParam("B", types.NoTypeID, types.NoTypeID)
	va, vb := ctx.NewVar(a), ctx.NewVar(b)

	expectConflict(t, ctx.Bind(va, in.Array(a)), infer.OccursCheck)

	if err := ctx.Bind(va, types.TypeString); err != nil {
		t.Fatalf("bind A: %v", err)
	}
	if err := ctx.Bind(va, types.TypeAny); err != nil {
		t.Fatalf("rebinding A to any: %v", err)
	}
	expectConflict(t, ctx.Bind(va, types.TypeNumber), infer.Incompatible)
	if err := ctx.Bind(vb, types.TypeNumber); err != nil {
		t.Fatalf("bind B: %v", err)
	}
	expectConflict(t, ctx.Unify(va, vb), infer.Incompatible)
	expectType(t, in, "A", resolve(t, in, ctx, a), types.TypeString)
}

func TestResolutionConflicts(t *testing.T) {
	in, ctx := newContext()
	tp := in.NewTypeParam("T", types.TypeString, types.NoTypeID)
	v := ctx.NewVar(tp)
	ctx.AddUpperBound(v, types.TypeNumber)
	ctx.AddLowerBound(v, in.StringLiteral("a"))
	_, err := ctx.Resolve(v)
	conflict := expectConflict(t, err, infer.DisjointUpperBounds)
	if conflict.Param != tp {
		t.Fatalf("conflict param = %s, want T", types.Label(in, conflict.Param))
	}

	in, ctx = newContext()
	tp = in.NewTypeParam("T", types.TypeString, types.NoTypeID)
	v = ctx.NewVar(tp)
	ctx.AddLowerBound(v, types.TypeNumber)
	got, err := ctx.Resolve(v)
	expectConflict(t, err, infer.LowerExceedsUpper)
	expectType(t, in, "fallback", got, types.TypeString)

	// resolution is cached, conflict included
	again, err := ctx.Resolve(v)
	expectConflict(t, err, infer.LowerExceedsUpper)
	expectType(t, in, "cached", again, got)
}

func TestResolveAllOrdersDependentBounds(t *testing.T) {
	in, ctx := newContext()
	u := in.NewTypeParam("U", types.NoTypeID, types.NoTypeID)
	tp := in.NewTypeParam("T", u, types.NoTypeID)
	vt := ctx.NewVar(tp)
	ctx.NewVar(u)
	ctx.AddLowerBound(vt, in.StringLiteral("a"))
	subst, err := ctx.ResolveAll()
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	expectType(t, in, "U", subst[u], types.TypeString)
	expectType(t, in, "T", subst[tp], in.StringLiteral("a"))
}

func TestCollectionBudget(t *testing.T) {
	in, ctx := newContext()
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	ctx.NewVar(tp)
	hooked := false
	ctx.OnBudgetExceeded(func(guard.Profile, guard.Result) { hooked = true })
	source, target := types.TypeString, tp
	for range 80 {
		source, target = in.Array(source), in.Array(target)
	}
	ctx.InferFromTypes(source, target)
	subst, err := ctx.ResolveAll()
	expectConflict(t, err, infer.BudgetExceeded)
	if !hooked {
		t.Fatalf("budget hook did not fire")
	}
	expectType(t, in, "T", subst[tp], types.TypeUnknown)
}

func TestConflictKindNames(t *testing.T) {
	for _, kind := range []infer.ConflictKind{
		infer.DisjointUpperBounds, infer.LowerExceedsUpper, infer.OccursCheck, infer.BudgetExceeded, infer.Incompatible,
	} {
		got, ok := infer.ParseConflictKind(kind.String())
		if !ok || got != kind {
			t.Fatalf("ParseConflictKind(%q) = %v, %v", kind.String(), got, ok)
		}
	}
	if _, ok := infer.ParseConflictKind("nope"); ok {
		t.Fatalf("unknown name parsed")
	}
}
