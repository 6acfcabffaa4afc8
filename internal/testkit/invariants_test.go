package testkit

import (
	"testing"

	"tsolver/internal/types"
)

func TestCheckInternerInvariantsOnMixedTypes(t *testing.T) {
	in := types.NewInterner()
	tp := in.NewTypeParam("T", types.NoTypeID, types.NoTypeID)
	a, b := in.StringLiteral("a"), in.StringLiteral("b")
	obj := in.ObjectOf(map[string]types.TypeID{"z": types.TypeString, "a": tp, "m": in.Array(a)})
	in.Union(a, b, types.TypeNumber, obj)
	in.Union(types.TypeTrue, types.TypeFalse, types.TypeNull)
	in.Intersection(tp, obj, in.ObjectOf(map[string]types.TypeID{"q": b}))
	in.Intersection(in.Union(a, b), types.TypeString)
	in.TemplateOf("x-", in.Union(a, b), "-", types.TypeNumber)
	in.Callable(types.CallableShape{
		Calls: []types.FunctionShape{{Return: types.TypeString}, {Return: types.TypeNumber}},
		Props: []types.Property{{Name: in.Atom("y"), Type: types.TypeString}, {Name: in.Atom("x"), Type: types.TypeString}},
	})
	if err := CheckInternerInvariants(in); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func TestCheckInternerInvariantsRejectsRawUnion(t *testing.T) {
	in := types.NewInterner()
	raw := in.List([]types.TypeID{types.TypeString, types.TypeNever})
	in.Intern(types.Type{Kind: types.KindUnion, Payload: uint32(raw)})
	if err := CheckInternerInvariants(in); err == nil {
		t.Fatalf("expected a violation for an unnormalized union")
	}
}
