package query

import (
	"tsolver/internal/evaluate"
	"tsolver/internal/subtype"
	"tsolver/internal/types"
)

// CallResult is the outcome of inferring a generic call.
type CallResult struct {
	// TypeArgs holds the inferred argument of every type parameter, in
	// declaration order.
	TypeArgs     []types.TypeID
	Substitution evaluate.Substitution
	// Signature is the instantiated signature without type parameters.
	Signature types.FunctionShape
	// Mismatch is the index of the first argument not assignable to its
	// instantiated parameter, or -1. Reason explains it.
	Mismatch int
	Reason   *subtype.Reason
}

// InferCall infers the type arguments of a call to sig with the given
// argument types. contextual, when set, is the type the call's result is
// expected to have; its candidates rank below those from arguments. Each
// argument is then checked against the instantiated parameter.
//
// Inference conflicts are returned joined as the error; the result is
// complete either way, using the fallback of every conflicting parameter.
func (db *Database) InferCall(sig types.FunctionShape, args []types.TypeID, contextual types.TypeID) (CallResult, error) {
	span := db.begin("infer", db.in.Function(sig))
	defer span.End("")

	ctx := db.NewInferenceContext()
	for _, p := range sig.TypeParams {
		ctx.NewVar(p)
	}
	ctx.InferFromArguments(sig.Params, args)
	if contextual != types.NoTypeID {
		ctx.InferFromContextualType(contextual, sig.Return)
	}
	subst, err := ctx.ResolveAll()

	res := CallResult{
		TypeArgs:     make([]types.TypeID, len(sig.TypeParams)),
		Substitution: subst,
		Signature:    db.eval.InstantiateSignature(sig, subst),
		Mismatch:     -1,
	}
	for i, p := range sig.TypeParams {
		res.TypeArgs[i] = subst[p]
	}
	for i, arg := range args {
		param, ok := db.paramFor(&res.Signature, i)
		if !ok {
			break
		}
		if !db.lawyer.IsAssignable(arg, param) {
			res.Mismatch = i
			res.Reason = db.lawyer.ExplainFailure(arg, param)
			break
		}
	}
	if span.ID() != 0 {
		span.WithExtra("result", db.label(db.in.Function(res.Signature)))
		if err != nil {
			span.WithExtra("conflict", err.Error())
		}
	}
	return res, err
}

// paramFor returns the type an argument at position i is checked against.
func (db *Database) paramFor(sig *types.FunctionShape, i int) (types.TypeID, bool) {
	if rest, ok := sig.RestParam(); ok && i >= len(sig.Params)-1 {
		return db.elementAt(rest.Type, i-(len(sig.Params)-1))
	}
	if i < len(sig.Params) {
		return sig.Params[i].Type, true
	}
	return types.NoTypeID, false
}

// elementAt returns the type of position i of an array-like rest type.
func (db *Database) elementAt(t types.TypeID, i int) (types.TypeID, bool) {
	in := db.in
	switch in.KindOf(t) {
	case types.KindArray:
		return in.MustLookup(t).Elem, true
	case types.KindReadonly:
		return db.elementAt(in.MustLookup(t).Elem, i)
	case types.KindTuple:
		elems, _ := in.TupleElements(t)
		for j, el := range elems {
			if el.Rest {
				return db.elementAt(el.Type, i-j)
			}
			if j == i {
				return el.Type, true
			}
		}
		return types.NoTypeID, false
	case types.KindAny:
		return types.TypeAny, true
	}
	return types.NoTypeID, false
}

// InstantiateSignature implements subtype.Instantiator: the type
// parameters of a generic source signature are inferred from the target's
// parameter and return types so that the two can be compared.
func (db *Database) InstantiateSignature(source, target *types.FunctionShape) (types.FunctionShape, bool) {
	if len(source.TypeParams) == 0 {
		return *source, false
	}
	ctx := db.NewInferenceContext()
	for _, p := range source.TypeParams {
		ctx.NewVar(p)
	}
	args := make([]types.TypeID, 0, len(target.Params))
	for _, p := range target.Params {
		args = append(args, p.Type)
	}
	ctx.InferFromArguments(source.Params, args)
	if source.This != types.NoTypeID && target.This != types.NoTypeID {
		ctx.InferFromTypes(target.This, source.This)
	}
	ctx.InferFromContextualType(target.Return, source.Return)
	// conflicting parameters take their fallback
	subst, _ := ctx.ResolveAll()
	return db.eval.InstantiateSignature(*source, subst), true
}
