package scenario

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"tsolver/internal/evaluate"
	"tsolver/internal/infer"
	"tsolver/internal/query"
	"tsolver/internal/subtype"
	"tsolver/internal/types"
)

type caseRunner struct {
	db *query.Database
	l  *lowerer
}

func (r *caseRunner) label(t types.TypeID) string { return types.Label(r.db.Interner(), t) }

func broken(res CaseResult, err error) CaseResult {
	res.Outcome = Broken
	res.Detail = err.Error()
	return res
}

func verdict(res CaseResult, ok bool) CaseResult {
	if ok {
		res.Outcome = Pass
	} else {
		res.Outcome = Fail
	}
	return res
}

// expectation decodes a relation's expect field. A bare boolean true also
// accepts a provisional result.
func expectation(raw any) (want subtype.Ternary, exact bool, err error) {
	switch v := raw.(type) {
	case nil:
		return subtype.True, false, nil
	case bool:
		if v {
			return subtype.True, false, nil
		}
		return subtype.False, true, nil
	case string:
		switch v {
		case "true":
			return subtype.True, true, nil
		case "false":
			return subtype.False, true, nil
		case "provisional":
			return subtype.Provisional, true, nil
		}
	}
	return subtype.False, false, fmt.Errorf("%w: expect must be a bool or true|false|provisional, got %v", ErrInvalidCase, raw)
}

func (r *caseRunner) relation(res CaseResult, c RelationCase) CaseResult {
	src, err := r.l.resolve(c.Source)
	if err != nil {
		return broken(res, fmt.Errorf("source: %w", err))
	}
	tgt, err := r.l.resolve(c.Target)
	if err != nil {
		return broken(res, fmt.Errorf("target: %w", err))
	}
	if src == types.NoTypeID || tgt == types.NoTypeID {
		return broken(res, fmt.Errorf("%w: relation needs source and target", ErrInvalidCase))
	}
	want, exact, err := expectation(c.Expect)
	if err != nil {
		return broken(res, err)
	}

	var got subtype.Ternary
	switch c.Kind {
	case "", "assignable":
		res.Subject = r.label(src) + " assignable to " + r.label(tgt)
		got = r.db.RelateAssignable(src, tgt)
		if got == subtype.False {
			res.Reason = r.db.ExplainFailure(src, tgt)
		}
	case "subtype":
		res.Subject = r.label(src) + " <: " + r.label(tgt)
		got = r.db.Relate(src, tgt)
		if got == subtype.False {
			res.Reason = r.db.ExplainSubtypeFailure(src, tgt)
		}
	default:
		return broken(res, fmt.Errorf("%w: relation kind %q (expected: subtype|assignable)", ErrInvalidCase, c.Kind))
	}
	res.Got, res.Want = got.String(), want.String()
	if res.Reason != nil {
		res.Detail = res.Reason.Format(r.db.Interner())
	}

	ok := got == want || (!exact && got.Holds() && want.Holds())
	if ok && c.Reason != "" {
		kind, known := subtype.ParseReasonKind(c.Reason)
		if !known {
			return broken(res, fmt.Errorf("%w: unknown reason %q", ErrInvalidCase, c.Reason))
		}
		if res.Reason == nil || !slices.Contains(res.Reason.Kinds(), kind) {
			res.Want += " (" + c.Reason + ")"
			ok = false
		}
	}
	return verdict(res, ok)
}

// same reports whether two types are the same after evaluation, or failing
// that mutually subtypes of each other.
func (r *caseRunner) same(got, want types.TypeID) bool {
	got, want = r.db.EvaluateType(got), r.db.EvaluateType(want)
	return got == want || (r.db.IsSubtypeOf(got, want) && r.db.IsSubtypeOf(want, got))
}

func (r *caseRunner) evaluate(res CaseResult, c EvaluateCase) CaseResult {
	t, err := r.l.resolve(c.Type)
	if err != nil {
		return broken(res, fmt.Errorf("type: %w", err))
	}
	if t == types.NoTypeID {
		return broken(res, fmt.Errorf("%w: evaluate needs a type", ErrInvalidCase))
	}
	res.Subject = r.label(t)

	var got types.TypeID
	if c.Expand {
		got, err = r.db.ExpandTemplateLiteral(t)
	} else {
		got = r.db.EvaluateType(t)
	}
	switch c.Error {
	case "":
		if err != nil {
			res.Got = err.Error()
			return verdict(res, false)
		}
	case "template-too-large":
		res.Want = c.Error
		if err != nil {
			res.Got = err.Error()
		} else {
			res.Got = r.label(got)
		}
		return verdict(res, errors.Is(err, evaluate.ErrTemplateTooLarge))
	default:
		return broken(res, fmt.Errorf("%w: unknown error %q", ErrInvalidCase, c.Error))
	}

	want, err := r.l.resolve(c.Expect)
	if err != nil {
		return broken(res, fmt.Errorf("expect: %w", err))
	}
	if want == types.NoTypeID {
		return broken(res, fmt.Errorf("%w: evaluate needs expect", ErrInvalidCase))
	}
	res.Got, res.Want = r.label(got), r.label(want)
	return verdict(res, r.same(got, want))
}

func (r *caseRunner) property(res CaseResult, c PropertyCase) CaseResult {
	obj, err := r.l.resolve(c.Object)
	if err != nil {
		return broken(res, fmt.Errorf("object: %w", err))
	}
	if obj == types.NoTypeID || c.Name == "" {
		return broken(res, fmt.Errorf("%w: property needs object and name", ErrInvalidCase))
	}
	res.Subject = r.label(obj) + "." + c.Name
	access := r.db.ResolvePropertyAccess(obj, c.Name)

	wantStatus := evaluate.Found
	if c.Status != "" {
		s, ok := evaluate.ParseAccessStatus(c.Status)
		if !ok {
			return broken(res, fmt.Errorf("%w: unknown status %q", ErrInvalidCase, c.Status))
		}
		wantStatus = s
	}
	got := []string{access.Status.String()}
	want := []string{wantStatus.String()}
	ok := access.Status == wantStatus

	check := func(field string, ref Ref, actual types.TypeID) error {
		if ref.IsZero() {
			return nil
		}
		expected, err := r.l.resolve(ref)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		got = append(got, field+"="+r.label(actual))
		want = append(want, field+"="+r.label(expected))
		if actual == types.NoTypeID || !r.same(actual, expected) {
			ok = false
		}
		return nil
	}
	if err := check("type", c.Expect, access.Type); err != nil {
		return broken(res, err)
	}
	if err := check("write", c.Write, access.WriteType); err != nil {
		return broken(res, err)
	}
	res.Got, res.Want = strings.Join(got, " "), strings.Join(want, " ")
	return verdict(res, ok)
}

func (r *caseRunner) inference(res CaseResult, c InferCase) CaseResult {
	l := r.l
	var sig types.FunctionShape
	scope, params, err := l.typeParams(refsToRaw(c.TypeParams))
	if err != nil {
		return broken(res, fmt.Errorf("type_params: %w", err))
	}
	sig.TypeParams = params
	l.push(scope)
	defer l.pop()

	if sig.Params, err = l.params(refsToRaw(c.Params)); err != nil {
		return broken(res, fmt.Errorf("params: %w", err))
	}
	if sig.Return, err = l.resolve(c.Returns); err != nil {
		return broken(res, fmt.Errorf("returns: %w", err))
	}
	if sig.Return == types.NoTypeID {
		sig.Return = types.TypeVoid
	}
	args := make([]types.TypeID, len(c.Args))
	for i, a := range c.Args {
		if args[i], err = l.resolve(a); err != nil {
			return broken(res, fmt.Errorf("args[%d]: %w", i, err))
		}
	}
	contextual, err := l.resolve(c.Contextual)
	if err != nil {
		return broken(res, fmt.Errorf("contextual: %w", err))
	}
	expect := make([]types.TypeID, len(c.Expect))
	for i, e := range c.Expect {
		if expect[i], err = l.resolve(e); err != nil {
			return broken(res, fmt.Errorf("expect[%d]: %w", i, err))
		}
	}
	if len(expect) > len(params) {
		return broken(res, fmt.Errorf("%w: %d expectations for %d type parameters", ErrInvalidCase, len(expect), len(params)))
	}

	in := r.db.Interner()
	res.Subject = types.Label(in, in.Function(sig))
	call, callErr := r.db.InferCall(sig, args, contextual)

	got := make([]string, 0, len(call.TypeArgs)+2)
	want := make([]string, 0, len(expect)+2)
	ok := true
	for i, arg := range call.TypeArgs {
		got = append(got, r.label(arg))
		if i < len(expect) {
			want = append(want, r.label(expect[i]))
			if arg != expect[i] && !r.same(arg, expect[i]) {
				ok = false
			}
		}
	}

	kinds := conflictKinds(callErr)
	for _, k := range kinds {
		got = append(got, "conflict="+k.String())
	}
	if c.Conflict != "" {
		kind, known := infer.ParseConflictKind(c.Conflict)
		if !known {
			return broken(res, fmt.Errorf("%w: unknown conflict %q", ErrInvalidCase, c.Conflict))
		}
		want = append(want, "conflict="+c.Conflict)
		if !slices.Contains(kinds, kind) {
			ok = false
		}
	} else if callErr != nil {
		ok = false
	}

	if call.Mismatch >= 0 {
		got = append(got, "mismatch="+strconv.Itoa(call.Mismatch))
		res.Reason = call.Reason
	}
	if c.Mismatch != nil {
		want = append(want, "mismatch="+strconv.Itoa(*c.Mismatch))
		if call.Mismatch != *c.Mismatch {
			ok = false
		}
	} else if call.Mismatch >= 0 {
		ok = false
	}

	res.Got, res.Want = strings.Join(got, ", "), strings.Join(want, ", ")
	if callErr != nil {
		res.Detail = callErr.Error()
	}
	return verdict(res, ok)
}

func refsToRaw(refs []Ref) []any {
	out := make([]any, len(refs))
	for i, r := range refs {
		out[i] = r.raw
	}
	return out
}

// conflictKinds lists the kinds of every conflict joined into err.
func conflictKinds(err error) []infer.ConflictKind {
	if err == nil {
		return nil
	}
	var kinds []infer.ConflictKind
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			kinds = append(kinds, conflictKinds(e)...)
		}
		return kinds
	}
	var c *infer.Conflict
	if errors.As(err, &c) {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}
