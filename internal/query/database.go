// Package query is the entry point for type relations and type-level
// computation over a shared interner. A Database bundles one structural
// subtype checker, one assignability checker and one evaluator configured
// from a compat.Config, wires them to each other, and traces every query.
//
// A Database is not safe for concurrent use. Goroutines that share an
// interner each take their own Database, usually via Fork.
package query

import (
	"tsolver/internal/compat"
	"tsolver/internal/evaluate"
	"tsolver/internal/guard"
	"tsolver/internal/infer"
	"tsolver/internal/subtype"
	"tsolver/internal/trace"
	"tsolver/internal/types"
)

// Option configures a Database.
type Option func(*Database)

// WithTracer routes query spans to t.
func WithTracer(t trace.Tracer) Option {
	return func(db *Database) {
		if t != nil {
			db.tracer = t
		}
	}
}

// WithParentSpan nests query spans under the span with the given id.
func WithParentSpan(id uint64) Option {
	return func(db *Database) { db.parent = id }
}

// WithEvaluateOptions overrides the evaluator options. The no-unchecked
// indexed access flag always follows the compat configuration.
func WithEvaluateOptions(opts evaluate.Options) Option {
	return func(db *Database) { db.evalOpts = opts }
}

// Database answers relation and evaluation queries.
type Database struct {
	in       *types.Interner
	cfg      compat.Config
	evalOpts evaluate.Options
	tracer   trace.Tracer
	parent   uint64

	judge  *subtype.Checker
	lawyer *compat.Checker
	eval   *evaluate.Evaluator
}

// New creates a Database over in. The structural checker uses the
// configuration's function and null strictness but none of the
// assignability rules; the assignability checker applies cfg in full.
// Conditional types decide `extends` by assignability.
func New(in *types.Interner, cfg compat.Config, opts ...Option) *Database {
	db := &Database{in: in, cfg: cfg, tracer: trace.Nop}
	for _, opt := range opts {
		opt(db)
	}
	db.evalOpts.NoUncheckedIndexedAccess = cfg.NoUncheckedIndexedAccess

	db.lawyer = compat.New(in, cfg)
	db.judge = subtype.New(in, structuralOptions(cfg))
	db.eval = evaluate.New(in, db.lawyer, db.evalOpts)
	for _, j := range []*subtype.Checker{db.judge, db.lawyer.Judge()} {
		j.SetEvaluator(db.eval)
		j.SetInstantiator(db)
		j.OnBudgetExceeded(db.budgetExceeded)
	}
	db.eval.OnBudgetExceeded(db.budgetExceeded)
	return db
}

func structuralOptions(cfg compat.Config) subtype.Options {
	opts := cfg.JudgeOptions()
	opts.AnyIsBottom = false
	opts.AllowVoidReturn = false
	opts.StrictReadonly = true
	return opts
}

// Fork returns a Database with the same configuration and tracer over the
// same interner. Nothing else is shared, so the fork may run on another
// goroutine.
func (db *Database) Fork() *Database {
	return New(db.in, db.cfg, WithTracer(db.tracer), WithParentSpan(db.parent), WithEvaluateOptions(db.evalOpts))
}

// Interner returns the shared interner.
func (db *Database) Interner() *types.Interner { return db.in }

// Config returns the compat configuration.
func (db *Database) Config() compat.Config { return db.cfg }

// Lawyer exposes the assignability checker for widening and freshness.
func (db *Database) Lawyer() *compat.Checker { return db.lawyer }

// Evaluator exposes the evaluator.
func (db *Database) Evaluator() *evaluate.Evaluator { return db.eval }

func (db *Database) budgetExceeded(p guard.Profile, r guard.Result) {
	trace.Point(db.tracer, trace.ScopeQuery, "budget_exceeded", p.Name, db.parent, map[string]string{
		"profile": p.String(),
		"result":  r.String(),
	})
}

// begin opens a query span. Attributes are only rendered when the span is
// kept.
func (db *Database) begin(name string, operands ...types.TypeID) *trace.Span {
	span := trace.Begin(db.tracer, trace.ScopeQuery, name, db.parent)
	if span.ID() == 0 {
		return span
	}
	keys := [...]string{"source", "target"}
	for i, t := range operands {
		if i < len(keys) {
			span.WithExtra(keys[i], db.label(t))
		}
	}
	return span
}

func (db *Database) label(t types.TypeID) string { return types.Label(db.in, t) }

// IsSubtypeOf reports whether a is a structural subtype of b.
func (db *Database) IsSubtypeOf(a, b types.TypeID) bool {
	return db.Relate(a, b).Holds()
}

// Relate returns the structural relation with its provisional state.
func (db *Database) Relate(a, b types.TypeID) subtype.Ternary {
	span := db.begin("is_subtype", a, b)
	r := db.judge.IsSubtype(a, b)
	span.WithExtra("result", r.String()).End("")
	return r
}

// ExplainSubtypeFailure returns why a is not a structural subtype of b, or
// nil when it is.
func (db *Database) ExplainSubtypeFailure(a, b types.TypeID) *subtype.Reason {
	span := db.begin("explain_subtype", a, b)
	defer span.End("")
	return db.judge.ExplainFailure(a, b)
}

// RelateAssignable returns the assignability relation.
func (db *Database) RelateAssignable(a, b types.TypeID) subtype.Ternary {
	span := db.begin("assignable", a, b)
	r := db.lawyer.Relate(a, b)
	span.WithExtra("result", r.String()).End("")
	return r
}

// IsAssignableTo reports whether a value of type a may be assigned to a
// location of type b.
func (db *Database) IsAssignableTo(a, b types.TypeID) bool {
	return db.RelateAssignable(a, b).Holds()
}

// ExplainFailure returns why a is not assignable to b, or nil when it is.
func (db *Database) ExplainFailure(a, b types.TypeID) *subtype.Reason {
	span := db.begin("explain", a, b)
	defer span.End("")
	return db.lawyer.ExplainFailure(a, b)
}

// EvaluateType reduces the outermost meta type of t.
func (db *Database) EvaluateType(t types.TypeID) types.TypeID {
	span := db.begin("evaluate", t)
	r := db.eval.Evaluate(t)
	db.endWithResult(span, r)
	return r
}

func (db *Database) endWithResult(span *trace.Span, r types.TypeID) {
	if span.ID() != 0 {
		span.WithExtra("result", db.label(r))
	}
	span.End("")
}

// EvaluateConditional evaluates a conditional type descriptor.
func (db *Database) EvaluateConditional(c types.ConditionalType) types.TypeID {
	span := db.begin("evaluate_conditional", c.Check, c.Extends)
	r := db.eval.EvaluateConditional(c)
	db.endWithResult(span, r)
	return r
}

// EvaluateMapped evaluates a mapped type descriptor.
func (db *Database) EvaluateMapped(m types.MappedType) types.TypeID {
	span := db.begin("evaluate_mapped", m.Constraint, m.Template)
	r := db.eval.EvaluateMapped(m)
	db.endWithResult(span, r)
	return r
}

// EvaluateIndexAccess evaluates object[index].
func (db *Database) EvaluateIndexAccess(object, index types.TypeID) types.TypeID {
	span := db.begin("evaluate_index_access", object, index)
	r := db.eval.EvaluateIndexAccess(object, index)
	db.endWithResult(span, r)
	return r
}

// EvaluateKeyOf evaluates keyof t.
func (db *Database) EvaluateKeyOf(t types.TypeID) types.TypeID {
	span := db.begin("evaluate_keyof", t)
	r := db.eval.EvaluateKeyOf(t)
	db.endWithResult(span, r)
	return r
}

// ExpandTemplateLiteral expands t into a union of string literals. It
// fails with evaluate.ErrTemplateTooLarge past the template ceiling.
func (db *Database) ExpandTemplateLiteral(t types.TypeID) (types.TypeID, error) {
	span := db.begin("expand_template", t)
	r, err := db.eval.ExpandTemplateLiteral(t)
	if err != nil {
		span.End(err.Error())
		return r, err
	}
	db.endWithResult(span, r)
	return r, nil
}

// ResolvePropertyAccess resolves object.name.
func (db *Database) ResolvePropertyAccess(object types.TypeID, name string) evaluate.PropertyAccessResult {
	span := db.begin("property_access", object)
	r := db.eval.ResolvePropertyAccess(object, name)
	span.WithExtra("name", name).WithExtra("status", r.Status.String()).End("")
	return r
}

// Instantiate substitutes subst into t without evaluating the result.
func (db *Database) Instantiate(t types.TypeID, subst evaluate.Substitution) types.TypeID {
	return db.eval.Instantiate(t, subst)
}

// NewInferenceContext returns an empty inference context validating
// bounds by assignability.
func (db *Database) NewInferenceContext() *infer.Context {
	ctx := infer.New(db.in, db.lawyer, db.eval)
	ctx.OnBudgetExceeded(db.budgetExceeded)
	return ctx
}
