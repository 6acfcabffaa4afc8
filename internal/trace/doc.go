// Package trace records what the engine and the scenario runner spend
// their time on.
//
// Events are grouped by scope, coarsest first:
//
//   - ScopeRun: one CLI invocation
//   - ScopeFile: one scenario file
//   - ScopePass: the phases of a file (load, lower, run)
//   - ScopeQuery: one engine query (is_subtype, assignable, evaluate, infer)
//
// The level picks how deep events are kept: LevelPhase stops at files,
// LevelDetail adds their phases and LevelDebug adds individual queries.
// Budget exhaustion points are kept at every level but off.
//
// Tracers travel through a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.BeginFrom(ctx, trace.ScopePass, "lower")
//	defer span.End("")
//
// Nop is the default everywhere; spans begun on it cost no allocation
// beyond the span value.
package trace
