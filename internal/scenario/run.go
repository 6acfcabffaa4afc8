package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"tsolver/internal/observ"
	"tsolver/internal/query"
	"tsolver/internal/trace"
	"tsolver/internal/types"
)

// Options configures a batch run.
type Options struct {
	// Jobs bounds the files run concurrently; zero means one.
	Jobs int
	// Sound replaces every file's configuration with the sound preset.
	Sound bool
	// Interner is shared by all files; nil allocates one.
	Interner *types.Interner
	Progress ProgressSink
}

// RunAll loads and runs the files at paths. Files run concurrently over one
// interner, each with its own query.Database. Failures of individual files
// are reported in their FileResult; the error is non-nil only when ctx is
// cancelled.
func RunAll(ctx context.Context, paths []string, opts Options) ([]FileResult, error) {
	in := opts.Interner
	if in == nil {
		in = types.NewInterner()
	}
	results := make([]FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	for _, path := range paths {
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	ctx, span := trace.BeginFrom(ctx, trace.ScopeRun, "check")
	defer span.WithExtra("files", strconv.Itoa(len(paths))).End("")

	jobs := max(opts.Jobs, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runPath(gctx, in, path, opts)
			return nil
		})
	}
	return results, g.Wait()
}

func runPath(ctx context.Context, in *types.Interner, path string, opts Options) FileResult {
	ctx, span := trace.BeginFrom(ctx, trace.ScopeFile, "file:"+filepath.Base(path))
	timer := observ.NewTimer()
	res := FileResult{Path: path, Name: path}

	start := time.Now()
	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	_, pass := trace.BeginFrom(ctx, trace.ScopePass, "load")
	done := timer.Track(string(StageLoad))
	f, err := Load(path)
	done("")
	pass.End("")
	if err != nil {
		res.fail(err)
		res.Timings = timer.Report()
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		span.End(err.Error())
		return res
	}

	res = run(ctx, in, f, opts, timer)
	status := StatusDone
	switch {
	case res.Err != nil:
		status = StatusError
	case !res.OK():
		status = StatusFailed
	}
	emit(opts.Progress, Event{File: path, Stage: StageRun, Status: status, Err: res.Err, Elapsed: time.Since(start)})
	span.WithExtra("status", string(status)).End("")
	return res
}

// Run lowers f into in and runs its cases.
func Run(ctx context.Context, in *types.Interner, f *File, opts Options) FileResult {
	return run(ctx, in, f, opts, observ.NewTimer())
}

func run(ctx context.Context, in *types.Interner, f *File, opts Options, timer *observ.Timer) (res FileResult) {
	res = FileResult{Path: f.Path, Name: f.Name}
	defer func() { res.Timings = timer.Report() }()

	emit(opts.Progress, Event{File: f.Path, Stage: StageLower, Status: StatusWorking})
	_, pass := trace.BeginFrom(ctx, trace.ScopePass, "lower")
	done := timer.Track(string(StageLower))
	cfg, evalOpts, err := f.Config.Resolve(opts.Sound)
	l := newLowerer(in, f.Types)
	if err == nil {
		err = l.lowerAll()
	}
	done(strconv.Itoa(len(f.Types)) + " types")
	pass.End("")
	if err != nil {
		res.fail(fmt.Errorf("%s: %w", f.Path, err))
		return res
	}

	emit(opts.Progress, Event{File: f.Path, Stage: StageRun, Status: StatusWorking})
	_, pass = trace.BeginFrom(ctx, trace.ScopePass, "run")
	done = timer.Track(string(StageRun))
	db := query.New(in, cfg,
		query.WithTracer(trace.FromContext(ctx)),
		query.WithParentSpan(pass.ID()),
		query.WithEvaluateOptions(evalOpts),
	)
	res.Cases = runCases(&caseRunner{db: db, l: l}, f)
	done(strconv.Itoa(len(res.Cases)) + " cases")
	pass.End("")
	return res
}

func runCases(r *caseRunner, f *File) []CaseResult {
	out := make([]CaseResult, 0, f.CaseCount())
	next := func(section string, index int, label string) CaseResult {
		return CaseResult{Number: len(out), Section: section, Index: index, Label: label}
	}
	for i, c := range f.Relations {
		out = append(out, r.relation(next("relation", i, c.Label), c))
	}
	for i, c := range f.Evaluations {
		out = append(out, r.evaluate(next("evaluate", i, c.Label), c))
	}
	for i, c := range f.Properties {
		out = append(out, r.property(next("property", i, c.Label), c))
	}
	for i, c := range f.Inferences {
		out = append(out, r.inference(next("infer", i, c.Label), c))
	}
	return out
}
