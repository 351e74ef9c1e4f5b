// Package pipeline runs one generation pass: discover every binding under a
// set of roots, synthesize a helper per owner and a registry per package, and
// hand the results to a sink.
//
// A misplaced or malformed directive stops the pass before anything reaches
// the sink. Any other failure is confined to its owner: it is recorded in the
// Report and the rest of the pass continues.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/emit"
	"github.com/sghaida/autobind/internal/naming"
	"github.com/sghaida/autobind/internal/synth"
)

// Options configures Run.
type Options struct {
	// Roots are the directories to scan recursively. Defaults to ".".
	Roots []string

	Tag           string
	Exclude       []string
	RuntimeImport string

	// Jobs bounds concurrent synthesis. Defaults to GOMAXPROCS.
	Jobs int

	// KeepOrphans disables removal of generated files whose owner lost all
	// its bindings.
	KeepOrphans bool

	// Sink receives artifacts. Defaults to a FileSink.
	Sink emit.Sink

	Logger *slog.Logger
}

// Run executes one pass. The error is non-nil only when the pass could not
// run at all; per-owner failures are in Report.Problems.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := cmp.Or(opts.Logger, slog.Default())
	sink := opts.Sink
	if sink == nil {
		sink = emit.NewFileSink()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	pkgs, err := discover.Scan(ctx, opts.Roots, discover.Options{Tag: opts.Tag, Exclude: opts.Exclude, Logger: logger})
	if err != nil {
		return nil, err
	}
	res, err := discover.GroupMarks(pkgs)
	if err != nil {
		return nil, err
	}

	p := &pass{
		ctx:    ctx,
		logger: logger,
		sink:   sink,
		synth:  synth.New(synth.Options{RuntimeImport: opts.RuntimeImport}),
		jobs:   jobs,
		res:    res,
		report: &Report{Packages: len(pkgs), Groups: len(res.Groups)},
		failed: map[string]bool{},
	}

	for _, f := range res.Failures {
		p.problem(Problem{Owner: f.Owner, Phase: PhaseDiscover, Err: f.Err})
		p.failed[f.Dir] = true
	}

	if err := p.helpers(); err != nil {
		return nil, err
	}
	if err := p.registries(); err != nil {
		return nil, err
	}
	if !opts.KeepOrphans {
		if err := p.prune(); err != nil {
			return nil, err
		}
	}

	p.report.sort()
	logger.Info("autobind pass complete",
		"packages", p.report.Packages,
		"owners", p.report.Groups,
		"written", len(p.report.Written),
		"unchanged", len(p.report.Unchanged),
		"removed", len(p.report.Removed),
		"stale", len(p.report.Stale),
		"problems", len(p.report.Problems),
	)
	return p.report, nil
}

// pass is the state of one Run. Workers never touch it directly: they fill
// their own result slot and the results are folded in afterwards.
type pass struct {
	ctx    context.Context
	logger *slog.Logger
	sink   emit.Sink
	synth  *synth.Synthesizer
	jobs   int

	res    *discover.Result
	report *Report

	// failed holds package directories with at least one failed owner.
	failed map[string]bool
}

type result struct {
	owner   discover.OwnerID
	path    string
	outcome emit.Outcome
	phase   Phase
	err     error
}

// parallel runs fn for i in [0, n) on at most p.jobs goroutines. fn reports
// failures through its result; only cancellation aborts the batch.
func (p *pass) parallel(n int, fn func(ctx context.Context, i int) result) ([]result, error) {
	results := make([]result, n)
	if n == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(p.ctx)
	g.SetLimit(min(p.jobs, n))
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *pass) helpers() error {
	groups := p.res.Groups
	results, err := p.parallel(len(groups), func(ctx context.Context, i int) result {
		g := groups[i]
		a, err := p.synth.Helper(g)
		if err != nil {
			return result{owner: g.Owner, phase: PhaseSynth, err: err}
		}
		p.logger.Debug("synthesized helper", "owner", g.Owner.String(), "members", len(g.Members))

		out, err := p.sink.Emit(ctx, a)
		return result{owner: g.Owner, path: a.Path(), outcome: out, phase: PhaseEmit, err: err}
	})
	if err != nil {
		return err
	}

	for i, r := range results {
		if p.fold(r) {
			p.failed[groups[i].Dir] = true
		}
	}
	return nil
}

func (p *pass) registries() error {
	var todo []synth.Package
	for _, pkg := range p.res.Packages {
		groups := p.res.GroupsIn(pkg.Dir)
		if len(groups) == 0 {
			continue
		}
		if p.failed[pkg.Dir] {
			path := filepath.Join(pkg.Dir, naming.RegistryFile)
			p.logger.Warn("registry left untouched: an owner of the package failed", "package", pkg.PkgPath, "path", path)
			p.report.Skipped = append(p.report.Skipped, path)
			continue
		}
		sp := synth.Package{Dir: pkg.Dir, PkgPath: pkg.PkgPath, Name: pkg.Name, Decls: pkg.Decls}
		for _, g := range groups {
			sp.Owners = append(sp.Owners, g.Owner.Name)
		}
		todo = append(todo, sp)
	}

	results, err := p.parallel(len(todo), func(ctx context.Context, i int) result {
		a, err := p.synth.Registry(todo[i])
		owner := discover.OwnerID{PkgPath: todo[i].PkgPath}
		if err != nil {
			return result{owner: owner, phase: PhaseSynth, err: err}
		}
		out, err := p.sink.Emit(ctx, a)
		return result{owner: owner, path: a.Path(), outcome: out, phase: PhaseEmit, err: err}
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		p.fold(r)
	}
	return nil
}

// prune removes outputs no owner produces anymore. Outputs of owners that
// failed this pass are kept, and so is the registry of a package with a
// failed owner.
func (p *pass) prune() error {
	for _, pkg := range p.res.Packages {
		for _, name := range pkg.Outputs {
			if err := p.ctx.Err(); err != nil {
				return err
			}
			owner, orphan := p.orphan(pkg, name)
			if !orphan {
				continue
			}
			path := filepath.Join(pkg.Dir, name)
			out, err := p.sink.Prune(p.ctx, owner, path)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.fold(result{owner: owner, path: path, outcome: out, phase: PhasePrune, err: err})
		}
	}
	return nil
}

func (p *pass) orphan(pkg *discover.Package, name string) (discover.OwnerID, bool) {
	if name == naming.RegistryFile {
		owner := discover.OwnerID{PkgPath: pkg.PkgPath}
		return owner, len(p.res.GroupsIn(pkg.Dir)) == 0 && !p.failed[pkg.Dir]
	}

	ownerName, ok := naming.OwnerFromFile(name)
	if !ok {
		return discover.OwnerID{}, false
	}
	owner := discover.OwnerID{PkgPath: pkg.PkgPath, Name: ownerName}
	if p.res.FailedIn(pkg.Dir, ownerName) {
		return owner, false
	}
	for _, g := range p.res.GroupsIn(pkg.Dir) {
		if g.Owner.Name == ownerName {
			return owner, false
		}
	}
	return owner, true
}

// fold records one result and reports whether it failed.
func (p *pass) fold(r result) bool {
	var stale *emit.StaleError
	if errors.As(r.err, &stale) {
		p.report.Stale = append(p.report.Stale, r.path)
	}

	if r.err != nil {
		p.problem(Problem{Owner: r.owner, Phase: r.phase, Path: r.path, Err: r.err})
		return stale == nil
	}

	switch r.outcome {
	case emit.OutcomeWritten:
		p.report.Written = append(p.report.Written, r.path)
		p.logger.Debug("wrote file", "owner", r.owner.String(), "path", r.path)
	case emit.OutcomeUnchanged:
		p.report.Unchanged = append(p.report.Unchanged, r.path)
	case emit.OutcomeRemoved:
		p.report.Removed = append(p.report.Removed, r.path)
		p.logger.Debug("removed file", "owner", r.owner.String(), "path", r.path)
	}
	return false
}

func (p *pass) problem(pr Problem) {
	p.logger.Error("autobind problem", "owner", pr.Owner.String(), "phase", pr.Phase.String(), "path", pr.Path, "error", pr.Err)
	p.report.Problems = append(p.report.Problems, pr)
}
