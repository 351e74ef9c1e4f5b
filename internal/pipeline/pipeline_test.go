package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/autobind/internal/discover"
	"github.com/sghaida/autobind/internal/emit"
	"github.com/sghaida/autobind/internal/naming"
	"github.com/sghaida/autobind/internal/testutil"
)

const appSrc = `package app

import "example.com/proj/widget"

type MainActivity struct {
	testTextView *widget.TextView ` + "`bind:\"1001\"`" + `

	//autobind:id 1002
	title *widget.TextView
}

type Settings struct {
	toggle *widget.Switch ` + "`bind:\"7\"`" + `
}
`

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newApp(t *testing.T) *testutil.Module {
	t.Helper()
	m := testutil.NewModule(t, "example.com/proj")
	m.Write("app/app.go", appSrc)
	m.Write("widget/widget.go", "package widget\n\ntype TextView struct{}\n\ntype Switch struct{}\n")
	return m
}

func run(t *testing.T, m *testutil.Module, opts Options) *Report {
	t.Helper()
	opts.Roots = []string{m.Dir}
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	rep, err := Run(context.Background(), opts)
	require.NoError(t, err)
	return rep
}

//
// -----------------------------------------------------------------------------
// Run(): generate
// -----------------------------------------------------------------------------

// TestRun_WritesHelpersAndRegistry verifies one helper per owner and one registry per package.
func TestRun_WritesHelpersAndRegistry(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	rep := run(t, m, Options{})
	require.True(t, rep.OK(), "%v", rep.Err())

	assert.Equal(t, 2, rep.Packages)
	assert.Equal(t, 2, rep.Groups)
	assert.Equal(t, []string{
		m.Abs("app/" + naming.HelperFile("MainActivity")),
		m.Abs("app/" + naming.HelperFile("Settings")),
		m.Abs("app/" + naming.RegistryFile),
	}, rep.Written)

	helper := m.Read("app/" + naming.HelperFile("MainActivity"))
	testutil.AssertContainsInOrder(t, helper,
		naming.Header,
		"package app",
		"var _ bind.Finder = (*MainActivity)(nil)",
		"func NewMainActivityAutobind() bind.Helper",
		`bind.Resolve[*widget.TextView](t, 1001, "testTextView")`,
		`bind.Resolve[*widget.TextView](t, 1002, "title")`,
		"t.testTextView = v0",
	)

	reg := m.Read("app/" + naming.RegistryFile)
	testutil.AssertContainsInOrder(t, reg,
		"func RegisterAutobind(r *bind.Registry) error",
		"bind.Register[MainActivity](r, NewMainActivityAutobind)",
		"bind.Register[Settings](r, NewSettingsAutobind)",
	)

	again := run(t, m, Options{})
	require.True(t, again.OK())
	assert.Empty(t, again.Written)
	assert.Len(t, again.Unchanged, 3)
}

// TestRun_DeterministicAcrossJobs verifies the worker count never changes the output.
func TestRun_DeterministicAcrossJobs(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	for i := range 6 {
		m.Write("pkg"+string(rune('a'+i))+"/p.go", "package p\n\ntype T struct {\n\tx int `bind:\"1\"`\n\ty string `bind:\"2\"`\n}\n")
	}

	serial := emit.NewMemorySink()
	run(t, m, Options{Jobs: 1, Sink: serial})

	wide := emit.NewMemorySink()
	rep := run(t, m, Options{Jobs: 16, Sink: wide})

	require.Equal(t, serial.Paths(), wide.Paths())
	for _, p := range serial.Paths() {
		a, _ := serial.Get(p)
		b, _ := wide.Get(p)
		assert.Equal(t, string(a), string(b), p)
	}
	assert.Len(t, rep.Written, 2*6+3)
	assert.False(t, m.Exists("app/"+naming.RegistryFile), "memory sink writes nothing")
}

// TestRun_OutputTypeChecks verifies written files compile with the package
// even when it declares the runtime's usual name itself.
func TestRun_OutputTypeChecks(t *testing.T) {
	t.Parallel()

	m := testutil.NewModule(t, "example.com/proj")
	m.Write("widget/widget.go", "package widget\n\ntype TextView struct{}\n")
	m.Write("app/app.go", "package app\n\nimport t \"example.com/proj/widget\"\n\n"+
		"type Host struct {\n\tview *t.TextView `bind:\"1\"`\n}\n\n"+
		"func (*Host) FindByID(int) (any, bool) { return nil, false }\n")
	m.Write("app/bind.go", "package app\n\nfunc bind(id int) (any, bool) { return nil, false }\n")

	rep := run(t, m, Options{})
	require.True(t, rep.OK(), "%v", rep.Err())
	require.Len(t, rep.Written, 2)
	assert.Contains(t, m.Read("app/"+naming.RegistryFile), "autobind.Register[Host]")

	c := testutil.NewChecker(t)
	c.AddDir("github.com/sghaida/autobind/bind", filepath.Join("..", "..", "bind"))
	c.AddDir("example.com/proj/widget", m.Abs("widget"))
	c.AddDir("example.com/proj/app", m.Abs("app"))
	require.NoError(t, c.Check("example.com/proj/app"))
}

//
// -----------------------------------------------------------------------------
// Run(): failures
// -----------------------------------------------------------------------------

// TestRun_InvalidTargetIsFatal verifies a misplaced directive stops the pass before any write.
func TestRun_InvalidTargetIsFatal(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	m.Write("app/bad.go", "package app\n\n//autobind:id 5\nfunc Bad() {}\n")

	rep, err := Run(context.Background(), Options{Roots: []string{m.Dir}, Logger: quiet})
	require.Error(t, err)
	assert.Nil(t, rep)

	var target *discover.InvalidTargetError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, discover.TargetFunc, target.Target)
	assert.False(t, m.Exists("app/"+naming.HelperFile("MainActivity")))
}

// TestRun_OwnerFailureIsIsolated verifies one broken owner does not stop the others.
func TestRun_OwnerFailureIsIsolated(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	m.Write("app/dup.go", "package app\n\ntype Dup struct {\n\t//autobind:id 1\n\ta int `bind:\"2\"`\n}\n")

	rep := run(t, m, Options{})
	require.False(t, rep.OK())
	require.Len(t, rep.Problems, 1)

	pr := rep.Problems[0]
	assert.Equal(t, "Dup", pr.Owner.Name)
	assert.Equal(t, PhaseDiscover, pr.Phase)
	var dup *discover.DuplicateFieldError
	assert.ErrorAs(t, rep.Err(), &dup)

	assert.True(t, m.Exists("app/"+naming.HelperFile("MainActivity")))
	assert.True(t, m.Exists("app/"+naming.HelperFile("Settings")))
	assert.False(t, m.Exists("app/"+naming.HelperFile("Dup")))
	assert.False(t, m.Exists("app/"+naming.RegistryFile), "registry needs every owner of the package")
	assert.Equal(t, []string{m.Abs("app/" + naming.RegistryFile)}, rep.Skipped)
}

// TestRun_SynthFailure verifies an unsupported field type fails only its owner.
func TestRun_SynthFailure(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	m.Write("app/odd.go", "package app\n\ntype Odd struct {\n\tf interface{ M() } `bind:\"3\"`\n}\n")

	rep := run(t, m, Options{})
	require.Len(t, rep.Problems, 1)
	assert.Equal(t, PhaseSynth, rep.Problems[0].Phase)
	assert.Equal(t, "Odd", rep.Problems[0].Owner.Name)
	assert.ErrorContains(t, rep.Err(), "unsupported field type")
	assert.Len(t, rep.Written, 2)
	assert.Len(t, rep.Skipped, 1)
}

// TestRun_ForeignFile verifies a hand-written file at a helper path is never replaced.
func TestRun_ForeignFile(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	m.Write("app/"+naming.HelperFile("Settings"), "package app\n")

	rep := run(t, m, Options{})
	require.Len(t, rep.Problems, 1)
	assert.Equal(t, PhaseEmit, rep.Problems[0].Phase)
	assert.ErrorIs(t, rep.Err(), emit.ErrForeignFile)
	assert.Equal(t, "package app\n", m.Read("app/"+naming.HelperFile("Settings")))
	assert.False(t, m.Exists("app/"+naming.RegistryFile))
}

// TestRun_Canceled verifies a canceled context aborts the pass.
func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newApp(t)
	_, err := Run(ctx, Options{Roots: []string{m.Dir}, Logger: quiet})
	assert.True(t, errors.Is(err, context.Canceled))
}

//
// -----------------------------------------------------------------------------
// Run(): orphans
// -----------------------------------------------------------------------------

// TestRun_PrunesOrphans verifies outputs disappear with their last binding.
func TestRun_PrunesOrphans(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	run(t, m, Options{})

	src := strings.Replace(appSrc, "toggle *widget.Switch `bind:\"7\"`", "toggle *widget.Switch", 1)
	m.Write("app/app.go", src)

	rep := run(t, m, Options{})
	require.True(t, rep.OK(), "%v", rep.Err())
	assert.Equal(t, []string{m.Abs("app/" + naming.HelperFile("Settings"))}, rep.Removed)
	assert.False(t, m.Exists("app/"+naming.HelperFile("Settings")))
	assert.Contains(t, m.Read("app/"+naming.RegistryFile), "NewMainActivityAutobind")
	assert.NotContains(t, m.Read("app/"+naming.RegistryFile), "Settings")

	m.Write("app/app.go", "package app\n\ntype MainActivity struct{}\n")
	rep = run(t, m, Options{})
	assert.Len(t, rep.Removed, 2)
	assert.False(t, m.Exists("app/"+naming.RegistryFile))
}

// TestRun_KeepOrphans verifies pruning can be turned off.
func TestRun_KeepOrphans(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	run(t, m, Options{})
	m.Write("app/app.go", "package app\n\ntype MainActivity struct{}\n")

	rep := run(t, m, Options{KeepOrphans: true})
	assert.Empty(t, rep.Removed)
	assert.True(t, m.Exists("app/"+naming.RegistryFile))
}

// TestRun_FailedOwnerKeepsItsFile verifies an owner failing this pass keeps its previous helper.
func TestRun_FailedOwnerKeepsItsFile(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	run(t, m, Options{})

	src := strings.Replace(appSrc, "toggle *widget.Switch `bind:\"7\"`", "//autobind:id 8\n\ttoggle *widget.Switch `bind:\"7\"`", 1)
	m.Write("app/app.go", src)

	rep := run(t, m, Options{})
	require.Len(t, rep.Problems, 1)
	assert.Empty(t, rep.Removed)
	assert.True(t, m.Exists("app/"+naming.HelperFile("Settings")))
	assert.True(t, m.Exists("app/"+naming.RegistryFile))
}

//
// -----------------------------------------------------------------------------
// Run(): check mode
// -----------------------------------------------------------------------------

// TestRun_Check verifies the check sink reports stale files and writes nothing.
func TestRun_Check(t *testing.T) {
	t.Parallel()

	m := newApp(t)
	rep := run(t, m, Options{Sink: emit.NewCheckSink()})
	require.False(t, rep.OK())
	assert.Len(t, rep.Stale, 3)
	assert.Empty(t, rep.Skipped, "stale is not an owner failure")
	assert.False(t, m.Exists("app/"+naming.RegistryFile))

	var stale *emit.StaleError
	assert.ErrorAs(t, rep.Err(), &stale)

	run(t, m, Options{})
	rep = run(t, m, Options{Sink: emit.NewCheckSink()})
	assert.True(t, rep.OK(), "%v", rep.Err())
	assert.Len(t, rep.Unchanged, 3)

	m.Write("app/app.go", "package app\n\ntype MainActivity struct{}\n")
	rep = run(t, m, Options{Sink: emit.NewCheckSink()})
	assert.Len(t, rep.Stale, 3)
	assert.True(t, m.Exists("app/"+naming.RegistryFile))
}

//
// -----------------------------------------------------------------------------
// Report
// -----------------------------------------------------------------------------

func TestReport(t *testing.T) {
	t.Parallel()

	r := &Report{}
	assert.True(t, r.OK())
	assert.NoError(t, r.Err())

	b := discover.OwnerID{PkgPath: "p", Name: "B"}
	a := discover.OwnerID{PkgPath: "p", Name: "A"}
	r.Problems = []Problem{
		{Owner: b, Phase: PhaseEmit, Err: errors.New("b")},
		{Owner: a, Phase: PhaseSynth, Err: errors.New("a2")},
		{Owner: a, Phase: PhaseDiscover, Err: errors.New("a1")},
	}
	r.Written = []string{"z", "y"}
	r.sort()

	assert.Equal(t, []string{"y", "z"}, r.Written)
	assert.Equal(t, "a1\na2\nb", r.Err().Error())
	assert.False(t, r.OK())
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "discover", PhaseDiscover.String())
	assert.Equal(t, "synth", PhaseSynth.String())
	assert.Equal(t, "emit", PhaseEmit.String())
	assert.Equal(t, "prune", PhasePrune.String())
	assert.Equal(t, "unknown", Phase(0).String())
}
