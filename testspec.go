package testspec

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coreseekdev/emx-testspec/archive"
	"github.com/coreseekdev/emx-testspec/internal/command"
	"github.com/coreseekdev/emx-testspec/internal/engine"
	"github.com/coreseekdev/emx-testspec/internal/runner"
	"github.com/coreseekdev/emx-testspec/internal/state"
)

// TestingT is the interface common to *testing.T and *testing.B, letting
// [RunStandalone] drive tests outside the "go test" harness.
type TestingT interface {
	Skip(args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Log(args ...any)
	Logf(format string, args ...any)
	Failed() bool
	Helper()
}

// Env exposes the environment a Setup hook may inspect and mutate before a
// script starts executing.
type Env struct {
	WorkDir string
	st      *state.State
}

// Getenv retrieves the value of an environment variable.
func (e *Env) Getenv(key string) string { return e.st.Getenv(key) }

// Setenv sets an environment variable for the script about to run.
func (e *Env) Setenv(key, value string) { e.st.Setenv(key, value) }

// CommandFunc is the shape a user-registered command implements: given the
// post-expansion arguments (args[0] is the command name, matching
// exec.Cmd's convention), it reports the command's outcome by calling
// methods on ts. Like every built-in, a CommandFunc is negation-blind: the
// engine's prefix policy (§4.3) decides how "!" / "?" map a plain
// success/failure to a test outcome, so CommandFunc only ever needs to
// report what actually happened.
type CommandFunc func(args []string, ts *TS)

// TS is the interface a user CommandFunc uses to report outcomes and
// inspect state; it is a thin facade over the engine's internal Context.
type TS struct {
	ctx    *command.Context
	failed bool
	result command.Result
}

// Fatalf fails the test with a formatted reason.
func (ts *TS) Fatalf(format string, args ...any) { ts.fail(fmt.Sprintf(format, args...)) }

// Fatal fails the test.
func (ts *TS) Fatal(args ...any) { ts.fail(fmt.Sprint(args...)) }

func (ts *TS) fail(reason string) {
	ts.failed = true
	ts.result = command.Fail("%s", reason)
}

// Logf appends a message to the test state's trace buffer. The runner
// neither prints that buffer nor returns it in the outcome.
func (ts *TS) Logf(format string, args ...any) {
	fmt.Fprintf(&ts.ctx.State.Trace, format+"\n", args...)
}

// WorkDir returns the test's work directory.
func (ts *TS) WorkDir() string { return ts.ctx.State.WorkDir }

// WriteStdout appends to the virtual stdout buffer, so later script lines
// (stdout, grep, cmp, cp) can observe a custom command's output the same
// way they observe a built-in's.
func (ts *TS) WriteStdout(s string) { ts.ctx.State.AppendStdout([]byte(s)) }

// Getenv retrieves an environment variable.
func (ts *TS) Getenv(key string) string { return ts.ctx.State.Getenv(key) }

type userCommand struct {
	name string
	fn   CommandFunc
}

func (u userCommand) Usage() (string, string) { return u.name, "(user-defined)" }

func (u userCommand) Run(ctx *command.Context) command.Result {
	ts := &TS{ctx: ctx}
	u.fn(ctx.Args, ts)
	if ts.failed {
		return ts.result
	}
	return command.Ok()
}

// Params holds parameters for a call to [Run] or [RunStandalone].
type Params struct {
	// Dir is the directory holding the test scripts. All files with an
	// extension in Extensions (default ".txtar") are run.
	Dir string

	// Commands holds user-registered command implementations, layered over
	// (and able to shadow) the built-in set.
	Commands map[string]CommandFunc

	// TestWork retains work directories after teardown for inspection.
	TestWork bool

	// WorkdirRoot is the parent directory for per-test work directories.
	// Setting it implies TestWork=true. Empty means the OS temp directory.
	WorkdirRoot string

	// Setup is called, if non-nil, after the work directory and
	// environment are prepared but before the script runs.
	Setup func(*Env) error

	// Condition overrides built-in condition evaluation when non-nil.
	Condition func(cond string) (bool, error)

	// Verbose keeps the work directory of a failed test for inspection.
	// No per-line execution trace is emitted.
	Verbose bool

	// Filter restricts discovery to archive paths containing this substring.
	Filter string

	// Extensions overrides the accepted archive filename suffixes.
	Extensions []string
}

func (p Params) toConfig() runner.Config {
	cmds := make(map[string]command.Command, len(p.Commands))
	for name, fn := range p.Commands {
		cmds[name] = userCommand{name: name, fn: fn}
	}

	var setup func(*state.State) error
	if p.Setup != nil {
		setup = func(st *state.State) error {
			return p.Setup(&Env{WorkDir: st.WorkDir, st: st})
		}
	}

	var cond engine.ConditionFunc
	if p.Condition != nil {
		cond = func(name, suffix string, negated bool) (bool, error) {
			tag := name
			if suffix != "" {
				tag = name + ":" + suffix
			}
			return p.Condition(tag)
		}
	}

	return runner.Config{
		Dir:          p.Dir,
		Filter:       p.Filter,
		WorkdirRoot:  p.WorkdirRoot,
		PreserveWork: p.TestWork,
		Verbose:      p.Verbose,
		Extensions:   p.Extensions,
		Setup:        setup,
		Commands:     cmds,
		Condition:    cond,
	}
}

// RunArchive runs a single already-parsed archive headlessly and returns
// its structured outcome, with no dependency on *testing.T. This is the
// library's true core entry point; [Run] and [RunStandalone] are
// conveniences layered on top of it.
func RunArchive(name string, ar archive.Archive, p Params) runner.TestOutcome {
	return runner.RunArchive(name, "", ar, p.toConfig())
}

// RunAll discovers and runs every archive under p.Dir headlessly, returning
// an aggregate outcome. This is the library's "run many" entry point.
func RunAll(p Params) (runner.AggregateOutcome, error) {
	return runner.RunAll(p.toConfig())
}

// Run runs the test scripts in p.Dir as subtests of t.
func Run(t *testing.T, p Params) {
	files, err := discoverFiles(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		f := f
		name := testName(f)
		t.Run(name, func(t *testing.T) {
			runOne(t, name, f, p)
		})
	}
}

// RunFiles runs the named scripts as subtests of t; the files need not
// share a directory.
func RunFiles(t *testing.T, p Params, filenames ...string) {
	for _, f := range filenames {
		f := f
		name := testName(f)
		t.Run(name, func(t *testing.T) {
			runOne(t, name, f, p)
		})
	}
}

// RunStandalone runs the test scripts in p.Dir without using t.Run, for
// callers that aren't driven by "go test".
func RunStandalone(t TestingT, p Params) {
	files, err := discoverFiles(p)
	if err != nil {
		t.Fatal(err)
		return
	}
	for _, f := range files {
		runOneStandalone(t, testName(f), f, p)
	}
}

// RunFilesStandalone is the standalone equivalent of RunFiles.
func RunFilesStandalone(t TestingT, p Params, filenames ...string) {
	for _, f := range filenames {
		runOneStandalone(t, testName(f), f, p)
	}
}

func runOne(t *testing.T, name, file string, p Params) {
	ar, err := archive.ReadFile(file)
	if err != nil {
		t.Fatal(err)
		return
	}
	out := RunArchive(name, ar, p)
	reportOutcome(t, out)
}

func runOneStandalone(t TestingT, name, file string, p Params) {
	ar, err := archive.ReadFile(file)
	if err != nil {
		t.Fatal(err)
		return
	}
	out := RunArchive(name, ar, p)
	reportOutcomeStandalone(t, out)
}

func reportOutcome(t *testing.T, out runner.TestOutcome) {
	switch out.Status {
	case runner.StatusFailed:
		if out.Failure != nil {
			t.Fatalf("script:%d: %s", out.Failure.LineNo, out.Failure.Reason)
		} else {
			t.Fatal("test failed")
		}
	case runner.StatusSkipped:
		t.Skip(out.Reason)
	}
	if out.WorkDir != "" {
		t.Logf("work directory: %s", out.WorkDir)
	}
}

func reportOutcomeStandalone(t TestingT, out runner.TestOutcome) {
	switch out.Status {
	case runner.StatusFailed:
		if out.Failure != nil {
			t.Fatalf("%s: script:%d: %s", out.Name, out.Failure.LineNo, out.Failure.Reason)
		} else {
			t.Fatalf("%s: test failed", out.Name)
		}
	case runner.StatusSkipped:
		t.Skip(out.Name + ": " + out.Reason)
	}
	if out.WorkDir != "" {
		t.Logf("%s: work directory: %s", out.Name, out.WorkDir)
	}
}

func discoverFiles(p Params) ([]string, error) {
	exts := p.Extensions
	if len(exts) == 0 {
		exts = []string{".txtar"}
	}
	var files []string
	for _, ext := range exts {
		matches, err := filepath.Glob(filepath.Join(p.Dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if p.Filter != "" {
		filtered := files[:0]
		for _, f := range files {
			if strings.Contains(f, p.Filter) {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}
	return files, nil
}

func testName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
