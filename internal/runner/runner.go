// Package runner orchestrates a single test archive end to end: it
// materializes fixtures into a fresh work directory, feeds script lines to
// the parser and engine one at a time, and tears down background processes
// and the work directory when the test ends.
package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreseekdev/emx-testspec/archive"
	"github.com/coreseekdev/emx-testspec/internal/command"
	"github.com/coreseekdev/emx-testspec/internal/engine"
	"github.com/coreseekdev/emx-testspec/internal/parser"
	"github.com/coreseekdev/emx-testspec/internal/state"
)

// killGrace bounds how long teardown waits for a signaled background
// process to actually exit before giving up.
const killGrace = 2 * time.Second

// Status is a test's terminal state.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "pass"
	case StatusFailed:
		return "fail"
	case StatusSkipped:
		return "skip"
	case StatusStopped:
		return "stop"
	default:
		return "?"
	}
}

// Failure describes why a test failed, with a line-precise location.
type Failure struct {
	LineNo int
	Reason string
}

// TestOutcome is the result of running one archive.
type TestOutcome struct {
	Name     string
	File     string
	Status   Status
	Duration time.Duration
	Failure  *Failure // set only when Status == StatusFailed
	Reason   string   // set when Status == StatusSkipped or StatusStopped
	WorkDir  string   // non-empty only if preserved
}

// AggregateOutcome is the result of running every archive discovered under
// a directory.
type AggregateOutcome struct {
	Results                          []TestOutcome
	Passed, Failed, Skipped, Stopped int
}

// Config mirrors spec §6's enumerated configuration options.
type Config struct {
	Dir          string
	Filter       string
	WorkdirRoot  string
	PreserveWork bool
	Verbose      bool
	Extensions   []string
	Setup        func(*state.State) error
	Commands     map[string]command.Command
	Condition    engine.ConditionFunc
}

func (c Config) extensions() []string {
	if len(c.Extensions) == 0 {
		return []string{".txtar"}
	}
	return c.Extensions
}

// RunArchive runs one already-parsed archive to completion and returns its
// outcome. name identifies the test (e.g. its base filename without
// extension); file, if non-empty, is used only for diagnostics.
func RunArchive(name, file string, ar archive.Archive, cfg Config) TestOutcome {
	start := time.Now()
	out := TestOutcome{Name: name, File: file}

	verbose := cfg.Verbose || os.Getenv("TESTSPEC_VERBOSE") == "1"

	root := cfg.WorkdirRoot
	preserve := cfg.PreserveWork || os.Getenv("TESTSPEC_WORK") == "1"
	if root == "" {
		root = os.TempDir()
	} else {
		preserve = true
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return failOutcome(out, start, fmt.Sprintf("create workdir root: %v", err))
	}
	workDir, err := os.MkdirTemp(root, "testspec-*")
	if err != nil {
		return failOutcome(out, start, fmt.Sprintf("create workdir: %v", err))
	}

	if err := archive.Materialize(ar, workDir); err != nil {
		os.RemoveAll(workDir)
		return failOutcome(out, start, err.Error())
	}

	st := state.New(workDir, verbose)

	if cfg.Setup != nil {
		if err := cfg.Setup(st); err != nil {
			teardown(st, preserve || verbose)
			return failOutcome(out, start, fmt.Sprintf("setup: %v", err))
		}
	}

	eng := engine.New()
	eng.Condition = cfg.Condition
	for _, c := range cfg.Commands {
		eng.Registry.Register(c)
	}

	status := StatusPassed
	var failure *Failure
	var reason string

	lineNo := 0
	for _, raw := range splitLines(ar.Script) {
		lineNo++
		line, perr := parser.ParseLine(raw, lineNo)
		if perr != nil {
			status = StatusFailed
			failure = &Failure{LineNo: lineNo, Reason: perr.Error()}
			break
		}
		if line == nil {
			continue
		}

		outcome := eng.Exec(line, st)
		switch outcome.Kind {
		case engine.OutcomeContinue:
			continue
		case engine.OutcomeFail:
			status = StatusFailed
			failure = &Failure{LineNo: outcome.LineNo, Reason: outcome.Reason}
		case engine.OutcomeStop:
			status = StatusStopped
			reason = outcome.Reason
		case engine.OutcomeSkip:
			status = StatusSkipped
			reason = outcome.Reason
		}
		break
	}

	keepWork := preserve || (verbose && status == StatusFailed)
	teardown(st, keepWork)

	out.Status = status
	out.Failure = failure
	out.Reason = reason
	out.Duration = time.Since(start)
	if keepWork {
		out.WorkDir = workDir
	}
	return out
}

func failOutcome(out TestOutcome, start time.Time, reason string) TestOutcome {
	out.Status = StatusFailed
	out.Failure = &Failure{Reason: reason}
	out.Duration = time.Since(start)
	return out
}

// teardown kills any surviving background processes and either removes the
// work directory or leaves it in place for inspection.
func teardown(st *state.State, preserve bool) {
	st.KillBackground(killGrace)
	if !preserve {
		os.RemoveAll(st.WorkDir)
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// RunAll discovers archives under cfg.Dir (by extension and optional
// substring Filter) and runs them sequentially, aggregating their outcomes.
// Parallel execution across tests is an explicit non-goal.
func RunAll(cfg Config) (AggregateOutcome, error) {
	files, err := discover(cfg.Dir, cfg.extensions(), cfg.Filter)
	if err != nil {
		return AggregateOutcome{}, err
	}

	var agg AggregateOutcome
	for _, f := range files {
		ar, err := archive.ReadFile(f)
		if err != nil {
			agg.Results = append(agg.Results, TestOutcome{
				Name:   testName(f),
				File:   f,
				Status: StatusFailed,
				Failure: &Failure{Reason: fmt.Sprintf("read archive: %v", err)},
			})
			agg.Failed++
			continue
		}
		out := RunArchive(testName(f), f, ar, cfg)
		agg.Results = append(agg.Results, out)
		switch out.Status {
		case StatusPassed:
			agg.Passed++
		case StatusFailed:
			agg.Failed++
		case StatusSkipped:
			agg.Skipped++
		case StatusStopped:
			agg.Stopped++
		}
	}
	return agg, nil
}

func testName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func discover(dir string, extensions []string, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(path, ext) {
				if filter == "" || strings.Contains(path, filter) {
					files = append(files, path)
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
