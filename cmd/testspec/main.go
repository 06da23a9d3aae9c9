// Command testspec runs .txtar test scripts from the command line without
// going through `go test`. It is a thin wrapper (per spec §6 "CLI surface")
// around the headless runner package; the core never depends on this
// binary or on *testing.T.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/ff/v4"

	"github.com/coreseekdev/emx-testspec/archive"
	"github.com/coreseekdev/emx-testspec/internal/runner"
)

type config struct {
	verbose     bool
	testWork    bool
	workdirRoot string
	filter      string
}

func (cfg *config) registerFlags(fs *ff.FlagSet) {
	fs.BoolVar(&cfg.verbose, 'v', "verbose", "also report passing and stopped tests, and keep failed work directories")
	fs.BoolVar(&cfg.testWork, 0, "work", "preserve work directories after tests")
	fs.StringVar(&cfg.workdirRoot, 'w', "workdir-root", "", "root directory for per-test work directories")
	fs.StringVar(&cfg.filter, 'f', "filter", "", "only run archives whose path contains this substring")
}

// exitCode communicates pass/fail out of execRunner, since ff.Command.Exec
// only carries an error (usage vs. execution failure), not a tri-state
// exit code (spec §6: 0 pass, 1 fail, 2 usage error).
var exitCode int

var errUsage = fmt.Errorf("usage: testspec [FLAGS] <file.txtar | directory>")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newCommand()
	if err := cmd.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("TESTSPEC")); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if err == errUsage {
			os.Exit(2)
		}
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func newCommand() *ff.Command {
	var cfg config
	fs := ff.NewFlagSet("testspec")
	cfg.registerFlags(fs)

	return &ff.Command{
		Name:  "testspec",
		Usage: "testspec [FLAGS] <file.txtar | directory>",
		Flags: fs,
		Exec: func(ctx context.Context, args []string) error {
			return execRunner(&cfg, args)
		},
	}
}

func execRunner(cfg *config, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	target := args[0]

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", target, err)
	}

	rcfg := runner.Config{
		WorkdirRoot:  cfg.workdirRoot,
		PreserveWork: cfg.testWork,
		Verbose:      cfg.verbose,
		Filter:       cfg.filter,
	}

	var agg runner.AggregateOutcome
	if info.IsDir() {
		rcfg.Dir = target
		agg, err = runner.RunAll(rcfg)
		if err != nil {
			return err
		}
	} else {
		if !strings.HasSuffix(target, ".txtar") {
			return fmt.Errorf("file must have .txtar extension: %s", target)
		}
		ar, rerr := archive.ReadFile(target)
		if rerr != nil {
			return rerr
		}
		name := strings.TrimSuffix(filepath.Base(target), ".txtar")
		out := runner.RunArchive(name, target, ar, rcfg)
		agg = aggregateOne(out)
	}

	report(agg, cfg.verbose)

	exitCode = 0
	if agg.Failed > 0 {
		exitCode = 1
	}
	return nil
}

func report(agg runner.AggregateOutcome, verbose bool) {
	for _, out := range agg.Results {
		switch out.Status {
		case runner.StatusPassed:
			if verbose {
				fmt.Printf("PASS  %s (%s)\n", out.Name, out.Duration)
			}
		case runner.StatusSkipped:
			fmt.Printf("SKIP  %s: %s\n", out.Name, out.Reason)
		case runner.StatusStopped:
			if verbose {
				fmt.Printf("STOP  %s: %s\n", out.Name, out.Reason)
			}
		case runner.StatusFailed:
			fmt.Printf("FAIL  %s: %s\n", out.Name, failureText(out))
		}
	}
	fmt.Printf("%d passed, %d failed, %d skipped, %d stopped\n", agg.Passed, agg.Failed, agg.Skipped, agg.Stopped)
}

func failureText(out runner.TestOutcome) string {
	if out.Failure == nil {
		return "unknown failure"
	}
	if out.Failure.LineNo > 0 {
		return fmt.Sprintf("script:%d: %s", out.Failure.LineNo, out.Failure.Reason)
	}
	return out.Failure.Reason
}

func aggregateOne(out runner.TestOutcome) runner.AggregateOutcome {
	agg := runner.AggregateOutcome{Results: []runner.TestOutcome{out}}
	switch out.Status {
	case runner.StatusPassed:
		agg.Passed = 1
	case runner.StatusFailed:
		agg.Failed = 1
	case runner.StatusSkipped:
		agg.Skipped = 1
	case runner.StatusStopped:
		agg.Stopped = 1
	}
	return agg
}
