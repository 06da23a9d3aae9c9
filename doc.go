// Package testspec provides support for script-driven, end-to-end testing
// of command-line tools.
//
// A test is a single txtar archive bundling a sequence of declarative
// script lines and named file fixtures. Each archive runs in its own
// freshly created work directory: fixtures are materialized to disk, then
// the script is interpreted line by line against a built-in command set
// (process execution, file manipulation, stream-content assertions,
// conditional gating, background/wait coordination).
//
// Basic usage, as a subtest of a Go test:
//
//	func TestCLI(t *testing.T) {
//	    testspec.Run(t, testspec.Params{
//	        Dir: "testdata",
//	    })
//	}
//
// The heavy lifting — parsing, condition evaluation, variable expansion,
// command dispatch and the per-test state machine — lives in this module's
// internal packages and is driven headlessly through [RunArchive] and
// [RunAll], which return structured outcomes rather than depend on
// *testing.T. [Run] and [RunStandalone] are thin adapters over that core,
// in the same spirit as github.com/rogpeppe/go-internal/testscript, without
// requiring a *testing.T to drive anything but Go's own test runner.
//
// # Script grammar
//
// Lines may carry a prefix, zero or more bracketed conditions, a command
// name and arguments:
//
//	! exec false                  # must fail
//	? exec maybe-flaky            # may fail either way
//	[linux] exec uname -a         # only runs on Linux
//	[exec:curl] exec curl $URL    # only runs if curl is on PATH
//	exec sh server.sh &           # backgrounded
//	wait                          # barrier: join all background jobs
//
// See the built-in command list in the "command" subpackage's builtins.go,
// or run `testspec help` on an archive, for the full command set.
package testspec
