// Package command defines the built-in command set: the Command interface
// commands implement, the outcome type the engine's prefix policy consumes,
// and the registry that maps names to implementations.
package command

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coreseekdev/emx-testspec/internal/state"
)

// Kind distinguishes the possible results of running a command.
type Kind int

const (
	// Success means the command did what it was asked.
	Success Kind = iota
	// Failure is a semantic miss: an assertion didn't hold, a file was
	// missing, a child process exited non-zero. Subject to prefix policy.
	Failure
	// IOError is a host-level failure (disk, process spawn). It is always
	// fatal to the test: the prefix policy never converts it into an
	// expected failure.
	IOError
	// Stop ends the test successfully, skipping remaining lines.
	Stop
	// Skip marks the test skipped, skipping remaining lines.
	Skip
)

// Result is what a Command.Run call returns.
type Result struct {
	Kind   Kind
	Reason string
}

// Ok reports success.
func Ok() Result { return Result{Kind: Success} }

// Fail reports a semantic failure with a formatted reason.
func Fail(format string, a ...any) Result {
	return Result{Kind: Failure, Reason: fmt.Sprintf(format, a...)}
}

// IOErrorf reports a host-level failure that the prefix policy cannot mask.
func IOErrorf(format string, a ...any) Result {
	return Result{Kind: IOError, Reason: fmt.Sprintf(format, a...)}
}

// StopWith ends the test, treating it as passed.
func StopWith(reason string) Result {
	return Result{Kind: Stop, Reason: reason}
}

// SkipWith marks the test skipped.
func SkipWith(reason string) Result {
	return Result{Kind: Skip, Reason: reason}
}

// Context is the input a command implementation receives: its expanded
// arguments (args[0] is the command name, matching exec.Cmd convention),
// whether the line ended in a trailing "&", and the test's mutable state.
type Context struct {
	Args       []string
	Background bool
	State      *state.State
	Registry   *Registry // the full registry, for introspection ("help")
}

// Command is the capability set every built-in and user-registered command
// implements. This models dynamic dispatch explicitly rather than relying
// on any language-specific mechanism: the registry is just name -> Command.
type Command interface {
	// Usage returns the command's name and a one-line argument summary,
	// e.g. ("grep", "<pattern> <file>").
	Usage() (name, argsHelp string)
	Run(ctx *Context) Result
}

type funcCommand struct {
	name string
	help string
	run  func(ctx *Context) Result
}

func (f funcCommand) Usage() (string, string) { return f.name, f.help }
func (f funcCommand) Run(ctx *Context) Result { return f.run(ctx) }

// New builds a Command from a plain function, the shape every built-in in
// this package uses.
func New(name, help string, run func(ctx *Context) Result) Command {
	return funcCommand{name: name, help: help, run: run}
}

// Registry maps command names to implementations. The zero value is ready
// to use once seeded with Register.
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

// NewRegistry returns a Registry pre-populated with the built-in commands.
func NewRegistry() *Registry {
	r := &Registry{cmds: make(map[string]Command)}
	for _, c := range builtins() {
		r.Register(c)
	}
	return r
}

// Register adds or replaces a command. User commands registered this way
// take precedence over same-named built-ins (checked by the caller, since
// Registry doesn't distinguish layers).
func (r *Registry) Register(c Command) {
	name, _ := c.Usage()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmds == nil {
		r.cmds = make(map[string]Command)
	}
	r.cmds[name] = c
}

// Lookup finds a command by name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cmds[name]
	return c, ok
}

// Names returns every registered command name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.cmds))
	for n := range r.cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Usage returns one "name  help" line for every registered command, sorted
// by name, used by the "help" built-in.
func (r *Registry) Usage() []string {
	names := r.Names()
	out := make([]string, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range names {
		_, help := r.cmds[n].Usage()
		out = append(out, fmt.Sprintf("%-10s %s", n, help))
	}
	return out
}
