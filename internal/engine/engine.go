// Package engine owns the command registry, performs argument expansion
// against execution state, dispatches each parsed line to its command, and
// applies the prefix policy (§4.3) that turns a command's raw Result into
// a line-level Outcome.
package engine

import (
	"fmt"

	"github.com/coreseekdev/emx-testspec/internal/command"
	"github.com/coreseekdev/emx-testspec/internal/condition"
	"github.com/coreseekdev/emx-testspec/internal/expand"
	"github.com/coreseekdev/emx-testspec/internal/parser"
	"github.com/coreseekdev/emx-testspec/internal/state"
)

// OutcomeKind is the line-level result after the prefix policy is applied.
type OutcomeKind int

const (
	// OutcomeContinue means move on to the next line.
	OutcomeContinue OutcomeKind = iota
	// OutcomeFail means the test fails with Reason at LineNo.
	OutcomeFail
	// OutcomeStop means the test passes; remaining lines are skipped.
	OutcomeStop
	// OutcomeSkip means the test is skipped; remaining lines are skipped.
	OutcomeSkip
)

// Outcome is the result of executing one script line through the engine.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	LineNo int
}

// ConditionFunc optionally overrides built-in condition evaluation, mirroring
// spec §6's Params.Condition hook.
type ConditionFunc func(name, suffix string, negated bool) (bool, error)

// Engine dispatches parsed lines against a command registry and a host
// condition model.
type Engine struct {
	Registry  *command.Registry
	Host      condition.HostFacts
	Condition ConditionFunc
}

// New builds an Engine with the built-in registry and default host facts.
func New() *Engine {
	return &Engine{Registry: command.NewRegistry(), Host: condition.Default()}
}

// Exec runs one already-parsed line against st, returning the resulting
// Outcome. Condition misses return OutcomeContinue without consulting the
// registry at all.
func (e *Engine) Exec(line *parser.ScriptLine, st *state.State) Outcome {
	st.LineNo = line.LineNo

	for _, c := range line.Conditions {
		ok, err := e.evalCondition(c)
		if err != nil {
			return Outcome{Kind: OutcomeFail, Reason: err.Error(), LineNo: line.LineNo}
		}
		if c.Negated {
			ok = !ok
		}
		if !ok {
			return Outcome{Kind: OutcomeContinue}
		}
	}

	cmd, ok := e.Registry.Lookup(line.Command)
	if !ok {
		return Outcome{Kind: OutcomeFail, Reason: fmt.Sprintf("unknown command %q", line.Command), LineNo: line.LineNo}
	}

	args := make([]string, 0, len(line.Args)+1)
	args = append(args, line.Command)
	env := st.EnvMap()
	for _, a := range line.Args {
		if a.Quoted {
			args = append(args, a.Value)
		} else {
			args = append(args, expand.Expand(a.Value, env))
		}
	}

	res := cmd.Run(&command.Context{
		Args:       args,
		Background: line.Background,
		State:      st,
		Registry:   e.Registry,
	})

	return e.applyPolicy(line, res)
}

func (e *Engine) evalCondition(c parser.Condition) (bool, error) {
	if e.Condition != nil {
		return e.Condition(c.Name, c.Suffix, c.Negated)
	}
	return condition.Evaluate(c.Name, c.Suffix, e.Host), nil
}

func (e *Engine) applyPolicy(line *parser.ScriptLine, res command.Result) Outcome {
	switch res.Kind {
	case command.Stop:
		return Outcome{Kind: OutcomeStop, Reason: res.Reason, LineNo: line.LineNo}
	case command.Skip:
		return Outcome{Kind: OutcomeSkip, Reason: res.Reason, LineNo: line.LineNo}
	case command.IOError:
		// Host IO failures are always fatal: the prefix policy never
		// converts them into an expected failure (spec §7).
		return Outcome{Kind: OutcomeFail, Reason: res.Reason, LineNo: line.LineNo}
	}

	switch line.Prefix {
	case parser.PrefixMayFail:
		return Outcome{Kind: OutcomeContinue}
	case parser.PrefixMustFail:
		if res.Kind == command.Failure {
			return Outcome{Kind: OutcomeContinue}
		}
		return Outcome{Kind: OutcomeFail, Reason: "expected failure, got success", LineNo: line.LineNo}
	default: // PrefixNone
		if res.Kind == command.Success {
			return Outcome{Kind: OutcomeContinue}
		}
		return Outcome{Kind: OutcomeFail, Reason: res.Reason, LineNo: line.LineNo}
	}
}
