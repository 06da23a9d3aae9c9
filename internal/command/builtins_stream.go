package command

import (
	"bytes"
	"regexp"

	"github.com/coreseekdev/emx-testspec/diffutil"
	"github.com/coreseekdev/emx-testspec/internal/expand"
)

// maxPatternLen approximates the spec's "~1 MiB DFA budget" guard: Go's
// regexp package is RE2-based and already runs in time linear in the input
// (no catastrophic backtracking regardless of pattern shape), but an
// absurdly long pattern can still build a large compiled program, so it is
// rejected outright rather than compiled.
const maxPatternLen = 1 << 20

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > maxPatternLen {
		return nil, errTooLong
	}
	return regexp.Compile("(?m)" + pattern)
}

var errTooLong = regexpErr("pattern exceeds maximum size")

type regexpErr string

func (e regexpErr) Error() string { return string(e) }

const previewBytes = 200

func preview(b []byte) []byte {
	if len(b) > previewBytes {
		return b[:previewBytes]
	}
	return b
}

func cmdStdout(ctx *Context) Result {
	return matchStream(ctx, "stdout", ctx.State.Stdout)
}

func cmdStderr(ctx *Context) Result {
	return matchStream(ctx, "stderr", ctx.State.Stderr)
}

func matchStream(ctx *Context, which string, buf []byte) Result {
	args := ctx.Args[1:]
	if len(args) != 1 {
		return Fail("usage: %s <pattern>", which)
	}
	re, err := compilePattern(args[0])
	if err != nil {
		return Fail("%s: bad pattern: %v", which, err)
	}
	if re.Match(buf) {
		return Ok()
	}
	return Fail("%s does not match %q; actual:\n%s", which, args[0], preview(buf))
}

func cmdGrep(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) != 2 {
		return Fail("usage: grep <pattern> <file>")
	}
	re, err := compilePattern(args[0])
	if err != nil {
		return Fail("grep: bad pattern: %v", err)
	}
	data, err := ctx.State.ReadPath(args[1])
	if err != nil {
		return readErr("grep", args[1], err)
	}
	if re.Match(data) {
		return Ok()
	}
	return Fail("%s does not contain %q", args[1], args[0])
}

func cmdCmp(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) != 2 {
		return Fail("usage: cmp <a> <b>")
	}
	a, err := ctx.State.ReadPath(args[0])
	if err != nil {
		return readErr("cmp", args[0], err)
	}
	b, err := ctx.State.ReadPath(args[1])
	if err != nil {
		return readErr("cmp", args[1], err)
	}
	if bytes.Equal(a, b) {
		return Ok()
	}
	return Fail("%s and %s differ:\n%s", args[0], args[1], diffutil.Format(args[0], args[1], a, b))
}

func cmdCmpenv(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) != 2 {
		return Fail("usage: cmpenv <a> <b>")
	}
	a, err := ctx.State.ReadPath(args[0])
	if err != nil {
		return readErr("cmpenv", args[0], err)
	}
	b, err := ctx.State.ReadPath(args[1])
	if err != nil {
		return readErr("cmpenv", args[1], err)
	}
	env := ctx.State.EnvMap()
	ea := []byte(expand.Expand(string(a), env))
	eb := []byte(expand.Expand(string(b), env))
	if bytes.Equal(ea, eb) {
		return Ok()
	}
	return Fail("%s and %s differ after expansion:\n%s", args[0], args[1], diffutil.Format(args[0], args[1], ea, eb))
}
