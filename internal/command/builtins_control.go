package command

import (
	"os"
	"strings"
)

func cmdCD(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) != 1 {
		return Fail("usage: cd <dir>")
	}
	dir := ctx.State.Abs(args[0])
	info, err := os.Stat(dir)
	if err != nil {
		return Fail("cd %s: %v", args[0], err)
	}
	if !info.IsDir() {
		return Fail("cd %s: not a directory", args[0])
	}
	ctx.State.Chdir(dir)
	return Ok()
}

func cmdEnv(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) == 0 {
		ctx.State.AppendStdout([]byte(ctx.State.EnvDump()))
		return Ok()
	}
	for _, a := range args {
		if k, v, ok := strings.Cut(a, "="); ok {
			ctx.State.Setenv(k, v)
		} else {
			ctx.State.Unsetenv(a)
		}
	}
	return Ok()
}

func cmdEcho(ctx *Context) Result {
	args := ctx.Args[1:]
	ctx.State.AppendStdout([]byte(strings.Join(args, " ") + "\n"))
	return Ok()
}

func cmdStop(ctx *Context) Result {
	reason := "stop"
	if len(ctx.Args) > 1 {
		reason = strings.Join(ctx.Args[1:], " ")
	}
	return StopWith(reason)
}

func cmdSkip(ctx *Context) Result {
	reason := "skip"
	if len(ctx.Args) > 1 {
		reason = strings.Join(ctx.Args[1:], " ")
	}
	return SkipWith(reason)
}

func cmdHelp(ctx *Context) Result {
	if ctx.Registry == nil {
		return Ok()
	}
	ctx.State.AppendStdout([]byte(strings.Join(ctx.Registry.Usage(), "\n") + "\n"))
	return Ok()
}
