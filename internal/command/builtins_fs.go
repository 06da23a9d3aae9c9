package command

import (
	"os"

	"github.com/coreseekdev/emx-testspec/internal/state"
)

// readErr classifies an os error from a path-based read: a missing path is
// a semantic failure (file not found is negatable, spec §7), anything else
// is a host-level IOError that the prefix policy can never mask.
func readErr(verb, path string, err error) Result {
	if os.IsNotExist(err) {
		return Fail("%s %s: no such file or directory", verb, path)
	}
	return IOErrorf("%s %s: %v", verb, path, err)
}

func cmdCp(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) != 2 {
		return Fail("usage: cp <src> <dst>")
	}
	src, dst := args[0], args[1]
	if state.IsPseudo(dst) {
		return Fail("cp: cannot write to pseudo-file %q", dst)
	}
	data, err := ctx.State.ReadPath(src)
	if err != nil {
		return readErr("cp", src, err)
	}
	if err := os.WriteFile(ctx.State.Abs(dst), data, 0o666); err != nil {
		return IOErrorf("cp %s: %v", dst, err)
	}
	return Ok()
}

func cmdMv(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) != 2 {
		return Fail("usage: mv <src> <dst>")
	}
	src, dst := args[0], args[1]
	if state.IsPseudo(src) || state.IsPseudo(dst) {
		return Fail("mv: pseudo-files are not supported")
	}
	if err := os.Rename(ctx.State.Abs(src), ctx.State.Abs(dst)); err != nil {
		if os.IsNotExist(err) {
			return Fail("mv %s %s: no such file or directory", src, dst)
		}
		return IOErrorf("mv %s %s: %v", src, dst, err)
	}
	return Ok()
}

func cmdRm(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) == 0 {
		return Fail("usage: rm <path>...")
	}
	for _, p := range args {
		if state.IsPseudo(p) {
			return Fail("rm: pseudo-files are not supported")
		}
		abs := ctx.State.Abs(p)
		if _, err := os.Lstat(abs); err != nil {
			if os.IsNotExist(err) {
				return Fail("rm %s: no such file or directory", p)
			}
			return IOErrorf("rm %s: %v", p, err)
		}
		if err := os.RemoveAll(abs); err != nil {
			return IOErrorf("rm %s: %v", p, err)
		}
	}
	return Ok()
}

func cmdMkdir(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) == 0 {
		return Fail("usage: mkdir <dir>...")
	}
	for _, d := range args {
		if err := os.MkdirAll(ctx.State.Abs(d), 0o777); err != nil {
			return IOErrorf("mkdir %s: %v", d, err)
		}
	}
	return Ok()
}

func cmdExists(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) == 0 {
		return Fail("usage: exists <path>...")
	}
	for _, p := range args {
		if state.IsPseudo(p) {
			continue
		}
		if _, err := os.Stat(ctx.State.Abs(p)); err != nil {
			return Fail("%s does not exist", p)
		}
	}
	return Ok()
}

func cmdCat(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) == 0 {
		return Fail("usage: cat <file>...")
	}
	for _, f := range args {
		data, err := ctx.State.ReadPath(f)
		if err != nil {
			return readErr("cat", f, err)
		}
		ctx.State.AppendStdout(data)
	}
	return Ok()
}
