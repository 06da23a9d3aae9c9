package command

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coreseekdev/emx-testspec/internal/state"
)

func cmdExec(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) == 0 {
		return Fail("usage: exec <program> [args...]")
	}
	prog, progArgs := args[0], args[1:]

	cmd, err := buildCmd(ctx, prog, progArgs)
	if err != nil {
		return IOErrorf("exec %s: %v", prog, err)
	}

	if ctx.Background {
		job := &state.BackgroundJob{
			ID:     uuid.NewString(),
			Label:  prog,
			LineNo: ctx.State.LineNo,
			Cmd:    cmd,
			Done:   make(chan struct{}),
		}
		cmd.Stdout = &job.Stdout
		cmd.Stderr = &job.Stderr
		if err := cmd.Start(); err != nil {
			return IOErrorf("exec %s: %v", prog, err)
		}
		go func() {
			job.Err = cmd.Wait()
			close(job.Done)
		}()
		ctx.State.Background = append(ctx.State.Background, job)
		ctx.State.ResetStreams()
		return Ok()
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	ctx.State.Stdout = []byte(stdout.String())
	ctx.State.Stderr = []byte(stderr.String())

	if runErr == nil {
		return Ok()
	}
	if _, ok := runErr.(*exec.ExitError); ok {
		return Fail("%s: %v", prog, runErr)
	}
	return IOErrorf("exec %s: %v", prog, runErr)
}

func buildCmd(ctx *Context, prog string, args []string) (*exec.Cmd, error) {
	path := prog
	if !strings.ContainsRune(prog, os.PathSeparator) && !strings.ContainsRune(prog, '/') {
		// Search the script's own PATH first (a setup hook may have
		// prepended directories to it), then fall back to the host lookup.
		path = ""
		for _, dir := range filepath.SplitList(ctx.State.Getenv("PATH")) {
			if dir == "" {
				continue
			}
			cand := filepath.Join(dir, prog)
			if info, err := os.Stat(cand); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
				path = cand
				break
			}
		}
		if path == "" {
			p, err := exec.LookPath(prog)
			if err != nil {
				return nil, err
			}
			path = p
		}
	}
	cmd := exec.Command(path, args...)
	cmd.Dir = ctx.State.Cwd
	cmd.Env = ctx.State.EnvSlice()
	return cmd, nil
}

// cmdWait drains every background job in spawn order, concatenating their
// captured output into state.Stdout/state.Stderr. It surfaces only the
// first non-zero exit encountered, after draining every job.
func cmdWait(ctx *Context) Result {
	jobs := ctx.State.Background
	var stdouts, stderrs []string
	var first Result
	haveFirst := false

	for _, job := range jobs {
		<-job.Done
		stdouts = append(stdouts, job.Stdout.String())
		stderrs = append(stderrs, job.Stderr.String())

		if job.Err == nil || haveFirst {
			continue
		}
		if _, isExitErr := job.Err.(*exec.ExitError); isExitErr {
			first = Fail("background %s: %v", job.Label, job.Err)
		} else {
			first = IOErrorf("background %s: %v", job.Label, job.Err)
		}
		haveFirst = true
	}

	ctx.State.Stdout = []byte(strings.Join(stdouts, "\n"))
	ctx.State.Stderr = []byte(strings.Join(stderrs, "\n"))
	ctx.State.Background = nil

	if haveFirst {
		return first
	}
	return Ok()
}

func cmdSleep(ctx *Context) Result {
	args := ctx.Args[1:]
	if len(args) != 1 {
		return Fail("usage: sleep <duration>")
	}
	d, err := parseDuration(args[0])
	if err != nil {
		return Fail("sleep: %v", err)
	}
	time.Sleep(d)
	return Ok()
}

func parseDuration(s string) (time.Duration, error) {
	for _, suf := range []string{"ns", "us", "ms", "s", "m", "h"} {
		if strings.HasSuffix(s, suf) {
			n, err := strconv.ParseInt(strings.TrimSuffix(s, suf), 10, 64)
			if err != nil {
				return 0, err
			}
			return time.Duration(n) * durationUnit(suf), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func durationUnit(suf string) time.Duration {
	switch suf {
	case "ns":
		return time.Nanosecond
	case "us":
		return time.Microsecond
	case "ms":
		return time.Millisecond
	case "s":
		return time.Second
	case "m":
		return time.Minute
	case "h":
		return time.Hour
	}
	return time.Second
}
