package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreseekdev/emx-testspec/internal/state"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	st := state.New(t.TempDir(), false)
	return &Context{State: st, Registry: NewRegistry()}
}

func run(t *testing.T, ctx *Context, name string, args ...string) Result {
	t.Helper()
	cmd, ok := ctx.Registry.Lookup(name)
	require.True(t, ok, "command %q not registered", name)
	ctx.Args = append([]string{name}, args...)
	return cmd.Run(ctx)
}

func TestEcho_WritesVirtualStdout(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "echo", "hello", "world")
	assert.Equal(t, Success, res.Kind)
	assert.Equal(t, "hello world\n", string(ctx.State.Stdout))
}

func TestStdout_MatchesAndFails(t *testing.T) {
	ctx := newTestContext(t)
	run(t, ctx, "echo", "hello")

	res := run(t, ctx, "stdout", "hel+o")
	assert.Equal(t, Success, res.Kind)

	res = run(t, ctx, "stdout", "nomatch")
	assert.Equal(t, Failure, res.Kind)
	assert.Contains(t, res.Reason, "nomatch")
}

func TestCat_PseudoStdoutRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	run(t, ctx, "echo", "hi")
	res := run(t, ctx, "cat", "stdout")
	assert.Equal(t, Success, res.Kind)
	assert.Equal(t, "hi\nhi\n", string(ctx.State.Stdout))
}

func TestCp_RejectsPseudoDestination(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "cp", "stdout", "stdout")
	assert.Equal(t, Failure, res.Kind)
}

func TestCp_FromPseudoToReal(t *testing.T) {
	ctx := newTestContext(t)
	run(t, ctx, "echo", "payload")
	res := run(t, ctx, "cp", "stdout", "out.txt")
	require.Equal(t, Success, res.Kind)

	data, err := os.ReadFile(filepath.Join(ctx.State.WorkDir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(data))
}

func TestRm_MissingFileFails(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "rm", "does-not-exist")
	assert.Equal(t, Failure, res.Kind)
}

func TestMkdirAndExists(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "mkdir", "a/b/c")
	require.Equal(t, Success, res.Kind)

	res = run(t, ctx, "exists", "a/b/c")
	assert.Equal(t, Success, res.Kind)

	res = run(t, ctx, "exists", "nope")
	assert.Equal(t, Failure, res.Kind)
}

func TestEnv_SetGetUnset(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "env", "FOO=bar")
	require.Equal(t, Success, res.Kind)
	assert.Equal(t, "bar", ctx.State.Getenv("FOO"))

	run(t, ctx, "env", "FOO")
	assert.Equal(t, "", ctx.State.Getenv("FOO"))
}

func TestEnv_NoArgsDumpsToStdout(t *testing.T) {
	ctx := newTestContext(t)
	run(t, ctx, "env", "FOO=bar")
	ctx.State.ResetStreams()
	run(t, ctx, "env")
	assert.Contains(t, string(ctx.State.Stdout), "FOO=bar\n")
}

func TestCmp_IdenticalAndDifferent(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, os.WriteFile(filepath.Join(ctx.State.WorkDir, "a.txt"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ctx.State.WorkDir, "b.txt"), []byte("x\n"), 0o644))
	res := run(t, ctx, "cmp", "a.txt", "b.txt")
	assert.Equal(t, Success, res.Kind)

	require.NoError(t, os.WriteFile(filepath.Join(ctx.State.WorkDir, "b.txt"), []byte("y\n"), 0o644))
	res = run(t, ctx, "cmp", "a.txt", "b.txt")
	assert.Equal(t, Failure, res.Kind)
	assert.Contains(t, res.Reason, "differ")
}

func TestCmpenv_ExpandsBothFilesBeforeComparing(t *testing.T) {
	ctx := newTestContext(t)
	ctx.State.Setenv("GREETING", "hello")
	require.NoError(t, os.WriteFile(filepath.Join(ctx.State.WorkDir, "a.txt"), []byte("$GREETING world\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ctx.State.WorkDir, "b.txt"), []byte("hello world\n"), 0o644))

	res := run(t, ctx, "cmpenv", "a.txt", "b.txt")
	assert.Equal(t, Success, res.Kind)
}

func TestGrep_FindsAndMisses(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, os.WriteFile(filepath.Join(ctx.State.WorkDir, "f.txt"), []byte("needle in haystack\n"), 0o644))

	res := run(t, ctx, "grep", "needle", "f.txt")
	assert.Equal(t, Success, res.Kind)

	res = run(t, ctx, "grep", "absent", "f.txt")
	assert.Equal(t, Failure, res.Kind)
}

func TestExec_ForegroundCapturesOutputAndExitStatus(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "exec", "echo", "from-exec")
	require.Equal(t, Success, res.Kind)
	assert.Contains(t, string(ctx.State.Stdout), "from-exec")

	res = run(t, ctx, "exec", "false")
	assert.Equal(t, Failure, res.Kind)
}

func TestExec_BackgroundAndWait(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Background = true
	res := run(t, ctx, "exec", "echo", "bg-one")
	require.Equal(t, Success, res.Kind)
	require.Len(t, ctx.State.Background, 1)

	ctx.Background = false
	res = run(t, ctx, "wait")
	require.Equal(t, Success, res.Kind)
	assert.Contains(t, string(ctx.State.Stdout), "bg-one")
	assert.Empty(t, ctx.State.Background)
}

func TestWait_SurfacesFirstFailureOnly(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Background = true
	run(t, ctx, "exec", "false")
	run(t, ctx, "exec", "false")

	ctx.Background = false
	res := run(t, ctx, "wait")
	assert.Equal(t, Failure, res.Kind)
	assert.Empty(t, ctx.State.Background)
}

func TestSleep_ParsesUnits(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "sleep", "1ms")
	assert.Equal(t, Success, res.Kind)
}

func TestStopAndSkip_CarryReason(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "stop", "done", "early")
	assert.Equal(t, Stop, res.Kind)
	assert.Equal(t, "done early", res.Reason)

	res = run(t, ctx, "skip", "not", "applicable")
	assert.Equal(t, Skip, res.Kind)
	assert.Equal(t, "not applicable", res.Reason)
}

func TestHelp_ListsRegisteredCommands(t *testing.T) {
	ctx := newTestContext(t)
	res := run(t, ctx, "help")
	require.Equal(t, Success, res.Kind)
	assert.Contains(t, string(ctx.State.Stdout), "exec")
	assert.Contains(t, string(ctx.State.Stdout), "wait")
}
