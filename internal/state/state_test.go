package state

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SeedsWorkEnv(t *testing.T) {
	dir := t.TempDir()
	st := New(dir, false)
	assert.Equal(t, dir, st.Getenv("WORK"))
	assert.Equal(t, dir, st.Getenv("PWD"))
	assert.Equal(t, dir, st.WorkDir)
	assert.Equal(t, dir, st.Cwd)
}

func TestSetenvUnsetenv_PreservesOrder(t *testing.T) {
	st := New(t.TempDir(), false)
	st.Setenv("A", "1")
	st.Setenv("B", "2")
	st.Setenv("A", "3") // update, not a new entry

	dump := st.EnvDump()
	assert.Contains(t, dump, "A=3\n")
	assert.Contains(t, dump, "B=2\n")

	st.Unsetenv("A")
	assert.Equal(t, "", st.Getenv("A"))
	assert.NotContains(t, st.EnvDump(), "A=")
}

func TestChdir_UpdatesPWD(t *testing.T) {
	st := New(t.TempDir(), false)
	sub := t.TempDir()
	st.Chdir(sub)
	assert.Equal(t, sub, st.Cwd)
	assert.Equal(t, sub, st.Getenv("PWD"))
}

func TestIsPseudo(t *testing.T) {
	assert.True(t, IsPseudo(PseudoStdout))
	assert.True(t, IsPseudo(PseudoStderr))
	assert.False(t, IsPseudo("output.txt"))
}

func TestReadPath_PseudoAndReal(t *testing.T) {
	dir := t.TempDir()
	st := New(dir, false)
	st.AppendStdout([]byte("hello"))

	b, err := st.ReadPath(PseudoStdout)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	b, err = st.ReadPath(PseudoStderr)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestResetStreams(t *testing.T) {
	st := New(t.TempDir(), false)
	st.AppendStdout([]byte("x"))
	st.Stderr = []byte("y")
	st.ResetStreams()
	assert.Nil(t, st.Stdout)
	assert.Nil(t, st.Stderr)
}

func TestBackgroundRegistry(t *testing.T) {
	st := New(t.TempDir(), false)
	job := &BackgroundJob{ID: "job-1", Done: make(chan struct{})}
	close(job.Done)
	st.Background = append(st.Background, job)

	assert.Same(t, job, st.FindBackground("job-1"))
	st.RemoveBackground("job-1")
	assert.Nil(t, st.FindBackground("job-1"))
}

func TestKillBackground_ToleratesExited(t *testing.T) {
	st := New(t.TempDir(), false)
	job := &BackgroundJob{ID: "job-1", Cmd: exec.Command("true"), Done: make(chan struct{})}
	close(job.Done)
	st.Background = append(st.Background, job)

	done := make(chan struct{})
	go func() {
		st.KillBackground(50 * time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("KillBackground did not return")
	}
	assert.Empty(t, st.Background)
}
