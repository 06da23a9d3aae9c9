package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_HasBuiltins(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("exec")
	assert.True(t, ok)
	_, ok = r.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_RegisterOverridesBuiltin(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register(New("echo", "custom echo", func(ctx *Context) Result {
		called = true
		return Ok()
	}))

	cmd, ok := r.Lookup("echo")
	require.True(t, ok)
	cmd.Run(&Context{Args: []string{"echo"}})
	assert.True(t, called)
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}

func TestResultConstructors(t *testing.T) {
	assert.Equal(t, Success, Ok().Kind)
	assert.Equal(t, Failure, Fail("bad: %d", 1).Kind)
	assert.Equal(t, "bad: 1", Fail("bad: %d", 1).Reason)
	assert.Equal(t, IOError, IOErrorf("disk full").Kind)
	assert.Equal(t, Stop, StopWith("done").Kind)
	assert.Equal(t, Skip, SkipWith("n/a").Kind)
}
