package testspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content []byte, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, content, perm))
}

func mkdirAll(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func TestLoadProjectConfig_WithTOML(t *testing.T) {
	dir := t.TempDir()
	toml := `bin = "mybin"
setup = "my_setup.sh"
teardown = "my_teardown.sh"
`
	writeFile(t, filepath.Join(dir, "testspec.toml"), []byte(toml), 0o644)
	mkdirAll(t, filepath.Join(dir, "mybin"))
	writeFile(t, filepath.Join(dir, "my_setup.sh"), []byte("#!/bin/sh\n"), 0o755)
	writeFile(t, filepath.Join(dir, "my_teardown.sh"), []byte("#!/bin/sh\n"), 0o755)

	cfg, err := LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "mybin", filepath.Base(cfg.BinDir))
	assert.Equal(t, "my_setup.sh", filepath.Base(cfg.Setup))
	assert.Equal(t, "my_teardown.sh", filepath.Base(cfg.Teardown))
}

func TestLoadProjectConfig_AutoDetect(t *testing.T) {
	dir := t.TempDir()
	mkdirAll(t, filepath.Join(dir, "bin"))
	writeFile(t, filepath.Join(dir, "setup.sh"), []byte("#!/bin/sh\n"), 0o755)
	writeFile(t, filepath.Join(dir, "teardown.sh"), []byte("#!/bin/sh\n"), 0o755)

	cfg, err := LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "bin", filepath.Base(cfg.BinDir))
	assert.Equal(t, "setup.sh", filepath.Base(cfg.Setup))
	assert.Equal(t, "teardown.sh", filepath.Base(cfg.Teardown))
}

func TestLoadProjectConfig_TOMLOverridesAutoDetect(t *testing.T) {
	dir := t.TempDir()
	mkdirAll(t, filepath.Join(dir, "bin"))
	mkdirAll(t, filepath.Join(dir, "custom-bin"))
	writeFile(t, filepath.Join(dir, "testspec.toml"), []byte(`bin = "custom-bin"`+"\n"), 0o644)

	cfg, err := LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom-bin", filepath.Base(cfg.BinDir))
}

func TestLoadProjectConfig_MissingTOMLPathErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "testspec.toml"), []byte(`bin = "nonexistent-dir"`+"\n"), 0o644)

	_, err := LoadProjectConfig(dir)
	assert.Error(t, err)
}

func TestLoadProjectConfig_InvalidTOMLErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "testspec.toml"), []byte("invalid [[[ toml"), 0o644)

	_, err := LoadProjectConfig(dir)
	assert.Error(t, err)
}

func TestLoadProjectConfig_EmptyDir(t *testing.T) {
	cfg, err := LoadProjectConfig(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.BinDir)
	assert.Empty(t, cfg.Setup)
	assert.Empty(t, cfg.Teardown)
}

func TestPrepareBinDir_WrapsShellScripts(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")
	mkdirAll(t, binDir)
	writeFile(t, filepath.Join(binDir, "greet.sh"), []byte("#!/bin/sh\necho \"hello $1\"\n"), 0o755)
	writeFile(t, filepath.Join(binDir, "helper"), []byte("#!/bin/sh\necho helper-output\n"), 0o755)

	cfg := &ProjectConfig{BinDir: binDir}
	pathDirs, cleanup, err := cfg.prepareBinDir()
	require.NoError(t, err)
	defer cleanup()

	require.Len(t, pathDirs, 2)
	entries, err := os.ReadDir(pathDirs[0])
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "greet", entries[0].Name())
}

func TestPrepareBinDir_NoBinDir(t *testing.T) {
	cfg := &ProjectConfig{}
	pathDirs, cleanup, err := cfg.prepareBinDir()
	require.NoError(t, err)
	defer cleanup()
	assert.Empty(t, pathDirs)
}

func TestRunWithProject_GlobalSetupAndBin(t *testing.T) {
	dir := t.TempDir()
	mkdirAll(t, filepath.Join(dir, "bin"))
	writeFile(t, filepath.Join(dir, "bin", "greet.sh"), []byte("#!/bin/sh\necho \"hello $1\"\n"), 0o755)
	writeFile(t, filepath.Join(dir, "setup.sh"), []byte("#!/bin/sh\necho global-setup-ran > \"$PWD/marker\"\n"), 0o755)
	writeFile(t, filepath.Join(dir, "test_project.txtar"), []byte("exec greet world\nstdout hello\n"), 0o644)

	RunWithProject(t, Params{Dir: dir})
}

func TestRunStandaloneWithProject_SetupFailurePreventsTests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "setup.sh"), []byte("#!/bin/sh\nexit 1\n"), 0o755)
	writeFile(t, filepath.Join(dir, "unreachable.txtar"), []byte("echo should-not-run\n"), 0o644)

	c := &capture{}
	err := RunStandaloneWithProject(c, Params{Dir: dir})
	assert.Error(t, err)
}

func TestRunWithProject_EmptyProjectBehavesLikeRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "simple.txtar"), []byte("echo works\nstdout works\n"), 0o644)

	RunWithProject(t, Params{Dir: dir})
}
