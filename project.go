package testspec

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
)

// ProjectConfig holds convention-based project configuration for a
// testspec test directory: a shared bin/ directory prepended to PATH, and
// optional global setup/teardown scripts run once around the whole suite.
type ProjectConfig struct {
	BinDir   string `toml:"bin"`
	Setup    string `toml:"setup"`
	Teardown string `toml:"teardown"`
	dir      string // resolved absolute base directory
}

// LoadProjectConfig loads project configuration from a directory. It reads
// testspec.toml if present, then auto-detects conventional paths (bin/,
// setup.sh, teardown.sh) for any fields not set by the TOML. All paths in
// the returned config are absolute.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve dir: %w", err)
	}

	cfg := &ProjectConfig{dir: absDir}

	var fromTOML ProjectConfig
	hasTOML := false

	tomlPath := filepath.Join(absDir, "testspec.toml")
	data, err := os.ReadFile(tomlPath)
	if err == nil {
		hasTOML = true
		if err := toml.Unmarshal(data, &fromTOML); err != nil {
			return nil, fmt.Errorf("parse testspec.toml: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read testspec.toml: %w", err)
	}

	cfg.BinDir = resolveField(absDir, fromTOML.BinDir, "bin", isDir)
	cfg.Setup = resolveField(absDir, fromTOML.Setup, "setup.sh", isFile)
	cfg.Teardown = resolveField(absDir, fromTOML.Teardown, "teardown.sh", isFile)

	if hasTOML {
		if err := cfg.validateTOMLPaths(absDir, &fromTOML); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func resolveField(base, tomlVal, convention string, check func(string) bool) string {
	if tomlVal != "" {
		return filepath.Join(base, tomlVal)
	}
	candidate := filepath.Join(base, convention)
	if check(candidate) {
		return candidate
	}
	return ""
}

func (cfg *ProjectConfig) validateTOMLPaths(base string, from *ProjectConfig) error {
	checks := []struct {
		val, desc string
	}{
		{from.BinDir, "bin directory"},
		{from.Setup, "setup script"},
		{from.Teardown, "teardown script"},
	}
	for _, c := range checks {
		if c.val == "" {
			continue
		}
		abs := filepath.Join(base, c.val)
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("testspec.toml: %s %q not found: %w", c.desc, c.val, err)
		}
	}
	return nil
}

// prepareBinDir creates wrapper scripts for .sh files in the project's bin
// directory so they're invocable without their extension, and returns PATH
// entries to prepend: the wrapper dir first, then BinDir itself (for
// non-.sh executables already marked executable).
func (cfg *ProjectConfig) prepareBinDir() (pathDirs []string, cleanup func(), err error) {
	cleanup = func() {}

	if cfg.BinDir == "" {
		return nil, cleanup, nil
	}

	entries, err := os.ReadDir(cfg.BinDir)
	if err != nil {
		return nil, cleanup, fmt.Errorf("read bin dir: %w", err)
	}

	wrapperDir, err := os.MkdirTemp("", "testspec-bin-*")
	if err != nil {
		return nil, cleanup, fmt.Errorf("create wrapper dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(wrapperDir) }

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sh" {
			continue
		}
		wrapperName := strings.TrimSuffix(entry.Name(), ".sh")
		absScript := filepath.Join(cfg.BinDir, entry.Name())
		wrapper := fmt.Sprintf("#!/bin/sh\nexec /bin/sh %q \"$@\"\n", absScript)
		wrapperPath := filepath.Join(wrapperDir, wrapperName)
		if err := os.WriteFile(wrapperPath, []byte(wrapper), 0o755); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("write wrapper %s: %w", wrapperName, err)
		}
	}

	return []string{wrapperDir, cfg.BinDir}, cleanup, nil
}

// RunWithProject runs test scripts from p.Dir with project structure
// support: it loads testspec.toml, prepares bin/ wrappers, runs global
// setup/teardown, then delegates to Run.
func RunWithProject(t *testing.T, p Params) {
	cfg, err := LoadProjectConfig(p.Dir)
	if err != nil {
		t.Fatal(err)
	}
	cleanup, err := prepareProject(cfg, &p)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	Run(t, p)
}

// RunStandaloneWithProject is the standalone equivalent of RunWithProject.
func RunStandaloneWithProject(t TestingT, p Params) error {
	cfg, err := LoadProjectConfig(p.Dir)
	if err != nil {
		return fmt.Errorf("load project config: %w", err)
	}
	cleanup, err := prepareProject(cfg, &p)
	if err != nil {
		return err
	}
	defer cleanup()

	RunStandalone(t, p)
	if t.Failed() {
		return fmt.Errorf("tests failed")
	}
	return nil
}

func prepareProject(cfg *ProjectConfig, p *Params) (cleanup func(), err error) {
	cleanup = func() {}

	binPathDirs, binCleanup, err := cfg.prepareBinDir()
	if err != nil {
		return cleanup, fmt.Errorf("prepare bin dir: %w", err)
	}

	origSetup := p.Setup
	p.Setup = func(env *Env) error {
		if origSetup != nil {
			if err := origSetup(env); err != nil {
				return err
			}
		}
		if len(binPathDirs) > 0 {
			current := env.Getenv("PATH")
			newPath := strings.Join(binPathDirs, string(os.PathListSeparator))
			if current != "" {
				newPath += string(os.PathListSeparator) + current
			}
			env.Setenv("PATH", newPath)
		}
		return nil
	}

	if cfg.Setup != "" {
		if err := runGlobalScript(cfg.dir, cfg.Setup); err != nil {
			binCleanup()
			return func() {}, fmt.Errorf("global setup failed: %w", err)
		}
	}

	projectDir, teardownScript := cfg.dir, cfg.Teardown
	cleanup = func() {
		if teardownScript != "" {
			if err := runGlobalScript(projectDir, teardownScript); err != nil {
				log.Printf("warning: global teardown failed: %v", err)
			}
		}
		binCleanup()
	}

	return cleanup, nil
}

func runGlobalScript(dir, scriptPath string) error {
	cmd := exec.Command("/bin/sh", scriptPath)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", filepath.Base(scriptPath), err, output)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
