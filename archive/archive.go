// Package archive reads the txtar-formatted test archives the runner
// consumes. It is deliberately the only place in the module that depends
// on a concrete archive format: the core (parser/state/engine/runner)
// only ever sees the plain Archive struct below.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/txtar"
)

// File is one named fixture bundled in an archive.
type File struct {
	Name string
	Data []byte
}

// Archive is a parsed test archive: a script (Comment) plus ordered file
// fixtures.
type Archive struct {
	Script string
	Files  []File
}

// Parse splits raw archive bytes into a script and its fixtures.
func Parse(data []byte) Archive {
	ar := txtar.Parse(data)
	files := make([]File, 0, len(ar.Files))
	for _, f := range ar.Files {
		files = append(files, File{Name: f.Name, Data: f.Data})
	}
	return Archive{Script: string(ar.Comment), Files: files}
}

// ReadFile reads and parses an archive from disk.
func ReadFile(path string) (Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Archive{}, err
	}
	return Parse(data), nil
}

// Materialize writes every fixture into dir, creating parent directories as
// needed. It rejects absolute paths and paths containing ".." segments, so
// a crafted archive cannot escape the work directory.
func Materialize(a Archive, dir string) error {
	for _, f := range a.Files {
		if err := validateRelPath(f.Name); err != nil {
			return fmt.Errorf("archive file %q: %w", f.Name, err)
		}
		target := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(target), 0o777); err != nil {
			return fmt.Errorf("archive file %q: %w", f.Name, err)
		}
		if err := os.WriteFile(target, f.Data, 0o666); err != nil {
			return fmt.Errorf("archive file %q: %w", f.Name, err)
		}
	}
	return nil
}

func validateRelPath(name string) error {
	if name == "" {
		return fmt.Errorf("empty path")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("absolute paths are not allowed")
	}
	for _, seg := range strings.Split(filepath.ToSlash(name), "/") {
		if seg == ".." {
			return fmt.Errorf("path traversal (..) is not allowed")
		}
	}
	return nil
}
