// Package condition evaluates the bracketed "[tag]" gates that decide
// whether a script line executes.
package condition

import (
	"os/exec"
	"runtime"
)

// HostFacts carries the facts conditions are evaluated against. Tests
// construct a HostFacts with a fake LookPath to exercise exec:<program>
// deterministically.
type HostFacts struct {
	OS       string
	Arch     string
	Short    bool // set by callers that integrate with `go test -short`
	LookPath func(string) (string, error)
}

// Default returns HostFacts describing the running process.
func Default() HostFacts {
	return HostFacts{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		LookPath: exec.LookPath,
	}
}

// Evaluate reports whether the named condition (with optional suffix, as in
// "exec:<program>") holds for host. Unknown names evaluate to false rather
// than erroring, per spec: the line is silently skipped.
func Evaluate(name, suffix string, host HostFacts) bool {
	switch name {
	case "unix":
		return host.OS != "windows" && host.OS != "plan9"
	case "windows":
		return host.OS == "windows"
	case "darwin", "linux", "plan9", "freebsd", "netbsd", "openbsd":
		return host.OS == name
	case "amd64", "arm64", "386", "arm":
		return host.Arch == name
	case "short":
		return host.Short
	case "exec":
		if suffix == "" || host.LookPath == nil {
			return false
		}
		_, err := host.LookPath(suffix)
		return err == nil
	default:
		return false
	}
}
