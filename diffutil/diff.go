// Package diffutil renders a human-readable diff between two byte buffers.
// It is the default implementation of the pluggable diff formatter the core
// engine treats as an external collaborator: commands invoke it with two
// buffers and get a printable report back, never knowing how it's built.
package diffutil

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Formatter renders a diff between two byte buffers for a failed comparison.
type Formatter interface {
	Format(aName, bName string, a, b []byte) string
}

// Default is the diffmatchpatch-backed formatter used by the "cmp" and
// "cmpenv" built-ins.
var Default Formatter = dmpFormatter{}

type dmpFormatter struct{}

func (dmpFormatter) Format(aName, bName string, a, b []byte) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(a), string(b), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b2 strings.Builder
	fmt.Fprintf(&b2, "--- %s\n+++ %s\n", aName, bName)
	for _, d := range diffs {
		lines := strings.SplitAfter(d.Text, "\n")
		for _, line := range lines {
			if line == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				fmt.Fprintf(&b2, "-%s", line)
			case diffmatchpatch.DiffInsert:
				fmt.Fprintf(&b2, "+%s", line)
			default:
				fmt.Fprintf(&b2, " %s", line)
			}
			if !strings.HasSuffix(line, "\n") {
				b2.WriteByte('\n')
			}
		}
	}
	return b2.String()
}

// Format is a package-level convenience wrapping Default.
func Format(aName, bName string, a, b []byte) string {
	return Default.Format(aName, bName, a, b)
}
