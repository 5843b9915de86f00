// Package luatest implements utilities shared by the tests of the luals packages.
package luatest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

// ComputeDiff returns a human-readable report of the differences between a wanted and got value.
// If there are no differences, an empty string is returned.
func ComputeDiff(want, got any, opts ...cmp.Option) string {
	opts = append(opts, cmp.Transformer("BytesToString", func(b []byte) string {
		return string(b)
	}))
	diff := cmp.Diff(want, got, opts...)
	if diff == "" {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s", green("want -"), red("got +"), colouriseDiff(diff))
}

// ComputeTextDiff returns a human-readable report of the differences between a wanted and got string.
// If there are no differences, an empty string is returned.
// The output of this function is more readable than [ComputeDiff] for multi-line string inputs.
func ComputeTextDiff(want, got string) string {
	edits := myers.ComputeEdits(span.URIFromPath("want"), want, got)
	diff := fmt.Sprint(gotextdiff.ToUnified("want", "got", want, edits))
	return colouriseDiff(diff)
}

func colouriseDiff(diff string) string {
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "-") {
			lines[i] = green(line)
		} else if strings.HasPrefix(line, "+") {
			lines[i] = red(line)
		}
	}
	return strings.Join(lines, "\n")
}

// Dedent removes the common leading tab indentation from every non-blank line of s and trims a single leading
// newline, so that Lua sources can be written inline in tests.
func Dedent(t *testing.T, s string) string {
	t.Helper()
	s = strings.TrimPrefix(s, "\n")
	lines := strings.Split(s, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, "\t"))
		if indent == -1 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, "\t")
		}
	}
	return strings.Join(lines, "\n")
}
