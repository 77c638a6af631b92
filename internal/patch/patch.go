// Package patch rewrites lines of a text file in place and renders the
// change as a unified diff.
package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ErrPatternNotFound means neither the pattern nor its applied form occurs
// in the file.
var ErrPatternNotFound = errors.New("pattern not found")

// Rule is a line-based substitution.
type Rule struct {
	// File is relative to the filesystem the rule is applied to.
	File string
	// Pattern is matched against every line without its line terminator.
	Pattern *regexp.Regexp
	// Replacement may reference Pattern's groups.
	Replacement string
	// Applied matches a line that has already been rewritten. When Pattern
	// no longer matches but Applied does, Apply is a no-op.
	Applied *regexp.Regexp
}

// Result captures the file before and after Apply.
type Result struct {
	File    string
	Before  string
	After   string
	Changed bool
}

// Apply rewrites r.File in fs.
func Apply(fs billy.Filesystem, r Rule) (*Result, error) {
	fi, err := fs.Stat(r.File)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", r.File, err)
	}
	data, err := util.ReadFile(fs, r.File)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", r.File, err)
	}
	before := string(data)
	after, n := Filter(before, r.Pattern, r.Replacement)
	res := &Result{File: r.File, Before: before, After: after}
	if n == 0 {
		if r.Applied != nil && matchesAnyLine(before, r.Applied) {
			return res, nil
		}
		return nil, fmt.Errorf("patch %s: %q: %w", r.File, r.Pattern.String(), ErrPatternNotFound)
	}
	res.Changed = true
	if err := util.WriteFile(fs, r.File, []byte(after), fi.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("patch %s: %w", r.File, err)
	}
	return res, nil
}

// Filter applies pattern to every line of text and returns the rewritten
// text and the number of lines that changed.
func Filter(text string, pattern *regexp.Regexp, repl string) (string, int) {
	var sb strings.Builder
	sb.Grow(len(text))
	n := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		body, eol := splitEOL(line)
		if pattern.MatchString(body) {
			body = pattern.ReplaceAllString(body, repl)
			n++
		}
		sb.WriteString(body)
		sb.WriteString(eol)
	}
	return sb.String(), n
}

// Diff renders the change in unified format; empty when nothing changed.
func (r *Result) Diff() string {
	if r.Before == r.After {
		return ""
	}
	return textdiff.Unified("a/"+r.File, "b/"+r.File, r.Before, r.After)
}

func matchesAnyLine(text string, re *regexp.Regexp) bool {
	for _, line := range strings.SplitAfter(text, "\n") {
		body, _ := splitEOL(line)
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

func splitEOL(line string) (body, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}
