// Package args holds ordered command-line flag lists that are extended by
// value. Every With call returns a new List; the receiver is never modified,
// so two stages that start from the same list cannot see each other's flags.
package args

import (
	"slices"
	"strings"
)

// List is an immutable ordered sequence of flags.
type List struct {
	items []string
}

// New returns a List holding a copy of items.
func New(items ...string) List {
	return List{items: slices.Clone(items)}
}

// With returns a new List with items appended.
func (l List) With(items ...string) List {
	out := make([]string, 0, len(l.items)+len(items))
	out = append(out, l.items...)
	out = append(out, items...)
	return List{items: out}
}

// WithIf is With when cond holds and l otherwise.
func (l List) WithIf(cond bool, items ...string) List {
	if !cond {
		return l
	}
	return l.With(items...)
}

// Slice returns a copy of the flags, safe for the caller to modify.
func (l List) Slice() []string {
	return slices.Clone(l.items)
}

// Contains reports whether any flag contains sub.
func (l List) Contains(sub string) bool {
	return slices.ContainsFunc(l.items, func(s string) bool {
		return strings.Contains(s, sub)
	})
}

// Define formats a -D<key>=<value> cache entry.
func Define(key, value string) string {
	return "-D" + key + "=" + value
}

// DefineBool formats a -D<key>=ON|OFF cache entry.
func DefineBool(key string, value bool) string {
	if value {
		return Define(key, "ON")
	}
	return Define(key, "OFF")
}

func (l List) String() string {
	return strings.Join(l.items, " ")
}
