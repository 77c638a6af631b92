// Package env locates the external tools the stages need and checks their
// versions.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/sys/execabs"
)

// ErrNotFound is returned when an executable is not on PATH.
var ErrNotFound = errors.New("executable not found")

// Which returns the absolute path of name, failing fast if it is missing.
func Which(name string) (string, error) {
	path, err := execabs.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// DefaultCIDir is <cwd>/.ci, where the CI helper conventionally lives.
func DefaultCIDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, ".ci"), nil
}

var versionRe = regexp.MustCompile(`version\s+(\d+\.\d+(?:\.\d+)?(?:[-+][0-9A-Za-z.-]+)?)`)

// ParseToolVersion extracts the semantic version from "<tool> --version"
// output such as "cmake version 3.27.4".
func ParseToolVersion(out string) (string, error) {
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("no version in %q", firstLine(out))
	}
	v := "v" + m[1]
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid version %q", m[1])
	}
	return v, nil
}

// AtLeast reports whether have >= want. Both may omit the leading "v".
func AtLeast(have, want string) bool {
	return semver.Compare(canonical(have), canonical(want)) >= 0
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}
