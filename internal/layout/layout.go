// Package layout computes the on-disk tree every stage shares:
//
//	<ci_dir>/
//	  source/              # dependency checkouts, shared by both link modes
//	  shared/{build,install}
//	  static/{build,install}
//
// All filesystem access goes through a billy.Filesystem rooted at the CI
// directory; Abs turns a relative path back into what external tools see.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// LinkMode selects shared or static libraries.
type LinkMode int

const (
	Shared LinkMode = iota
	Static
)

func (m LinkMode) String() string {
	if m == Static {
		return "static"
	}
	return "shared"
}

const (
	sourceDir  = "source"
	buildDir   = "build"
	installDir = "install"
)

// prefixCandidates are where Eigen, GLFW and GLAD drop their package config
// files on the various platforms, relative to the install root.
var prefixCandidates = []string{
	"share",
	filepath.Join("lib", "cmake"),
	filepath.Join("lib64", "cmake"),
}

// Layout is the directory tree for one link mode.
type Layout struct {
	fs    billy.Filesystem
	ciDir string
	mode  LinkMode
}

// New returns the layout for mode. fs must be rooted at ciDir.
func New(fs billy.Filesystem, ciDir string, mode LinkMode) *Layout {
	return &Layout{fs: fs, ciDir: filepath.Clean(ciDir), mode: mode}
}

func (l *Layout) FS() billy.Filesystem { return l.fs }
func (l *Layout) Mode() LinkMode       { return l.mode }
func (l *Layout) CIDir() string        { return l.ciDir }

// Abs converts a path relative to the CI directory to an absolute one.
func (l *Layout) Abs(rel string) string {
	return filepath.Join(l.ciDir, rel)
}

func (l *Layout) base() string { return l.mode.String() }

// BuildRootRel is <shared|static>/build.
func (l *Layout) BuildRootRel() string { return filepath.Join(l.base(), buildDir) }

// InstallRootRel is <shared|static>/install.
func (l *Layout) InstallRootRel() string { return filepath.Join(l.base(), installDir) }

// SourceRootRel is the checkout directory shared by both link modes.
func (l *Layout) SourceRootRel() string { return sourceDir }

func (l *Layout) BuildRoot() string   { return l.Abs(l.BuildRootRel()) }
func (l *Layout) InstallRoot() string { return l.Abs(l.InstallRootRel()) }
func (l *Layout) SourceRoot() string  { return l.Abs(l.SourceRootRel()) }

// BuildDirRel is the per-component build directory under the build root.
func (l *Layout) BuildDirRel(name string) string {
	return filepath.Join(l.BuildRootRel(), name)
}

// SourceDirRel is the checkout directory of a dependency.
func (l *Layout) SourceDirRel(name string) string {
	return filepath.Join(l.SourceRootRel(), name)
}

// InstallPrefixFlag points CMAKE_INSTALL_PREFIX at the install root.
func (l *Layout) InstallPrefixFlag() string {
	return "-DCMAKE_INSTALL_PREFIX=" + l.InstallRoot()
}

// PrefixPaths returns the absolute package config directories that exist
// under the install root, in candidate order.
func (l *Layout) PrefixPaths() ([]string, error) {
	var found []string
	seen := make(map[string]bool)
	for _, p := range prefixCandidates {
		rel := filepath.Join(l.InstallRootRel(), p)
		ok, err := l.IsDir(rel)
		if err != nil {
			return nil, err
		}
		abs := l.Abs(rel)
		if ok && !seen[abs] {
			seen[abs] = true
			found = append(found, abs)
		}
	}
	return found, nil
}

// PrefixPathFlag folds PrefixPaths into one CMAKE_PREFIX_PATH entry. The
// boolean is false when nothing is installed yet.
func (l *Layout) PrefixPathFlag() (string, bool, error) {
	paths, err := l.PrefixPaths()
	if err != nil || len(paths) == 0 {
		return "", false, err
	}
	return "-DCMAKE_PREFIX_PATH=" + strings.Join(paths, ";"), true, nil
}

// IsDir reports whether rel exists and is a directory.
func (l *Layout) IsDir(rel string) (bool, error) {
	fi, err := l.fs.Stat(rel)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return fi.IsDir(), nil
}

// Exists reports whether rel exists at all.
func (l *Layout) Exists(rel string) (bool, error) {
	_, err := l.fs.Stat(rel)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Fresh removes rel and recreates it empty. A missing rel is not an error.
func (l *Layout) Fresh(rel string) error {
	if err := util.RemoveAll(l.fs, rel); err != nil {
		return fmt.Errorf("remove %s: %w", l.Abs(rel), err)
	}
	if err := l.fs.MkdirAll(rel, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", l.Abs(rel), err)
	}
	return nil
}

// Ensure creates rel if needed.
func (l *Layout) Ensure(rel string) error {
	if err := l.fs.MkdirAll(rel, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", l.Abs(rel), err)
	}
	return nil
}
