package orchestrator

import (
	"path/filepath"
	"regexp"

	"github.com/nanogui/nanoci/internal/args"
	"github.com/nanogui/nanoci/internal/config"
	"github.com/nanogui/nanoci/internal/patch"
	"github.com/nanogui/nanoci/internal/platform"
)

// Dependency describes a third-party library that install_dependencies
// fetches, builds and installs into the install root.
type Dependency struct {
	// Name is the directory name under the source and build roots.
	Name string
	// Title is used in banners.
	Title string
	URL   string
	// Ref pins a branch or tag. Empty means the remote's default branch.
	Ref string
	// Flags are appended to the shared configure arguments.
	Flags []string
	// PlatformFlags adds host-specific flags. configure holds the shared
	// configure arguments the dependency is built with.
	PlatformFlags func(p platform.PlatformInfo, configure args.List) []string
	// Patch, when set, is applied to the checkout before it is configured.
	// Its File is relative to the checkout.
	Patch *patch.Rule
}

// ConfigureArgs combines the shared configure arguments with the
// dependency's own flags.
func (d Dependency) ConfigureArgs(p platform.PlatformInfo, shared args.List) args.List {
	out := shared.With(d.Flags...)
	if d.PlatformFlags != nil {
		out = out.With(d.PlatformFlags(p, shared)...)
	}
	return out
}

// Eigen's own CMakeLists registers the source tree in the user package
// registry, which would shadow the copy installed under the install root.
var eigenExportRule = patch.Rule{
	File:        "CMakeLists.txt",
	Pattern:     regexp.MustCompile(`^(\s*)export\s*\(PACKAGE Eigen3\)`),
	Replacement: "${1}# export (PACKAGE Eigen3)",
	Applied:     regexp.MustCompile(`^\s*#\s*export\s*\(PACKAGE Eigen3\)`),
}

func glfwPlatformFlags(p platform.PlatformInfo, configure args.List) []string {
	if !p.IsWindows() {
		return nil
	}
	return platform.RuntimeFlags(configure.Contains("BUILD_SHARED_LIBS=OFF"))
}

// DefaultDependencies returns Eigen, GLFW and GLAD in install order, with
// any configured URL or ref overrides applied.
func DefaultDependencies(overrides map[string]config.DepOverride) []Dependency {
	rule := eigenExportRule
	deps := []Dependency{
		{
			Name:  "eigen",
			Title: "Eigen",
			URL:   "https://github.com/eigenteam/eigen-git-mirror.git",
			Flags: []string{args.DefineBool("BUILD_TESTING", false)},
			Patch: &rule,
		},
		{
			Name:  "glfw",
			Title: "GLFW",
			URL:   "https://github.com/glfw/glfw.git",
			Flags: []string{
				args.DefineBool("GLFW_BUILD_EXAMPLES", false),
				args.DefineBool("GLFW_BUILD_TESTS", false),
				args.DefineBool("GLFW_BUILD_DOCS", false),
				args.DefineBool("GLFW_INSTALL", true),
			},
			PlatformFlags: glfwPlatformFlags,
		},
		{
			Name:  "glad",
			Title: "GLAD",
			URL:   "https://github.com/Dav1dde/glad.git",
			Flags: []string{
				args.Define("GLAD_PROFILE", "core"),
				args.DefineBool("GLAD_INSTALL", true),
			},
		},
	}
	for i := range deps {
		o, ok := overrides[deps[i].Name]
		if !ok {
			continue
		}
		if o.URL != "" {
			deps[i].URL = o.URL
		}
		if o.Ref != "" {
			deps[i].Ref = o.Ref
		}
	}
	return deps
}

// patchRuleIn rebases the dependency's patch onto the filesystem rooted at
// the CI directory.
func (d Dependency) patchRuleIn(sourceDirRel string) patch.Rule {
	r := *d.Patch
	r.File = filepath.Join(sourceDirRel, d.Patch.File)
	return r
}

// DepState is the progress of one dependency through install_dependencies.
type DepState int

const (
	NotAcquired DepState = iota
	Acquired
	Patched
	// Built means configured in a fresh build directory; the install target
	// has not run yet.
	Built
	Installed
)

func (s DepState) String() string {
	switch s {
	case NotAcquired:
		return "not-acquired"
	case Acquired:
		return "acquired"
	case Patched:
		return "patched"
	case Built:
		return "built"
	case Installed:
		return "installed"
	}
	return "unknown"
}
