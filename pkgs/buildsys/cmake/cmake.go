// Package cmake drives the cmake executable through a buildsys.Runner.
package cmake

import (
	"context"
	"fmt"

	"github.com/nanogui/nanoci/internal/env"
	"github.com/nanogui/nanoci/pkgs/buildsys"
)

// CMake wraps the configure, build and install-target steps. It does not
// assemble flags itself; callers pass the complete argument lists.
type CMake struct {
	bin    string
	dir    string
	runner buildsys.Runner
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a CMake that runs bin (usually the resolved path of "cmake").
func New(bin string, runner buildsys.Runner) *CMake {
	if bin == "" {
		bin = "cmake"
	}
	return &CMake{bin: bin, runner: runner}
}

// In returns a copy that runs in dir, the build tree.
func (c *CMake) In(dir string) *CMake {
	cp := *c
	cp.dir = dir
	return &cp
}

// Dir is the working directory of the build tree.
func (c *CMake) Dir() string { return c.dir }

// Configure runs "cmake <sourceDir> args...".
func (c *CMake) Configure(ctx context.Context, sourceDir string, args ...string) error {
	cmdArgs := make([]string, 0, len(args)+1)
	cmdArgs = append(cmdArgs, sourceDir)
	cmdArgs = append(cmdArgs, args...)
	return c.runner.Run(ctx, c.dir, c.bin, cmdArgs...)
}

// Build runs "cmake --build . args...".
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := make([]string, 0, len(args)+2)
	cmdArgs = append(cmdArgs, "--build", ".")
	cmdArgs = append(cmdArgs, args...)
	return c.runner.Run(ctx, c.dir, c.bin, cmdArgs...)
}

// Install builds the install target: "cmake --build . args... --target install".
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := make([]string, 0, len(args)+2)
	cmdArgs = append(cmdArgs, args...)
	cmdArgs = append(cmdArgs, "--target", "install")
	return c.Build(ctx, cmdArgs...)
}

// Version returns the semantic version reported by "cmake --version".
func (c *CMake) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Output(ctx, "", c.bin, "--version")
	if err != nil {
		return "", err
	}
	v, err := env.ParseToolVersion(out)
	if err != nil {
		return "", fmt.Errorf("cmake: %w", err)
	}
	return v, nil
}
