package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/nanogui/nanoci/pkgs/buildsys"
)

// VCS defines the interface for version control operations.
type VCS interface {
	// Clone makes a shallow checkout of remote into dir. ref may be empty
	// to track the remote's default branch, or name a branch or tag.
	// dir must not exist yet.
	Clone(ctx context.Context, remote, ref, dir string) error
}

// gitVCS implements VCS using the git executable.
type gitVCS struct {
	git    string
	depth  int
	runner buildsys.Runner
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// WithDepth sets the clone depth. Zero or less means full history.
func WithDepth(depth int) GitOption {
	return func(g *gitVCS) {
		g.depth = depth
	}
}

// WithRunner sends git invocations through runner instead of running them
// directly, so they are logged or recorded like every other tool.
func WithRunner(runner buildsys.Runner) GitOption {
	return func(g *gitVCS) {
		g.runner = runner
	}
}

// NewGitVCS creates a new git VCS instance.
func NewGitVCS(opts ...GitOption) VCS {
	g := &gitVCS{git: "git", depth: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) Clone(ctx context.Context, remote, ref, dir string) error {
	if err := g.run(ctx, "", g.cloneArgs(remote, ref, dir)...); err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	return nil
}

func (g *gitVCS) cloneArgs(remote, ref, dir string) []string {
	args := []string{"clone"}
	if g.depth > 0 {
		args = append(args, "--depth", strconv.Itoa(g.depth))
	}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	return append(args, remote, dir)
}

func (g *gitVCS) run(ctx context.Context, dir string, args ...string) error {
	if g.runner != nil {
		return g.runner.Run(ctx, dir, g.git, args...)
	}
	cmd := exec.CommandContext(ctx, g.git, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return err
	}
	return nil
}
