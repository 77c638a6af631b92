package vcs

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// goGitVCS implements VCS in process with go-git, for hosts without a git
// executable.
type goGitVCS struct {
	depth    int
	progress io.Writer
}

// GoGitOption configures goGitVCS.
type GoGitOption func(*goGitVCS)

// WithProgress streams remote progress messages to w.
func WithProgress(w io.Writer) GoGitOption {
	return func(g *goGitVCS) {
		g.progress = w
	}
}

// WithGoGitDepth sets the clone depth. Zero or less means full history.
func WithGoGitDepth(depth int) GoGitOption {
	return func(g *goGitVCS) {
		g.depth = depth
	}
}

// NewGoGitVCS creates a VCS backed by go-git.
func NewGoGitVCS(opts ...GoGitOption) VCS {
	g := &goGitVCS{depth: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *goGitVCS) Clone(ctx context.Context, remote, ref, dir string) error {
	opts := &git.CloneOptions{
		URL:          remote,
		SingleBranch: true,
		Progress:     g.progress,
	}
	if g.depth > 0 {
		opts.Depth = g.depth
	}
	if ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	}
	_, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil && ref != "" {
		// ref may be a tag rather than a branch.
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return fmt.Errorf("clone %s: %w", remote, rmErr)
		}
		opts.ReferenceName = plumbing.NewTagReferenceName(ref)
		_, err = git.PlainCloneContext(ctx, dir, false, opts)
	}
	if err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	return nil
}
