// Package orchestrator runs the three CI stages of a CMake project: installing
// its third-party dependencies, building (and optionally installing) the
// project, and verifying the installed package from a downstream consumer.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nanogui/nanoci/internal/config"
	"github.com/nanogui/nanoci/internal/layout"
	"github.com/nanogui/nanoci/internal/platform"
	"github.com/nanogui/nanoci/internal/ui"
	"github.com/nanogui/nanoci/internal/vcs"
	"github.com/nanogui/nanoci/pkgs/buildsys/cmake"
)

// Options wires the capabilities an Orchestrator works with. Config, Layout,
// CMake and VCS are required; the rest have host defaults.
type Options struct {
	Config   *config.Config
	Layout   *layout.Layout
	CMake    *cmake.CMake
	VCS      vcs.VCS
	Platform platform.PlatformInfo
	Provider platform.CIProviderInfo
	Banners  *ui.Banners
	Logger   *log.Logger
	// Out receives patch audits.
	Out io.Writer
	// Dependencies defaults to DefaultDependencies(Config.Deps).
	Dependencies []Dependency
	// DryRun skips every filesystem write. Tool invocations still go to
	// CMake and VCS, which the caller is expected to replace with recorders.
	DryRun bool
	Now    func() time.Time
}

type Orchestrator struct {
	cfg      *config.Config
	layout   *layout.Layout
	cmake    *cmake.CMake
	vcs      vcs.VCS
	platform platform.PlatformInfo
	provider platform.CIProviderInfo
	banners  *ui.Banners
	log      *log.Logger
	out      io.Writer
	deps     []Dependency
	dryRun   bool
	now      func() time.Time

	states map[string]DepState
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil || opts.Layout == nil || opts.CMake == nil || opts.VCS == nil {
		return nil, fmt.Errorf("orchestrator: Config, Layout, CMake and VCS are required")
	}
	if got, want := opts.Layout.CIDir(), filepath.Clean(opts.Config.CIDir); got != want {
		return nil, fmt.Errorf("orchestrator: layout is rooted at %s but ci_dir is %s", got, want)
	}
	o := &Orchestrator{
		cfg:      opts.Config,
		layout:   opts.Layout,
		cmake:    opts.CMake,
		vcs:      opts.VCS,
		platform: opts.Platform,
		provider: opts.Provider,
		banners:  opts.Banners,
		log:      opts.Logger,
		out:      opts.Out,
		deps:     opts.Dependencies,
		dryRun:   opts.DryRun,
		now:      opts.Now,
		states:   make(map[string]DepState),
	}
	if o.platform == nil {
		o.platform = platform.Host()
	}
	if o.provider == nil {
		o.provider = platform.DetectProvider()
	}
	if o.out == nil {
		o.out = os.Stdout
	}
	if o.banners == nil {
		o.banners = ui.NewBanners(o.out, o.cfg.UI.Width)
	}
	if o.log == nil {
		o.log = log.Default()
	}
	if o.deps == nil {
		o.deps = DefaultDependencies(o.cfg.Deps)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Run prepares req and dispatches to exactly one stage.
func (o *Orchestrator) Run(ctx context.Context, req Request) error {
	plan, err := o.Prepare(req)
	if err != nil {
		return err
	}
	switch plan.Stage {
	case InstallDependencies:
		return o.InstallDependencies(ctx, plan)
	case Build:
		return o.Build(ctx, plan)
	case TestPackage:
		return o.TestPackage(ctx, plan)
	}
	return Usagef("unknown stage %v", plan.Stage)
}

// fresh recreates a build directory unless this is a dry run.
func (o *Orchestrator) fresh(rel string) error {
	if o.dryRun {
		o.log.Debug("dry run: would recreate", "dir", o.layout.Abs(rel))
		return nil
	}
	return o.layout.Fresh(rel)
}
