package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"

	"github.com/nanogui/nanoci/internal/patch"
)

// InstallDependencies fetches, patches, builds and installs every dependency
// in order. The first failure aborts the stage and leaves the failed
// dependency's directories in place.
func (o *Orchestrator) InstallDependencies(ctx context.Context, plan *Plan) error {
	o.banners.Stage("Installing Third Party Dependencies Locally")
	o.log.Debug("layout",
		"source", o.layout.SourceRoot(),
		"build", o.layout.BuildRoot(),
		"install", o.layout.InstallRoot())
	for _, dep := range o.deps {
		o.setState(dep, NotAcquired)
	}
	for _, dep := range o.deps {
		cloned, err := o.acquire(ctx, dep)
		if err != nil {
			return err
		}
		if cloned {
			if err := o.applyPatch(dep); err != nil {
				return err
			}
		}
		if err := o.installDependency(ctx, plan, dep); err != nil {
			return err
		}
	}
	return nil
}

// DependencyStates reports how far each dependency got in the last
// InstallDependencies call.
func (o *Orchestrator) DependencyStates() map[string]DepState {
	return maps.Clone(o.states)
}

func (o *Orchestrator) setState(dep Dependency, s DepState) {
	o.states[dep.Name] = s
	o.log.Debug("dependency", "name", dep.Name, "state", s)
}

// acquire clones dep unless its checkout already exists and reports whether
// it cloned. An existing checkout is used as-is and is not patched again.
func (o *Orchestrator) acquire(ctx context.Context, dep Dependency) (bool, error) {
	rel := o.layout.SourceDirRel(dep.Name)
	ok, err := o.layout.Exists(rel)
	if err != nil {
		return false, fmt.Errorf("%s: %w", dep.Name, err)
	}
	if ok {
		o.log.Info("using existing checkout", "dep", dep.Name, "dir", o.layout.Abs(rel))
		o.setState(dep, Acquired)
		return false, nil
	}

	o.banners.SubStage("Downloading " + dep.Title)
	if !o.dryRun {
		if err := o.layout.Ensure(o.layout.SourceRootRel()); err != nil {
			return false, err
		}
	}
	if err := o.vcs.Clone(ctx, dep.URL, dep.Ref, o.layout.Abs(rel)); err != nil {
		return false, toolError("clone "+dep.Name, err)
	}
	o.setState(dep, Acquired)
	return true, nil
}

// applyPatch runs the dependency's patch rule on a fresh checkout, if it has
// one, and prints the diff when the file changed.
func (o *Orchestrator) applyPatch(dep Dependency) error {
	if dep.Patch == nil {
		return nil
	}
	if o.dryRun {
		o.log.Info("dry run: skipping patch", "dep", dep.Name, "file", dep.Patch.File)
		return nil
	}
	rule := dep.patchRuleIn(o.layout.SourceDirRel(dep.Name))
	res, err := patch.Apply(o.layout.FS(), rule)
	if err != nil {
		if errors.Is(err, patch.ErrPatternNotFound) || errors.Is(err, fs.ErrNotExist) {
			return &UpstreamFormatError{Dependency: dep.Name, File: o.layout.Abs(rule.File), Err: err}
		}
		return fmt.Errorf("%s: %w", dep.Name, err)
	}
	if res.Changed {
		fmt.Fprintf(o.out, "Patched %s:\n%s\n", dep.Title, res.Diff())
	} else {
		o.log.Info("already patched", "dep", dep.Name, "file", o.layout.Abs(rule.File))
	}
	o.setState(dep, Patched)
	return nil
}

func (o *Orchestrator) installDependency(ctx context.Context, plan *Plan, dep Dependency) error {
	o.banners.SubStage("Installing " + dep.Title)
	buildRel := o.layout.BuildDirRel(dep.Name)
	if err := o.fresh(buildRel); err != nil {
		return err
	}
	c := o.cmake.In(o.layout.Abs(buildRel))
	configure := dep.ConfigureArgs(o.platform, plan.Configure)
	if err := c.Configure(ctx, o.layout.Abs(o.layout.SourceDirRel(dep.Name)), configure.Slice()...); err != nil {
		return toolError("configure "+dep.Name, err)
	}
	o.setState(dep, Built)
	if err := c.Install(ctx, plan.Build.Slice()...); err != nil {
		return toolError("install "+dep.Name, err)
	}
	o.setState(dep, Installed)
	return nil
}
