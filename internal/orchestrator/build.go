package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
)

// ProjectBuildDirRel is the project's build directory under the build root.
func (o *Orchestrator) ProjectBuildDirRel() string {
	return o.layout.BuildDirRel(strings.ToLower(o.cfg.Project.Name))
}

// Build configures and builds the project from scratch. With plan.Install
// the install target runs after a successful build and the install root is
// stamped.
func (o *Orchestrator) Build(ctx context.Context, plan *Plan) error {
	o.banners.Stage("Building " + o.cfg.Project.Name)

	rel := o.ProjectBuildDirRel()
	if err := o.fresh(rel); err != nil {
		return err
	}
	c := o.cmake.In(o.layout.Abs(rel))
	if err := c.Configure(ctx, o.cfg.Project.Root, plan.Configure.Slice()...); err != nil {
		return toolError("configure "+o.cfg.Project.Name, err)
	}
	if err := c.Build(ctx, plan.Build.Slice()...); err != nil {
		return toolError("build "+o.cfg.Project.Name, err)
	}
	if !plan.Install {
		return nil
	}
	if err := c.Install(ctx, plan.Build.Slice()...); err != nil {
		return toolError("install "+o.cfg.Project.Name, err)
	}
	return o.writeStamp(plan)
}

// TestPackageBuildDirRel is the consumer project's build directory.
func (o *Orchestrator) TestPackageBuildDirRel() string {
	return o.layout.BuildDirRel(filepath.Base(o.cfg.TestPackageDir()))
}

// TestPackage configures and builds the downstream consumer project against
// the install root.
func (o *Orchestrator) TestPackage(ctx context.Context, plan *Plan) error {
	o.banners.Stage("Test " + o.cfg.Project.Name + " Packaging")

	if err := o.checkStamp(plan); err != nil {
		if o.cfg.Verify.RequireStamp {
			return err
		}
		o.log.Warn("install root may be incomplete, run build --install first", "err", err)
	}

	rel := o.TestPackageBuildDirRel()
	if err := o.fresh(rel); err != nil {
		return err
	}
	c := o.cmake.In(o.layout.Abs(rel))
	if err := c.Configure(ctx, o.cfg.TestPackageDir(), plan.Configure.Slice()...); err != nil {
		return toolError("configure test package", err)
	}
	if err := c.Build(ctx, plan.Build.Slice()...); err != nil {
		return toolError("build test package", err)
	}
	return nil
}
