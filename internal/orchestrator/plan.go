package orchestrator

import (
	"fmt"
	"strconv"

	"github.com/nanogui/nanoci/internal/args"
	"github.com/nanogui/nanoci/internal/layout"
	"github.com/nanogui/nanoci/internal/platform"
)

// Request is what the command line asked for, after CMake options have been
// turned into argument lists.
type Request struct {
	Stage     Stage
	Mode      layout.LinkMode
	Install   bool
	Generator string
	// Configure and Build are the arguments produced from the CMake options.
	Configure args.List
	Build     args.List
}

// Plan holds the final argument lists a stage runs with.
type Plan struct {
	Stage     Stage
	Mode      layout.LinkMode
	Install   bool
	Configure args.List
	Build     args.List
}

// Validate rejects flag combinations that make no sense for the stage.
func (r Request) Validate() error {
	if r.Install && r.Stage != Build {
		return Usagef("--install is only valid with the %s stage", Build)
	}
	return nil
}

// Prepare turns req into a Plan. Flags are appended in a fixed order:
// build parallelism, verbose makefiles, CMAKE_PREFIX_PATH, then the
// install prefix.
func (o *Orchestrator) Prepare(req Request) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Mode != o.layout.Mode() {
		return nil, fmt.Errorf("request is %s but the layout is %s", req.Mode, o.layout.Mode())
	}
	configure := req.Configure
	build := req.Build

	if platform.IsSingleConfigGenerator(req.Generator) {
		if platform.IsConstrained(o.provider, o.cfg.Build.ConstrainedProviders) {
			build = build.With("-j", strconv.Itoa(o.cfg.Build.ConstrainedJobs))
		} else {
			build = build.With("-j")
		}
	}

	configure = configure.With(args.DefineBool("CMAKE_VERBOSE_MAKEFILE", true))

	prefix, ok, err := o.layout.PrefixPathFlag()
	if err != nil {
		return nil, &EnvironmentError{Tool: "install root", Err: err}
	}
	configure = configure.WithIf(ok, prefix)

	switch {
	case req.Stage == InstallDependencies:
		configure = configure.With(o.layout.InstallPrefixFlag())
	case req.Stage == Build && req.Install:
		configure = configure.With(
			o.layout.InstallPrefixFlag(),
			args.DefineBool(o.cfg.Project.InstallOption, true),
		)
	}

	o.log.Debug("plan", "stage", req.Stage, "mode", req.Mode, "os", o.platform.OS(), "configure", configure, "build", build)
	return &Plan{
		Stage:     req.Stage,
		Mode:      req.Mode,
		Install:   req.Install,
		Configure: configure,
		Build:     build,
	}, nil
}
