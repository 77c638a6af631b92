package internal

import (
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"

	"github.com/nanogui/nanoci/internal/args"
	"github.com/nanogui/nanoci/internal/layout"
	"github.com/nanogui/nanoci/internal/orchestrator"
	"github.com/nanogui/nanoci/internal/platform"
)

type buildType enumflag.Flag

const (
	Release buildType = iota
	Debug
	RelWithDebInfo
	MinSizeRel
)

var buildTypeIDs = map[buildType][]string{
	Release:        {"Release"},
	Debug:          {"Debug"},
	RelWithDebInfo: {"RelWithDebInfo"},
	MinSizeRel:     {"MinSizeRel"},
}

func (b buildType) String() string {
	if ids, ok := buildTypeIDs[b]; ok {
		return ids[0]
	}
	return "Release"
}

// cmakeOptions are the generic CMake flags every stage accepts.
type cmakeOptions struct {
	generator     string
	architecture  string
	toolset       string
	buildType     buildType
	cc            string
	cxx           string
	shared        bool
	static        bool
	configureArgs []string
	buildArgs     []string
}

func (o *cmakeOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.generator, "generator", "G", "Ninja", "CMake generator")
	fs.StringVarP(&o.architecture, "architecture", "A", "", "generator platform passed as -A")
	fs.StringVarP(&o.toolset, "toolset", "T", "", "generator toolset passed as -T")
	fs.Var(enumflag.New(&o.buildType, "type", buildTypeIDs, enumflag.EnumCaseInsensitive),
		"build-type", "build configuration: Release, Debug, RelWithDebInfo or MinSizeRel")
	fs.StringVar(&o.cc, "cc", "", "C compiler (CMAKE_C_COMPILER)")
	fs.StringVar(&o.cxx, "cxx", "", "C++ compiler (CMAKE_CXX_COMPILER)")
	fs.BoolVar(&o.shared, "shared", false, "build shared libraries")
	fs.BoolVar(&o.static, "static", false, "build static libraries")
	fs.StringArrayVar(&o.configureArgs, "cmake-configure-args", nil, "extra argument for every configure step (repeatable)")
	fs.StringArrayVar(&o.buildArgs, "cmake-build-args", nil, "extra argument for every build step (repeatable)")
}

// linkMode enforces that exactly one of --shared and --static is given.
func (o *cmakeOptions) linkMode() (layout.LinkMode, error) {
	switch {
	case o.shared && o.static:
		return 0, orchestrator.Usagef("--shared and --static are mutually exclusive")
	case o.shared:
		return layout.Shared, nil
	case o.static:
		return layout.Static, nil
	}
	return 0, orchestrator.Usagef("one of --shared or --static is required")
}

func (o *cmakeOptions) singleConfig() bool {
	return platform.IsSingleConfigGenerator(o.generator)
}

// configure returns the configure arguments derived from the flags. The
// build type is baked in only for single-configuration generators.
func (o *cmakeOptions) configure() args.List {
	return args.New("-G", o.generator).
		WithIf(o.architecture != "", "-A", o.architecture).
		WithIf(o.toolset != "", "-T", o.toolset).
		WithIf(o.cc != "", args.Define("CMAKE_C_COMPILER", o.cc)).
		WithIf(o.cxx != "", args.Define("CMAKE_CXX_COMPILER", o.cxx)).
		WithIf(o.singleConfig(), args.Define("CMAKE_BUILD_TYPE", o.buildType.String())).
		With(args.DefineBool("BUILD_SHARED_LIBS", o.shared)).
		With(o.configureArgs...)
}

// build returns the build arguments. Multi-configuration generators select
// the configuration at build time.
func (o *cmakeOptions) build() args.List {
	return args.New().
		WithIf(!o.singleConfig(), "--config", o.buildType.String()).
		With(o.buildArgs...)
}
