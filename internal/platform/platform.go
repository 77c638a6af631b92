// Package platform answers the host and CI questions the orchestrator asks:
// which operating system it runs on, which hosted CI product launched it,
// whether a CMake generator is single-configuration, and which MSVC runtime
// flags match a link mode.
package platform

import (
	"runtime"
	"strings"
)

// OS names as reported by runtime.GOOS.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// PlatformInfo describes the operating system the builds target.
type PlatformInfo interface {
	OS() string
	IsWindows() bool
}

type host struct {
	goos string
}

// Host returns the PlatformInfo of the running process.
func Host() PlatformInfo {
	return host{goos: runtime.GOOS}
}

// ForOS returns a PlatformInfo for an arbitrary GOOS value.
func ForOS(goos string) PlatformInfo {
	return host{goos: goos}
}

func (h host) OS() string      { return h.goos }
func (h host) IsWindows() bool { return h.goos == Windows }

// multiConfigGenerators select the configuration at build time.
var multiConfigGenerators = []string{
	"Visual Studio",
	"Xcode",
	"Ninja Multi-Config",
}

// IsSingleConfigGenerator reports whether the generator bakes the build type
// in at configure time (Ninja, Unix Makefiles, NMake, ...).
func IsSingleConfigGenerator(generator string) bool {
	for _, g := range multiConfigGenerators {
		if strings.HasPrefix(generator, g) {
			return false
		}
	}
	return true
}

// RuntimeFlags returns the cache entries that pin the MSVC C runtime for the
// four standard build configurations: /MT and /MTd when static, /MD and /MDd
// otherwise. The leading DLL toggle is understood by GLFW's build.
func RuntimeFlags(static bool) []string {
	release, debug, dll := "/MD", "/MDd", "ON"
	if static {
		release, debug, dll = "/MT", "/MTd", "OFF"
	}
	return []string{
		"-DUSE_MSVC_RUNTIME_LIBRARY_DLL=" + dll,
		"-DCMAKE_C_FLAGS_RELEASE=" + release,
		"-DCMAKE_C_FLAGS_MINSIZEREL=" + release,
		"-DCMAKE_C_FLAGS_RELWITHDEBINFO=" + debug,
		"-DCMAKE_C_FLAGS_DEBUG=" + debug,
	}
}
