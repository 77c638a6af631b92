// Package config loads orchestrator settings from defaults, an optional
// nanoci.yaml and NANOCI_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	AppName        = "nanoci"
	ConfigFileName = "nanoci"
	EnvPrefix      = "NANOCI"
)

// VCS backends.
const (
	BackendExec  = "exec"
	BackendGoGit = "go-git"
)

type Config struct {
	CIDir   string                 `mapstructure:"ci_dir"`
	Project Project                `mapstructure:"project"`
	VCS     VCS                    `mapstructure:"vcs"`
	Build   Build                  `mapstructure:"build"`
	CMake   CMake                  `mapstructure:"cmake"`
	Deps    map[string]DepOverride `mapstructure:"deps"`
	Verify  Verify                 `mapstructure:"verify"`
	UI      UI                     `mapstructure:"ui"`
}

type Project struct {
	Name          string `mapstructure:"name"`
	Root          string `mapstructure:"root"`
	InstallOption string `mapstructure:"install_option"`
	TestPackage   string `mapstructure:"test_package"`
}

type VCS struct {
	Backend string `mapstructure:"backend"`
	Depth   int    `mapstructure:"depth"`
}

type Build struct {
	ConstrainedProviders []string `mapstructure:"constrained_providers"`
	ConstrainedJobs      int      `mapstructure:"constrained_jobs"`
	// Env holds KEY=VALUE entries added to the environment of every cmake
	// and git invocation. A list keeps the keys' case, which a map would not.
	Env []string `mapstructure:"env"`

	environ map[string]string
}

// Environ returns the parsed build.env entries.
func (b Build) Environ() map[string]string { return b.environ }

type CMake struct {
	MinVersion string `mapstructure:"min_version"`
}

// DependencyNames are the dependencies that accept deps.<name> overrides.
var DependencyNames = []string{"eigen", "glfw", "glad"}

// DepOverride replaces the remote or pins the ref of a dependency.
type DepOverride struct {
	URL string `mapstructure:"url"`
	Ref string `mapstructure:"ref"`
}

type Verify struct {
	RequireStamp bool `mapstructure:"require_stamp"`
}

type UI struct {
	Verbose bool `mapstructure:"verbose"`
	Width   int  `mapstructure:"width"`
}

// DefaultConfig returns the built-in settings. CIDir and Project.Root are
// left empty; Load fills them from the working directory.
func DefaultConfig() *Config {
	return &Config{
		Project: Project{
			Name:          "NanoGUI",
			InstallOption: "NANOGUI_INSTALL",
			TestPackage:   "test_package",
		},
		VCS: VCS{Backend: BackendExec, Depth: 1},
		Build: Build{
			ConstrainedProviders: []string{"travis"},
			ConstrainedJobs:      2,
		},
		CMake: CMake{MinVersion: "3.10.0"},
		UI:    UI{Width: 80},
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// File, when set, is the only config file read and must exist.
	File string
	// CIDir is the CI directory used when the configuration names none.
	CIDir string
	// Overrides are set last and win over every other source. Keys use the
	// dotted config names, e.g. "ui.verbose".
	Overrides map[string]any
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v, opts.CIDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		if opts.CIDir != "" {
			v.AddConfigPath(opts.CIDir)
		}
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, ciDir string) {
	d := DefaultConfig()
	v.SetDefault("ci_dir", ciDir)
	v.SetDefault("project.name", d.Project.Name)
	v.SetDefault("project.root", "")
	v.SetDefault("project.install_option", d.Project.InstallOption)
	v.SetDefault("project.test_package", d.Project.TestPackage)
	v.SetDefault("vcs.backend", d.VCS.Backend)
	v.SetDefault("vcs.depth", d.VCS.Depth)
	v.SetDefault("build.constrained_providers", d.Build.ConstrainedProviders)
	v.SetDefault("build.constrained_jobs", d.Build.ConstrainedJobs)
	v.SetDefault("build.env", []string{})
	for _, name := range DependencyNames {
		// Known keys let AutomaticEnv pick up NANOCI_DEPS_<NAME>_URL and _REF.
		v.SetDefault("deps."+name+".url", "")
		v.SetDefault("deps."+name+".ref", "")
	}
	v.SetDefault("cmake.min_version", d.CMake.MinVersion)
	v.SetDefault("verify.require_stamp", d.Verify.RequireStamp)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.width", d.UI.Width)
}

func (c *Config) finish() error {
	if c.CIDir == "" {
		return errors.New("ci_dir is not set")
	}
	abs, err := filepath.Abs(c.CIDir)
	if err != nil {
		return fmt.Errorf("ci_dir: %w", err)
	}
	c.CIDir = abs
	if c.Project.Root == "" {
		c.Project.Root = filepath.Dir(c.CIDir)
	}
	if c.Project.Root, err = filepath.Abs(c.Project.Root); err != nil {
		return fmt.Errorf("project.root: %w", err)
	}
	switch c.VCS.Backend {
	case BackendExec, BackendGoGit:
	default:
		return fmt.Errorf("vcs.backend %q: want %s or %s", c.VCS.Backend, BackendExec, BackendGoGit)
	}
	if c.Build.ConstrainedJobs < 1 {
		return fmt.Errorf("build.constrained_jobs must be positive, got %d", c.Build.ConstrainedJobs)
	}
	if len(c.Build.Env) > 0 {
		c.Build.environ = make(map[string]string, len(c.Build.Env))
		for _, kv := range c.Build.Env {
			k, val, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return fmt.Errorf("build.env entry %q: want KEY=VALUE", kv)
			}
			c.Build.environ[k] = val
		}
	}
	return nil
}

// TestPackageDir is the consumer project used to verify packaging.
func (c *Config) TestPackageDir() string {
	if filepath.IsAbs(c.Project.TestPackage) {
		return c.Project.TestPackage
	}
	return filepath.Join(c.Project.Root, c.Project.TestPackage)
}
