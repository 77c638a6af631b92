package internal

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/nanogui/nanoci/internal/config"
	"github.com/nanogui/nanoci/internal/env"
	"github.com/nanogui/nanoci/internal/layout"
	"github.com/nanogui/nanoci/internal/orchestrator"
	"github.com/nanogui/nanoci/internal/platform"
	"github.com/nanogui/nanoci/internal/ui"
	"github.com/nanogui/nanoci/internal/vcs"
	"github.com/nanogui/nanoci/pkgs/buildsys"
	"github.com/nanogui/nanoci/pkgs/buildsys/cmake"
)

func (o *rootOptions) run(cmd *cobra.Command, posArgs []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stage, err := orchestrator.ParseStage(posArgs[0])
	if err != nil {
		return err
	}
	mode, err := o.cmake.linkMode()
	if err != nil {
		return err
	}
	req := orchestrator.Request{
		Stage:     stage,
		Mode:      mode,
		Install:   o.install,
		Generator: o.cmake.generator,
		Configure: o.cmake.configure(),
		Build:     o.cmake.build(),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := ui.NewLogger(cmd.ErrOrStderr(), cfg.UI.Verbose)
	logger.Debug("config", "ci_dir", cfg.CIDir, "project", cfg.Project.Root, "backend", cfg.VCS.Backend)

	runner, recorder := o.newRunner(cmd, cfg, logger)

	cmakeBin, gitBin := "cmake", "git"
	if !o.dryRun {
		if cmakeBin, err = which("cmake"); err != nil {
			return err
		}
		if stage == orchestrator.InstallDependencies && cfg.VCS.Backend == config.BackendExec {
			if gitBin, err = which("git"); err != nil {
				return err
			}
		}
	}
	cm := cmake.New(cmakeBin, runner)
	if !o.dryRun && cfg.CMake.MinVersion != "" {
		if err := checkVersion(ctx, cm, cfg.CMake.MinVersion, logger); err != nil {
			return err
		}
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Config:   cfg,
		Layout:   layout.New(osfs.New(cfg.CIDir), cfg.CIDir, mode),
		CMake:    cm,
		VCS:      o.newVCS(cmd, cfg, runner, gitBin),
		Platform: platform.Host(),
		Provider: platform.DetectProvider(),
		Banners:  ui.NewBanners(cmd.OutOrStdout(), cfg.UI.Width),
		Logger:   logger,
		Out:      cmd.OutOrStdout(),
		DryRun:   o.dryRun,
	})
	if err != nil {
		return err
	}
	if err := orch.Run(ctx, req); err != nil {
		return err
	}
	if recorder != nil {
		return printPlan(cmd.OutOrStdout(), recorder.Calls())
	}
	return nil
}

// loadConfig reads the configuration with the flags that were set on the
// command line taking precedence.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	ciDir, err := env.DefaultCIDir()
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]any)
	if cmd.Flags().Changed("ci-dir") {
		overrides["ci_dir"] = o.ciDir
	}
	if cmd.Flags().Changed("verbose") {
		overrides["ui.verbose"] = o.verbose
	}
	cfg, err := config.Load(config.LoadOptions{
		File:      o.cfgFile,
		CIDir:     ciDir,
		Overrides: overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newRunner returns the runner the stage executes through. A dry run records
// invocations instead of running them and the recorder is returned as well.
func (o *rootOptions) newRunner(cmd *cobra.Command, cfg *config.Config, logger *log.Logger) (buildsys.Runner, *buildsys.Recorder) {
	if o.dryRun {
		rec := &buildsys.Recorder{}
		return rec, rec
	}
	er := buildsys.NewExecRunner(logger)
	er.Stdout = cmd.OutOrStdout()
	er.Stderr = cmd.ErrOrStderr()
	er.Env = cfg.Build.Environ()
	return er, nil
}

// newVCS picks the clone backend. Dry runs always record git invocations.
func (o *rootOptions) newVCS(cmd *cobra.Command, cfg *config.Config, runner buildsys.Runner, gitBin string) vcs.VCS {
	if cfg.VCS.Backend == config.BackendGoGit && !o.dryRun {
		opts := []vcs.GoGitOption{vcs.WithGoGitDepth(cfg.VCS.Depth)}
		if cfg.UI.Verbose {
			opts = append(opts, vcs.WithProgress(cmd.ErrOrStderr()))
		}
		return vcs.NewGoGitVCS(opts...)
	}
	return vcs.NewGitVCS(
		vcs.WithGitPath(gitBin),
		vcs.WithDepth(cfg.VCS.Depth),
		vcs.WithRunner(runner),
	)
}

func which(name string) (string, error) {
	path, err := env.Which(name)
	if err != nil {
		return "", &orchestrator.EnvironmentError{Tool: name, Err: err}
	}
	return path, nil
}

func checkVersion(ctx context.Context, cm *cmake.CMake, minVersion string, logger *log.Logger) error {
	have, err := cm.Version(ctx)
	if err != nil {
		return &orchestrator.EnvironmentError{Tool: "cmake", Err: err}
	}
	if !env.AtLeast(have, minVersion) {
		return &orchestrator.EnvironmentError{
			Tool: "cmake",
			Err:  fmt.Errorf("version %s is older than the required %s", have, minVersion),
		}
	}
	logger.Debug("cmake", "version", have)
	return nil
}

// printPlan renders recorded invocations as a table. Commands are never
// wrapped so they can be copied from the output.
func printPlan(w io.Writer, calls []buildsys.Invocation) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRowAutoWrap(tw.WrapNone),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header("#", "Directory", "Command")
	for i, c := range calls {
		if err := table.Append([]string{strconv.Itoa(i + 1), c.Dir, c.String()}); err != nil {
			return err
		}
	}
	return table.Render()
}
