package internal

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/nanogui/nanoci/internal/orchestrator"
)

// Version is set at link time.
var Version = "dev"

// rootCmd is the command main runs. Tests build their own with newRootCmd
// so flag state does not leak between them.
var rootCmd = newRootCmd()

type rootOptions struct {
	cmake   cmakeOptions
	install bool
	verbose bool
	dryRun  bool
	cfgFile string
	ciDir   string
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "nanoci <stage>",
		Short: "NanoGUI CI build helper",
		Long: `nanoci drives the CMake builds of a NanoGUI CI job.

Stages, run in this order for a packaging test:
  install_dependencies  fetch, build and install Eigen, GLFW and GLAD
  build                 configure and build NanoGUI (--install to install it)
  test_package          build test_package against the installed NanoGUI

Every stage needs --shared or --static, and the same choice must be used
across the stages of one job.`,
		Example: strings.Join([]string{
			"  nanoci install_dependencies --shared",
			"  nanoci build --shared --install",
			"  nanoci test_package --shared",
		}, "\n"),
		ValidArgs:     orchestrator.StageNames(),
		Args:          stageArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitError(o.run(cmd, args))
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	o.cmake.register(cmd.Flags())
	cmd.Flags().BoolVar(&o.install, "install", false, "install NanoGUI after building (build stage only)")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print the commands a stage would run without running them")
	cmd.Flags().StringVar(&o.cfgFile, "config", "", "config file (default is nanoci.yaml in the CI directory or $XDG_CONFIG_HOME/nanoci)")
	cmd.Flags().StringVar(&o.ciDir, "ci-dir", "", "CI directory holding sources, builds and installs (default is ./.ci)")
	return cmd
}

func stageArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return usageError(err)
	}
	if _, err := orchestrator.ParseStage(args[0]); err != nil {
		return usageError(err)
	}
	return nil
}

// Execute runs the root command and exits with the code its error carries.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(exitFailure)
	}
}
