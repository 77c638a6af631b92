package buildsys

import "context"

// BuildSystem captures the configure/build/install lifecycle shared by build
// tool front ends. Implementations run in a working directory chosen by the
// caller; a non-zero exit of the tool is returned as a *RunError.
type BuildSystem interface {
	// Configure generates the build tree for sourceDir in the working directory.
	Configure(ctx context.Context, sourceDir string, args ...string) error
	// Build builds the default target.
	Build(ctx context.Context, args ...string) error
	// Install builds the install target.
	Install(ctx context.Context, args ...string) error
}
