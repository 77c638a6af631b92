package orchestrator

import (
	"errors"
	"fmt"

	"github.com/nanogui/nanoci/pkgs/buildsys"
)

// UsageError reports invalid command-line input. It is raised before any
// side effect.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Usagef formats a UsageError.
func Usagef(format string, a ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, a...)}
}

// EnvironmentError reports a missing or unsuitable external tool, or an
// unmet precondition left by an earlier stage.
type EnvironmentError struct {
	Tool string
	Err  error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment: %s: %v", e.Tool, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// UpstreamFormatError means a downloaded dependency no longer looks the way
// its patch expects.
type UpstreamFormatError struct {
	Dependency string
	File       string
	Err        error
}

func (e *UpstreamFormatError) Error() string {
	return fmt.Sprintf("%s: upstream format changed in %s: %v", e.Dependency, e.File, e.Err)
}

func (e *UpstreamFormatError) Unwrap() error { return e.Err }

// ToolError wraps a failed clone, configure or build invocation.
type ToolError struct {
	Step string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

func toolError(step string, err error) error {
	if err == nil {
		return nil
	}
	return &ToolError{Step: step, Err: err}
}

// IsToolFailure reports whether err came from an external tool exiting
// non-zero or failing to start.
func IsToolFailure(err error) bool {
	var te *ToolError
	var re *buildsys.RunError
	return errors.As(err, &te) || errors.As(err, &re)
}
