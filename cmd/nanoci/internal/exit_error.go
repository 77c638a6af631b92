package internal

import (
	"errors"
	"fmt"

	"github.com/nanogui/nanoci/internal/orchestrator"
)

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
)

// ExitError carries the process exit code out of a RunE handler.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitError attaches the exit code for err: usage errors exit 2, every
// other failure exits 1.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return err
	}
	return &ExitError{Code: exitCode(err), Err: err}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	var ue *orchestrator.UsageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitFailure
}

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}
