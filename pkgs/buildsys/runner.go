package buildsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Runner starts external tools. dir is the working directory; empty means
// the current one.
type Runner interface {
	Run(ctx context.Context, dir, bin string, args ...string) error
	Output(ctx context.Context, dir, bin string, args ...string) (string, error)
}

// RunError reports a tool that could not be started or exited non-zero.
type RunError struct {
	Dir      string
	Bin      string
	Args     []string
	ExitCode int
	Err      error
}

func (e *RunError) Error() string {
	cmd := strings.Join(append([]string{e.Bin}, e.Args...), " ")
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s (in %s): exit status %d", cmd, e.Dir, e.ExitCode)
	}
	return fmt.Sprintf("%s (in %s): %v", cmd, e.Dir, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// ExecRunner runs tools with os/exec, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Env    map[string]string
	Logger *log.Logger
}

// NewExecRunner streams to the process stdout and stderr.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr, Logger: logger}
}

func (r *ExecRunner) command(ctx context.Context, dir, bin string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), r.Env)
	}
	if r.Logger != nil {
		r.Logger.Info("running", "dir", dir, "cmd", strings.Join(append([]string{bin}, args...), " "))
	}
	return cmd
}

func (r *ExecRunner) Run(ctx context.Context, dir, bin string, args ...string) error {
	cmd := r.command(ctx, dir, bin, args)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return wrapRunError(cmd.Run(), dir, bin, args)
}

func (r *ExecRunner) Output(ctx context.Context, dir, bin string, args ...string) (string, error) {
	cmd := r.command(ctx, dir, bin, args)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return "", wrapRunError(err, dir, bin, args)
	}
	return stdout.String(), nil
}

func wrapRunError(err error, dir, bin string, args []string) error {
	if err == nil {
		return nil
	}
	re := &RunError{Dir: dir, Bin: bin, Args: slices.Clone(args), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		re.ExitCode = exitErr.ExitCode()
	}
	return re
}

// mergeEnv layers override on top of base. The result is sorted by key so
// the child environment is stable across runs.
func mergeEnv(base []string, override map[string]string) []string {
	env := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	maps.Copy(env, override)
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

// Invocation is one recorded tool run.
type Invocation struct {
	Dir  string
	Bin  string
	Args []string
}

func (i Invocation) String() string {
	return strings.Join(append([]string{i.Bin}, i.Args...), " ")
}

// Recorder is a Runner that records invocations instead of executing them.
// It backs dry runs and tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Invocation

	// Fail, when set, decides the result of each Run.
	Fail func(Invocation) error
	// Outputs maps "bin arg..." to the text Output returns.
	Outputs map[string]string
}

func (r *Recorder) record(dir, bin string, args []string) Invocation {
	inv := Invocation{Dir: dir, Bin: bin, Args: slices.Clone(args)}
	r.mu.Lock()
	r.calls = append(r.calls, inv)
	r.mu.Unlock()
	return inv
}

func (r *Recorder) Run(_ context.Context, dir, bin string, args ...string) error {
	inv := r.record(dir, bin, args)
	if r.Fail != nil {
		if err := r.Fail(inv); err != nil {
			return &RunError{Dir: dir, Bin: bin, Args: inv.Args, ExitCode: 1, Err: err}
		}
	}
	return nil
}

func (r *Recorder) Output(_ context.Context, dir, bin string, args ...string) (string, error) {
	inv := r.record(dir, bin, args)
	if out, ok := r.Outputs[inv.String()]; ok {
		return out, nil
	}
	return "", nil
}

// Calls returns the invocations so far.
func (r *Recorder) Calls() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}
