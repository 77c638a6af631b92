package buildsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestHelperProcess is started as a child by the runner tests. It prints the
// variable named by NANOCI_HELPER_PRINT.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("NANOCI_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Print(os.Getenv(os.Getenv("NANOCI_HELPER_PRINT")))
	os.Exit(0)
}

func TestExecRunnerEnv(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skip(err)
	}
	t.Setenv("NANOCI_TOOLCHAIN", "gcc")
	r := &ExecRunner{
		Stderr: &bytes.Buffer{},
		Env: map[string]string{
			"NANOCI_HELPER_PROCESS": "1",
			"NANOCI_HELPER_PRINT":   "NANOCI_TOOLCHAIN",
			"NANOCI_TOOLCHAIN":      "clang",
		},
	}
	out, err := r.Output(context.Background(), "", exe, "-test.run=^TestHelperProcess$")
	if err != nil {
		t.Fatal(err)
	}
	if out != "clang" {
		t.Fatalf("child saw NANOCI_TOOLCHAIN=%q, want clang", out)
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skip(err)
	}
	r := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	// The test binary rejects an unknown flag with a non-zero exit.
	err = r.Run(context.Background(), "", exe, "-nanoci.unknown.flag")
	var re *RunError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RunError", err)
	}
	if re.ExitCode == 0 {
		t.Fatalf("ExitCode = 0, want non-zero")
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := &ExecRunner{}
	err := r.Run(context.Background(), "", "nanoci-no-such-binary")
	var re *RunError
	if !errors.As(err, &re) || re.ExitCode != 0 {
		t.Fatalf("err = %v, want RunError without exit code", err)
	}
}

func TestMergeEnv(t *testing.T) {
	got := mergeEnv([]string{"B=2", "A=1", "MALFORMED"}, map[string]string{"B": "3", "C": "4"})
	want := []string{"A=1", "B=3", "C=4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mergeEnv (-want +got):\n%s", diff)
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{Outputs: map[string]string{"git --version": "git version 2.43.0"}}
	out, err := r.Output(context.Background(), "", "git", "--version")
	if err != nil || out != "git version 2.43.0" {
		t.Fatalf("Output = %q, %v", out, err)
	}
	if err := r.Run(context.Background(), "/d", "cmake", "--build", "."); err != nil {
		t.Fatal(err)
	}
	calls := r.Calls()
	if len(calls) != 2 || calls[1].String() != "cmake --build ." || calls[1].Dir != "/d" {
		t.Fatalf("calls = %+v", calls)
	}
}
