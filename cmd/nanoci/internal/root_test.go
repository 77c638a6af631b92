package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/google/go-cmp/cmp"

	"github.com/nanogui/nanoci/internal/config"
	"github.com/nanogui/nanoci/internal/orchestrator"
	"github.com/nanogui/nanoci/pkgs/buildsys"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("TRAVIS", "")
	xdg.Reload()
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	if diff := cmp.Diff(orchestrator.StageNames(), rootCmd.ValidArgs); diff != "" {
		t.Errorf("ValidArgs (-want +got):\n%s", diff)
	}
	for _, name := range []string{"generator", "build-type", "shared", "static", "install", "dry-run", "config", "ci-dir"} {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
	if rootCmd.Flags().Changed("shared") {
		t.Error("rootCmd flags already set")
	}
}

func TestCMakeOptionsSingleConfig(t *testing.T) {
	o := &cmakeOptions{
		generator:     "Ninja",
		buildType:     Debug,
		cc:            "clang",
		cxx:           "clang++",
		static:        true,
		configureArgs: []string{"-DNANOGUI_BUILD_PYTHON=OFF"},
		buildArgs:     []string{"--verbose"},
	}
	want := []string{
		"-G", "Ninja",
		"-DCMAKE_C_COMPILER=clang",
		"-DCMAKE_CXX_COMPILER=clang++",
		"-DCMAKE_BUILD_TYPE=Debug",
		"-DBUILD_SHARED_LIBS=OFF",
		"-DNANOGUI_BUILD_PYTHON=OFF",
	}
	if diff := cmp.Diff(want, o.configure().Slice()); diff != "" {
		t.Errorf("configure (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"--verbose"}, o.build().Slice()); diff != "" {
		t.Errorf("build (-want +got):\n%s", diff)
	}
}

func TestCMakeOptionsMultiConfig(t *testing.T) {
	o := &cmakeOptions{
		generator:    "Visual Studio 17 2022",
		architecture: "x64",
		toolset:      "ClangCL",
		buildType:    RelWithDebInfo,
		shared:       true,
	}
	want := []string{"-G", "Visual Studio 17 2022", "-A", "x64", "-T", "ClangCL", "-DBUILD_SHARED_LIBS=ON"}
	if diff := cmp.Diff(want, o.configure().Slice()); diff != "" {
		t.Errorf("configure (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"--config", "RelWithDebInfo"}, o.build().Slice()); diff != "" {
		t.Errorf("build (-want +got):\n%s", diff)
	}
}

func TestBuildTypeFlag(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--build-type", "minsizerel", "--static"}); err != nil {
		t.Fatal(err)
	}
	if got := cmd.Flags().Lookup("build-type").Value.String(); got != "MinSizeRel" {
		t.Fatalf("build-type = %q", got)
	}
	if err := newRootCmd().ParseFlags([]string{"--build-type", "Fast"}); err == nil {
		t.Fatal("expected error for unknown build type")
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no stage", []string{"--shared"}},
		{"bad stage", []string{"deploy", "--shared"}},
		{"no link mode", []string{"build"}},
		{"both link modes", []string{"build", "--shared", "--static"}},
		{"install outside build", []string{"test_package", "--static", "--install"}},
		{"unknown flag", []string{"build", "--shared", "--frobnicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			ci := filepath.Join(dir, ".ci")
			_, err := execute(t, append(tt.args, "--ci-dir", ci, "--dry-run")...)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := exitCode(err); code != exitUsage {
				t.Fatalf("exit code = %d, want %d (%v)", code, exitUsage, err)
			}
			if _, err := os.Stat(ci); !os.IsNotExist(err) {
				t.Fatalf("CI directory touched before usage error: %v", err)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{orchestrator.Usagef("bad"), exitUsage},
		{&orchestrator.EnvironmentError{Tool: "cmake", Err: errors.New("missing")}, exitFailure},
		{&orchestrator.ToolError{Step: "build", Err: errors.New("boom")}, exitFailure},
		{exitError(orchestrator.Usagef("bad")), exitUsage},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestDryRunBuildInstall(t *testing.T) {
	dir := isolate(t)
	ci := filepath.Join(dir, ".ci")

	out, err := execute(t, "build", "--shared", "--install", "--dry-run", "--ci-dir", ci)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	for _, s := range []string{
		"Building NanoGUI",
		"-DNANOGUI_INSTALL=ON",
		"-DCMAKE_INSTALL_PREFIX=" + filepath.Join(ci, "shared", "install"),
		"--target install",
		filepath.Join(ci, "shared", "build", "nanogui"),
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	if _, err := os.Stat(ci); !os.IsNotExist(err) {
		t.Errorf("dry run created the CI directory: %v", err)
	}
}

func TestDryRunInstallDependencies(t *testing.T) {
	dir := isolate(t)
	ci := filepath.Join(dir, ".ci")

	out, err := execute(t, "install_dependencies", "--static", "-G", "Unix Makefiles", "--dry-run", "--ci-dir", ci)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	for _, s := range []string{
		"git clone --depth 1 https://github.com/eigenteam/eigen-git-mirror.git",
		"https://github.com/glfw/glfw.git",
		"https://github.com/Dav1dde/glad.git",
		"-DGLAD_PROFILE=core",
		"Installing GLFW",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestConfigFileOverridesDependency(t *testing.T) {
	dir := isolate(t)
	ci := filepath.Join(dir, ".ci")
	cfg := filepath.Join(dir, "nanoci.yaml")
	data := "deps:\n  glad:\n    url: https://example.com/glad.git\n    ref: v0.1.36\n"
	if err := os.WriteFile(cfg, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "install_dependencies", "--shared", "--dry-run", "--ci-dir", ci, "--config", cfg)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	if !strings.Contains(out, "--branch v0.1.36 https://example.com/glad.git") {
		t.Errorf("override not applied:\n%s", out)
	}
}

func TestEnvOverridesDependency(t *testing.T) {
	dir := isolate(t)
	ci := filepath.Join(dir, ".ci")
	t.Setenv("NANOCI_DEPS_GLAD_URL", "https://mirror.example.com/glad.git")

	out, err := execute(t, "install_dependencies", "--shared", "--dry-run", "--ci-dir", ci)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	if !strings.Contains(out, "https://mirror.example.com/glad.git") {
		t.Errorf("NANOCI_DEPS_GLAD_URL not applied:\n%s", out)
	}
	if strings.Contains(out, "https://github.com/Dav1dde/glad.git") {
		t.Errorf("default GLAD remote still cloned:\n%s", out)
	}
}

func TestRunnerCarriesBuildEnv(t *testing.T) {
	dir := isolate(t)
	ci := filepath.Join(dir, ".ci")
	cfgFile := filepath.Join(dir, "nanoci.yaml")
	data := "build:\n  env:\n    - CC=clang\n    - MACOSX_DEPLOYMENT_TARGET=10.15\n"
	if err := os.WriteFile(cfgFile, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", cfgFile, "--ci-dir", ci}); err != nil {
		t.Fatal(err)
	}
	o := &rootOptions{cfgFile: cfgFile, ciDir: ci}
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}

	runner, recorder := o.newRunner(cmd, cfg, nil)
	if recorder != nil {
		t.Fatal("recorder returned outside a dry run")
	}
	er, ok := runner.(*buildsys.ExecRunner)
	if !ok {
		t.Fatalf("runner = %T, want *buildsys.ExecRunner", runner)
	}
	want := map[string]string{"CC": "clang", "MACOSX_DEPLOYMENT_TARGET": "10.15"}
	if diff := cmp.Diff(want, er.Env); diff != "" {
		t.Errorf("Env (-want +got):\n%s", diff)
	}

	o.dryRun = true
	if _, rec := o.newRunner(cmd, &config.Config{}, nil); rec == nil {
		t.Error("dry run did not return a recorder")
	}
}
