package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"

	"github.com/nanogui/nanoci/pkgs/buildsys"
)

func TestGitVCS_CloneArgs(t *testing.T) {
	g := NewGitVCS().(*gitVCS)
	got := g.cloneArgs("https://github.com/glfw/glfw.git", "", "/src/glfw")
	want := []string{"clone", "--depth", "1", "https://github.com/glfw/glfw.git", "/src/glfw"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cloneArgs (-want +got):\n%s", diff)
	}

	g = NewGitVCS(WithDepth(0), WithGitPath("/usr/bin/git")).(*gitVCS)
	got = g.cloneArgs("u", "3.4", "d")
	want = []string{"clone", "--branch", "3.4", "u", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cloneArgs (-want +got):\n%s", diff)
	}
	if g.git != "/usr/bin/git" {
		t.Fatalf("git = %q", g.git)
	}
}

// newLocalRepo creates a one-commit repository and returns its file URL.
func newLocalRepo(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "origin")
	repo, err := git.PlainInit(src, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "CMakeLists.txt"), []byte("project(dummy)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("CMakeLists.txt"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return "file://" + filepath.ToSlash(src)
}

func TestGitVCS_Clone(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	remote := newLocalRepo(t)
	dir := filepath.Join(t.TempDir(), "dummy")

	if err := NewGitVCS().Clone(context.Background(), remote, "", dir); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "CMakeLists.txt")); err != nil {
		t.Fatalf("checkout missing: %v", err)
	}
}

func TestGitVCS_CloneFailure(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	dir := filepath.Join(t.TempDir(), "missing")
	err := NewGitVCS().Clone(context.Background(), "file:///nonexistent/repo", "", dir)
	if err == nil {
		t.Fatal("expected clone of a missing remote to fail")
	}
}

func TestGoGitVCS_Clone(t *testing.T) {
	// go-git's file transport serves through git-upload-pack when present.
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	remote := newLocalRepo(t)
	dir := filepath.Join(t.TempDir(), "dummy")

	if err := NewGoGitVCS(WithGoGitDepth(0)).Clone(context.Background(), remote, "", dir); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "CMakeLists.txt"))
	if err != nil {
		t.Fatalf("checkout missing: %v", err)
	}
	if string(data) != "project(dummy)\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestGitVCS_WithRunner(t *testing.T) {
	rec := &buildsys.Recorder{}
	g := NewGitVCS(WithRunner(rec), WithGitPath("git"))
	if err := g.Clone(context.Background(), "https://github.com/Dav1dde/glad.git", "", "/ci/source/glad"); err != nil {
		t.Fatal(err)
	}
	calls := rec.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %v", calls)
	}
	want := "git clone --depth 1 https://github.com/Dav1dde/glad.git /ci/source/glad"
	if got := calls[0].String(); got != want {
		t.Fatalf("invocation = %q, want %q", got, want)
	}
}
