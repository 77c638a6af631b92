package args

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWithDoesNotAlias(t *testing.T) {
	base := New("-G", "Ninja")
	a := base.With("-DA=1")
	b := base.With("-DB=1")

	if diff := cmp.Diff([]string{"-G", "Ninja"}, base.Slice()); diff != "" {
		t.Fatalf("base changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-G", "Ninja", "-DA=1"}, a.Slice()); diff != "" {
		t.Fatalf("a (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"-G", "Ninja", "-DB=1"}, b.Slice()); diff != "" {
		t.Fatalf("b (-want +got):\n%s", diff)
	}
}

func TestSliceIsCopy(t *testing.T) {
	l := New("x")
	s := l.Slice()
	s[0] = "y"
	if got := l.Slice()[0]; got != "x" {
		t.Fatalf("Slice leaked internal storage: got %q", got)
	}
}

func TestWithIf(t *testing.T) {
	l := New("a")
	if got := len(l.WithIf(false, "b").Slice()); got != 1 {
		t.Errorf("WithIf(false) len = %d, want 1", got)
	}
	if got := l.WithIf(true, "b", "c").String(); got != "a b c" {
		t.Errorf("WithIf(true) = %q, want %q", got, "a b c")
	}
}

func TestContainsAndDefine(t *testing.T) {
	l := New(DefineBool("BUILD_SHARED_LIBS", false), Define("CMAKE_BUILD_TYPE", "Release"))
	if !l.Contains("BUILD_SHARED_LIBS=OFF") {
		t.Error("expected BUILD_SHARED_LIBS=OFF to be found")
	}
	if l.Contains("BUILD_SHARED_LIBS=ON") {
		t.Error("did not expect BUILD_SHARED_LIBS=ON")
	}
}
