package main

import (
	"bytes"
	"testing"
)

func TestVersionIsSet(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range []string{"output", "asm-only", "format", "include", "preprocess", "dpp", "dparse", "dasm"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to exist", name)
		}
	}
}

func TestNormalizeFlagsRewritesSingleDash(t *testing.T) {
	got := normalizeFlags([]string{"-dparse", "foo.ent"})
	want := []string{"--dparse", "foo.ent"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("normalizeFlags() = %v, want %v", got, want)
	}
}

func TestNormalizeFlagsLeavesDoubleDashAlone(t *testing.T) {
	got := normalizeFlags([]string{"--dparse", "foo.ent"})
	if got[0] != "--dparse" {
		t.Errorf("normalizeFlags() mangled an already-long flag: %v", got)
	}
}

func TestNormalizeFlagsLeavesUnrelatedFlagsAlone(t *testing.T) {
	got := normalizeFlags([]string{"-I", "include/", "-S"})
	want := []string{"-I", "include/", "-S"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("normalizeFlags() = %v, want %v", got, want)
		}
	}
}

func TestNoArgsShowsHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected help text on stdout")
	}
}

func TestWithExt(t *testing.T) {
	tests := []struct{ in, ext, want string }{
		{"foo.ent", ".s", "foo.s"},
		{"dir/bar.ent", ".i", "dir/bar.i"},
		{"noext", ".s", "noext.s"},
	}
	for _, tt := range tests {
		if got := withExt(tt.in, tt.ext); got != tt.want {
			t.Errorf("withExt(%q, %q) = %q, want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}
