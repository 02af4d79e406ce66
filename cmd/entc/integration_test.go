package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixtureSource = `
function add(int32 a, int32 b) -> int32 {
  return a + b;
};

function main() -> int32 {
  int32 x = add(2, 3);
  return x;
};
`

func writeFixture(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestIntegrationPreprocessOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "main.ent", fixtureSource)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"-E", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("entc -E failed: %v, stderr=%s", err, errOut.String())
	}
	if !strings.Contains(out.String(), "function add") {
		t.Errorf("expected preprocessed source on stdout, got:\n%s", out.String())
	}
}

func TestIntegrationDumpParse(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "main.ent", fixtureSource)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--dparse", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("entc --dparse failed: %v, stderr=%s", err, errOut.String())
	}

	parsedPath := filepath.Join(dir, "main.parsed.ent")
	content, err := os.ReadFile(parsedPath)
	if err != nil {
		t.Fatalf("reading %s: %v", parsedPath, err)
	}
	if !strings.Contains(string(content), "function add") {
		t.Errorf("expected reprinted AST to contain add(), got:\n%s", content)
	}
}

func TestIntegrationDumpAsm(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "main.ent", fixtureSource)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--dasm", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("entc --dasm failed: %v, stderr=%s", err, errOut.String())
	}

	asmPath := filepath.Join(dir, "main.s")
	content, err := os.ReadFile(asmPath)
	if err != nil {
		t.Fatalf("reading %s: %v", asmPath, err)
	}
	if !strings.Contains(string(content), "global main") || !strings.Contains(string(content), "call add") {
		t.Errorf("expected assembly with global main and call add, got:\n%s", content)
	}
}

func TestIntegrationAssemblyOnlyFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "main.ent", fixtureSource)
	outPath := filepath.Join(dir, "main.s")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"-S", "-o", outPath, path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("entc -S failed: %v, stderr=%s", err, errOut.String())
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading %s: %v", outPath, err)
	}
	if !strings.Contains(string(content), "section .text") {
		t.Errorf("expected a .text section, got:\n%s", content)
	}
}

func TestIntegrationSyntaxErrorReportsAndFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "bad.ent", "function main() -> int32 { return 0 };")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--dasm", path})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected a parse error, got none")
	}
}

func TestIntegrationIncludePath(t *testing.T) {
	dir := t.TempDir()
	incDir := filepath.Join(dir, "inc")
	if err := os.Mkdir(incDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFixture(t, incDir, "shared.ent", `
header {
  function helper() -> int32;
};
`)
	mainPath := writeFixture(t, dir, "main.ent", `
#include "inc/shared.ent"
function main() -> int32 { return 0; };
`)

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"-E", mainPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("entc -E with #include failed: %v, stderr=%s", err, errOut.String())
	}
	if !strings.Contains(out.String(), "helper") {
		t.Errorf("expected included header content, got:\n%s", out.String())
	}
}
