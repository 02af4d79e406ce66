package preproc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMacroSubstitution(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ent", "#define SEVEN 7\nfunction f() -> int32 {\n  return SEVEN;\n};\n")

	pp := New(Options{})
	out, _, err := pp.Preprocess(main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "return 7;") {
		t.Errorf("expected macro expanded to 7, got:\n%s", out)
	}
	if strings.Contains(out, "#define") {
		t.Errorf("directive line should not survive into output, got:\n%s", out)
	}
}

func TestMacroUndef(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ent", "#define X 1\n#undef X\nint32 y = X;\n")

	pp := New(Options{})
	out, _, err := pp.Preprocess(main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "int32 y = X;") {
		t.Errorf("expected X to survive unexpanded after #undef, got:\n%s", out)
	}
}

func TestHeaderGatingOnInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "decls.ent", "int32 loose_global;\nheader {\nfunction helper() -> int32;\n};\nint32 also_loose;\n")
	main := writeFile(t, dir, "main.ent", "#include \"decls.ent\"\nfunction main() -> int32 {\n  return 0;\n};\n")

	pp := New(Options{})
	out, _, err := pp.Preprocess(main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "loose_global") || strings.Contains(out, "also_loose") {
		t.Errorf("content outside the header block must be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "function helper() -> int32;") {
		t.Errorf("expected header block contents to survive, got:\n%s", out)
	}
	if !strings.Contains(out, "header {") || !strings.Contains(out, "};") {
		t.Errorf("expected header wrapper lines to be preserved, got:\n%s", out)
	}
}

func TestAngledIncludeSearchesIncludePaths(t *testing.T) {
	base := t.TempDir()
	incDir := filepath.Join(base, "inc")
	if err := os.Mkdir(incDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, incDir, "sys.ent", "header {\nfunction sysfn() -> void;\n};\n")
	main := writeFile(t, base, "main.ent", "#include <sys.ent>\nfunction main() -> int32 {\n  return 0;\n};\n")

	pp := New(Options{IncludePaths: []string{incDir}})
	out, _, err := pp.Preprocess(main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "sysfn") {
		t.Errorf("expected angled include resolved via IncludePaths, got:\n%s", out)
	}
}

func TestAsmBlockCaptureAndIndexing(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ent", "function f() -> void {\n  asm {\n  mov rax, 1\n  ret\n  };\n  asm {\n  nop\n  };\n};\n")

	pp := New(Options{})
	out, blocks, err := pp.Preprocess(main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "asm;") != 2 {
		t.Errorf("expected two asm; markers in output, got:\n%s", out)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 captured asm blocks, got %d", len(blocks))
	}
	if blocks[0].Lines[0] != "  mov rax, 1" {
		t.Errorf("unexpected first asm block content: %q", blocks[0].Lines[0])
	}
	if blocks[1].Lines[0] != "  nop" {
		t.Errorf("unexpected second asm block content: %q", blocks[1].Lines[0])
	}
}

func TestMissingIncludeIsFatal(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ent", "#include \"nope.ent\"\n")

	pp := New(Options{})
	_, _, err := pp.Preprocess(main)
	if err == nil {
		t.Fatal("expected error for missing include")
	}
	if !strings.Contains(err.Error(), "nope.ent") {
		t.Errorf("expected error to name the missing file, got: %v", err)
	}
}

func TestMalformedDirectiveIsFatal(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ent", "#bogus thing\n")

	pp := New(Options{})
	_, _, err := pp.Preprocess(main)
	if err == nil {
		t.Fatal("expected error for unknown directive")
	}
}

func TestIdempotentOnAlreadyPreprocessedOutput(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ent", "#define N 3\nfunction f() -> int32 {\n  return N;\n};\n")

	pp := New(Options{})
	first, _, err := pp.Preprocess(main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reentrant := writeFile(t, dir, "stage2.ent", first)
	pp2 := New(Options{})
	second, _, err := pp2.Preprocess(reentrant)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	if first != second {
		t.Fatalf("preprocessing already-preprocessed output changed it:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}
