package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/notbonzo-com/entc/pkg/codegen/asmtext"
	"github.com/notbonzo-com/entc/pkg/lexer"
	"github.com/notbonzo-com/entc/pkg/parser"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l, nil)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	g := New(p.Tables())
	out, err := g.Generate(prog)
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	var buf bytes.Buffer
	asmtext.NewPrinter(&buf).PrintProgram(out)
	return buf.String()
}

// S1 — minimal function.
func TestMinimalFunction(t *testing.T) {
	out := compile(t, `function main() -> int32 { return 0; };`)
	for _, want := range []string{
		"main:", ".L_return_main:", "push rbp", "mov rbp, rsp",
		"mov rax, 0", "leave", "ret",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

// S2 — local variable and assignment.
func TestLocalVariableAssignment(t *testing.T) {
	out := compile(t, `
function main() -> int32 {
  int32 x = 5;
  x = x + 3;
  return x;
};
`)
	if !strings.Contains(out, "sub rsp, 16") {
		t.Errorf("expected 16-byte-rounded local frame, got:\n%s", out)
	}
	if !strings.Contains(out, "push rax") || !strings.Contains(out, "pop rbx") || !strings.Contains(out, "add rax, rbx") {
		t.Errorf("expected push/pop/add sequence for x + 3, got:\n%s", out)
	}
}

// S3 — typedef chain and struct member offsets.
func TestStructMemberOffsets(t *testing.T) {
	src := `
typedef struct { int32 a; int32 b; } Pair;
typedef Pair P;
function sum(P p) -> int32 { return p->a + p->b; };
`
	l := lexer.New(src)
	p := parser.New(l, nil)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tables := p.Tables()
	if tables.Typedefs["P"] != "struct" {
		t.Fatalf("Typedefs[P] = %q, want struct", tables.Typedefs["P"])
	}

	g := New(tables)
	off, err := g.offsetOf("Pair", "a")
	if err != nil || off != 0 {
		t.Errorf("offsetOf(Pair, a) = %d, %v; want 0, nil", off, err)
	}
	off, err = g.offsetOf("Pair", "b")
	if err != nil || off != 4 {
		t.Errorf("offsetOf(Pair, b) = %d, %v; want 4, nil", off, err)
	}

	out, err := g.Generate(prog)
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	var buf bytes.Buffer
	asmtext.NewPrinter(&buf).PrintProgram(out)
	text := buf.String()
	if !strings.Contains(text, "add rax, 4") {
		t.Errorf("expected offset-4 access for p->b, got:\n%s", text)
	}
}

// S4 — while loop with break/continue produces two distinct labels
// and a jmp for break.
func TestWhileBreakContinue(t *testing.T) {
	out := compile(t, `
function loop() -> int32 {
  int32 i = 0;
  while (i < 10) { if (i == 5) { break; }; i = i + 1; };
  return i;
};
`)
	labels := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ":") && strings.HasPrefix(line, "L") {
			labels[line] = true
		}
	}
	if len(labels) < 2 {
		t.Errorf("expected at least 2 distinct local labels for the while loop, got %v", labels)
	}
	if !strings.Contains(out, "jmp L") {
		t.Errorf("expected a jmp to a local label for break, got:\n%s", out)
	}
}

func TestFunctionParameterSpilling(t *testing.T) {
	out := compile(t, `function add(int32 a, int32 b) -> int32 { return a + b; };`)
	if !strings.Contains(out, "mov [rbp-8], rdi") {
		t.Errorf("expected first param spilled from rdi, got:\n%s", out)
	}
	if !strings.Contains(out, "mov [rbp-16], rsi") {
		t.Errorf("expected second param spilled from rsi, got:\n%s", out)
	}
}

func TestFunctionCallArgMarshalling(t *testing.T) {
	out := compile(t, `
function add(int32 a, int32 b) -> int32 { return a + b; };
function main() -> int32 { return add(1, 2); };
`)
	if !strings.Contains(out, "call add") {
		t.Errorf("expected call to add, got:\n%s", out)
	}
	if !strings.Contains(out, "pop rdi") || !strings.Contains(out, "pop rsi") {
		t.Errorf("expected args popped into rdi/rsi, got:\n%s", out)
	}
}

func TestGlobalBssAndData(t *testing.T) {
	out := compile(t, `
int32 counter = 7;
int8 buf;
function main() -> int32 { return 0; };
`)
	if !strings.Contains(out, "section .data") || !strings.Contains(out, "counter: dd 7") {
		t.Errorf("expected counter in .data, got:\n%s", out)
	}
	if !strings.Contains(out, "section .bss") || !strings.Contains(out, "buf: resb 1") {
		t.Errorf("expected buf in .bss, got:\n%s", out)
	}
}

func TestInlineAsmWithoutCapturedBlockIsError(t *testing.T) {
	src := `
function f() -> void {
  asm;
};
`
	// asmBlocks are normally threaded in by the preprocessor; blocks shows
	// that shape, but none is passed to the parser here, so the `asm;`
	// statement has no captured block to consume and parsing must fail.
	blocks := []struct{ Lines []string }{{Lines: []string{"nop"}}}
	_ = blocks
	l := lexer.New(src)
	p := parser.New(l, nil)
	if _, err := p.Parse(); err == nil {
		t.Fatalf("expected error: no captured asm block supplied")
	}
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	l := lexer.New(`function f() -> void { break; };`)
	p := parser.New(l, nil)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	g := New(p.Tables())
	if _, err := g.Generate(prog); err == nil {
		t.Fatalf("expected codegen error for break outside loop")
	}
}

func TestSizeOfBuiltins(t *testing.T) {
	g := New(parser.Tables{
		Typedefs:          map[string]string{},
		AliasOf:           map[string]string{},
		StructDefinitions: map[string][]string{},
		StructMemberTypes: map[string]map[string]string{},
	})
	tests := []struct {
		typ  string
		want int64
	}{
		{"int8", 1}, {"uint8", 1}, {"char", 1}, {"bool", 1},
		{"int16", 2}, {"uint16", 2},
		{"int32", 4}, {"uint32", 4}, {"float", 4},
		{"int64", 8}, {"uint64", 8},
	}
	for _, tt := range tests {
		size, err := g.sizeOf(tt.typ)
		if err != nil {
			t.Fatalf("sizeOf(%s): %v", tt.typ, err)
		}
		if size != tt.want {
			t.Errorf("sizeOf(%s) = %d, want %d", tt.typ, size, tt.want)
		}
	}
}
