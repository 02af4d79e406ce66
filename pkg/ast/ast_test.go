package ast

import (
	"bytes"
	"testing"
)

func TestPrintProgramMinimalFunction(t *testing.T) {
	prog := &Program{
		Children: []TopLevel{
			Function{
				Name:       "main",
				ReturnType: "int32",
				Body: &Block{
					Statements: []Stmt{
						Return{Expr: Literal{Text: "0"}},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)

	got := buf.String()
	want := "function main() -> int32 {\n  return 0;\n};\n"
	if got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintBinaryExpression(t *testing.T) {
	e := Expression{Left: Identifier{Name: "x"}, Op: "+", Right: Literal{Text: "3"}}
	if got := printExpr(e); got != "(x + 3)" {
		t.Fatalf("got %q", got)
	}
}

func TestPrintUnaryExpression(t *testing.T) {
	e := Expression{Op: "-", Right: Identifier{Name: "x"}}
	if got := printExpr(e); got != "-x" {
		t.Fatalf("got %q", got)
	}
}

func TestPrintStructMemberAccessChain(t *testing.T) {
	e := StructMemberAccess{Base: Identifier{Name: "p"}, Members: []string{"a", "b"}}
	if got := printExpr(e); got != "p->a->b" {
		t.Fatalf("got %q", got)
	}
}

// Every node type embeds its children by value or owned pointer, never
// shares a subtree; walking twice from the root must visit the same
// literal text each time (a cheap proxy for acyclicity: no infinite
// recursion).
func TestTreeIsAcyclic(t *testing.T) {
	body := &Block{Statements: []Stmt{
		VarDeclAssign{Type: "int32", Name: "x", Init: Literal{Text: "1"}},
		While{
			Cond: Expression{Left: Identifier{Name: "x"}, Op: "<", Right: Literal{Text: "10"}},
			Body: &Block{Statements: []Stmt{Increment{Name: "x"}}},
		},
		Return{Expr: Identifier{Name: "x"}},
	}}
	fn := Function{Name: "f", ReturnType: "int32", Body: body}
	prog := &Program{Children: []TopLevel{fn}}

	var buf1, buf2 bytes.Buffer
	NewPrinter(&buf1).PrintProgram(prog)
	NewPrinter(&buf2).PrintProgram(prog)
	if buf1.String() != buf2.String() {
		t.Fatalf("printing the same tree twice produced different output")
	}
}
