package asmtext

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintMoveInstructions(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"MovRR", MovRR{Dst: RAX, Src: RBX}, "  mov rax, rbx\n"},
		{"MovRI", MovRI{Dst: RAX, Imm: 42}, "  mov rax, 42\n"},
		{"MovRM", MovRM{Dst: RAX, Src: Mem{Base: RBP, Disp: -8}}, "  mov rax, [rbp-8]\n"},
		{"MovMR", MovMR{Dst: Mem{Base: RBP, Disp: 16}, Src: RDI}, "  mov [rbp+16], rdi\n"},
		{"LeaRM", LeaRM{Dst: RAX, Src: Mem{Base: RBP, Disp: -8}}, "  lea rax, [rbp-8]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintArithmeticInstructions(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"add", ArithRR{Op: "add", Dst: RAX, Src: RBX}, "  add rax, rbx\n"},
		{"sub", ArithRR{Op: "sub", Dst: RAX, Src: RBX}, "  sub rax, rbx\n"},
		{"imul", ArithRR{Op: "imul", Dst: RAX, Src: RBX}, "  imul rax, rbx\n"},
		{"and", ArithRR{Op: "and", Dst: RAX, Src: RBX}, "  and rax, rbx\n"},
		{"or", ArithRR{Op: "or", Dst: RAX, Src: RBX}, "  or rax, rbx\n"},
		{"xor", ArithRR{Op: "xor", Dst: RDX, Src: RDX}, "  xor rdx, rdx\n"},
		{"cmp", ArithRR{Op: "cmp", Dst: RAX, Src: RBX}, "  cmp rax, rbx\n"},
		{"sub imm", ArithRI{Op: "sub", Dst: RSP, Imm: 16}, "  sub rsp, 16\n"},
		{"idiv", Idiv{Src: RBX}, "  idiv rbx\n"},
		{"neg", Neg{Dst: RAX}, "  neg rax\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintComparisonResultSequence(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printInstruction(ArithRR{Op: "cmp", Dst: RAX, Src: RBX})
	p.printInstruction(SetCC{Cond: "sete"})
	p.printInstruction(Movzx{Dst: RAX, Src: AL})

	want := "  cmp rax, rbx\n  sete al\n  movzx rax, al\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintStackAndControlFlow(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"push", Push{Src: RAX}, "  push rax\n"},
		{"pop", Pop{Dst: RBX}, "  pop rbx\n"},
		{"jmp", Jmp{Target: "L1"}, "  jmp L1\n"},
		{"je", Je{Target: "L2"}, "  je L2\n"},
		{"call", Call{Target: "helper"}, "  call helper\n"},
		{"leave", Leave{}, "  leave\n"},
		{"ret", Ret{}, "  ret\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintLabelDef(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printInstruction(LabelDef{Name: "L1"})
	if got := buf.String(); got != "L1:\n" {
		t.Errorf("got %q, want %q", got, "L1:\n")
	}
}

func TestPrintRawLine(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printInstruction(Raw{Text: "mov rax, 1"})
	if got := buf.String(); got != "  mov rax, 1\n" {
		t.Errorf("got %q", got)
	}
}

func TestPrintFunction(t *testing.T) {
	f := &Function{
		Name: "main",
		Code: []Instruction{
			Push{Src: RBP},
			MovRR{Dst: RBP, Src: RSP},
			MovRI{Dst: RAX, Imm: 0},
			Leave{},
			Ret{},
		},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).printFunction(f)
	out := buf.String()

	if !strings.Contains(out, "main:") {
		t.Error("missing function label")
	}
	if !strings.Contains(out, "push rbp") {
		t.Error("missing prologue push")
	}
	if !strings.Contains(out, "leave") || !strings.Contains(out, "ret") {
		t.Error("missing epilogue")
	}
}

func TestPrintProgramSections(t *testing.T) {
	prog := &Program{
		Data: []DataItem{{Name: "msg", Dir: "db", Values: []int64{104, 105, 0}}},
		Bss:  []BssItem{{Name: "buf", Dir: "resb", Count: 64}},
		Functions: []*Function{
			{Name: "main", Code: []Instruction{MovRI{Dst: RAX, Imm: 0}, Ret{}}},
		},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)
	out := buf.String()

	if !strings.Contains(out, "section .data") {
		t.Error("missing .data section")
	}
	if !strings.Contains(out, "msg: db") {
		t.Error("missing data item")
	}
	if !strings.Contains(out, "section .bss") {
		t.Error("missing .bss section")
	}
	if !strings.Contains(out, "buf: resb 64") {
		t.Error("missing bss item")
	}
	if !strings.Contains(out, "section .text") {
		t.Error("missing .text section")
	}
	if !strings.Contains(out, "global main") {
		t.Error("missing global directive for main")
	}
}
