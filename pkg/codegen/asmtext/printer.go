package asmtext

import (
	"fmt"
	"io"
)

// Printer renders a Program as Intel-syntax x86-64 assembly text, one
// instruction per output line, matching spec.md §6.4's section and
// label conventions.
type Printer struct {
	w io.Writer
}

// NewPrinter creates an assembly text printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram emits the full translation unit: .data, then .bss,
// then .text with every function.
func (p *Printer) PrintProgram(prog *Program) {
	if len(prog.Data) > 0 {
		fmt.Fprintln(p.w, "section .data")
		for _, d := range prog.Data {
			p.printDataItem(d)
		}
		fmt.Fprintln(p.w)
	}
	if len(prog.Bss) > 0 {
		fmt.Fprintln(p.w, "section .bss")
		for _, b := range prog.Bss {
			fmt.Fprintf(p.w, "%s: %s %d\n", b.Name, b.Dir, b.Count)
		}
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w, "section .text")
	for _, f := range prog.Functions {
		fmt.Fprintf(p.w, "global %s\n", f.Name)
	}
	fmt.Fprintln(p.w)
	for _, inst := range prog.Prelude {
		p.printInstruction(inst)
	}
	for _, f := range prog.Functions {
		p.printFunction(f)
	}
}

func (p *Printer) printDataItem(d DataItem) {
	fmt.Fprintf(p.w, "%s: %s ", d.Name, d.Dir)
	for i, v := range d.Values {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		fmt.Fprintf(p.w, "%d", v)
	}
	fmt.Fprintln(p.w)
}

func (p *Printer) printFunction(f *Function) {
	fmt.Fprintf(p.w, "%s:\n", f.Name)
	for _, inst := range f.Code {
		p.printInstruction(inst)
	}
	fmt.Fprintln(p.w)
}

func memStr(m Mem) string {
	if m.Disp == 0 {
		return fmt.Sprintf("[%s]", m.Base)
	}
	if m.Disp > 0 {
		return fmt.Sprintf("[%s+%d]", m.Base, m.Disp)
	}
	return fmt.Sprintf("[%s%d]", m.Base, m.Disp)
}

func (p *Printer) printInstruction(inst Instruction) {
	switch i := inst.(type) {
	case LabelDef:
		fmt.Fprintf(p.w, "%s:\n", i.Name)
	case Directive:
		fmt.Fprintf(p.w, "  %s\n", i.Text)
	case MovRR:
		fmt.Fprintf(p.w, "  mov %s, %s\n", i.Dst, i.Src)
	case MovRI:
		fmt.Fprintf(p.w, "  mov %s, %d\n", i.Dst, i.Imm)
	case MovRM:
		fmt.Fprintf(p.w, "  mov %s, %s\n", i.Dst, memStr(i.Src))
	case MovMR:
		fmt.Fprintf(p.w, "  mov %s, %s\n", memStr(i.Dst), i.Src)
	case MovMI:
		fmt.Fprintf(p.w, "  mov %s %s, %d\n", i.Size, memStr(i.Dst), i.Imm)
	case LeaRM:
		fmt.Fprintf(p.w, "  lea %s, %s\n", i.Dst, memStr(i.Src))
	case ArithRR:
		fmt.Fprintf(p.w, "  %s %s, %s\n", i.Op, i.Dst, i.Src)
	case ArithRI:
		fmt.Fprintf(p.w, "  %s %s, %d\n", i.Op, i.Dst, i.Imm)
	case Idiv:
		fmt.Fprintf(p.w, "  idiv %s\n", i.Src)
	case Neg:
		fmt.Fprintf(p.w, "  neg %s\n", i.Dst)
	case SetCC:
		fmt.Fprintf(p.w, "  %s al\n", i.Cond)
	case Movzx:
		fmt.Fprintf(p.w, "  movzx %s, %s\n", i.Dst, i.Src)
	case Push:
		fmt.Fprintf(p.w, "  push %s\n", i.Src)
	case Pop:
		fmt.Fprintf(p.w, "  pop %s\n", i.Dst)
	case Jmp:
		fmt.Fprintf(p.w, "  jmp %s\n", i.Target)
	case Je:
		fmt.Fprintf(p.w, "  je %s\n", i.Target)
	case Call:
		fmt.Fprintf(p.w, "  call %s\n", i.Target)
	case Leave:
		fmt.Fprintln(p.w, "  leave")
	case Ret:
		fmt.Fprintln(p.w, "  ret")
	case Raw:
		fmt.Fprintf(p.w, "  %s\n", i.Text)
	default:
		fmt.Fprintf(p.w, "  ; unknown instruction %T\n", inst)
	}
}
