// Package asmtext defines the x86-64 Intel-syntax assembly text model
// emitted by the code generator: sections, labels, registers and the
// small instruction set the naive backend actually needs. It plays the
// role the teacher's pkg/asm package played for ARM64, rebuilt for
// System V AMD64 with no register allocator and no IR underneath it —
// the code generator constructs Instruction values directly while
// walking the AST.
package asmtext

// Reg names a System V AMD64 general-purpose register. There is no
// enumeration of the full ISA register file: only the registers the
// naive calling convention and expression evaluator ever touch.
type Reg string

const (
	RAX Reg = "rax"
	RBX Reg = "rbx"
	RCX Reg = "rcx"
	RDX Reg = "rdx"
	RSI Reg = "rsi"
	RDI Reg = "rdi"
	RBP Reg = "rbp"
	RSP Reg = "rsp"
	R8  Reg = "r8"
	R9  Reg = "r9"
	AL  Reg = "al"
)

// ArgRegs holds the six System V integer argument registers in order.
var ArgRegs = [6]Reg{RDI, RSI, RDX, RCX, R8, R9}

// Label is a branch or call target.
type Label string

// Mem is an rbp/rip-relative or register-indirect memory operand,
// rendered as Intel-syntax `[base+disp]` / `[base-disp]` / `[base]`.
type Mem struct {
	Base Reg
	Disp int64 // 0 means no displacement printed
}

// Instruction is implemented by every emittable assembly line.
type Instruction interface {
	implInstruction()
}

// LabelDef defines a label at the current position.
type LabelDef struct{ Name Label }

// Directive is a bare assembler directive line (e.g. section markers
// handled by the printer itself do not need this; this is for the
// rare one-off like `.p2align`).
type Directive struct{ Text string }

// MovRR is `mov dst, src` between two registers.
type MovRR struct{ Dst, Src Reg }

// MovRI is `mov dst, imm`.
type MovRI struct {
	Dst Reg
	Imm int64
}

// MovRM is `mov dst, [mem]` — a load.
type MovRM struct {
	Dst Reg
	Src Mem
}

// MovMR is `mov [mem], src` — a store.
type MovMR struct {
	Dst Mem
	Src Reg
}

// MovMI is `mov [mem], imm` with an explicit operand-size directive
// (e.g. `dword`). The code generator does not currently emit it.
type MovMI struct {
	Dst  Mem
	Imm  int64
	Size string // "byte", "word", "dword", "qword"
}

// LeaRM is `lea dst, [mem]` — address-of without dereferencing.
type LeaRM struct {
	Dst Reg
	Src Mem
}

// ArithRR covers two-register arithmetic/logic ops that share the
// `op dst, src` shape: add, sub, imul, and, or, xor, cmp.
type ArithRR struct {
	Op       string
	Dst, Src Reg
}

// ArithRI is the immediate form of ArithRR, e.g. `sub rsp, 16`.
type ArithRI struct {
	Op  string
	Dst Reg
	Imm int64
}

// Idiv is `idiv src`; the dividend is the rdx:rax pair by convention.
type Idiv struct{ Src Reg }

// Neg is `neg dst`.
type Neg struct{ Dst Reg }

// SetCC is one of sete/setne/setl/setle/setg/setge, always targeting
// al per spec.md's expression-evaluation table.
type SetCC struct{ Cond string }

// Movzx is `movzx rax, al`, widening a comparison result.
type Movzx struct {
	Dst, Src Reg
}

// Push/Pop are stack operations on a full register.
type Push struct{ Src Reg }
type Pop struct{ Dst Reg }

// Jmp is an unconditional jump.
type Jmp struct{ Target Label }

// Je is `je target`, the only conditional jump the naive backend
// needs (if/while both reduce their condition to a zero test first).
type Je struct{ Target Label }

// Call is `call target`.
type Call struct{ Target Label }

// Leave is the `leave` instruction (mov rsp, rbp; pop rbp).
type Leave struct{}

// Ret is `ret`.
type Ret struct{}

// Raw emits a line of text verbatim, used for inline-asm bodies
// (spec.md §4.4.8: captured lines are emitted one per output line,
// unmodified).
type Raw struct{ Text string }

func (LabelDef) implInstruction()  {}
func (Directive) implInstruction() {}
func (MovRR) implInstruction()     {}
func (MovRI) implInstruction()     {}
func (MovRM) implInstruction()     {}
func (MovMR) implInstruction()     {}
func (MovMI) implInstruction()     {}
func (LeaRM) implInstruction()     {}
func (ArithRR) implInstruction()   {}
func (ArithRI) implInstruction()   {}
func (Idiv) implInstruction()      {}
func (Neg) implInstruction()       {}
func (SetCC) implInstruction()     {}
func (Movzx) implInstruction()     {}
func (Push) implInstruction()      {}
func (Pop) implInstruction()       {}
func (Jmp) implInstruction()       {}
func (Je) implInstruction()        {}
func (Call) implInstruction()      {}
func (Leave) implInstruction()     {}
func (Ret) implInstruction()       {}
func (Raw) implInstruction()       {}

// Function is one assembled function: a global label followed by its
// instruction stream.
type Function struct {
	Name string
	Code []Instruction
}

// NewFunction starts an empty function body.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// Emit appends one instruction.
func (f *Function) Emit(inst Instruction) {
	f.Code = append(f.Code, inst)
}

// EmitLabel appends a label definition.
func (f *Function) EmitLabel(name Label) {
	f.Code = append(f.Code, LabelDef{Name: name})
}

// DataItem is one initialized `.data` global.
type DataItem struct {
	Name string
	Dir  string // "db", "dw", "dd", "dq"
	Values []int64
}

// BssItem is one uninitialized `.bss` reservation.
type BssItem struct {
	Name string
	Dir  string // "resb", "resw", "resd", "resq"
	Count int64
}

// Program is a complete assembly translation unit.
type Program struct {
	Data      []DataItem
	Bss       []BssItem
	Functions []*Function

	// Prelude holds top-level `asm;` blocks: raw lines emitted into
	// .text ahead of every function, outside any frame.
	Prelude []Instruction
}
