// Package codegen walks the Ent AST once and emits x86-64 Intel-syntax
// assembly text. There is no intermediate representation and no
// register allocator: every expression evaluates through `rax`/`rbx`
// and every local lives at a fixed `rbp`-relative offset decided while
// walking the tree, the way the teacher's naive backends worked before
// CompCert's RTL/LTL/Mach pipeline was introduced.
package codegen

import (
	"fmt"

	"github.com/notbonzo-com/entc/pkg/ast"
	"github.com/notbonzo-com/entc/pkg/codegen/asmtext"
	"github.com/notbonzo-com/entc/pkg/parser"
)

// varSlot records where a local or parameter lives relative to rbp.
type varSlot struct {
	offset int64
	typ    string
}

type loopLabels struct {
	start asmtext.Label
	end   asmtext.Label
}

// Generator produces an assembly Program from a parsed AST, given the
// type/struct tables the Parser accumulated. It is used once per
// compilation and discarded.
type Generator struct {
	tables parser.Tables

	scopedStack  []map[string]varSlot
	frameDepth   int64 // bytes currently reserved below rbp
	labelCounter int
	loopStack    []loopLabels

	fn          *asmtext.Function
	prog        *asmtext.Program
	returnLabel asmtext.Label
}

// New creates a Generator over the symbol tables produced by a
// successful parse.
func New(tables parser.Tables) *Generator {
	return &Generator{tables: tables}
}

// Generate lowers prog into a complete assembly translation unit.
func (g *Generator) Generate(prog *ast.Program) (*asmtext.Program, error) {
	g.prog = &asmtext.Program{}
	for _, top := range prog.Children {
		if err := g.genTopLevel(top); err != nil {
			return nil, err
		}
	}
	return g.prog, nil
}

func (g *Generator) genTopLevel(top ast.TopLevel) error {
	switch n := top.(type) {
	case ast.Header:
		for _, item := range n.Items {
			if err := g.genTopLevel(item); err != nil {
				return err
			}
		}
		return nil
	case ast.FunctionPrototype:
		return nil
	case ast.Function:
		return g.genFunction(n)
	case ast.Typedef:
		return nil
	case ast.GlobalVarDecl:
		return g.genGlobalDecl(n)
	case ast.GlobalVarDeclAssign:
		return g.genGlobalDeclAssign(n)
	case ast.InlineAsm:
		for _, line := range n.Lines {
			g.prog.Prelude = append(g.prog.Prelude, asmtext.Raw{Text: line})
		}
		return nil
	default:
		return fmt.Errorf("codegen: unhandled top-level node %T", top)
	}
}

// --- type resolution ---

func (g *Generator) resolveTerminal(typeName string) string {
	if t, ok := g.tables.Typedefs[typeName]; ok {
		return t
	}
	return typeName
}

// resolveStructBase walks the alias chain from typeName until it lands
// on a name with a struct body, mirroring the parser's own resolution
// (pkg/parser) so codegen and parsing agree on which struct a typedef
// chain actually denotes.
func (g *Generator) resolveStructBase(typeName string) (string, bool) {
	if _, ok := g.tables.StructDefinitions[typeName]; ok {
		return typeName, true
	}
	if alias, ok := g.tables.AliasOf[typeName]; ok {
		return g.resolveStructBase(alias)
	}
	return "", false
}

func (g *Generator) sizeOf(typeName string) (int64, error) {
	switch typeName {
	case "int8", "uint8", "char", "bool":
		return 1, nil
	case "int16", "uint16":
		return 2, nil
	case "int32", "uint32", "float":
		return 4, nil
	case "int64", "uint64":
		return 8, nil
	case "void":
		return 0, nil
	}
	if structName, ok := g.resolveStructBase(typeName); ok {
		var total int64
		for _, m := range g.tables.StructDefinitions[structName] {
			memberType := g.tables.StructMemberTypes[structName][m]
			size, err := g.sizeOf(memberType)
			if err != nil {
				return 0, err
			}
			total += size
		}
		return total, nil
	}
	terminal := g.resolveTerminal(typeName)
	if terminal != typeName && terminal != "struct" {
		return g.sizeOf(terminal)
	}
	return 0, fmt.Errorf("codegen: unknown type size for %q", typeName)
}

// offsetOf returns the byte offset of member within the struct named
// structName: the prefix sum of preceding members' sizes.
func (g *Generator) offsetOf(structName, member string) (int64, error) {
	members, ok := g.tables.StructDefinitions[structName]
	if !ok {
		return 0, fmt.Errorf("codegen: %q is not a known struct", structName)
	}
	var offset int64
	for _, m := range members {
		if m == member {
			return offset, nil
		}
		size, err := g.sizeOf(g.tables.StructMemberTypes[structName][m])
		if err != nil {
			return 0, err
		}
		offset += size
	}
	return 0, fmt.Errorf("codegen: struct %q has no member %q", structName, member)
}

func (g *Generator) bssDirective(size int64) (string, error) {
	switch size {
	case 1:
		return "resb", nil
	case 2:
		return "resw", nil
	case 4:
		return "resd", nil
	case 8:
		return "resq", nil
	default:
		return "", fmt.Errorf("codegen: no .bss directive for size %d", size)
	}
}

func (g *Generator) dataDirective(size int64) (string, error) {
	switch size {
	case 1:
		return "db", nil
	case 2:
		return "dw", nil
	case 4:
		return "dd", nil
	case 8:
		return "dq", nil
	default:
		return "", fmt.Errorf("codegen: no .data directive for size %d", size)
	}
}

// --- globals ---

func (g *Generator) genGlobalDecl(n ast.GlobalVarDecl) error {
	size, err := g.sizeOf(n.Type)
	if err != nil {
		return err
	}
	dir, err := g.bssDirective(size)
	if err != nil {
		return err
	}
	g.prog.Bss = append(g.prog.Bss, asmtext.BssItem{Name: n.Name, Dir: dir, Count: 1})
	return nil
}

func (g *Generator) genGlobalDeclAssign(n ast.GlobalVarDeclAssign) error {
	size, err := g.sizeOf(n.Type)
	if err != nil {
		return err
	}
	dir, err := g.dataDirective(size)
	if err != nil {
		return err
	}
	lit, ok := n.Init.(ast.Literal)
	if !ok {
		return fmt.Errorf("codegen: global %q initializer must be a constant literal", n.Name)
	}
	var value int64
	if _, err := fmt.Sscanf(lit.Text, "%d", &value); err != nil {
		return fmt.Errorf("codegen: global %q has non-integer initializer %q", n.Name, lit.Text)
	}
	g.prog.Data = append(g.prog.Data, asmtext.DataItem{Name: n.Name, Dir: dir, Values: []int64{value}})
	return nil
}

// --- functions ---

func (g *Generator) newLabel(prefix string) asmtext.Label {
	g.labelCounter++
	return asmtext.Label(fmt.Sprintf("%s%d", prefix, g.labelCounter))
}

func roundUp16(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return (n + 15) &^ 15
}

func (g *Generator) pushScope() {
	g.scopedStack = append(g.scopedStack, make(map[string]varSlot))
}

func (g *Generator) popScope() {
	g.scopedStack = g.scopedStack[:len(g.scopedStack)-1]
}

func (g *Generator) lookupVar(name string) (varSlot, bool) {
	for i := len(g.scopedStack) - 1; i >= 0; i-- {
		if s, ok := g.scopedStack[i][name]; ok {
			return s, true
		}
	}
	return varSlot{}, false
}

func (g *Generator) declareVar(name, typeName string, offset int64) {
	g.scopedStack[len(g.scopedStack)-1][name] = varSlot{offset: offset, typ: typeName}
}

func (g *Generator) genFunction(fn ast.Function) error {
	g.fn = asmtext.NewFunction(fn.Name)
	g.frameDepth = 0
	g.scopedStack = nil
	g.pushScope()

	g.fn.Emit(asmtext.Push{Src: asmtext.RBP})
	g.fn.Emit(asmtext.MovRR{Dst: asmtext.RBP, Src: asmtext.RSP})

	regParams := fn.Params
	if len(regParams) > 6 {
		regParams = regParams[:6]
	}
	spillSize := roundUp16(int64(8 * len(regParams)))
	if spillSize > 0 {
		g.fn.Emit(asmtext.ArithRI{Op: "sub", Dst: asmtext.RSP, Imm: spillSize})
	}
	g.frameDepth = spillSize

	for i, param := range fn.Params {
		if i < 6 {
			offset := -8 * int64(i+1)
			g.declareVar(param.Name, param.Type, offset)
			g.fn.Emit(asmtext.MovMR{Dst: asmtext.Mem{Base: asmtext.RBP, Disp: offset}, Src: asmtext.ArgRegs[i]})
		} else {
			// Stack-passed: [rbp+16], [rbp+24], ... in declaration order.
			offset := int64(16 + 8*(i-6))
			g.declareVar(param.Name, param.Type, offset)
		}
	}

	returnLabel := asmtext.Label(".L_return_" + fn.Name)
	if err := g.genBlockBody(fn.Body, returnLabel); err != nil {
		g.popScope()
		return err
	}
	g.popScope()

	g.fn.EmitLabel(returnLabel)
	g.fn.Emit(asmtext.Leave{})
	g.fn.Emit(asmtext.Ret{})

	g.prog.Functions = append(g.prog.Functions, g.fn)
	return nil
}

// genBlockBody generates a function body's outer block: it reuses the
// scope already pushed by the caller (for parameters) rather than
// pushing a second one, since both the call site and this function
// treat the body's braces as the same frame parameters live in.
func (g *Generator) genBlockBody(block *ast.Block, returnLabel asmtext.Label) error {
	g.returnLabel = returnLabel
	return g.genBlockStatements(block)
}

// genBlock generates a nested `{ ... }` block: its own scope frame and
// its own locals reservation, per spec.
func (g *Generator) genBlock(block *ast.Block) error {
	g.pushScope()
	err := g.genBlockStatements(block)
	g.popScope()
	return err
}

func (g *Generator) genBlockStatements(block *ast.Block) error {
	var localSize int64
	type pendingLocal struct {
		name   string
		typ    string
		offset int64
	}
	var locals []pendingLocal
	cursor := g.frameDepth

	for _, stmt := range block.Statements {
		var name, typ string
		switch s := stmt.(type) {
		case ast.VarDecl:
			name, typ = s.Name, s.Type
		case ast.VarDeclAssign:
			name, typ = s.Name, s.Type
		default:
			continue
		}
		size, err := g.sizeOf(typ)
		if err != nil {
			return err
		}
		cursor += size
		locals = append(locals, pendingLocal{name: name, typ: typ, offset: -cursor})
		localSize += size
	}

	padded := roundUp16(localSize)
	if padded > 0 {
		g.fn.Emit(asmtext.ArithRI{Op: "sub", Dst: asmtext.RSP, Imm: padded})
	}
	g.frameDepth += padded
	for _, l := range locals {
		g.declareVar(l.name, l.typ, l.offset)
	}

	for _, stmt := range block.Statements {
		if err := g.genStmt(stmt); err != nil {
			return err
		}
	}

	if padded > 0 {
		g.fn.Emit(asmtext.ArithRI{Op: "add", Dst: asmtext.RSP, Imm: padded})
	}
	g.frameDepth -= padded
	return nil
}

// --- statements ---

func (g *Generator) genStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case ast.VarDecl:
		return nil
	case ast.VarDeclAssign:
		slot, ok := g.lookupVar(s.Name)
		if !ok {
			return fmt.Errorf("codegen: variable %q not in any scope", s.Name)
		}
		if err := g.genExpr(s.Init); err != nil {
			return err
		}
		g.fn.Emit(asmtext.MovMR{Dst: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}, Src: asmtext.RAX})
		return nil
	case ast.Assign:
		slot, ok := g.lookupVar(s.Name)
		if !ok {
			return fmt.Errorf("codegen: variable %q not in any scope", s.Name)
		}
		if err := g.genExpr(s.Expr); err != nil {
			return err
		}
		g.fn.Emit(asmtext.MovMR{Dst: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}, Src: asmtext.RAX})
		return nil
	case ast.IndexationAssign:
		return g.genIndexationAssign(s)
	case ast.MemoryAssign:
		return g.genMemoryAssign(s)
	case ast.StructMemberAssign:
		return g.genStructMemberAssign(s)
	case ast.Increment:
		return g.genIncDec(s.Name, "add")
	case ast.Decrement:
		return g.genIncDec(s.Name, "sub")
	case ast.Return:
		if s.Expr != nil {
			if err := g.genExpr(s.Expr); err != nil {
				return err
			}
		}
		g.fn.Emit(asmtext.Jmp{Target: g.returnLabel})
		return nil
	case ast.If:
		return g.genIf(s)
	case ast.While:
		return g.genWhile(s)
	case ast.Switch:
		return g.genSwitch(s)
	case ast.Continue:
		if len(g.loopStack) == 0 {
			return fmt.Errorf("codegen: continue outside loop")
		}
		g.fn.Emit(asmtext.Jmp{Target: g.loopStack[len(g.loopStack)-1].start})
		return nil
	case ast.Break:
		if len(g.loopStack) == 0 {
			return fmt.Errorf("codegen: break outside loop")
		}
		g.fn.Emit(asmtext.Jmp{Target: g.loopStack[len(g.loopStack)-1].end})
		return nil
	case ast.FunctionCall:
		_, err := g.genCall(s.Name, s.Args)
		return err
	case ast.InlineAsm:
		for _, line := range s.Lines {
			g.fn.Emit(asmtext.Raw{Text: line})
		}
		return nil
	default:
		return fmt.Errorf("codegen: unhandled statement %T", stmt)
	}
}

func (g *Generator) genIncDec(name, op string) error {
	slot, ok := g.lookupVar(name)
	if !ok {
		return fmt.Errorf("codegen: variable %q not in any scope", name)
	}
	g.fn.Emit(asmtext.MovRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}})
	g.fn.Emit(asmtext.ArithRI{Op: op, Dst: asmtext.RAX, Imm: 1})
	g.fn.Emit(asmtext.MovMR{Dst: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}, Src: asmtext.RAX})
	return nil
}

func (g *Generator) genIndexationAssign(s ast.IndexationAssign) error {
	slot, ok := g.lookupVar(s.Name)
	if !ok {
		return fmt.Errorf("codegen: variable %q not in any scope", s.Name)
	}
	g.fn.Emit(asmtext.LeaRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}})
	g.fn.Emit(asmtext.Push{Src: asmtext.RAX})
	if err := g.genExpr(s.Index); err != nil {
		return err
	}
	g.fn.Emit(asmtext.Pop{Dst: asmtext.RBX})
	g.fn.Emit(asmtext.ArithRR{Op: "add", Dst: asmtext.RBX, Src: asmtext.RAX})
	g.fn.Emit(asmtext.Push{Src: asmtext.RBX})
	if err := g.genExpr(s.Expr); err != nil {
		return err
	}
	g.fn.Emit(asmtext.Pop{Dst: asmtext.RBX})
	g.fn.Emit(asmtext.MovMR{Dst: asmtext.Mem{Base: asmtext.RBX}, Src: asmtext.RAX})
	return nil
}

func (g *Generator) genMemoryAssign(s ast.MemoryAssign) error {
	slot, ok := g.lookupVar(s.Name)
	if !ok {
		return fmt.Errorf("codegen: variable %q not in any scope", s.Name)
	}
	if err := g.genExpr(s.Expr); err != nil {
		return err
	}
	g.fn.Emit(asmtext.MovRM{Dst: asmtext.RBX, Src: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}})
	g.fn.Emit(asmtext.MovMR{Dst: asmtext.Mem{Base: asmtext.RBX}, Src: asmtext.RAX})
	return nil
}

// genMemberAccessAddress evaluates a struct-member chain's base
// address once into rax, then accumulates each hop's offset.
func (g *Generator) genMemberAccessAddress(access ast.StructMemberAccess) (string, error) {
	ident, ok := access.Base.(ast.Identifier)
	if !ok {
		return "", fmt.Errorf("codegen: struct member base must be a plain identifier")
	}
	slot, ok := g.lookupVar(ident.Name)
	if !ok {
		return "", fmt.Errorf("codegen: variable %q not in any scope", ident.Name)
	}
	g.fn.Emit(asmtext.LeaRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}})

	currentType := slot.typ
	for _, member := range access.Members {
		structName, ok := g.resolveStructBase(currentType)
		if !ok {
			return "", fmt.Errorf("codegen: type %q is not a struct", currentType)
		}
		off, err := g.offsetOf(structName, member)
		if err != nil {
			return "", err
		}
		if off != 0 {
			g.fn.Emit(asmtext.ArithRI{Op: "add", Dst: asmtext.RAX, Imm: off})
		}
		currentType = g.tables.StructMemberTypes[structName][member]
	}
	return currentType, nil
}

func (g *Generator) genStructMemberAssign(s ast.StructMemberAssign) error {
	if _, err := g.genMemberAccessAddress(s.Access); err != nil {
		return err
	}
	g.fn.Emit(asmtext.Push{Src: asmtext.RAX})
	if err := g.genExpr(s.Expr); err != nil {
		return err
	}
	g.fn.Emit(asmtext.Pop{Dst: asmtext.RBX})
	g.fn.Emit(asmtext.MovMR{Dst: asmtext.Mem{Base: asmtext.RBX}, Src: asmtext.RAX})
	return nil
}

func (g *Generator) genIf(s ast.If) error {
	elseLabel := g.newLabel("L")
	endLabel := g.newLabel("L")

	if err := g.genExpr(s.Cond); err != nil {
		return err
	}
	g.fn.Emit(asmtext.ArithRI{Op: "cmp", Dst: asmtext.RAX, Imm: 0})
	g.fn.Emit(asmtext.Je{Target: elseLabel})

	if err := g.genBlock(s.Then); err != nil {
		return err
	}
	g.fn.Emit(asmtext.Jmp{Target: endLabel})

	g.fn.EmitLabel(elseLabel)
	if s.Else != nil {
		if err := g.genBlock(s.Else); err != nil {
			return err
		}
	}
	g.fn.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genWhile(s ast.While) error {
	startLabel := g.newLabel("L")
	endLabel := g.newLabel("L")

	g.fn.EmitLabel(startLabel)
	if err := g.genExpr(s.Cond); err != nil {
		return err
	}
	g.fn.Emit(asmtext.ArithRI{Op: "cmp", Dst: asmtext.RAX, Imm: 0})
	g.fn.Emit(asmtext.Je{Target: endLabel})

	g.loopStack = append(g.loopStack, loopLabels{start: startLabel, end: endLabel})
	err := g.genBlock(s.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	if err != nil {
		return err
	}

	g.fn.Emit(asmtext.Jmp{Target: startLabel})
	g.fn.EmitLabel(endLabel)
	return nil
}

func (g *Generator) genSwitch(s ast.Switch) error {
	if err := g.genExpr(s.Cond); err != nil {
		return err
	}
	g.fn.Emit(asmtext.MovRR{Dst: asmtext.RBX, Src: asmtext.RAX})

	endLabel := g.newLabel("L")
	defaultLabel := endLabel
	caseLabels := make([]asmtext.Label, len(s.Cases))
	for i, c := range s.Cases {
		if _, ok := c.(ast.Default); ok {
			defaultLabel = g.newLabel("L")
			caseLabels[i] = defaultLabel
			continue
		}
		caseLabels[i] = g.newLabel("L")
	}

	for i, c := range s.Cases {
		cse, ok := c.(ast.Case)
		if !ok {
			continue
		}
		lit, ok := cse.Value.(ast.Literal)
		if !ok {
			return fmt.Errorf("codegen: switch case value must be a constant literal")
		}
		var value int64
		if _, err := fmt.Sscanf(lit.Text, "%d", &value); err != nil {
			return fmt.Errorf("codegen: switch case value %q is not an integer", lit.Text)
		}
		g.fn.Emit(asmtext.ArithRI{Op: "cmp", Dst: asmtext.RBX, Imm: value})
		g.fn.Emit(asmtext.Je{Target: caseLabels[i]})
	}
	g.fn.Emit(asmtext.Jmp{Target: defaultLabel})

	for i, c := range s.Cases {
		g.fn.EmitLabel(caseLabels[i])
		var body *ast.Block
		switch cse := c.(type) {
		case ast.Case:
			body = cse.Body
		case ast.Default:
			body = cse.Body
		}
		if err := g.genBlock(body); err != nil {
			return err
		}
	}
	g.fn.EmitLabel(endLabel)
	return nil
}

// --- expressions ---

var compareSetCC = map[string]string{
	"==": "sete",
	"!=": "setne",
	"<":  "setl",
	"<=": "setle",
	">":  "setg",
	">=": "setge",
}

func (g *Generator) genExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case ast.Literal:
		var value int64
		if _, err := fmt.Sscanf(e.Text, "%d", &value); err != nil {
			return fmt.Errorf("codegen: literal %q is not an integer", e.Text)
		}
		g.fn.Emit(asmtext.MovRI{Dst: asmtext.RAX, Imm: value})
		return nil

	case ast.StringLiteral:
		return fmt.Errorf("codegen: string literals require a .data entry, not yet addressable from this expression context")

	case ast.Identifier:
		slot, ok := g.lookupVar(e.Name)
		if !ok {
			return fmt.Errorf("codegen: variable %q not in any scope", e.Name)
		}
		g.fn.Emit(asmtext.MovRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}})
		return nil

	case ast.MemoryAddress:
		slot, ok := g.lookupVar(e.Name)
		if !ok {
			return fmt.Errorf("codegen: variable %q not in any scope", e.Name)
		}
		g.fn.Emit(asmtext.MovRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}})
		g.fn.Emit(asmtext.MovRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RAX}})
		return nil

	case ast.Index:
		slot, ok := g.lookupVar(e.Name)
		if !ok {
			return fmt.Errorf("codegen: variable %q not in any scope", e.Name)
		}
		g.fn.Emit(asmtext.MovRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RBP, Disp: slot.offset}})
		g.fn.Emit(asmtext.Push{Src: asmtext.RAX})
		if err := g.genExpr(e.Expr); err != nil {
			return err
		}
		g.fn.Emit(asmtext.Pop{Dst: asmtext.RBX})
		g.fn.Emit(asmtext.ArithRR{Op: "add", Dst: asmtext.RBX, Src: asmtext.RAX})
		g.fn.Emit(asmtext.MovRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RBX}})
		return nil

	case ast.StructMemberAccess:
		_, err := g.genMemberAccessAddress(e)
		if err != nil {
			return err
		}
		g.fn.Emit(asmtext.MovRM{Dst: asmtext.RAX, Src: asmtext.Mem{Base: asmtext.RAX}})
		return nil

	case ast.CallExpr:
		_, err := g.genCall(e.Name, e.Args)
		return err

	case ast.Expression:
		if e.Left == nil {
			return g.genUnary(e)
		}
		return g.genBinary(e)

	default:
		return fmt.Errorf("codegen: unhandled expression %T", expr)
	}
}

func (g *Generator) genUnary(e ast.Expression) error {
	if err := g.genExpr(e.Right); err != nil {
		return err
	}
	switch e.Op {
	case "-":
		g.fn.Emit(asmtext.Neg{Dst: asmtext.RAX})
	case "!":
		g.fn.Emit(asmtext.ArithRI{Op: "cmp", Dst: asmtext.RAX, Imm: 0})
		g.fn.Emit(asmtext.SetCC{Cond: "sete"})
		g.fn.Emit(asmtext.Movzx{Dst: asmtext.RAX, Src: asmtext.AL})
	default:
		return fmt.Errorf("codegen: unknown unary operator %q", e.Op)
	}
	return nil
}

func (g *Generator) genBinary(e ast.Expression) error {
	if err := g.genExpr(e.Left); err != nil {
		return err
	}
	g.fn.Emit(asmtext.Push{Src: asmtext.RAX})
	if err := g.genExpr(e.Right); err != nil {
		return err
	}
	g.fn.Emit(asmtext.Pop{Dst: asmtext.RBX})

	switch e.Op {
	case "+":
		g.fn.Emit(asmtext.ArithRR{Op: "add", Dst: asmtext.RAX, Src: asmtext.RBX})
	case "-":
		g.fn.Emit(asmtext.ArithRR{Op: "sub", Dst: asmtext.RAX, Src: asmtext.RBX})
	case "*":
		g.fn.Emit(asmtext.ArithRR{Op: "imul", Dst: asmtext.RAX, Src: asmtext.RBX})
	case "/":
		g.fn.Emit(asmtext.ArithRR{Op: "xor", Dst: asmtext.RDX, Src: asmtext.RDX})
		g.fn.Emit(asmtext.Idiv{Src: asmtext.RBX})
	case "&":
		g.fn.Emit(asmtext.ArithRR{Op: "and", Dst: asmtext.RAX, Src: asmtext.RBX})
	case "|":
		g.fn.Emit(asmtext.ArithRR{Op: "or", Dst: asmtext.RAX, Src: asmtext.RBX})
	case "==", "!=", "<", "<=", ">", ">=":
		g.fn.Emit(asmtext.ArithRR{Op: "cmp", Dst: asmtext.RAX, Src: asmtext.RBX})
		g.fn.Emit(asmtext.SetCC{Cond: compareSetCC[e.Op]})
		g.fn.Emit(asmtext.Movzx{Dst: asmtext.RAX, Src: asmtext.AL})
	default:
		return fmt.Errorf("codegen: unknown binary operator %q", e.Op)
	}
	return nil
}

// genCall evaluates args right-to-left, lands the first six in System
// V registers and pushes the rest, then emits the call and restores
// rsp for any spilled arguments.
func (g *Generator) genCall(name string, args []ast.Expr) (string, error) {
	var spilled int
	for i := len(args) - 1; i >= 0; i-- {
		if err := g.genExpr(args[i]); err != nil {
			return "", err
		}
		if i >= 6 {
			g.fn.Emit(asmtext.Push{Src: asmtext.RAX})
			spilled++
			continue
		}
		g.fn.Emit(asmtext.Push{Src: asmtext.RAX})
	}
	// Args were pushed right-to-left, so popping drains them back out
	// left-to-right: the first pop is args[0], landing in ArgRegs[0].
	for i := 0; i < len(args) && i < 6; i++ {
		g.fn.Emit(asmtext.Pop{Dst: asmtext.ArgRegs[i]})
	}
	// Stack-passed args (index >= 6) stay pushed beneath the return
	// address for the callee to read.
	g.fn.Emit(asmtext.Call{Target: asmtext.Label(name)})
	if spilled > 0 {
		g.fn.Emit(asmtext.ArithRI{Op: "add", Dst: asmtext.RSP, Imm: int64(8 * spilled)})
	}
	return name, nil
}
