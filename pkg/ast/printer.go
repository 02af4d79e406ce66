package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders a Program as canonical Ent source text. Printing and
// re-parsing a program must yield a structurally identical AST
// (spec.md §8.2).
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates an AST printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) ind() string {
	return strings.Repeat("  ", p.indent)
}

// PrintProgram prints every top-level declaration in order.
func (p *Printer) PrintProgram(prog *Program) {
	for _, c := range prog.Children {
		p.printTopLevel(c)
	}
}

func (p *Printer) printTopLevel(n TopLevel) {
	switch d := n.(type) {
	case Header:
		fmt.Fprint(p.w, "header {\n")
		p.indent++
		for _, item := range d.Items {
			p.printTopLevel(item)
		}
		p.indent--
		fmt.Fprint(p.w, "};\n")
	case FunctionPrototype:
		fmt.Fprintf(p.w, "%sfunction %s(%s) -> %s;\n", p.ind(), d.Name, printParams(d.Params), d.ReturnType)
	case Function:
		fmt.Fprintf(p.w, "%sfunction %s(%s) -> %s {\n", p.ind(), d.Name, printParams(d.Params), d.ReturnType)
		p.indent++
		p.printStatements(d.Body.Statements)
		p.indent--
		fmt.Fprintf(p.w, "%s};\n", p.ind())
	case Typedef:
		if d.StructBody != nil {
			fmt.Fprintf(p.w, "%stypedef struct {\n", p.ind())
			p.indent++
			for _, m := range d.StructBody.Members {
				fmt.Fprintf(p.w, "%s%s %s;\n", p.ind(), m.Type, m.Name)
			}
			p.indent--
			fmt.Fprintf(p.w, "%s} %s;\n", p.ind(), d.NewName)
		} else {
			fmt.Fprintf(p.w, "%stypedef %s %s;\n", p.ind(), d.OldType, d.NewName)
		}
	case GlobalVarDecl:
		fmt.Fprintf(p.w, "%s%s%s %s;\n", p.ind(), d.Type, arraySuffix(d.ByAddr), d.Name)
	case GlobalVarDeclAssign:
		fmt.Fprintf(p.w, "%s%s%s %s = %s;\n", p.ind(), d.Type, arraySuffix(d.ByAddr), d.Name, printExpr(d.Init))
	case InlineAsm:
		p.printInlineAsm(d.Lines)
	default:
		fmt.Fprintf(p.w, "%s/* unknown top-level %T */\n", p.ind(), n)
	}
}

func arraySuffix(byAddr bool) string {
	if byAddr {
		return "[]"
	}
	return ""
}

func printParams(params []Parameter) string {
	parts := make([]string, len(params))
	for i, pr := range params {
		parts[i] = pr.Type + " " + pr.Name
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) printInlineAsm(lines []string) {
	fmt.Fprintf(p.w, "%sasm {\n", p.ind())
	for _, l := range lines {
		fmt.Fprintf(p.w, "%s  %s\n", p.ind(), l)
	}
	fmt.Fprintf(p.w, "%s};\n", p.ind())
}

func (p *Printer) printStatements(stmts []Stmt) {
	for _, s := range stmts {
		p.printStmt(s)
	}
}

func (p *Printer) printStmt(s Stmt) {
	ind := p.ind()
	switch n := s.(type) {
	case Block:
		fmt.Fprintf(p.w, "%s{\n", ind)
		p.indent++
		p.printStatements(n.Statements)
		p.indent--
		fmt.Fprintf(p.w, "%s};\n", ind)
	case VarDecl:
		fmt.Fprintf(p.w, "%s%s%s %s;\n", ind, n.Type, arraySuffix(n.ByAddr), n.Name)
	case VarDeclAssign:
		fmt.Fprintf(p.w, "%s%s%s %s = %s;\n", ind, n.Type, arraySuffix(n.ByAddr), n.Name, printExpr(n.Init))
	case Assign:
		fmt.Fprintf(p.w, "%s%s = %s;\n", ind, n.Name, printExpr(n.Expr))
	case IndexationAssign:
		fmt.Fprintf(p.w, "%s%s[%s] = %s;\n", ind, n.Name, printExpr(n.Index), printExpr(n.Expr))
	case MemoryAssign:
		fmt.Fprintf(p.w, "%s[%s] = %s;\n", ind, n.Name, printExpr(n.Expr))
	case StructMemberAssign:
		fmt.Fprintf(p.w, "%s%s = %s;\n", ind, printExpr(n.Access), printExpr(n.Expr))
	case Return:
		if n.Expr == nil {
			fmt.Fprintf(p.w, "%sreturn;\n", ind)
		} else {
			fmt.Fprintf(p.w, "%sreturn %s;\n", ind, printExpr(n.Expr))
		}
	case If:
		fmt.Fprintf(p.w, "%sif (%s) {\n", ind, printExpr(n.Cond))
		p.indent++
		p.printStatements(n.Then.Statements)
		p.indent--
		if n.Else != nil {
			fmt.Fprintf(p.w, "%s} else {\n", ind)
			p.indent++
			p.printStatements(n.Else.Statements)
			p.indent--
		}
		fmt.Fprintf(p.w, "%s};\n", ind)
	case While:
		fmt.Fprintf(p.w, "%swhile (%s) {\n", ind, printExpr(n.Cond))
		p.indent++
		p.printStatements(n.Body.Statements)
		p.indent--
		fmt.Fprintf(p.w, "%s};\n", ind)
	case Switch:
		fmt.Fprintf(p.w, "%sswitch (%s) {\n", ind, printExpr(n.Cond))
		p.indent++
		p.printStatements(n.Cases)
		p.indent--
		fmt.Fprintf(p.w, "%s};\n", ind)
	case Case:
		fmt.Fprintf(p.w, "%scase %s {\n", ind, printExpr(n.Value))
		p.indent++
		p.printStatements(n.Body.Statements)
		p.indent--
		fmt.Fprintf(p.w, "%s};\n", ind)
	case Default:
		fmt.Fprintf(p.w, "%sdefault {\n", ind)
		p.indent++
		p.printStatements(n.Body.Statements)
		p.indent--
		fmt.Fprintf(p.w, "%s};\n", ind)
	case Continue:
		fmt.Fprintf(p.w, "%scontinue;\n", ind)
	case Break:
		fmt.Fprintf(p.w, "%sbreak;\n", ind)
	case Increment:
		fmt.Fprintf(p.w, "%s%s++;\n", ind, n.Name)
	case Decrement:
		fmt.Fprintf(p.w, "%s%s--;\n", ind, n.Name)
	case InlineAsm:
		p.printInlineAsm(n.Lines)
	case FunctionCall:
		fmt.Fprintf(p.w, "%s%s(%s);\n", ind, n.Name, joinExprs(n.Args))
	default:
		fmt.Fprintf(p.w, "%s/* unknown statement %T */\n", ind, s)
	}
}

func joinExprs(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = printExpr(a)
	}
	return strings.Join(parts, ", ")
}

func printExpr(e Expr) string {
	if e == nil {
		return ""
	}
	switch n := e.(type) {
	case Expression:
		if n.Left == nil {
			return n.Op + printExpr(n.Right)
		}
		return "(" + printExpr(n.Left) + " " + n.Op + " " + printExpr(n.Right) + ")"
	case Literal:
		return n.Text
	case StringLiteral:
		return `"` + n.Text + `"`
	case Identifier:
		return n.Name
	case Index:
		return n.Name + "[" + printExpr(n.Expr) + "]"
	case MemoryAddress:
		return "[" + n.Name + "]"
	case StructMemberAccess:
		return printExpr(n.Base) + "->" + strings.Join(n.Members, "->")
	case CallExpr:
		return n.Name + "(" + joinExprs(n.Args) + ")"
	default:
		return fmt.Sprintf("/* unknown expr %T */", e)
	}
}
