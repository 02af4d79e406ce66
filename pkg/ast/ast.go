// Package ast defines the tagged-variant abstract syntax tree produced
// by the parser and consumed by the code generator. Each node is a
// plain struct implementing a narrow marker interface; dispatch is by
// type switch rather than virtual method, so a single node type can be
// walked by both the parser's internal bookkeeping and the code
// generator without a class hierarchy.
package ast

// Node is implemented by every AST node.
type Node interface {
	implNode()
}

// TopLevel is a node that may appear directly under Program.
type TopLevel interface {
	Node
	implTopLevel()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	implStmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	implExpr()
}

// Program is the root of every compilation: the ordered sequence of
// top-level declarations and definitions after preprocessing.
type Program struct {
	Children []TopLevel
}

// Header is a `header { ... };` block. Its contents were extracted
// from an included file by the preprocessor; only prototypes,
// typedefs and uninitialized globals may appear inside.
type Header struct {
	Items []TopLevel
}

// FunctionPrototype is a `function name(params) -> Type;` declaration
// with no body, introduced only inside a Header.
type FunctionPrototype struct {
	ReturnType string
	Name       string
	Params     []Parameter
}

// Function is a full function definition.
type Function struct {
	Name       string
	ReturnType string
	Params     []Parameter
	Body       *Block
}

// Parameter is one function parameter.
type Parameter struct {
	Type string
	Name string
}

// StructMember is one field of a struct body.
type StructMember struct {
	Type string
	Name string
}

// Struct is an anonymous struct body, always wrapped by a Typedef.
type Struct struct {
	Members []StructMember
}

// Typedef introduces a new type name, either aliasing an existing
// built-in/typedef'd name (OldType non-empty, StructBody nil) or
// naming an inline struct body (StructBody non-nil).
type Typedef struct {
	NewName    string
	OldType    string
	StructBody *Struct
}

// GlobalVarDecl is an uninitialized global. ByAddr marks a `[]`-suffixed
// declaration (array/indirect storage addressed via `[name]`).
type GlobalVarDecl struct {
	Type   string
	Name   string
	ByAddr bool
}

// GlobalVarDeclAssign is an initialized global.
type GlobalVarDeclAssign struct {
	Type   string
	Name   string
	Init   Expr
	ByAddr bool
}

// --- Statements ---

// Block is a brace-delimited statement sequence introducing a scope
// frame.
type Block struct {
	Statements []Stmt
}

// VarDecl declares a local variable with no initializer.
type VarDecl struct {
	Type   string
	Name   string
	ByAddr bool
}

// VarDeclAssign declares and initializes a local variable.
type VarDeclAssign struct {
	Type   string
	Name   string
	Init   Expr
	ByAddr bool
}

// Assign is `name = expr;`.
type Assign struct {
	Name string
	Expr Expr
}

// IndexationAssign is `name[index] = expr;`.
type IndexationAssign struct {
	Name  string
	Index Expr
	Expr  Expr
}

// MemoryAssign is `[name] = expr;`, a direct store through name's
// address rather than through its value.
type MemoryAssign struct {
	Name string
	Expr Expr
}

// StructMemberAssign is `base->m1->m2 = expr;`.
type StructMemberAssign struct {
	Access StructMemberAccess
	Expr   Expr
}

// Return is `return expr;` or bare `return;` (Expr nil).
type Return struct {
	Expr Expr
}

// If is `if (cond) { then } [else { else }];`.
type If struct {
	Cond Expr
	Then *Block
	Else *Block
}

// While is `while (cond) { body };`.
type While struct {
	Cond Expr
	Body *Block
}

// Switch is `switch (cond) { case ...; default ...; };`.
type Switch struct {
	Cond  Expr
	Cases []Stmt // Case or Default
}

// Case is one `case value { body };` arm of a Switch.
type Case struct {
	Value Expr
	Body  *Block
}

// Default is the `default { body };` arm of a Switch.
type Default struct {
	Body *Block
}

// Continue is a bare `continue;`.
type Continue struct{}

// Break is a bare `break;`.
type Break struct{}

// Increment is `name++;`.
type Increment struct {
	Name string
}

// Decrement is `name--;`.
type Decrement struct {
	Name string
}

// InlineAsm emits its captured lines verbatim at this point in the
// function body.
type InlineAsm struct {
	Lines []string
}

// FunctionCall as a statement: `name(args);`.
type FunctionCall struct {
	Name string
	Args []Expr
}

// --- Expressions ---

// Expression is a binary node when both Left and Right are set, a
// unary node when only Right is set (Left is nil).
type Expression struct {
	Left  Expr
	Op    string
	Right Expr
}

// Literal is a numeric literal, stored as the original source text.
type Literal struct {
	Text string
}

// StringLiteral is a string literal's inner text.
type StringLiteral struct {
	Text string
}

// Identifier is a bare variable reference.
type Identifier struct {
	Name string
}

// Index is `name[expr]` used as a value.
type Index struct {
	Name string
	Expr Expr
}

// MemoryAddress is `[name]` used as a value (load through name's
// address rather than its value).
type MemoryAddress struct {
	Name string
}

// StructMemberAccess is `base->m1->m2->...`, used as a value.
type StructMemberAccess struct {
	Base    Expr
	Members []string
}

// CallExpr is a function call used as a value-producing expression.
type CallExpr struct {
	Name string
	Args []Expr
}

func (Program) implNode() {}

func (Header) implNode()             {}
func (Header) implTopLevel()         {}
func (FunctionPrototype) implNode()  {}
func (FunctionPrototype) implTopLevel() {}
func (Function) implNode()           {}
func (Function) implTopLevel()       {}
func (Typedef) implNode()            {}
func (Typedef) implTopLevel()        {}
func (GlobalVarDecl) implNode()      {}
func (GlobalVarDecl) implTopLevel()  {}
func (GlobalVarDeclAssign) implNode() {}
func (GlobalVarDeclAssign) implTopLevel() {}
func (InlineAsm) implNode()     {}
func (InlineAsm) implTopLevel() {}
func (InlineAsm) implStmt()     {}

func (Block) implNode() {}
func (Block) implStmt() {}
func (VarDecl) implNode() {}
func (VarDecl) implStmt() {}
func (VarDeclAssign) implNode() {}
func (VarDeclAssign) implStmt() {}
func (Assign) implNode() {}
func (Assign) implStmt() {}
func (IndexationAssign) implNode() {}
func (IndexationAssign) implStmt() {}
func (MemoryAssign) implNode() {}
func (MemoryAssign) implStmt() {}
func (StructMemberAssign) implNode() {}
func (StructMemberAssign) implStmt() {}
func (Return) implNode() {}
func (Return) implStmt() {}
func (If) implNode() {}
func (If) implStmt() {}
func (While) implNode() {}
func (While) implStmt() {}
func (Switch) implNode() {}
func (Switch) implStmt() {}
func (Case) implNode() {}
func (Case) implStmt() {}
func (Default) implNode() {}
func (Default) implStmt() {}
func (Continue) implNode() {}
func (Continue) implStmt() {}
func (Break) implNode() {}
func (Break) implStmt() {}
func (Increment) implNode() {}
func (Increment) implStmt() {}
func (Decrement) implNode() {}
func (Decrement) implStmt() {}
func (FunctionCall) implNode() {}
func (FunctionCall) implStmt() {}

func (Expression) implNode() {}
func (Expression) implExpr() {}
func (Literal) implNode()    {}
func (Literal) implExpr()    {}
func (StringLiteral) implNode() {}
func (StringLiteral) implExpr() {}
func (Identifier) implNode() {}
func (Identifier) implExpr() {}
func (Index) implNode() {}
func (Index) implExpr() {}
func (MemoryAddress) implNode() {}
func (MemoryAddress) implExpr() {}
func (StructMemberAccess) implNode() {}
func (StructMemberAccess) implExpr() {}
func (CallExpr) implNode() {}
func (CallExpr) implExpr() {}
