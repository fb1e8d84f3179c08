// Package ast defines the AST node kinds as a single sum type: a Node
// interface implemented by one concrete struct per kind, so that every
// consumer pattern-matches exhaustively with a type switch instead of
// downcasting through a common polymorphic base (the source's "tagged
// header + struct-per-kind" scheme, recast per the redesign in spec §9).
//
// Every node owns its children by value through the arena; node lifetime
// equals arena lifetime (§4.2).
package ast

import "github.com/nxlang/nxc/compileerr"

// Range is the node's source span: start/end byte offsets into the source
// buffer plus the token position the node starts at.
type Range struct {
	Start, End int
	Pos        compileerr.Position
}

func (r Range) Range() Range { return r }

// Node is implemented by every AST node kind.
type Node interface {
	Range() Range
	node()
}

// Decl is implemented by top-level declaration kinds.
type Decl interface {
	Node
	decl()
}

// Stmt is implemented by statement kinds.
type Stmt interface {
	Node
	stmt()
}

// Expr is implemented by expression kinds.
type Expr interface {
	Node
	expr()
}

// Program is the AST root: an ordered sequence of declarations.
type Program struct {
	Range
	Decls []Decl
}

func (*Program) node() {}

// Param is one function parameter: {name, type}.
type Param struct {
	Name string
	Type Type
}

// FunctionDecl declares a function with an ordered parameter list, return
// type, and body block.
type FunctionDecl struct {
	Range
	Name       string
	Params     []Param
	ReturnType Type
	Body       *BlockStmt
}

func (*FunctionDecl) node() {}
func (*FunctionDecl) decl() {}

// VarDecl declares a variable, `let` or `const`. Either DeclaredType or
// Init (or both) must be present; the parser accepts either shape and
// leaves the requirement to the backend (spec §4.3).
type VarDecl struct {
	Range
	Name         string
	DeclaredType Type
	HasType      bool
	Init         Expr
	HasInit      bool
	Const        bool
}

func (*VarDecl) node() {}
func (*VarDecl) decl() {}
func (*VarDecl) stmt() {}

// BlockStmt is an ordered sequence of statements.
type BlockStmt struct {
	Range
	Stmts []Stmt
}

func (*BlockStmt) node() {}
func (*BlockStmt) stmt() {}

// ExpressionStmt wraps a single expression evaluated for effect.
type ExpressionStmt struct {
	Range
	X Expr
}

func (*ExpressionStmt) node() {}
func (*ExpressionStmt) stmt() {}

// ReturnStmt optionally carries a value expression.
type ReturnStmt struct {
	Range
	Value    Expr
	HasValue bool
}

func (*ReturnStmt) node() {}
func (*ReturnStmt) stmt() {}

// IfStmt is a condition, a then-block, and an optional else-block.
type IfStmt struct {
	Range
	Cond    Expr
	Then    *BlockStmt
	Else    *BlockStmt
	HasElse bool
}

func (*IfStmt) node() {}
func (*IfStmt) stmt() {}

// LiteralExpr is a number, string, boolean, or null literal.
type LiteralExpr struct {
	Range
	Kind   LiteralKind
	Number float64
	Str    string
	Bool   bool
}

func (*LiteralExpr) node() {}
func (*LiteralExpr) expr() {}

// IdentifierExpr names a variable or function.
type IdentifierExpr struct {
	Range
	Name string
}

func (*IdentifierExpr) node() {}
func (*IdentifierExpr) expr() {}

// BinaryExpr applies a binary operator to two operands.
type BinaryExpr struct {
	Range
	Op          BinaryOp
	Left, Right Expr
}

func (*BinaryExpr) node() {}
func (*BinaryExpr) expr() {}

// UnaryExpr applies a unary operator to one operand.
type UnaryExpr struct {
	Range
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) node() {}
func (*UnaryExpr) expr() {}

// AssignmentExpr assigns Value to Target, optionally combined with a
// binary operator (`+=` etc). Target must be an *IdentifierExpr for the
// native backend to lower it (spec §4.4 has no rule for anything else).
// This node is a SPEC_FULL addition; see AssignOp in types.go.
type AssignmentExpr struct {
	Range
	Target Expr
	Op     AssignOp
	Value  Expr
}

func (*AssignmentExpr) node() {}
func (*AssignmentExpr) expr() {}

// CallExpr is a direct or indirect function call; the native backend only
// supports direct calls where Callee is an *IdentifierExpr (spec §4.4).
type CallExpr struct {
	Range
	Callee Expr
	Args   []Expr
}

func (*CallExpr) node() {}
func (*CallExpr) expr() {}
