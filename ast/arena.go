package ast

// Arena is a bump-style allocator for AST nodes and interned strings. It
// owns every node it hands out; there is no per-node free, only Destroy,
// which drops every reference at once and lets the garbage collector
// reclaim the backing storage in a single pass — the write-once,
// discard-whole lifecycle of a one-shot compilation (spec §4.2).
//
// Nodes are allocated from per-kind pools (growable slices of values)
// rather than one untyped byte region, since Go has no portable way to
// bump-allocate arbitrary types without unsafe: each New* method appends a
// zero value to its pool and returns a pointer into it. Appending to a
// full pool may move its backing array, but pointers already handed out
// keep referencing the old array, which stays alive as long as those
// pointers do — this still gives every node exactly one owner (the arena)
// and one collective free point.
type Arena struct {
	programs    []Program
	funcDecls   []FunctionDecl
	varDecls    []VarDecl
	blocks      []BlockStmt
	exprStmts   []ExpressionStmt
	returnStmts []ReturnStmt
	ifStmts     []IfStmt
	literals    []LiteralExpr
	idents      []IdentifierExpr
	binaries    []BinaryExpr
	unaries     []UnaryExpr
	calls       []CallExpr
	assigns     []AssignmentExpr

	strbuf []byte // backing store for Intern
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{}
}

// Destroy releases every node and interned string the arena owns.
func (a *Arena) Destroy() {
	*a = Arena{}
}

// Intern copies s into the arena's string buffer and returns the owned
// copy. Use for text that escapes its original lexeme slice (e.g. string
// literal content after it outlives the source buffer).
func (a *Arena) Intern(s string) string {
	if s == "" {
		return ""
	}
	start := len(a.strbuf)
	a.strbuf = append(a.strbuf, s...)
	return string(a.strbuf[start : start+len(s)])
}

func (a *Arena) NewProgram() *Program {
	a.programs = append(a.programs, Program{})
	return &a.programs[len(a.programs)-1]
}

func (a *Arena) NewFunctionDecl() *FunctionDecl {
	a.funcDecls = append(a.funcDecls, FunctionDecl{})
	return &a.funcDecls[len(a.funcDecls)-1]
}

func (a *Arena) NewVarDecl() *VarDecl {
	a.varDecls = append(a.varDecls, VarDecl{})
	return &a.varDecls[len(a.varDecls)-1]
}

func (a *Arena) NewBlockStmt() *BlockStmt {
	a.blocks = append(a.blocks, BlockStmt{})
	return &a.blocks[len(a.blocks)-1]
}

func (a *Arena) NewExpressionStmt() *ExpressionStmt {
	a.exprStmts = append(a.exprStmts, ExpressionStmt{})
	return &a.exprStmts[len(a.exprStmts)-1]
}

func (a *Arena) NewReturnStmt() *ReturnStmt {
	a.returnStmts = append(a.returnStmts, ReturnStmt{})
	return &a.returnStmts[len(a.returnStmts)-1]
}

func (a *Arena) NewIfStmt() *IfStmt {
	a.ifStmts = append(a.ifStmts, IfStmt{})
	return &a.ifStmts[len(a.ifStmts)-1]
}

func (a *Arena) NewLiteralExpr() *LiteralExpr {
	a.literals = append(a.literals, LiteralExpr{})
	return &a.literals[len(a.literals)-1]
}

func (a *Arena) NewIdentifierExpr() *IdentifierExpr {
	a.idents = append(a.idents, IdentifierExpr{})
	return &a.idents[len(a.idents)-1]
}

func (a *Arena) NewBinaryExpr() *BinaryExpr {
	a.binaries = append(a.binaries, BinaryExpr{})
	return &a.binaries[len(a.binaries)-1]
}

func (a *Arena) NewUnaryExpr() *UnaryExpr {
	a.unaries = append(a.unaries, UnaryExpr{})
	return &a.unaries[len(a.unaries)-1]
}

func (a *Arena) NewCallExpr() *CallExpr {
	a.calls = append(a.calls, CallExpr{})
	return &a.calls[len(a.calls)-1]
}

func (a *Arena) NewAssignmentExpr() *AssignmentExpr {
	a.assigns = append(a.assigns, AssignmentExpr{})
	return &a.assigns[len(a.assigns)-1]
}
