// Package fmtcheck canonically re-renders a parsed Program back to source
// text, for the round-trip property in spec §8 (parse, format, reparse,
// compare ASTs). Adapted from the teacher's tools.Formatter — a
// FormatOptions struct controlling column layout plus a Format(input,
// filename) entry point — but retargeted from assembly's
// label/mnemonic/operand/comment column scheme to block-structured source:
// there are no fixed columns, only per-level indentation.
package fmtcheck

import (
	"fmt"
	"strings"

	"github.com/nxlang/nxc/ast"
)

// Options controls the printer's indentation. There is only one dimension
// worth varying (unlike the teacher's four-column assembly layout), since
// this language has no operand columns or trailing comments to align.
type Options struct {
	IndentSize int
}

// DefaultOptions matches common C-family style: tab-equivalent 4 spaces.
func DefaultOptions() *Options {
	return &Options{IndentSize: 4}
}

// Formatter re-renders an *ast.Program to canonical source text.
type Formatter struct {
	opts   *Options
	out    strings.Builder
	indent int
}

// NewFormatter creates a Formatter; a nil opts uses DefaultOptions.
func NewFormatter(opts *Options) *Formatter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Formatter{opts: opts}
}

// Format renders prog to canonical source text.
func (f *Formatter) Format(prog *ast.Program) string {
	f.out.Reset()
	f.indent = 0
	for i, decl := range prog.Decls {
		if i > 0 {
			f.out.WriteString("\n")
		}
		f.writeDecl(decl)
	}
	return f.out.String()
}

func (f *Formatter) pad() string {
	return strings.Repeat(" ", f.indent*f.opts.IndentSize)
}

func (f *Formatter) writeDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FunctionDecl:
		f.writeFunctionDecl(d)
	case *ast.VarDecl:
		f.out.WriteString(f.pad())
		f.writeVarDecl(d)
		f.out.WriteString(";\n")
	default:
		fmt.Fprintf(&f.out, "%s/* unsupported decl %T */\n", f.pad(), decl)
	}
}

func (f *Formatter) writeFunctionDecl(fn *ast.FunctionDecl) {
	f.out.WriteString(f.pad())
	f.out.WriteString("func ")
	f.out.WriteString(fn.Name)
	f.out.WriteString("(")
	for i, p := range fn.Params {
		if i > 0 {
			f.out.WriteString(", ")
		}
		fmt.Fprintf(&f.out, "%s: %s", p.Name, p.Type)
	}
	f.out.WriteString(") -> ")
	fmt.Fprintf(&f.out, "%s", fn.ReturnType)
	f.out.WriteString(" ")
	f.writeBlock(fn.Body)
	f.out.WriteString("\n")
}

func (f *Formatter) writeVarDecl(v *ast.VarDecl) {
	if v.Const {
		f.out.WriteString("const ")
	} else {
		f.out.WriteString("let ")
	}
	f.out.WriteString(v.Name)
	if v.HasType {
		fmt.Fprintf(&f.out, ": %s", v.DeclaredType)
	}
	if v.HasInit {
		f.out.WriteString(" = ")
		f.writeExpr(v.Init)
	}
}

func (f *Formatter) writeBlock(b *ast.BlockStmt) {
	f.out.WriteString("{\n")
	f.indent++
	for _, stmt := range b.Stmts {
		f.writeStmt(stmt)
	}
	f.indent--
	f.out.WriteString(f.pad())
	f.out.WriteString("}")
}

func (f *Formatter) writeStmt(stmt ast.Stmt) {
	f.out.WriteString(f.pad())
	switch s := stmt.(type) {
	case *ast.VarDecl:
		f.writeVarDecl(s)
		f.out.WriteString(";\n")
	case *ast.ExpressionStmt:
		f.writeExpr(s.X)
		f.out.WriteString(";\n")
	case *ast.ReturnStmt:
		f.out.WriteString("return")
		if s.HasValue {
			f.out.WriteString(" ")
			f.writeExpr(s.Value)
		}
		f.out.WriteString(";\n")
	case *ast.IfStmt:
		f.out.WriteString("if (")
		f.writeExpr(s.Cond)
		f.out.WriteString(") ")
		f.writeBlock(s.Then)
		if s.HasElse {
			f.out.WriteString(" else ")
			f.writeBlock(s.Else)
		}
		f.out.WriteString("\n")
	case *ast.BlockStmt:
		f.writeBlock(s)
		f.out.WriteString("\n")
	default:
		fmt.Fprintf(&f.out, "/* unsupported stmt %T */\n", stmt)
	}
}

func (f *Formatter) writeExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		f.writeLiteral(e)
	case *ast.IdentifierExpr:
		f.out.WriteString(e.Name)
	case *ast.BinaryExpr:
		f.writeExpr(e.Left)
		fmt.Fprintf(&f.out, " %s ", e.Op)
		f.writeExpr(e.Right)
	case *ast.UnaryExpr:
		f.out.WriteString(e.Op.String())
		f.writeExpr(e.Operand)
	case *ast.AssignmentExpr:
		f.writeExpr(e.Target)
		fmt.Fprintf(&f.out, " %s ", e.Op)
		f.writeExpr(e.Value)
	case *ast.CallExpr:
		f.writeExpr(e.Callee)
		f.out.WriteString("(")
		for i, arg := range e.Args {
			if i > 0 {
				f.out.WriteString(", ")
			}
			f.writeExpr(arg)
		}
		f.out.WriteString(")")
	default:
		fmt.Fprintf(&f.out, "/* unsupported expr %T */", expr)
	}
}

func (f *Formatter) writeLiteral(lit *ast.LiteralExpr) {
	switch lit.Kind {
	case ast.LitNumber:
		fmt.Fprintf(&f.out, "%g", lit.Number)
	case ast.LitString:
		fmt.Fprintf(&f.out, "%q", lit.Str)
	case ast.LitBool:
		fmt.Fprintf(&f.out, "%t", lit.Bool)
	case ast.LitNull:
		f.out.WriteString("null")
	}
}

// Format is a convenience wrapper around NewFormatter(nil).Format.
func Format(prog *ast.Program) string {
	return NewFormatter(nil).Format(prog)
}
