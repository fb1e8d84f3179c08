package codegen

import (
	"fmt"

	"github.com/nxlang/nxc/ast"
	"github.com/nxlang/nxc/compileerr"
	"github.com/nxlang/nxc/symtab"
)

// builder lowers one function body. Every expression lowering pushes
// exactly one 8-byte value onto the runtime stack; every statement that
// evaluates an expression for effect pops it back off, so the stack stays
// balanced regardless of which expression forms were visited (spec §4.4).
type builder struct {
	funcs  *symtab.FuncTable
	strs   *symtab.StringTable
	vars   *symtab.VarScope
	instrs []Instruction

	funcLabel    string
	labelCount   int
	epilogue     string
	errs         *compileerr.List
}

func (b *builder) emit(i Instruction) int {
	b.instrs = append(b.instrs, i)
	return len(b.instrs) - 1
}

func (b *builder) newLocalLabel() string {
	b.labelCount++
	return fmt.Sprintf(".L%s_%d", b.funcLabel, b.labelCount)
}

func (b *builder) errAt(pos compileerr.Position, msg string) {
	b.errs.Add(compileerr.New(pos, compileerr.KindSemantic, msg))
}

// Lower compiles prog into a Unit. Errors are semantic (undefined name,
// const reassignment, arity mismatch, duplicate declaration, missing
// `main`); the returned List is non-empty exactly when lowering failed.
func Lower(prog *ast.Program) (*Unit, *compileerr.List) {
	errs := compileerr.NewList(0)
	funcs := symtab.NewFuncTable()
	strs := symtab.NewStringTable()

	// Pass 1: register every function so forward calls resolve (spec §4.4).
	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		paramTypes := make([]ast.Type, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = p.Type
		}
		if _, err := funcs.Define(fn.Name, paramTypes, fn.ReturnType, fn.Pos); err != nil {
			errs.Add(err.(*compileerr.Error))
		}
	}

	mainSym, hasMain := funcs.Lookup("main")
	if !hasMain {
		errs.Add(compileerr.New(compileerr.Position{}, compileerr.KindSemantic, "program has no `main` function"))
	}

	unit := &Unit{Strings: strs}
	if hasMain {
		unit.EntryFunc = StartStubLabel
		unit.MainLabel = mainSym.Label
		unit.Functions = append(unit.Functions, startStub(mainSym.Label))
	}

	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		sym, _ := funcs.Lookup(fn.Name)
		compiled, fnErrs := lowerFunction(fn, sym, funcs, strs)
		errs.Errors = append(errs.Errors, fnErrs.Errors...)
		if compiled != nil {
			unit.Functions = append(unit.Functions, *compiled)
		}
	}

	return unit, errs
}

// startStub builds the ELF entry point: call `main`, then translate its
// return value into a sys_exit syscall (spec §4.6 — the process exit code
// is main's i32 return value, not whatever happened to be left in rax).
func startStub(mainLabel string) Function {
	instrs := []Instruction{
		Inst(CALL, Lbl(mainLabel)),
		Inst(MOV, Reg(RDI), Reg(RAX)),
		Inst(MOV, Reg(RAX), Imm(60)), // sys_exit
		Inst(SYSCALL),
	}
	return Function{Label: StartStubLabel, Instrs: instrs}
}

func lowerFunction(fn *ast.FunctionDecl, sym *symtab.FuncSymbol, funcs *symtab.FuncTable, strs *symtab.StringTable) (*Function, *compileerr.List) {
	if len(fn.Params) > len(ArgRegisters) {
		errs := compileerr.NewList(0)
		errs.Add(compileerr.New(fn.Pos, compileerr.KindSemantic,
			fmt.Sprintf("function %q takes %d parameters, backend supports at most %d", fn.Name, len(fn.Params), len(ArgRegisters))))
		return nil, errs
	}

	b := &builder{
		funcs:    funcs,
		strs:     strs,
		vars:     symtab.NewVarScope(),
		funcLabel: sym.Label,
		epilogue: fmt.Sprintf(".L%s_epilogue", sym.Label),
		errs:     compileerr.NewList(0),
	}

	b.emit(Inst(PUSH, Reg(RBP)))
	b.emit(Inst(MOV, Reg(RBP), Reg(RSP)))
	subIdx := b.emit(Inst(SUB, Reg(RSP), Imm(0))) // patched below once FrameSize is known

	for i, param := range fn.Params {
		slot := b.vars.DefineParam(param.Name, param.Type)
		b.emit(Inst(MOV, MemAt(RBP, int32(slot.Offset)), Reg(ArgRegisters[i])))
	}

	for _, stmt := range fn.Body.Stmts {
		b.lowerStmt(stmt)
	}

	// Implicit `return 0` for control flow that falls off the end of the
	// function body without an explicit return (spec §4.4 edge case).
	b.emit(Inst(MOV, Reg(RAX), Imm(0)))
	b.emit(Inst(LABEL, Lbl(b.epilogue)))
	b.emit(Inst(MOV, Reg(RSP), Reg(RBP)))
	b.emit(Inst(POP, Reg(RBP)))
	b.emit(Inst(RET))

	b.instrs[subIdx].Operands[1] = Imm(int64(b.vars.FrameSize()))
	sym.StackSize = b.vars.FrameSize()

	return &Function{Label: sym.Label, Instrs: b.instrs, FrameSize: b.vars.FrameSize()}, b.errs
}

func (b *builder) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		b.lowerVarDecl(s)
	case *ast.ExpressionStmt:
		ok := b.lowerExpr(s.X)
		if ok {
			b.emit(Inst(POP, Reg(RAX))) // discard: evaluated for effect only
		}
	case *ast.ReturnStmt:
		if s.HasValue {
			if b.lowerExpr(s.Value) {
				b.emit(Inst(POP, Reg(RAX)))
			}
		} else {
			b.emit(Inst(MOV, Reg(RAX), Imm(0)))
		}
		b.emit(Inst(JMP, Lbl(b.epilogue)))
	case *ast.IfStmt:
		b.lowerIfStmt(s)
	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			b.lowerStmt(inner)
		}
	default:
		b.errAt(stmt.Range().Pos, fmt.Sprintf("statement kind %T is not supported by codegen", stmt))
	}
}

func (b *builder) lowerVarDecl(decl *ast.VarDecl) {
	if !decl.HasType && !decl.HasInit {
		b.errAt(decl.Pos, fmt.Sprintf("variable %q needs a type annotation or an initializer", decl.Name))
		return
	}
	if decl.HasInit {
		if !b.lowerExpr(decl.Init) {
			return
		}
	} else {
		b.emit(Inst(PUSH, Imm(0)))
	}
	slot, err := b.vars.Define(decl.Name, decl.DeclaredType, decl.Const, decl.Pos)
	if err != nil {
		b.errs.Add(err.(*compileerr.Error))
		b.emit(Inst(POP, Reg(RAX)))
		return
	}
	b.emit(Inst(POP, Reg(RAX)))
	b.emit(Inst(MOV, MemAt(RBP, int32(slot.Offset)), Reg(RAX)))
}

func (b *builder) lowerIfStmt(s *ast.IfStmt) {
	if !b.lowerExpr(s.Cond) {
		return
	}
	b.emit(Inst(POP, Reg(RAX)))
	b.emit(Inst(CMP, Reg(RAX), Imm(0)))

	if s.HasElse {
		elseLabel := b.newLocalLabel()
		endLabel := b.newLocalLabel()
		b.emit(Inst(JE, Lbl(elseLabel)))
		b.lowerStmt(s.Then)
		b.emit(Inst(JMP, Lbl(endLabel)))
		b.emit(Inst(LABEL, Lbl(elseLabel)))
		b.lowerStmt(s.Else)
		b.emit(Inst(LABEL, Lbl(endLabel)))
	} else {
		endLabel := b.newLocalLabel()
		b.emit(Inst(JE, Lbl(endLabel)))
		b.lowerStmt(s.Then)
		b.emit(Inst(LABEL, Lbl(endLabel)))
	}
}

// lowerExpr lowers expr so that, on success, exactly one value is left on
// top of the stack. Returns false (with an error already recorded) if the
// expression could not be lowered.
func (b *builder) lowerExpr(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return b.lowerLiteral(e)
	case *ast.IdentifierExpr:
		return b.lowerIdentifier(e)
	case *ast.BinaryExpr:
		return b.lowerBinary(e)
	case *ast.UnaryExpr:
		return b.lowerUnary(e)
	case *ast.AssignmentExpr:
		return b.lowerAssignment(e)
	case *ast.CallExpr:
		return b.lowerCall(e)
	default:
		b.errAt(expr.Range().Pos, fmt.Sprintf("expression kind %T is not supported by codegen", expr))
		return false
	}
}

func (b *builder) lowerLiteral(lit *ast.LiteralExpr) bool {
	switch lit.Kind {
	case ast.LitNumber:
		b.emit(Inst(PUSH, Imm(int64(lit.Number))))
		return true
	case ast.LitBool:
		v := int64(0)
		if lit.Bool {
			v = 1
		}
		b.emit(Inst(PUSH, Imm(v)))
		return true
	case ast.LitNull:
		b.emit(Inst(PUSH, Imm(0)))
		return true
	case ast.LitString:
		// A bare string literal used as a value (not as print's argument)
		// pushes its rodata address (spec §9: strings are otherwise opaque
		// to the integer-only arithmetic backend).
		label := b.strs.Intern(lit.Str)
		b.emit(Inst(LEA, Reg(RAX), Lbl(label)))
		b.emit(Inst(PUSH, Reg(RAX)))
		return true
	default:
		b.errAt(lit.Pos, "unknown literal kind")
		return false
	}
}

func (b *builder) lowerIdentifier(id *ast.IdentifierExpr) bool {
	slot, ok := b.vars.Lookup(id.Name)
	if !ok {
		b.errAt(id.Pos, fmt.Sprintf("undefined variable %q", id.Name))
		return false
	}
	b.emit(Inst(PUSH, MemAt(RBP, int32(slot.Offset))))
	return true
}

func (b *builder) lowerBinary(bin *ast.BinaryExpr) bool {
	switch bin.Op {
	case ast.And:
		return b.lowerShortCircuit(bin, true)
	case ast.Or:
		return b.lowerShortCircuit(bin, false)
	}

	if !b.lowerExpr(bin.Left) {
		return false
	}
	if !b.lowerExpr(bin.Right) {
		return false
	}
	b.emit(Inst(POP, Reg(RBX))) // right
	b.emit(Inst(POP, Reg(RAX))) // left

	switch bin.Op {
	case ast.Add:
		b.emit(Inst(ADD, Reg(RAX), Reg(RBX)))
	case ast.Sub:
		b.emit(Inst(SUB, Reg(RAX), Reg(RBX)))
	case ast.Mul:
		b.emit(Inst(IMUL, Reg(RAX), Reg(RBX)))
	case ast.Div:
		b.emit(Inst(CQO))
		b.emit(Inst(IDIV, Reg(RBX)))
	case ast.Mod:
		b.emit(Inst(CQO))
		b.emit(Inst(IDIV, Reg(RBX)))
		b.emit(Inst(MOV, Reg(RAX), Reg(RDX)))
	case ast.Eq, ast.Neq, ast.Lt, ast.Le, ast.Gt, ast.Ge:
		b.emit(Inst(CMP, Reg(RAX), Reg(RBX)))
		b.emit(Inst(setOpFor(bin.Op), Reg(RAX)))
		b.emit(Inst(MOVZX, Reg(RAX), Reg(RAX)))
	case ast.Is:
		// `is` type-checks a value against a declared type name; the
		// backend has no runtime type tags to inspect, so it is accepted
		// syntactically and always reports true (spec §9: left for a
		// later tagged-value redesign, not implemented here).
		b.emit(Inst(MOV, Reg(RAX), Imm(1)))
	default:
		b.errAt(bin.Pos, "unknown binary operator")
		return false
	}

	b.emit(Inst(PUSH, Reg(RAX)))
	return true
}

// lowerShortCircuit lowers && (isAnd=true) and || without evaluating the
// right operand unless its value can change the result.
func (b *builder) lowerShortCircuit(bin *ast.BinaryExpr, isAnd bool) bool {
	if !b.lowerExpr(bin.Left) {
		return false
	}
	b.emit(Inst(POP, Reg(RAX)))
	b.emit(Inst(CMP, Reg(RAX), Imm(0)))

	shortCircuit := b.newLocalLabel()
	end := b.newLocalLabel()
	if isAnd {
		b.emit(Inst(JE, Lbl(shortCircuit))) // left is false: && is false
	} else {
		b.emit(Inst(JNE, Lbl(shortCircuit))) // left is true: || is true
	}

	if !b.lowerExpr(bin.Right) {
		return false
	}
	b.emit(Inst(POP, Reg(RAX)))
	b.emit(Inst(CMP, Reg(RAX), Imm(0)))
	b.emit(Inst(SETNE, Reg(RAX)))
	b.emit(Inst(MOVZX, Reg(RAX), Reg(RAX)))
	b.emit(Inst(JMP, Lbl(end)))

	b.emit(Inst(LABEL, Lbl(shortCircuit)))
	result := int64(0)
	if !isAnd {
		result = 1
	}
	b.emit(Inst(MOV, Reg(RAX), Imm(result)))

	b.emit(Inst(LABEL, Lbl(end)))
	b.emit(Inst(PUSH, Reg(RAX)))
	return true
}

func setOpFor(op ast.BinaryOp) Op {
	switch op {
	case ast.Eq:
		return SETE
	case ast.Neq:
		return SETNE
	case ast.Lt:
		return SETL
	case ast.Le:
		return SETLE
	case ast.Gt:
		return SETG
	case ast.Ge:
		return SETGE
	default:
		return SETE
	}
}

func (b *builder) lowerUnary(u *ast.UnaryExpr) bool {
	if !b.lowerExpr(u.Operand) {
		return false
	}
	b.emit(Inst(POP, Reg(RAX)))
	switch u.Op {
	case ast.Neg:
		b.emit(Inst(NEG, Reg(RAX)))
	case ast.Not:
		b.emit(Inst(CMP, Reg(RAX), Imm(0)))
		b.emit(Inst(SETE, Reg(RAX)))
		b.emit(Inst(MOVZX, Reg(RAX), Reg(RAX)))
	default:
		b.errAt(u.Pos, "unknown unary operator")
		return false
	}
	b.emit(Inst(PUSH, Reg(RAX)))
	return true
}

func (b *builder) lowerAssignment(a *ast.AssignmentExpr) bool {
	target, ok := a.Target.(*ast.IdentifierExpr)
	if !ok {
		b.errAt(a.Pos, "assignment target must be an identifier")
		return false
	}
	slot, ok := b.vars.Lookup(target.Name)
	if !ok {
		b.errAt(target.Pos, fmt.Sprintf("undefined variable %q", target.Name))
		return false
	}
	if slot.Const {
		b.errAt(a.Pos, fmt.Sprintf("cannot assign to const variable %q", target.Name))
		return false
	}

	if !b.lowerExpr(a.Value) {
		return false
	}
	b.emit(Inst(POP, Reg(RBX))) // new value

	switch a.Op {
	case ast.Assign:
		b.emit(Inst(MOV, Reg(RAX), Reg(RBX)))
	case ast.AddAssign:
		b.emit(Inst(MOV, Reg(RAX), MemAt(RBP, int32(slot.Offset))))
		b.emit(Inst(ADD, Reg(RAX), Reg(RBX)))
	case ast.SubAssign:
		b.emit(Inst(MOV, Reg(RAX), MemAt(RBP, int32(slot.Offset))))
		b.emit(Inst(SUB, Reg(RAX), Reg(RBX)))
	case ast.MulAssign:
		b.emit(Inst(MOV, Reg(RAX), MemAt(RBP, int32(slot.Offset))))
		b.emit(Inst(IMUL, Reg(RAX), Reg(RBX)))
	case ast.DivAssign:
		b.emit(Inst(MOV, Reg(RAX), MemAt(RBP, int32(slot.Offset))))
		b.emit(Inst(CQO))
		b.emit(Inst(IDIV, Reg(RBX)))
	default:
		b.errAt(a.Pos, "unknown assignment operator")
		return false
	}

	b.emit(Inst(MOV, MemAt(RBP, int32(slot.Offset)), Reg(RAX)))
	b.emit(Inst(PUSH, Reg(RAX)))
	return true
}

func (b *builder) lowerCall(call *ast.CallExpr) bool {
	callee, ok := call.Callee.(*ast.IdentifierExpr)
	if !ok {
		b.errAt(call.Pos, "only direct calls to a named function are supported")
		return false
	}

	if callee.Name == "print" {
		return b.lowerPrint(call)
	}

	sym, ok := b.funcs.Lookup(callee.Name)
	if !ok {
		b.errAt(callee.Pos, fmt.Sprintf("undefined function %q", callee.Name))
		return false
	}
	if len(call.Args) != len(sym.ParamTypes) {
		b.errAt(call.Pos, fmt.Sprintf("function %q takes %d argument(s), got %d", callee.Name, len(sym.ParamTypes), len(call.Args)))
		return false
	}
	if len(call.Args) > len(ArgRegisters) {
		b.errAt(call.Pos, fmt.Sprintf("call to %q exceeds the %d argument backend limit", callee.Name, len(ArgRegisters)))
		return false
	}

	for _, arg := range call.Args {
		if !b.lowerExpr(arg) {
			return false
		}
	}
	for i := len(call.Args) - 1; i >= 0; i-- {
		b.emit(Inst(POP, Reg(ArgRegisters[i])))
	}
	b.emit(Inst(CALL, Lbl(sym.Label)))
	b.emit(Inst(PUSH, Reg(RAX)))
	return true
}

// lowerPrint lowers `print(stringLiteral)` to a real sys_write(1, ...)
// syscall (Open Question resolution, spec §6: "pin this choice" — the
// default here is a genuine write, not just a compile-time trace).
func (b *builder) lowerPrint(call *ast.CallExpr) bool {
	if len(call.Args) != 1 {
		b.errAt(call.Pos, "print() takes exactly one argument")
		return false
	}
	lit, ok := call.Args[0].(*ast.LiteralExpr)
	if !ok || lit.Kind != ast.LitString {
		b.errAt(call.Pos, "print() only supports a string literal argument")
		return false
	}

	label := b.strs.Intern(lit.Str)
	b.emit(Inst(MOV, Reg(RAX), Imm(1)))          // sys_write
	b.emit(Inst(MOV, Reg(RDI), Imm(1)))          // fd 1 (stdout)
	b.emit(Inst(LEA, Reg(RSI), Lbl(label)))      // buffer
	b.emit(Inst(MOV, Reg(RDX), Imm(int64(len(lit.Str))))) // count
	b.emit(Inst(SYSCALL))
	b.emit(Inst(PUSH, Imm(0))) // print has no return value; keep the stack balanced
	return true
}
