package codegen

import (
	"testing"

	"github.com/nxlang/nxc/ast"
	"github.com/nxlang/nxc/parser"
)

func mustLower(t *testing.T, src string) *Unit {
	t.Helper()
	arena := ast.New()
	prog, hadErr, perrs := parser.ParseSource(src, "test.nx", arena, 20)
	if hadErr {
		t.Fatalf("parse errors: %v", perrs.Errors)
	}
	unit, errs := Lower(prog)
	if errs.HasErrors() {
		t.Fatalf("lower errors: %v", errs.Errors)
	}
	return unit
}

func findFunc(t *testing.T, unit *Unit, label string) *Function {
	t.Helper()
	for i := range unit.Functions {
		if unit.Functions[i].Label == label {
			return &unit.Functions[i]
		}
	}
	t.Fatalf("function %q not found", label)
	return nil
}

func TestLowerMinimalMainHasEntryPoint(t *testing.T) {
	unit := mustLower(t, `func main() -> i32 { return 42; }`)
	if len(unit.Functions) != 2 {
		t.Fatalf("expected _start plus main, got %d", len(unit.Functions))
	}
	if unit.EntryFunc != StartStubLabel {
		t.Errorf("expected entry func to be the start stub, got %s", unit.EntryFunc)
	}
	start := findFunc(t, unit, unit.EntryFunc)
	if start.Instrs[0].Op != CALL || start.Instrs[0].Operands[0].Label != unit.MainLabel {
		t.Errorf("expected the start stub to call main first, got %+v", start.Instrs[0])
	}
}

func TestLowerMissingMainIsError(t *testing.T) {
	arena := ast.New()
	prog, hadErr, perrs := parser.ParseSource(`func helper() -> i32 { return 1; }`, "t.nx", arena, 20)
	if hadErr {
		t.Fatalf("unexpected parse errors: %v", perrs.Errors)
	}
	_, errs := Lower(prog)
	if !errs.HasErrors() {
		t.Fatal("expected an error for missing main")
	}
}

func TestLowerPrologueReservesFrame(t *testing.T) {
	unit := mustLower(t, `
func main() -> i32 {
	let a: i32 = 1;
	let b: i32 = 2;
	return a + b;
}`)
	fn := findFunc(t, unit, unit.MainLabel)
	if fn.FrameSize != 16 {
		t.Errorf("expected 16-byte frame for 2 locals, got %d", fn.FrameSize)
	}
	if fn.Instrs[0].Op != PUSH || fn.Instrs[1].Op != MOV || fn.Instrs[2].Op != SUB {
		t.Fatalf("expected push rbp; mov rbp,rsp; sub rsp,N prologue, got %v %v %v",
			fn.Instrs[0].Op, fn.Instrs[1].Op, fn.Instrs[2].Op)
	}
	if fn.Instrs[2].Operands[1].Imm != 16 {
		t.Errorf("expected patched frame size 16, got %d", fn.Instrs[2].Operands[1].Imm)
	}
}

func TestLowerFunctionCallPassesArgsInRegisters(t *testing.T) {
	unit := mustLower(t, `
func add(a: i32, b: i32) -> i32 { return a + b; }
func main() -> i32 { return add(1, 2); }`)
	main := findFunc(t, unit, unit.MainLabel)
	callIdx := -1
	for i, inst := range main.Instrs {
		if inst.Op == CALL {
			callIdx = i
			break
		}
	}
	if callIdx < 2 {
		t.Fatalf("expected a CALL instruction preceded by at least 2 arg pops, got index %d", callIdx)
	}
	argPop0 := main.Instrs[callIdx-2]
	argPop1 := main.Instrs[callIdx-1]
	if argPop0.Op != POP || argPop0.Operands[0].Reg != RSI {
		t.Errorf("expected the first arg popped into rsi, got %v %v", argPop0.Op, argPop0.Operands[0].Reg)
	}
	if argPop1.Op != POP || argPop1.Operands[0].Reg != RDI {
		t.Errorf("expected the second arg popped into rdi, got %v %v", argPop1.Op, argPop1.Operands[0].Reg)
	}
}

func TestLowerArityMismatchIsError(t *testing.T) {
	arena := ast.New()
	prog, hadErr, perrs := parser.ParseSource(`
func add(a: i32, b: i32) -> i32 { return a + b; }
func main() -> i32 { return add(1); }`, "t.nx", arena, 20)
	if hadErr {
		t.Fatalf("unexpected parse errors: %v", perrs.Errors)
	}
	_, errs := Lower(prog)
	if !errs.HasErrors() {
		t.Fatal("expected an arity mismatch error")
	}
}

func TestLowerConstReassignmentIsError(t *testing.T) {
	arena := ast.New()
	prog, hadErr, perrs := parser.ParseSource(`
func main() -> i32 {
	const x: i32 = 1;
	x = 2;
	return x;
}`, "t.nx", arena, 20)
	if hadErr {
		t.Fatalf("unexpected parse errors: %v", perrs.Errors)
	}
	_, errs := Lower(prog)
	if !errs.HasErrors() {
		t.Fatal("expected an error assigning to a const")
	}
}

func TestLowerUndefinedVariableIsError(t *testing.T) {
	arena := ast.New()
	prog, hadErr, perrs := parser.ParseSource(`func main() -> i32 { return y; }`, "t.nx", arena, 20)
	if hadErr {
		t.Fatalf("unexpected parse errors: %v", perrs.Errors)
	}
	_, errs := Lower(prog)
	if !errs.HasErrors() {
		t.Fatal("expected an undefined variable error")
	}
}

func TestLowerPrintEmitsSyscall(t *testing.T) {
	unit := mustLower(t, `func main() -> i32 { print("hi"); return 0; }`)
	fn := findFunc(t, unit, unit.MainLabel)
	var sawSyscall bool
	for _, inst := range fn.Instrs {
		if inst.Op == SYSCALL {
			sawSyscall = true
		}
	}
	if !sawSyscall {
		t.Fatal("expected a SYSCALL instruction for print()")
	}
	if len(unit.Strings.Entries()) != 1 || unit.Strings.Entries()[0] != "hi" {
		t.Errorf("expected the string table to contain \"hi\", got %v", unit.Strings.Entries())
	}
}

func TestLowerIfElseBranchesToDistinctLabels(t *testing.T) {
	unit := mustLower(t, `
func main() -> i32 {
	if 1 < 2 {
		return 1;
	} else {
		return 0;
	}
}`)
	fn := findFunc(t, unit, unit.MainLabel)
	labelCount := 0
	for _, inst := range fn.Instrs {
		if inst.Op == LABEL {
			labelCount++
		}
	}
	// else label + end label + the shared function epilogue label.
	if labelCount != 3 {
		t.Errorf("expected 3 label instructions, got %d", labelCount)
	}
}

func TestLowerUncalledFunctionIsStillEmitted(t *testing.T) {
	unit := mustLower(t, `
func dormant() -> i32 { return 7; }
func main() -> i32 { return 0; }`)
	if len(unit.Functions) != 3 {
		t.Fatalf("expected _start, dormant, and main all lowered even though dormant() is never called, got %d", len(unit.Functions))
	}
}
