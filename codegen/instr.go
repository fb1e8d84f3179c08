// Package codegen lowers an arena AST into a flat list of pseudo x86-64
// instructions per function, plus the program's interned string data. It
// does not encode bytes — encoder does that — so it can reference jump and
// call targets by label name and let a later index-keyed fixup pass (see
// encoder) resolve displacements, instead of the teacher's linked-list
// relocation scheme (spec §9 Design Notes: recast as an index-keyed vector).
package codegen

import "github.com/nxlang/nxc/symtab"

// Op is a pseudo x86-64 opcode. The set matches spec §4.4's table plus the
// comparison/jump/move-zero-extend forms needed to lower `if` and boolean
// expressions.
type Op int

const (
	MOV Op = iota
	PUSH
	POP
	ADD
	SUB
	IMUL
	IDIV
	CMP
	JMP
	JE
	JNE
	JL
	JLE
	JG
	JGE
	CALL
	RET
	NOP
	SYSCALL
	XOR
	LEA
	NEG
	CQO // sign-extends RAX into RDX:RAX, required before IDIV
	SETE
	SETNE
	SETL
	SETLE
	SETG
	SETGE
	MOVZX
	LABEL // pseudo-op: defines a local branch target, emits no bytes
)

func (op Op) String() string {
	names := [...]string{
		"mov", "push", "pop", "add", "sub", "imul", "idiv", "cmp",
		"jmp", "je", "jne", "jl", "jle", "jg", "jge", "call", "ret",
		"nop", "syscall", "xor", "lea", "neg", "cqo",
		"sete", "setne", "setl", "setle", "setg", "setge", "movzx", "label",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// Register names the eight general-purpose registers the backend uses: a
// stack-machine evaluation discipline needs only rax/rbx as arithmetic
// scratch, plus rdi/rsi/rdx/rcx doubling as both syscall argument
// registers and the first four SysV integer call-argument registers, and
// rbp/rsp for the frame (spec §4.4/§4.5 keep the instruction set small; r8
// upward are never emitted).
type Register int

const (
	RAX Register = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
)

// ArgRegisters lists the SysV integer argument registers, in order, that
// this backend supports. A call with more arguments than this is a
// semantic error (spec §9: a deliberately bounded subset of the ABI).
var ArgRegisters = [4]Register{RDI, RSI, RDX, RCX}

func (r Register) String() string {
	names := [...]string{"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp"}
	if int(r) < len(names) {
		return names[r]
	}
	return "?"
}

// OperandKind tags which field of Operand is meaningful.
type OperandKind int

const (
	OpNone OperandKind = iota
	OpRegister
	OpImmediate
	OpMemory
	OpLabel
)

// Mem is a base-plus-displacement memory operand: `[base + disp]`. Every
// memory reference the backend emits is rbp-relative local access (spec
// §4.4 frame layout); disp is always a multiple of 8 and never positive
// for locals.
type Mem struct {
	Base Register
	Disp int32
}

// Operand is a tagged union over the four operand shapes an instruction
// may carry.
type Operand struct {
	Kind  OperandKind
	Reg   Register
	Imm   int64
	Mem   Mem
	Label string
}

func Reg(r Register) Operand                { return Operand{Kind: OpRegister, Reg: r} }
func Imm(v int64) Operand                   { return Operand{Kind: OpImmediate, Imm: v} }
func MemAt(base Register, disp int32) Operand { return Operand{Kind: OpMemory, Mem: Mem{Base: base, Disp: disp}} }
func Lbl(name string) Operand               { return Operand{Kind: OpLabel, Label: name} }

// Instruction is one pseudo-instruction: an opcode plus up to two
// operands. A LABEL instruction carries its name in Operands[0] and emits
// no machine bytes; the encoder records its byte offset as it reaches it.
type Instruction struct {
	Op       Op
	Operands []Operand
}

func Inst(op Op, operands ...Operand) Instruction {
	return Instruction{Op: op, Operands: operands}
}

// Function is one compiled function: its global label plus its lowered
// instruction stream and final frame size.
type Function struct {
	Label     string
	Instrs    []Instruction
	FrameSize int
}

// Unit is the complete lowered program: the synthetic `_start` entry point,
// every declared function (including ones `main` never calls, spec §4.4
// edge case), and the deduplicated string table ready for the ELF writer's
// rodata section.
type Unit struct {
	EntryFunc string // always "_start"; the real machine entry point
	MainLabel string // the label of the user's `main` function, for diagnostics
	Functions []Function
	Strings   *symtab.StringTable
}

// StartStubLabel is the label of the synthetic entry stub that calls
// `main` and converts its return value into a sys_exit call.
const StartStubLabel = "_start"
