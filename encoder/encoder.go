// Package encoder turns a codegen.Unit into raw x86-64 machine code: one
// flat .text byte buffer plus the resolved label offsets codegen left as
// pseudo-operands. Grounded on the teacher's encoder.Encoder (a struct
// holding running address state, dispatching EncodeInstruction by
// mnemonic to one encodeX per instruction family) but retargeted from
// fixed-width ARM words to variable-length x86-64 byte sequences, and from
// the teacher's Relocation-per-entry scheme to an index-keyed fixup slice
// resolved in a single patch pass at the end (spec §9 Design Notes).
package encoder

import (
	"encoding/binary"

	"github.com/nxlang/nxc/codegen"
)

// Register and its constants are re-exported under encoder's own names so call sites
// read naturally (e.g. encoder.RAX) without importing codegen everywhere
// encoder is used.
type Register = codegen.Register

const (
	RAX = codegen.RAX
	RBX = codegen.RBX
	RCX = codegen.RCX
	RDX = codegen.RDX
	RSI = codegen.RSI
	RDI = codegen.RDI
	RBP = codegen.RBP
	RSP = codegen.RSP
)

// fixup records a 4-byte rel32 field in the output buffer that still needs
// patching once every label's final byte offset is known. Recast from the
// teacher's linked Relocation list into an index-keyed vector (spec §9):
// appending to a slice during a single linear emission pass, then
// resolving every entry in one patch pass, needs no mutable tail pointer.
type fixup struct {
	pos    int    // byte offset of the rel32 field within code
	target string // label name the field should resolve to
}

// StringFixup records an 8-byte absolute-address immediate field that
// encoder could not resolve on its own: the address of a string literal's
// rodata bytes is only known once the ELF writer has decided where rodata
// sits relative to .text (spec §4.6). The caller patches code[Pos:Pos+8]
// with the final absolute address once it knows where Label's bytes live.
type StringFixup struct {
	Pos   int
	Label string
}

// Encoder accumulates machine code across every function in a Unit.
type Encoder struct {
	code      []byte
	labels    map[string]int // label name -> byte offset within code
	fixups    []fixup
	strFixups []StringFixup
}

// Result is everything the ELF writer needs: the encoded .text bytes, the
// byte offset of the entry point within them, and the unresolved
// string-literal address fixups (rodata placement is the writer's call).
type Result struct {
	Code      []byte
	Entry     int
	StrFixups []StringFixup
}

// Encode lowers every function in unit into one flat .text buffer. Returns
// an error if any instruction could not be encoded or any jump/call label
// was left unresolved.
func Encode(unit *codegen.Unit) (*Result, error) {
	e := &Encoder{labels: make(map[string]int)}

	for _, fn := range unit.Functions {
		e.labels[fn.Label] = len(e.code)
		for _, inst := range fn.Instrs {
			if inst.Op == codegen.LABEL {
				e.labels[inst.Operands[0].Label] = len(e.code)
				continue
			}
			bytes, err := e.encodeInstruction(fn.Label, inst)
			if err != nil {
				return nil, err
			}
			e.code = append(e.code, bytes...)
		}
	}

	for _, fx := range e.fixups {
		target, ok := e.labels[fx.target]
		if !ok {
			return nil, &EncodingError{Message: "undefined label " + fx.target}
		}
		rel := int32(target - (fx.pos + 4))
		binary.LittleEndian.PutUint32(e.code[fx.pos:fx.pos+4], uint32(rel))
	}

	entry, ok := e.labels[unit.EntryFunc]
	if !ok {
		return nil, &EncodingError{Message: "undefined entry point " + unit.EntryFunc}
	}
	return &Result{Code: e.code, Entry: entry, StrFixups: e.strFixups}, nil
}

// addRel32Fixup records a to-be-patched rel32 field at pos, the byte
// offset it will occupy once the in-flight instruction's bytes are
// appended to the code buffer.
func (e *Encoder) addRel32Fixup(pos int, target string) {
	e.fixups = append(e.fixups, fixup{pos: pos, target: target})
}

// encodeInstruction dispatches one pseudo-instruction to its encodeX
// routine by opcode, mirroring the teacher's mnemonic-keyed switch in
// EncodeInstruction.
func (e *Encoder) encodeInstruction(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	switch inst.Op {
	case codegen.MOV:
		return e.encodeMov(funcLabel, inst)
	case codegen.PUSH:
		return e.encodePush(funcLabel, inst)
	case codegen.POP:
		return e.encodePop(funcLabel, inst)
	case codegen.ADD, codegen.SUB, codegen.IMUL, codegen.XOR, codegen.CMP:
		return e.encodeArithRR(funcLabel, inst)
	case codegen.IDIV:
		return e.encodeIdiv(funcLabel, inst)
	case codegen.NEG:
		return e.encodeNeg(funcLabel, inst)
	case codegen.CQO:
		return []byte{0x48, 0x99}, nil
	case codegen.LEA:
		return e.encodeLea(funcLabel, inst)
	case codegen.JMP, codegen.JE, codegen.JNE, codegen.JL, codegen.JLE, codegen.JG, codegen.JGE:
		return e.encodeJump(funcLabel, inst)
	case codegen.CALL:
		return e.encodeCall(funcLabel, inst)
	case codegen.RET:
		return []byte{0xC3}, nil
	case codegen.SYSCALL:
		return []byte{0x0F, 0x05}, nil
	case codegen.NOP:
		return []byte{0x90}, nil
	case codegen.SETE, codegen.SETNE, codegen.SETL, codegen.SETLE, codegen.SETG, codegen.SETGE:
		return e.encodeSetcc(funcLabel, inst)
	case codegen.MOVZX:
		return e.encodeMovzx(funcLabel, inst)
	default:
		return nil, newEncodingError(funcLabel, inst, "unsupported opcode")
	}
}
