package encoder

import (
	"encoding/binary"

	"github.com/nxlang/nxc/codegen"
)

func int32LE(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

// encodeMov handles the four operand shapes codegen ever produces: reg,imm
// (movabs); reg,reg; reg,[mem]; [mem],reg.
func (e *Encoder) encodeMov(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	dst, src := inst.Operands[0], inst.Operands[1]

	switch {
	case dst.Kind == codegen.OpRegister && src.Kind == codegen.OpImmediate:
		b := []byte{rexBase | rexW, 0xB8 + regField(dst.Reg)}
		imm := make([]byte, 8)
		binary.LittleEndian.PutUint64(imm, uint64(src.Imm))
		return append(b, imm...), nil

	case dst.Kind == codegen.OpRegister && src.Kind == codegen.OpRegister:
		return []byte{rexBase | rexW, 0x89, modrm(modRegregister, regField(src.Reg), regField(dst.Reg))}, nil

	case dst.Kind == codegen.OpRegister && src.Kind == codegen.OpMemory:
		b := []byte{rexBase | rexW, 0x8B, modrm(modDisp32, regField(dst.Reg), regField(src.Mem.Base))}
		return append(b, int32LE(src.Mem.Disp)...), nil

	case dst.Kind == codegen.OpMemory && src.Kind == codegen.OpRegister:
		b := []byte{rexBase | rexW, 0x89, modrm(modDisp32, regField(src.Reg), regField(dst.Mem.Base))}
		return append(b, int32LE(dst.Mem.Disp)...), nil

	default:
		return nil, newEncodingError(funcLabel, inst, "unsupported mov operand combination")
	}
}

// encodeArithRR handles the register,register ALU forms: add, sub, imul,
// xor, cmp. imul uses the two-operand 0F AF form (reg=dst, rm=src); the
// rest use the r/m64,r64 form (reg=src, rm=dst), per Intel SDM Vol.2.
// sub and cmp also take a register,imm32 pair (REX.W 81 /5 and /7), the
// form codegen emits for the frame reservation and for zero tests.
func (e *Encoder) encodeArithRR(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	dst, src := inst.Operands[0], inst.Operands[1]
	if dst.Kind == codegen.OpRegister && src.Kind == codegen.OpImmediate {
		ext, ok := map[codegen.Op]byte{codegen.SUB: 5, codegen.CMP: 7}[inst.Op]
		if !ok || src.Imm < -(1<<31) || src.Imm >= (1<<31) {
			return nil, newEncodingError(funcLabel, inst, "unsupported register,immediate operands")
		}
		b := []byte{rexBase | rexW, 0x81, modrm(modRegregister, ext, regField(dst.Reg))}
		return append(b, int32LE(int32(src.Imm))...), nil
	}
	if dst.Kind != codegen.OpRegister || src.Kind != codegen.OpRegister {
		return nil, newEncodingError(funcLabel, inst, "expected two register operands")
	}

	switch inst.Op {
	case codegen.ADD:
		return []byte{rexBase | rexW, 0x01, modrm(modRegregister, regField(src.Reg), regField(dst.Reg))}, nil
	case codegen.SUB:
		return []byte{rexBase | rexW, 0x29, modrm(modRegregister, regField(src.Reg), regField(dst.Reg))}, nil
	case codegen.XOR:
		return []byte{rexBase | rexW, 0x31, modrm(modRegregister, regField(src.Reg), regField(dst.Reg))}, nil
	case codegen.CMP:
		return []byte{rexBase | rexW, 0x39, modrm(modRegregister, regField(src.Reg), regField(dst.Reg))}, nil
	case codegen.IMUL:
		return []byte{rexBase | rexW, 0x0F, 0xAF, modrm(modRegregister, regField(dst.Reg), regField(src.Reg))}, nil
	default:
		return nil, newEncodingError(funcLabel, inst, "unsupported arithmetic opcode")
	}
}

// encodeIdiv encodes `idiv divisor`: rdx:rax / divisor -> quotient in rax,
// remainder in rdx. Opcode 0xF7 /7.
func (e *Encoder) encodeIdiv(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	divisor := inst.Operands[0]
	if divisor.Kind != codegen.OpRegister {
		return nil, newEncodingError(funcLabel, inst, "idiv requires a register divisor")
	}
	return []byte{rexBase | rexW, 0xF7, modrm(modRegregister, 7, regField(divisor.Reg))}, nil
}

// encodeNeg encodes two's-complement negation in place. Opcode 0xF7 /3.
func (e *Encoder) encodeNeg(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	reg := inst.Operands[0]
	if reg.Kind != codegen.OpRegister {
		return nil, newEncodingError(funcLabel, inst, "neg requires a register operand")
	}
	return []byte{rexBase | rexW, 0xF7, modrm(modRegregister, 3, regField(reg.Reg))}, nil
}

// encodeLea materializes the absolute address of a string literal into a
// register for the codegen.LEA pseudo-op. It does not emit a real LEA
// opcode: there is no PT_DYNAMIC relocation machinery in this ET_EXEC
// binary (spec §4.6), and the string's final address isn't known until the
// ELF writer places rodata, so the only way to load it is an absolute
// 64-bit immediate move (REX.W, 0xB8+reg, 8-byte immediate) with that
// immediate left as a placeholder for the writer's string-fixup pass,
// mirroring the teacher's two-pass literal pool resolution in
// loader.LoadProgramIntoVM.
func (e *Encoder) encodeLea(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	dst, src := inst.Operands[0], inst.Operands[1]
	if dst.Kind != codegen.OpRegister || src.Kind != codegen.OpLabel {
		return nil, newEncodingError(funcLabel, inst, "lea requires a register destination and a label source")
	}
	b := []byte{rexBase | rexW, 0xB8 + regField(dst.Reg)}
	immOffset := len(e.code) + len(b)
	b = append(b, make([]byte, 8)...)
	e.strFixups = append(e.strFixups, StringFixup{Pos: immOffset, Label: src.Label})
	return b, nil
}
