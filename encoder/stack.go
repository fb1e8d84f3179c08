package encoder

import "github.com/nxlang/nxc/codegen"

// encodePush handles the three shapes codegen emits: a register, a memory
// operand (loading a local straight onto the stack), or a small immediate.
func (e *Encoder) encodePush(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	op := inst.Operands[0]
	switch op.Kind {
	case codegen.OpRegister:
		return []byte{0x50 + regField(op.Reg)}, nil
	case codegen.OpMemory:
		b := []byte{0xFF, modrm(modDisp32, 6, regField(op.Mem.Base))}
		return append(b, int32LE(op.Mem.Disp)...), nil
	case codegen.OpImmediate:
		if op.Imm < -(1<<31) || op.Imm >= (1<<31) {
			return nil, newEncodingError(funcLabel, inst, "push immediate does not fit in 32 bits")
		}
		return append([]byte{0x68}, int32LE(int32(op.Imm))...), nil
	default:
		return nil, newEncodingError(funcLabel, inst, "unsupported push operand")
	}
}

// encodePop only ever targets a register in this backend.
func (e *Encoder) encodePop(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	op := inst.Operands[0]
	if op.Kind != codegen.OpRegister {
		return nil, newEncodingError(funcLabel, inst, "pop requires a register destination")
	}
	return []byte{0x58 + regField(op.Reg)}, nil
}
