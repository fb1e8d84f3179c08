package encoder

import "github.com/nxlang/nxc/codegen"

// jumpOpcodes maps each pseudo-branch op to its rel32 jcc encoding. JMP is
// the one-byte-opcode form (0xE9); every conditional jump is the two-byte
// 0x0F 0x8x form (Intel SDM Vol.2A §B.1).
var jumpOpcodes = map[codegen.Op][]byte{
	codegen.JMP: {0xE9},
	codegen.JE:  {0x0F, 0x84},
	codegen.JNE: {0x0F, 0x85},
	codegen.JL:  {0x0F, 0x8C},
	codegen.JLE: {0x0F, 0x8E},
	codegen.JG:  {0x0F, 0x8F},
	codegen.JGE: {0x0F, 0x8D},
}

// encodeJump emits the opcode then registers a fixup for the trailing rel32,
// which is resolved once every label's final offset is known (Encode's
// single patch pass).
func (e *Encoder) encodeJump(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	opcode, ok := jumpOpcodes[inst.Op]
	if !ok {
		return nil, newEncodingError(funcLabel, inst, "unsupported jump opcode")
	}
	target := inst.Operands[0]
	if target.Kind != codegen.OpLabel {
		return nil, newEncodingError(funcLabel, inst, "jump requires a label operand")
	}

	b := append([]byte{}, opcode...)
	pos := len(e.code) + len(b)
	b = append(b, 0, 0, 0, 0)
	e.addRel32Fixup(pos, target.Label)
	return b, nil
}

// encodeCall emits a direct near call (0xE8 + rel32), fixed up the same way
// as encodeJump.
func (e *Encoder) encodeCall(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	target := inst.Operands[0]
	if target.Kind != codegen.OpLabel {
		return nil, newEncodingError(funcLabel, inst, "call requires a label operand")
	}

	b := []byte{0xE8}
	pos := len(e.code) + len(b)
	b = append(b, 0, 0, 0, 0)
	e.addRel32Fixup(pos, target.Label)
	return b, nil
}
