package encoder

import "github.com/nxlang/nxc/codegen"

// setccOpcodes maps each pseudo-setcc op to its second opcode byte (Intel
// SDM Vol.2A §B.1, the 0x0F 0x9x family). Every comparison lowering targets
// al (the low byte of rax), so reg is always encoded 0.
var setccOpcodes = map[codegen.Op]byte{
	codegen.SETE:  0x94,
	codegen.SETNE: 0x95,
	codegen.SETL:  0x9C,
	codegen.SETLE: 0x9E,
	codegen.SETG:  0x9F,
	codegen.SETGE: 0x9D,
}

// encodeSetcc sets al to 0 or 1 from the flags left by a prior cmp. A bare
// REX prefix is included even though no REX.W/R/X/B bit is needed here: with
// it, 8-bit register encodings 4-7 select spl/bpl/sil/dil instead of
// ah/ch/dh/bh; al (encoding 0) is the same either way.
func (e *Encoder) encodeSetcc(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	opcode, ok := setccOpcodes[inst.Op]
	if !ok {
		return nil, newEncodingError(funcLabel, inst, "unsupported setcc opcode")
	}
	dst := inst.Operands[0]
	if dst.Kind != codegen.OpRegister {
		return nil, newEncodingError(funcLabel, inst, "setcc requires a register destination")
	}
	return []byte{rexBase, 0x0F, opcode, modrm(modRegregister, 0, regField(dst.Reg))}, nil
}

// encodeMovzx zero-extends al into a full 64-bit register (REX.W 0F B6 /r),
// turning a setcc byte result back into a stack-machine value.
func (e *Encoder) encodeMovzx(funcLabel string, inst codegen.Instruction) ([]byte, error) {
	dst, src := inst.Operands[0], inst.Operands[1]
	if dst.Kind != codegen.OpRegister || src.Kind != codegen.OpRegister {
		return nil, newEncodingError(funcLabel, inst, "movzx requires two register operands")
	}
	return []byte{rexBase | rexW, 0x0F, 0xB6, modrm(modRegregister, regField(dst.Reg), regField(src.Reg))}, nil
}
