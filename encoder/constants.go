package encoder

// REX prefix bits (AMD64 Vol.2 §2.2.1). Every instruction touching a
// 64-bit operand needs REX.W set; this backend never needs REX.R/X/B since
// it only ever addresses the eight registers encodable in 3 bits.
const (
	rexBase = 0x40
	rexW    = 0x08 // 64-bit operand size
)

// ModR/M addressing-mode field (Intel SDM Vol.2A §2.1.5).
const (
	modIndirect    = 0x00 // [reg]
	modDisp8       = 0x01 // [reg + disp8]
	modDisp32      = 0x02 // [reg + disp32]
	modRegregister = 0x03 // reg, reg
)

// regField maps a codegen.Register to its 3-bit ModR/M encoding. The
// mapping follows the SysV/Intel register numbering (rax=0 ... rdi=7); no
// REX.B extension bit is ever needed since rsp/rbp (4, 5) and the low
// eight registers cover everything this backend emits.
func regField(r Register) byte {
	order := [...]Register{RAX, RCX, RDX, RBX, RSP, RBP, RSI, RDI}
	for i, reg := range order {
		if reg == r {
			return byte(i)
		}
	}
	return 0
}

// modrm packs mod/reg/rm into a single ModR/M byte.
func modrm(mod, reg, rm byte) byte {
	return (mod << 6) | ((reg & 0x7) << 3) | (rm & 0x7)
}
