package encoder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nxlang/nxc/codegen"
	"github.com/nxlang/nxc/symtab"
)

func unit(functions ...codegen.Function) *codegen.Unit {
	return &codegen.Unit{
		EntryFunc: codegen.StartStubLabel,
		MainLabel: "func_0",
		Functions: functions,
		Strings:   symtab.NewStringTable(),
	}
}

func TestEncodeMovRegImm64(t *testing.T) {
	u := unit(codegen.Function{
		Label: codegen.StartStubLabel,
		Instrs: []codegen.Instruction{
			codegen.Inst(codegen.MOV, codegen.Reg(codegen.RAX), codegen.Imm(42)),
			codegen.Inst(codegen.RET),
		},
	})
	res, err := Encode(u)
	require.NoError(t, err)
	want := []byte{0x48, 0xB8, 42, 0, 0, 0, 0, 0, 0, 0, 0xC3}
	require.Equal(t, want, res.Code)
}

func TestEncodePushPopRegister(t *testing.T) {
	u := unit(codegen.Function{
		Label: codegen.StartStubLabel,
		Instrs: []codegen.Instruction{
			codegen.Inst(codegen.PUSH, codegen.Reg(codegen.RBP)),
			codegen.Inst(codegen.POP, codegen.Reg(codegen.RBP)),
		},
	})
	res, err := Encode(u)
	require.NoError(t, err)
	want := []byte{0x50 + 5, 0x58 + 5} // rbp is index 5
	require.Equal(t, want, res.Code)
}

func TestEncodeSyscallSequence(t *testing.T) {
	u := unit(codegen.Function{
		Label: codegen.StartStubLabel,
		Instrs: []codegen.Instruction{
			codegen.Inst(codegen.MOV, codegen.Reg(codegen.RAX), codegen.Imm(60)),
			codegen.Inst(codegen.SYSCALL),
		},
	})
	res, err := Encode(u)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(res.Code, []byte{0x0F, 0x05}), "expected trailing syscall bytes, got % x", res.Code)
}

func TestEncodeCallResolvesForwardLabel(t *testing.T) {
	u := unit(
		codegen.Function{
			Label: codegen.StartStubLabel,
			Instrs: []codegen.Instruction{
				codegen.Inst(codegen.CALL, codegen.Lbl("func_0")),
				codegen.Inst(codegen.RET),
			},
		},
		codegen.Function{
			Label: "func_0",
			Instrs: []codegen.Instruction{
				codegen.Inst(codegen.RET),
			},
		},
	)
	res, err := Encode(u)
	require.NoError(t, err)
	// call opcode at offset 0, rel32 at offset 1; func_0 starts right after
	// _start's two instructions (call=5 bytes, ret=1 byte) at offset 6.
	callTarget := int32(res.Code[1]) | int32(res.Code[2])<<8 | int32(res.Code[3])<<16 | int32(res.Code[4])<<24
	wantRel := int32(6 - 5) // target offset minus (pos after rel32 field)
	require.Equal(t, wantRel, callTarget)
}

func TestEncodeUndefinedLabelIsError(t *testing.T) {
	u := unit(codegen.Function{
		Label: codegen.StartStubLabel,
		Instrs: []codegen.Instruction{
			codegen.Inst(codegen.JMP, codegen.Lbl("nowhere")),
		},
	})
	if _, err := Encode(u); err == nil {
		t.Fatal("expected an error for an unresolved jump target")
	}
}

func TestEncodeLeaRecordsStringFixup(t *testing.T) {
	u := unit(codegen.Function{
		Label: codegen.StartStubLabel,
		Instrs: []codegen.Instruction{
			codegen.Inst(codegen.MOV, codegen.Reg(codegen.RAX), codegen.Imm(1)), // 10 bytes, pushes lea's imm field to offset 12
			codegen.Inst(codegen.LEA, codegen.Reg(codegen.RSI), codegen.Lbl("str_0")),
		},
	})
	res, err := Encode(u)
	require.NoError(t, err)
	require.Len(t, res.StrFixups, 1)
	fx := res.StrFixups[0]
	require.Equal(t, "str_0", fx.Label)
	wantPos := 10 + 2 // after the mov (10 bytes) and lea's rex+opcode (2 bytes)
	require.Equal(t, wantPos, fx.Pos)
	require.Equal(t, len(res.Code), fx.Pos+8, "fixup does not point at the trailing 8-byte placeholder")
}

func TestEncodeEntryPointIsStartStub(t *testing.T) {
	u := unit(
		codegen.Function{Label: codegen.StartStubLabel, Instrs: []codegen.Instruction{codegen.Inst(codegen.RET)}},
		codegen.Function{Label: "func_0", Instrs: []codegen.Instruction{codegen.Inst(codegen.RET)}},
	)
	res, err := Encode(u)
	require.NoError(t, err)
	require.Equal(t, 0, res.Entry, "want 0 (start of _start)")
}

func TestEncodeSetccAndMovzx(t *testing.T) {
	u := unit(codegen.Function{
		Label: codegen.StartStubLabel,
		Instrs: []codegen.Instruction{
			codegen.Inst(codegen.SETE, codegen.Reg(codegen.RAX)),
			codegen.Inst(codegen.MOVZX, codegen.Reg(codegen.RAX), codegen.Reg(codegen.RAX)),
		},
	})
	res, err := Encode(u)
	require.NoError(t, err)
	want := []byte{0x40, 0x0F, 0x94, 0xC0, 0x48, 0x0F, 0xB6, 0xC0}
	require.Equal(t, want, res.Code)
}
