// Package elfwriter assembles a bare ET_EXEC ELF64 executable from an
// encoder.Result: one ELF header, one program header, and a single PT_LOAD
// segment holding both the code and the interned string data (spec §4.6).
// There is no linker and no section headers; the file is exactly what the
// kernel's ELF loader needs and nothing more. Grounded on the teacher's
// loader.LoadProgramIntoVM (address-map-then-patch, two passes: lay
// everything out, then resolve every literal-pool reference) but retargeted
// from loading into an in-process VM to writing bytes meant for execve(2).
package elfwriter

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/nxlang/nxc/encoder"
)

const (
	baseVaddr = 0x400000
	pageAlign = 0x1000

	elfHeaderSize     = 64
	programHeaderSize = 56
	headersSize       = elfHeaderSize + programHeaderSize
)

// Write lays out and writes a static ET_EXEC executable at path containing
// res's code and the program's interned strings, resolving every
// encoder.StringFixup to its final absolute address. The file is written
// with execute permission set (spec §4.6: no external linker step, so the
// compiler itself must produce a runnable file).
func Write(path string, res *encoder.Result, strings []string) error {
	rodata, offsets := layoutStrings(strings)

	codeVaddr := baseVaddr + headersSize
	rodataVaddr := codeVaddr + len(res.Code)
	entry := codeVaddr + res.Entry

	code := append([]byte(nil), res.Code...)
	for _, fx := range res.StrFixups {
		idx, ok := indexOf(strings, fx.Label)
		if !ok {
			return fmt.Errorf("elfwriter: unresolved string literal %q", fx.Label)
		}
		addr := uint64(rodataVaddr + offsets[idx])
		if fx.Pos+8 > len(code) {
			return fmt.Errorf("elfwriter: string fixup at %d falls outside the code buffer", fx.Pos)
		}
		binary.LittleEndian.PutUint64(code[fx.Pos:fx.Pos+8], addr)
	}

	filesz := headersSize + len(code) + len(rodata)

	buf := make([]byte, 0, filesz)
	buf = append(buf, elfHeader(uint64(entry))...)
	buf = append(buf, programHeader(uint64(filesz))...)
	buf = append(buf, code...)
	buf = append(buf, rodata...)

	return os.WriteFile(path, buf, 0o755)
}

// layoutStrings concatenates every interned string's bytes back to back,
// each followed by a single NUL terminator, and returns each string's byte
// offset within the concatenation so fixups can compute an absolute address.
func layoutStrings(strings []string) ([]byte, []int) {
	var rodata []byte
	offsets := make([]int, len(strings))
	for i, s := range strings {
		offsets[i] = len(rodata)
		rodata = append(rodata, s...)
		rodata = append(rodata, 0)
	}
	return rodata, offsets
}

func indexOf(strings []string, label string) (int, bool) {
	// Labels are assigned str_0, str_1, ... in interning order (symtab's
	// StringTable), so the label's numeric suffix is the slice index.
	var idx int
	if _, err := fmt.Sscanf(label, "str_%d", &idx); err != nil {
		return 0, false
	}
	if idx < 0 || idx >= len(strings) {
		return 0, false
	}
	return idx, true
}

// elfHeader builds the 64-byte ELF64 header for a little-endian x86-64
// ET_EXEC file with exactly one program header.
func elfHeader(entry uint64) []byte {
	h := make([]byte, elfHeaderSize)
	copy(h[0:4], []byte{0x7F, 'E', 'L', 'F'})
	h[4] = 2 // ELFCLASS64
	h[5] = 1 // ELFDATA2LSB
	h[6] = 1 // EV_CURRENT
	h[7] = 0 // ELFOSABI_SYSV
	// bytes 8..15 (ABI version + padding) stay zero.
	binary.LittleEndian.PutUint16(h[16:18], 2)                // e_type = ET_EXEC
	binary.LittleEndian.PutUint16(h[18:20], 0x3E)              // e_machine = EM_X86_64
	binary.LittleEndian.PutUint32(h[20:24], 1)                 // e_version
	binary.LittleEndian.PutUint64(h[24:32], entry)             // e_entry
	binary.LittleEndian.PutUint64(h[32:40], elfHeaderSize)     // e_phoff
	binary.LittleEndian.PutUint64(h[40:48], 0)                 // e_shoff (none)
	binary.LittleEndian.PutUint32(h[48:52], 0)                 // e_flags
	binary.LittleEndian.PutUint16(h[52:54], elfHeaderSize)     // e_ehsize
	binary.LittleEndian.PutUint16(h[54:56], programHeaderSize) // e_phentsize
	binary.LittleEndian.PutUint16(h[56:58], 1)                 // e_phnum
	binary.LittleEndian.PutUint16(h[58:60], 0)                 // e_shentsize
	binary.LittleEndian.PutUint16(h[60:62], 0)                 // e_shnum
	binary.LittleEndian.PutUint16(h[62:64], 0)                 // e_shstrndx
	return h
}

// programHeader builds the single PT_LOAD segment covering the whole file
// (headers + code + rodata), readable and executable, mapped at baseVaddr.
func programHeader(filesz uint64) []byte {
	p := make([]byte, programHeaderSize)
	binary.LittleEndian.PutUint32(p[0:4], 1)           // p_type = PT_LOAD
	binary.LittleEndian.PutUint32(p[4:8], 5)            // p_flags = PF_R | PF_X
	binary.LittleEndian.PutUint64(p[8:16], 0)           // p_offset
	binary.LittleEndian.PutUint64(p[16:24], baseVaddr)  // p_vaddr
	binary.LittleEndian.PutUint64(p[24:32], baseVaddr)  // p_paddr
	binary.LittleEndian.PutUint64(p[32:40], filesz)     // p_filesz
	binary.LittleEndian.PutUint64(p[40:48], filesz)     // p_memsz
	binary.LittleEndian.PutUint64(p[48:56], pageAlign)  // p_align
	return p
}
