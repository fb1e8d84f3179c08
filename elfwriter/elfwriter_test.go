package elfwriter

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nxlang/nxc/encoder"
)

func TestWriteProducesValidElfHeader(t *testing.T) {
	res := &encoder.Result{
		Code:  []byte{0xB8, 0x01, 0x02, 0x03, 0x04, 0xC3},
		Entry: 0,
	}
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Write(path, res, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), elfHeaderSize, "file too short")
	require.Equal(t, "\x7FELF", string(data[0:4]), "bad magic")
	require.Equal(t, byte(2), data[4], "expected ELFCLASS64")

	etype := binary.LittleEndian.Uint16(data[16:18])
	require.Equal(t, uint16(2), etype, "expected ET_EXEC")

	machine := binary.LittleEndian.Uint16(data[18:20])
	require.Equal(t, uint16(0x3E), machine, "expected EM_X86_64")

	entry := binary.LittleEndian.Uint64(data[24:32])
	require.Equal(t, uint64(baseVaddr+headersSize), entry)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode().Perm()&0o111, "expected an executable file mode, got %v", info.Mode())
}

func TestWriteResolvesStringFixup(t *testing.T) {
	res := &encoder.Result{
		Code:      append([]byte{0x48, 0xBE}, make([]byte, 8)...), // movabs rsi, <placeholder>
		Entry:     0,
		StrFixups: []encoder.StringFixup{{Pos: 2, Label: "str_0"}},
	}
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Write(path, res, []string{"hi"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	codeStart := elfHeaderSize + programHeaderSize
	addr := binary.LittleEndian.Uint64(data[codeStart+2 : codeStart+10])
	wantAddr := uint64(baseVaddr + headersSize + len(res.Code))
	require.Equal(t, wantAddr, addr, "patched address")

	rodataStart := codeStart + len(res.Code)
	require.Equal(t, "hi", string(data[rodataStart:rodataStart+2]))
	require.Zero(t, data[rodataStart+2], "expected a NUL terminator after the string")
}

func TestWriteUnresolvedStringFixupIsError(t *testing.T) {
	res := &encoder.Result{
		Code:      make([]byte, 10),
		StrFixups: []encoder.StringFixup{{Pos: 2, Label: "str_9"}},
	}
	path := filepath.Join(t.TempDir(), "out")
	err := Write(path, res, []string{"only one"})
	require.Error(t, err, "expected an error for a string fixup with no matching entry")
}
