package vm

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func codeList(prog *Program) (codes []Code) {
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}
	return
}

// refit recomputes the CRC trailer after a test corrupts the body.
func refit(data []byte) []byte {
	sum := crc32.ChecksumIEEE(data[:len(data)-4])
	binary.BigEndian.PutUint32(data[len(data)-4:], sum)
	return data
}

func TestProgram_Container(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, classicSource...)
	prog.Name = "classic"

	data, err := prog.MarshalBinary()
	assert.NoError(err)

	loaded := &Program{}
	err = loaded.UnmarshalBinary(data)
	assert.NoError(err)

	assert.Equal("classic", loaded.Name)
	assert.Equal(prog.Len(), loaded.Len())
	assert.Equal(codeList(prog), codeList(loaded))

	// The reloaded program derives the same key.
	m := &Machine{}
	key, err := m.Run(loaded, 0x00000001, 0x04C11DB7)
	assert.NoError(err)
	assert.Equal(uint32(0x2608EDB8), key)
}

func TestProgram_Container_NameLength(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, classicSource...)

	prog.Name = strings.Repeat("x", 255)
	data, err := prog.MarshalBinary()
	assert.NoError(err)

	loaded := &Program{}
	assert.NoError(loaded.UnmarshalBinary(data))
	assert.Equal(prog.Name, loaded.Name)

	prog.Name = strings.Repeat("x", 256)
	_, err = prog.MarshalBinary()
	assert.ErrorIs(err, ErrContainerName)
}

func TestProgram_Container_Empty(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{}
	data, err := prog.MarshalBinary()
	assert.NoError(err)

	loaded := &Program{}
	err = loaded.UnmarshalBinary(data)
	assert.NoError(err)
	assert.Equal(0, loaded.Len())
}

func TestProgram_Container_Checksum(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, classicSource...)
	data, err := prog.MarshalBinary()
	assert.NoError(err)

	data[len(data)/2] ^= 0xff

	loaded := &Program{}
	err = loaded.UnmarshalBinary(data)
	assert.ErrorIs(err, ErrContainerChecksum)
}

func TestProgram_Container_Magic(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, classicSource...)
	data, err := prog.MarshalBinary()
	assert.NoError(err)

	data[0] = 'X'
	refit(data)

	loaded := &Program{}
	err = loaded.UnmarshalBinary(data)
	assert.ErrorIs(err, ErrContainerMagic)
}

func TestProgram_Container_Version(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, classicSource...)
	data, err := prog.MarshalBinary()
	assert.NoError(err)

	data[3] = '2'
	refit(data)

	loaded := &Program{}
	err = loaded.UnmarshalBinary(data)
	assert.ErrorIs(err, ErrContainerVersion)
}

func TestProgram_Container_Truncated(t *testing.T) {
	assert := assert.New(t)

	loaded := &Program{}
	err := loaded.UnmarshalBinary([]byte{1, 2, 3})
	assert.ErrorIs(err, ErrContainerTruncated)

	prog := mustAssemble(t, classicSource...)
	data, err := prog.MarshalBinary()
	assert.NoError(err)

	// Unnamed program: the code count sits right after the magic.
	count := binary.BigEndian.Uint16(data[5:7])

	// Claim one more code than the container holds.
	binary.BigEndian.PutUint16(data[5:7], count+1)
	refit(data)
	err = loaded.UnmarshalBinary(data)
	assert.ErrorIs(err, ErrContainerTruncated)

	// Claim one less, leaving trailing garbage.
	binary.BigEndian.PutUint16(data[5:7], count-1)
	refit(data)
	err = loaded.UnmarshalBinary(data)
	assert.ErrorIs(err, ErrContainerTruncated)
}

func TestProgram_Container_ImmMismatch(t *testing.T) {
	assert := assert.New(t)

	// A 'nop' carrying an immediate it cannot consume.
	var buf bytes.Buffer
	buf.WriteString(containerMagic)
	buf.WriteByte(0) // no name
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(0x1b0c))
	buf.WriteByte(1)
	binary.Write(&buf, binary.BigEndian, uint16(0x0001))
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(buf.Bytes()))

	loaded := &Program{}
	err := loaded.UnmarshalBinary(buf.Bytes())
	assert.ErrorIs(err, ErrOpcodeImm)

	// An imm16 operand with no immediate present.
	buf.Reset()
	buf.WriteString(containerMagic)
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, uint16(1))
	binary.Write(&buf, binary.BigEndian, uint16(0x000e))
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(buf.Bytes()))

	err = loaded.UnmarshalBinary(buf.Bytes())
	assert.ErrorIs(err, ErrOpcodeImm)
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, classicSource...)

	dbg := prog.Debug(4)
	assert.NotNil(dbg.Opcode)
	assert.Equal([]string{"alu", "shl", "r0", "1"}, dbg.Opcode.Words)
	assert.Equal(0, dbg.Index)

	// Inside the three-code 'loop' expansion.
	dbg = prog.Debug(8)
	assert.NotNil(dbg.Opcode)
	assert.Equal(7, dbg.Opcode.Ip)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(100)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Len(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, classicSource...)
	assert.Equal(11, prog.Len())
}
