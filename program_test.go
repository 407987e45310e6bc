package seedkey

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/seedkey/vm"
)

func TestClassic(t *testing.T) {
	assert := assert.New(t)

	tr, err := Classic(0x04C11DB7)
	assert.NoError(err)
	assert.Equal("classic", tr.Name())

	seeds := []uint32{0, 1, 2, 0x12345678, 0x7FFFFFFF, 0x80000000, 0xDEADBEEF, 0xFFFFFFFF}
	for _, seed := range seeds {
		key, err := tr.Derive(seed)
		assert.NoError(err)
		assert.Equal(SeedToKey(seed, 0x04C11DB7), key, "seed=%08x", seed)
	}
}

func TestClassic_Known(t *testing.T) {
	assert := assert.New(t)

	tr, err := Classic(0x04C11DB7)
	assert.NoError(err)

	key, err := tr.Derive(1)
	assert.NoError(err)
	assert.Equal(uint32(0x2608EDB8), key)

	tr, err = Classic(0xFFFFFFFF)
	assert.NoError(err)

	key, err = tr.Derive(0x40000000)
	assert.NoError(err)
	assert.Equal(uint32(0xFFFFFFFF), key)
}

func TestNewProgram(t *testing.T) {
	assert := assert.New(t)

	asm := &vm.Assembler{}
	prog, err := asm.Parse(strings.NewReader("done seed\n"))
	assert.NoError(err)

	tr := NewProgram("echo", prog, 0)
	assert.Equal("echo", tr.Name())

	key, err := tr.Derive(0x600D5EED)
	assert.NoError(err)
	assert.Equal(uint32(0x600D5EED), key)
}

func TestNewProgram_Fail(t *testing.T) {
	assert := assert.New(t)

	asm := &vm.Assembler{}
	prog, err := asm.Parse(strings.NewReader("fail 0x35\n"))
	assert.NoError(err)

	tr := NewProgram("reject", prog, 0)
	key, err := tr.Derive(1)
	assert.ErrorIs(err, vm.ErrAlgorithmFail{})
	assert.Equal(uint32(0), key)

	var fail vm.ErrAlgorithmFail
	assert.True(errors.As(err, &fail))
	assert.Equal(uint16(0x35), fail.Code)
}

func TestDefines(t *testing.T) {
	assert := assert.New(t)

	defines := maps.Collect(Defines())
	assert.Equal("35", defines["ROUNDS_CLASSIC"])
}
