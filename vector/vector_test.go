package vector

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/seedkey"
)

const testMask = uint32(0x04C11DB7)

func TestGenerate(t *testing.T) {
	assert := assert.New(t)

	set, err := Generate(seedkey.NewShiftXor(testMask), testMask, 4, 1)
	assert.NoError(err)
	assert.Equal("shiftxor", set.Algorithm)
	assert.Equal(Hex32(testMask), set.Mask)
	assert.Len(set.Rows, 4)

	// The PRNG stream from state 1 is fixed.
	assert.Equal(Hex32(0x00042021), set.Rows[0].Seed)
	assert.Equal(Hex32(0x04080601), set.Rows[1].Seed)

	for _, row := range set.Rows {
		assert.Equal(seedkey.SeedToKey(uint32(row.Seed), testMask), uint32(row.Key))
	}

	// The same PRNG seed reproduces the same set.
	again, err := Generate(seedkey.NewShiftXor(testMask), testMask, 4, 1)
	assert.NoError(err)
	assert.Equal(set, again)

	other, err := Generate(seedkey.NewShiftXor(testMask), testMask, 4, 2)
	assert.NoError(err)
	assert.NotEqual(set.Rows, other.Rows)
}

func TestGenerate_DefaultCount(t *testing.T) {
	assert := assert.New(t)

	set, err := Generate(seedkey.NewShiftXor(testMask), testMask, 0, 1)
	assert.NoError(err)
	assert.Len(set.Rows, DefaultCount)
}

func TestWrite_Read(t *testing.T) {
	assert := assert.New(t)

	set, err := Generate(seedkey.NewShiftXor(testMask), testMask, 3, 1)
	assert.NoError(err)

	var buf bytes.Buffer
	assert.NoError(Write(&buf, set))

	text := buf.String()
	assert.Contains(text, `"algorithm": "shiftxor"`)
	assert.Contains(text, `"mask": "0x04C11DB7"`)
	assert.Contains(text, `"seed": "0x00042021"`)

	loaded, err := Read(strings.NewReader(text))
	assert.NoError(err)
	assert.Equal(set, loaded)
}

func TestRead_Bad(t *testing.T) {
	assert := assert.New(t)

	table := []string{
		`{`,
		`{"algorithm": "shiftxor", "mask": "zzz", "rows": []}`,
		`{"algorithm": "shiftxor", "mask": "0x100000000", "rows": []}`,
	}

	for _, text := range table {
		set, err := Read(strings.NewReader(text))
		assert.Error(err, text)
		assert.Nil(set)
	}
}

func TestVerify(t *testing.T) {
	assert := assert.New(t)

	tr := seedkey.NewShiftXor(testMask)
	set, err := Generate(tr, testMask, 8, 0x600D5EED)
	assert.NoError(err)

	assert.NoError(Verify(set, tr))

	set.Rows[5].Key ^= 1
	err = Verify(set, tr)
	assert.ErrorIs(err, ErrMismatch{})

	var mismatch ErrMismatch
	assert.True(errors.As(err, &mismatch))
	assert.Equal(5, mismatch.Index)
	assert.Equal(uint32(set.Rows[5].Seed), mismatch.Seed)
	assert.Equal(mismatch.Got^1, mismatch.Want)
}

func TestVerify_WrongTransform(t *testing.T) {
	assert := assert.New(t)

	set := &Set{
		Algorithm: "shiftxor",
		Mask:      Hex32(testMask),
		Rows:      []Row{{Seed: 1, Key: 0x2608EDB8}},
	}

	assert.NoError(Verify(set, seedkey.NewShiftXor(testMask)))

	err := Verify(set, seedkey.NewXorMask(testMask))
	assert.ErrorIs(err, ErrMismatch{})

	var mismatch ErrMismatch
	assert.True(errors.As(err, &mismatch))
	assert.Equal(0, mismatch.Index)
	assert.Equal(uint32(1)^testMask, mismatch.Got)
}
