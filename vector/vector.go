// Package vector generates and verifies known-answer vector sets
// for seed-to-key transforms.
package vector

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ezrec/seedkey"
	"github.com/ezrec/seedkey/entropy"
	"github.com/ezrec/seedkey/translate"
)

var f = translate.From

const DefaultCount = 16

// Hex32 renders as "0xXXXXXXXX" in JSON.
type Hex32 uint32

func (h Hex32) MarshalText() ([]byte, error) {
	return fmt.Appendf(nil, "0x%08X", uint32(h)), nil
}

func (h *Hex32) UnmarshalText(text []byte) (err error) {
	value, err := strconv.ParseUint(string(text), 0, 32)
	if err != nil {
		return
	}
	*h = Hex32(value)

	return
}

// Row is one seed/key pair.
type Row struct {
	Seed Hex32 `json:"seed"`
	Key  Hex32 `json:"key"`
}

// Set is a reproducible collection of known-answer rows for one
// transform.
type Set struct {
	Algorithm string `json:"algorithm"`
	Mask      Hex32  `json:"mask"`
	Rows      []Row  `json:"rows"`
}

// Generate derives count rows with seeds drawn from a deterministic
// PRNG, so the same prngSeed always reproduces the same set.
func Generate(tr seedkey.Transform, mask uint32, count int, prngSeed uint32) (set *Set, err error) {
	if count <= 0 {
		count = DefaultCount
	}

	source := entropy.NewXorShift32(prngSeed)
	set = &Set{
		Algorithm: tr.Name(),
		Mask:      Hex32(mask),
		Rows:      make([]Row, 0, count),
	}

	for range count {
		var seed uint32
		seed, err = source.Seed32()
		if err != nil {
			return nil, err
		}

		var key uint32
		key, err = tr.Derive(seed)
		if err != nil {
			return nil, err
		}

		set.Rows = append(set.Rows, Row{Seed: Hex32(seed), Key: Hex32(key)})
	}

	return
}

// Write emits a set as indented JSON.
func Write(w io.Writer, set *Set) (err error) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(set)
}

// Read parses a JSON set.
func Read(r io.Reader) (set *Set, err error) {
	set = &Set{}
	err = json.NewDecoder(r).Decode(set)
	if err != nil {
		set = nil
	}

	return
}

// ErrMismatch reports the first row whose key fails to re-derive.
type ErrMismatch struct {
	Index int
	Seed  uint32
	Want  uint32
	Got   uint32
}

func (em ErrMismatch) Error() string {
	return f("row %d seed 0x%08X key 0x%08X derived 0x%08X", em.Index, em.Seed, em.Want, em.Got)
}

func (em ErrMismatch) Is(err error) (ok bool) {
	_, ok = err.(ErrMismatch)
	return
}

// Verify re-derives every row of a set against a transform.
func Verify(set *Set, tr seedkey.Transform) (err error) {
	for index, row := range set.Rows {
		key, err := tr.Derive(uint32(row.Seed))
		if err != nil {
			return err
		}

		if key != uint32(row.Key) {
			return ErrMismatch{
				Index: index,
				Seed:  uint32(row.Seed),
				Want:  uint32(row.Key),
				Got:   key,
			}
		}
	}

	return nil
}
