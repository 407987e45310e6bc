package entropy

import (
	"crypto/rand"
	"encoding/binary"
)

// Crypto draws seeds from the operating system entropy pool,
// rerolling the rare zero draw.
type Crypto struct{}

var _ Source = (*Crypto)(nil)

func (cr *Crypto) Seed32() (seed uint32, err error) {
	var buf [4]byte

	for seed == 0 {
		_, err = rand.Read(buf[:])
		if err != nil {
			return
		}
		seed = binary.BigEndian.Uint32(buf[:])
	}

	return
}
