package seedkey

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"
)

// XorMaskTransform is the single-XOR legacy transform. Some older
// controllers use nothing stronger.
type XorMaskTransform struct {
	Mask uint32
}

func NewXorMask(mask uint32) *XorMaskTransform {
	return &XorMaskTransform{Mask: mask}
}

func (xt *XorMaskTransform) Name() string {
	return "xormask"
}

func (xt *XorMaskTransform) Derive(seed uint32) (key uint32, err error) {
	key = seed ^ xt.Mask

	return
}

// FeistelTransform is a 4-round Feistel permutation over the 16-bit
// halves of the seed. Round keys derive from the mask by SHA-256.
type FeistelTransform struct {
	rounds [4]uint16
}

func NewFeistel(mask uint32) *FeistelTransform {
	ft := &FeistelTransform{}

	sum := sha256.Sum256(binary.BigEndian.AppendUint32(nil, mask))
	for n := range ft.rounds {
		ft.rounds[n] = binary.BigEndian.Uint16(sum[n*2:])
	}

	return ft
}

func (ft *FeistelTransform) Name() string {
	return "feistel"
}

func (ft *FeistelTransform) round(half, key uint16) uint16 {
	x := uint32(half) ^ uint32(key)
	x = x*2654435761 + 1
	return uint16(x>>16) ^ uint16(x)
}

func (ft *FeistelTransform) Derive(seed uint32) (key uint32, err error) {
	left := uint16(seed >> 16)
	right := uint16(seed)

	for _, rk := range ft.rounds {
		left, right = right, left^ft.round(right, rk)
	}

	key = (uint32(left) << 16) | uint32(right)

	return
}

// Invert recovers the seed that derives the given key. The
// permutation is a bijection, so every key has exactly one preimage.
func (ft *FeistelTransform) Invert(key uint32) (seed uint32) {
	left := uint16(key >> 16)
	right := uint16(key)

	for n := len(ft.rounds) - 1; n >= 0; n-- {
		right, left = left, right^ft.round(left, ft.rounds[n])
	}

	return (uint32(left) << 16) | uint32(right)
}

// LcgTransform mixes a multiply/add keystream state with the rotated
// mask, in the style of printer-control keyring ciphers.
type LcgTransform struct {
	Mask uint32
}

func NewLcg(mask uint32) *LcgTransform {
	return &LcgTransform{Mask: mask}
}

func (lt *LcgTransform) Name() string {
	return "lcg"
}

func (lt *LcgTransform) Derive(seed uint32) (key uint32, err error) {
	state := seed*0x2D83CDAC + 0xD8A83423
	key = state ^ bits.RotateLeft32(lt.Mask, int(state&0x1f))

	return
}
