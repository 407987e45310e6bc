// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package seedkey derives ECU security-access keys from seed
// challenges.
//
// The canonical transform is a 35-round conditional shift-XOR over a
// secret mask. Variant transforms, Starlark plugin transforms, and a
// bytecode machine for OEM-specific algorithms build on the same
// Transform interface.
package seedkey

// DefaultRounds is the round count of the canonical transform.
const DefaultRounds = 35

// SeedToKey derives the key for a seed challenge using the canonical
// shift-XOR transform over the mask. A zero seed always yields a zero
// key.
func SeedToKey(seed, mask uint32) (key uint32) {
	return ShiftXor(seed, mask, DefaultRounds)
}

// ShiftXor is the canonical transform with an explicit round count,
// for OEM variants that run a different number of rounds. Rounds of
// zero or less select DefaultRounds.
func ShiftXor(seed, mask uint32, rounds int) (key uint32) {
	if seed == 0 {
		return 0
	}
	if rounds <= 0 {
		rounds = DefaultRounds
	}

	key = seed
	for range rounds {
		if key&0x80000000 != 0 {
			key = (key << 1) ^ mask
		} else {
			key <<= 1
		}
	}

	return key
}
