package entropy

// XorShift32 is a deterministic seed source for reproducible test
// vectors. A nonzero state never steps to zero, so the Source
// contract holds without rerolling.
type XorShift32 struct {
	state uint32
}

var _ Source = (*XorShift32)(nil)

// NewXorShift32 returns a source seeded from state. A zero state is
// remapped to 1.
func NewXorShift32(state uint32) *XorShift32 {
	if state == 0 {
		state = 1
	}

	return &XorShift32{state: state}
}

func (xs *XorShift32) Seed32() (seed uint32, err error) {
	x := xs.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	xs.state = x

	return x, nil
}
