package seedkey

import (
	"maps"
	"slices"
)

// Transform derives keys from seed challenges. Implementations bind
// their mask and parameters at construction and are safe for
// concurrent use.
type Transform interface {
	Name() string
	Derive(seed uint32) (key uint32, err error)
}

var catalog = map[string]func(mask uint32) Transform{
	"shiftxor": func(mask uint32) Transform { return NewShiftXor(mask) },
	"xormask":  func(mask uint32) Transform { return NewXorMask(mask) },
	"feistel":  func(mask uint32) Transform { return NewFeistel(mask) },
	"lcg":      func(mask uint32) Transform { return NewLcg(mask) },
}

// New creates a built-in transform by catalog name.
func New(name string, mask uint32) (tr Transform, err error) {
	create, ok := catalog[name]
	if !ok {
		err = ErrTransformUnknown(name)
		return
	}

	tr = create(mask)

	return
}

// Names returns the built-in transform catalog, sorted.
func Names() (names []string) {
	names = slices.Collect(maps.Keys(catalog))
	slices.Sort(names)

	return
}

// ShiftXorTransform is the canonical transform bound to a mask and
// round count.
type ShiftXorTransform struct {
	Mask   uint32
	Rounds int
}

// NewShiftXor creates the canonical transform with DefaultRounds.
func NewShiftXor(mask uint32) *ShiftXorTransform {
	return NewShiftXorRounds(mask, DefaultRounds)
}

// NewShiftXorRounds creates the canonical transform with an explicit
// round count. Rounds of zero or less select DefaultRounds.
func NewShiftXorRounds(mask uint32, rounds int) *ShiftXorTransform {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return &ShiftXorTransform{Mask: mask, Rounds: rounds}
}

func (st *ShiftXorTransform) Name() string {
	return "shiftxor"
}

func (st *ShiftXorTransform) Derive(seed uint32) (key uint32, err error) {
	key = ShiftXor(seed, st.Mask, st.Rounds)

	return
}
