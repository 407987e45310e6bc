package seedkey

import (
	"errors"

	"github.com/ezrec/seedkey/translate"
)

var f = translate.From

var (
	// Starlark plugin errors
	ErrStarlarkDerive = errors.New(f("derive(seed, mask) missing or not callable"))
	ErrStarlarkResult = errors.New(f("derive() result is not an integer"))
)

// ErrTransformUnknown is returned when a transform name is not in the
// catalog.
type ErrTransformUnknown string

func (et ErrTransformUnknown) Error() string {
	return f("transform %v unknown", string(et))
}
