package access

import (
	"errors"

	"github.com/ezrec/seedkey/translate"
)

var f = translate.From

var (
	ErrLevelUnknown     = errors.New(f("level unknown"))
	ErrLevelEven        = errors.New(f("level must be odd"))
	ErrTransformMissing = errors.New(f("level transform missing"))
	ErrSequence         = errors.New(f("no seed outstanding"))
	ErrSeedExpired      = errors.New(f("seed expired"))
	ErrDelayActive      = errors.New(f("delay timer active"))
	ErrInvalidKey       = errors.New(f("invalid key"))
	ErrAttemptsExceeded = errors.New(f("attempt limit exceeded"))
)
