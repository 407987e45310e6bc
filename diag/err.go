package diag

import (
	"errors"

	"github.com/ezrec/seedkey/translate"
)

var f = translate.From

var (
	ErrFrameVersion      = errors.New(f("frame version"))
	ErrFrameType         = errors.New(f("frame type"))
	ErrPayloadSize       = errors.New(f("payload size"))
	ErrResponseMalformed = errors.New(f("response malformed"))
	ErrLocked            = errors.New(f("level locked"))
)

// NegativeError is a UDS negative response from the server.
type NegativeError struct {
	Sid uint8
	Nrc uint8
}

func (ne NegativeError) Error() string {
	return f("negative response sid 0x%02x nrc 0x%02x", ne.Sid, ne.Nrc)
}

func (ne NegativeError) Is(err error) (ok bool) {
	_, ok = err.(NegativeError)
	return
}
