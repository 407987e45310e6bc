package diag

import (
	"errors"

	"github.com/ezrec/seedkey/access"
)

const (
	SidSecurityAccess = 0x27
	SidNegative       = 0x7F

	// A positive reply echoes the request SID plus this offset.
	positiveOffset = 0x40
)

// ISO 14229 negative response codes.
const (
	NrcGeneralReject               = 0x10
	NrcServiceNotSupported         = 0x11
	NrcSubFunctionNotSupported     = 0x12
	NrcIncorrectMessageLength      = 0x13
	NrcRequestSequenceError        = 0x24
	NrcRequestOutOfRange           = 0x31
	NrcSecurityAccessDenied        = 0x33
	NrcInvalidKey                  = 0x35
	NrcExceedNumberOfAttempts      = 0x36
	NrcRequiredTimeDelayNotExpired = 0x37
)

func negative(sid uint8, nrc uint8) []byte {
	return []byte{SidNegative, sid, nrc}
}

// nrcOf maps an access error to its negative response code.
// Anything unmapped is a general reject.
func nrcOf(err error) (nrc uint8) {
	switch {
	case errors.Is(err, access.ErrLevelUnknown):
		nrc = NrcRequestOutOfRange
	case errors.Is(err, access.ErrSequence):
		nrc = NrcRequestSequenceError
	case errors.Is(err, access.ErrSeedExpired):
		nrc = NrcRequestSequenceError
	case errors.Is(err, access.ErrInvalidKey):
		nrc = NrcInvalidKey
	case errors.Is(err, access.ErrAttemptsExceeded):
		nrc = NrcExceedNumberOfAttempts
	case errors.Is(err, access.ErrDelayActive):
		nrc = NrcRequiredTimeDelayNotExpired
	case errors.Is(err, ErrLocked):
		nrc = NrcSecurityAccessDenied
	default:
		nrc = NrcGeneralReject
	}

	return
}

// checkNegative converts a negative response payload into a
// NegativeError, passing positive payloads through.
func checkNegative(payload []byte) (err error) {
	if len(payload) == 3 && payload[0] == SidNegative {
		err = NegativeError{Sid: payload[1], Nrc: payload[2]}
	}

	return
}
