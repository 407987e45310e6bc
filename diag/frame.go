// Package diag implements the diagnostic wire protocol: a framed
// byte stream carrying UDS SecurityAccess exchanges, unlock grant
// fetches, and liveness probes.
package diag

import (
	"encoding/binary"
	"io"
)

const (
	FrameVersion = 0x01
	HeaderSize   = 4
	MaxPayload   = 4096
)

// FrameType tags the payload of one frame.
type FrameType uint8

const (
	TypeDiagRequest   FrameType = 0x01
	TypeDiagResponse  FrameType = 0x02
	TypeGrantRequest  FrameType = 0x03
	TypeGrantResponse FrameType = 0x04
	TypeAliveRequest  FrameType = 0x05
	TypeAliveResponse FrameType = 0x06
)

// Frame is one protocol message: version, type, payload length
// (uint16, big endian), payload.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// WriteFrame writes one frame in a single Write call.
func WriteFrame(w io.Writer, frame Frame) (err error) {
	if len(frame.Payload) > MaxPayload {
		return ErrPayloadSize
	}

	buf := make([]byte, HeaderSize+len(frame.Payload))
	buf[0] = FrameVersion
	buf[1] = byte(frame.Type)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(frame.Payload)))
	copy(buf[HeaderSize:], frame.Payload)

	_, err = w.Write(buf)

	return
}

// ReadFrame reads one frame. A short stream reports
// io.ErrUnexpectedEOF via io.ReadFull.
func ReadFrame(r io.Reader) (frame Frame, err error) {
	var header [HeaderSize]byte

	_, err = io.ReadFull(r, header[:])
	if err != nil {
		return
	}

	if header[0] != FrameVersion {
		err = ErrFrameVersion
		return
	}

	size := binary.BigEndian.Uint16(header[2:4])
	if size > MaxPayload {
		err = ErrPayloadSize
		return
	}

	frame.Type = FrameType(header[1])
	if size > 0 {
		frame.Payload = make([]byte, size)
		_, err = io.ReadFull(r, frame.Payload)
		if err != nil {
			frame = Frame{}
			return
		}
	}

	return
}
