package diag

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/ezrec/seedkey"
	"github.com/ezrec/seedkey/access"
)

// Client speaks the diagnostic protocol over one connection.
// Exchanges are sequential; a Client is not safe for concurrent use.
type Client struct {
	Timeout time.Duration // Per-exchange deadline (0 = none).

	conn net.Conn
}

// Dial connects to a diagnostic server.
func Dial(addr string) (cl *Client, err error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return
	}

	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

func (cl *Client) Close() error {
	return cl.conn.Close()
}

func (cl *Client) exchange(request Frame, want FrameType) (payload []byte, err error) {
	if cl.Timeout > 0 {
		cl.conn.SetDeadline(time.Now().Add(cl.Timeout))
	}

	err = WriteFrame(cl.conn, request)
	if err != nil {
		return
	}

	reply, err := ReadFrame(cl.conn)
	if err != nil {
		return
	}
	if reply.Type != want {
		err = ErrFrameType
		return
	}

	return reply.Payload, nil
}

// RequestSeed asks for the challenge of a level. Seed 0 means the
// level is already unlocked.
func (cl *Client) RequestSeed(level access.Level) (seed uint32, err error) {
	payload, err := cl.exchange(Frame{
		Type:    TypeDiagRequest,
		Payload: []byte{SidSecurityAccess, byte(level)},
	}, TypeDiagResponse)
	if err != nil {
		return
	}

	err = checkNegative(payload)
	if err != nil {
		return
	}

	if len(payload) != 6 || payload[0] != SidSecurityAccess+positiveOffset || payload[1] != byte(level) {
		err = ErrResponseMalformed
		return
	}

	return binary.BigEndian.Uint32(payload[2:6]), nil
}

// SendKey submits the key answering the pending challenge of a
// level.
func (cl *Client) SendKey(level access.Level, key uint32) (err error) {
	request := binary.BigEndian.AppendUint32([]byte{SidSecurityAccess, byte(level + 1)}, key)

	payload, err := cl.exchange(Frame{Type: TypeDiagRequest, Payload: request}, TypeDiagResponse)
	if err != nil {
		return
	}

	err = checkNegative(payload)
	if err != nil {
		return
	}

	if len(payload) != 2 || payload[0] != SidSecurityAccess+positiveOffset || payload[1] != byte(level+1) {
		err = ErrResponseMalformed
	}

	return
}

// Alive probes the server.
func (cl *Client) Alive() (err error) {
	_, err = cl.exchange(Frame{Type: TypeAliveRequest}, TypeAliveResponse)

	return
}

// FetchGrant retrieves a signed unlock grant for an unlocked level.
func (cl *Client) FetchGrant(level access.Level) (grant string, err error) {
	payload, err := cl.exchange(Frame{
		Type:    TypeGrantRequest,
		Payload: []byte{byte(level)},
	}, TypeGrantResponse)
	if err != nil {
		return
	}

	err = checkNegative(payload)
	if err != nil {
		return
	}
	if len(payload) == 0 {
		err = ErrResponseMalformed
		return
	}

	return string(payload), nil
}

// Unlock runs the full seed/key exchange for a level, deriving the
// key locally. A zero seed reports the level already unlocked.
func (cl *Client) Unlock(level access.Level, tr seedkey.Transform) (unlocked bool, err error) {
	seed, err := cl.RequestSeed(level)
	if err != nil {
		return
	}
	if seed == 0 {
		return true, nil
	}

	key, err := tr.Derive(seed)
	if err != nil {
		return
	}

	err = cl.SendKey(level, key)
	if err != nil {
		return
	}

	return true, nil
}
