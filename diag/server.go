// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package diag

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/ezrec/seedkey/access"
)

// Server answers diagnostic requests against an access manager.
type Server struct {
	Manager     *access.Manager
	Granter     *access.Granter // If set, enables grant requests.
	Verbose     bool            // If set, enables exchange logging.
	MaxConns    int             // Concurrent connection limit (0 = unlimited).
	IdleTimeout time.Duration   // Per-frame read deadline (0 = none).
}

// ListenAndServe listens on a TCP address and serves until ctx is
// cancelled.
func (srv *Server) ListenAndServe(ctx context.Context, addr string) (err error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return
	}

	return srv.Serve(ctx, listener)
}

// Serve accepts connections until ctx is cancelled, then closes the
// listener and waits for in-flight connections.
func (srv *Server) Serve(ctx context.Context, listener net.Listener) (err error) {
	if srv.MaxConns > 0 {
		listener = netutil.LimitListener(listener, srv.MaxConns)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			listener.Close()
		case <-done:
		}
	}()

	if srv.Verbose {
		log.Printf("diag: listening on %v", listener.Addr())
	}

	var conns sync.WaitGroup
	defer conns.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			srv.serveConn(ctx, conn)
		}()
	}
}

func (srv *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if srv.Verbose {
		log.Printf("diag: %v connected", conn.RemoteAddr())
	}

	for {
		if srv.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(srv.IdleTimeout))
		}

		frame, err := ReadFrame(conn)
		if err != nil {
			if srv.Verbose && !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("diag: %v read: %v", conn.RemoteAddr(), err)
			}
			return
		}

		reply, err := srv.handle(frame)
		if err != nil {
			if srv.Verbose {
				log.Printf("diag: %v: %v", conn.RemoteAddr(), err)
			}
			return
		}

		if srv.Verbose {
			log.Printf("diag: %v [% 02x] -> [% 02x]", conn.RemoteAddr(), frame.Payload, reply.Payload)
		}

		err = WriteFrame(conn, reply)
		if err != nil {
			return
		}
	}
}

// handle answers one frame. A frame-level violation drops the
// connection.
func (srv *Server) handle(frame Frame) (reply Frame, err error) {
	switch frame.Type {
	case TypeDiagRequest:
		reply = Frame{Type: TypeDiagResponse, Payload: srv.diagReply(frame.Payload)}
	case TypeGrantRequest:
		reply = Frame{Type: TypeGrantResponse, Payload: srv.grantReply(frame.Payload)}
	case TypeAliveRequest:
		reply = Frame{Type: TypeAliveResponse, Payload: frame.Payload}
	default:
		err = ErrFrameType
	}

	return
}

func (srv *Server) diagReply(request []byte) (response []byte) {
	if len(request) == 0 {
		return negative(0, NrcIncorrectMessageLength)
	}

	sid := request[0]
	if sid != SidSecurityAccess {
		return negative(sid, NrcServiceNotSupported)
	}
	if len(request) < 2 {
		return negative(sid, NrcIncorrectMessageLength)
	}

	sub := request[1]
	switch {
	case sub == 0:
		return negative(sid, NrcSubFunctionNotSupported)

	case sub%2 == 1:
		if len(request) != 2 {
			return negative(sid, NrcIncorrectMessageLength)
		}

		seed, err := srv.Manager.RequestSeed(access.Level(sub))
		if err != nil {
			return negative(sid, nrcOf(err))
		}

		return binary.BigEndian.AppendUint32([]byte{sid + positiveOffset, sub}, seed)

	default:
		if len(request) != 6 {
			return negative(sid, NrcIncorrectMessageLength)
		}

		key := binary.BigEndian.Uint32(request[2:6])
		err := srv.Manager.SubmitKey(access.Level(sub-1), key)
		if err != nil {
			return negative(sid, nrcOf(err))
		}

		return []byte{sid + positiveOffset, sub}
	}
}

// grantReply answers a grant request. A negative grant response
// reuses the UDS negative payload; a JWT never begins with 0x7F.
func (srv *Server) grantReply(request []byte) (response []byte) {
	if srv.Granter == nil {
		return negative(SidSecurityAccess, NrcServiceNotSupported)
	}
	if len(request) != 1 {
		return negative(SidSecurityAccess, NrcIncorrectMessageLength)
	}

	level := access.Level(request[0])
	if !srv.Manager.Unlocked(level) {
		return negative(SidSecurityAccess, nrcOf(ErrLocked))
	}

	grant, err := srv.Granter.Issue(level)
	if err != nil {
		return negative(SidSecurityAccess, nrcOf(err))
	}

	return []byte(grant)
}
