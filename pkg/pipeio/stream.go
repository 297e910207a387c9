package pipeio

import (
	"errors"
	"io"

	"dominicbreuker/gosock/pkg/sockerr"
	"dominicbreuker/gosock/pkg/socket"
)

// ErrNoHalfClose is returned by CloseWrite on a stream created without
// half-close support.
var ErrNoHalfClose = errors.New("half-close disabled")

// bufferedReader is a reader whose Read waits until p is full.
type bufferedReader interface {
	io.Reader
	io.ByteReader
	Available() (int, error)
}

// interactiveReader returns as soon as some data has arrived instead of
// waiting for a full buffer: it blocks for one byte, then reads only what
// is already queued.
type interactiveReader struct {
	r bufferedReader
}

func (ir interactiveReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b, err := ir.r.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b

	avail, err := ir.r.Available()
	if err != nil || avail == 0 {
		return 1, nil
	}

	n, err := ir.r.Read(p[1:min(1+avail, len(p))])
	return 1 + n, err
}

// SocketStream adapts a socket for Pipe.
type SocketStream struct {
	sock      *socket.Socket
	r         io.Reader
	w         io.Writer
	halfClose bool
}

// NewSocketStream wraps sock. If halfClose is set, CloseWrite shuts down the
// socket output; otherwise it reports ErrNoHalfClose and Pipe closes the
// whole session when the writing side ends.
func NewSocketStream(sock *socket.Socket, halfClose bool) (*SocketStream, error) {
	if sock.IsClosed() {
		return nil, sockerr.Closed("socket stream")
	}

	in, err := sock.InputStream()
	if err != nil {
		return nil, err
	}
	out, err := sock.OutputStream()
	if err != nil {
		return nil, err
	}

	return &SocketStream{
		sock:      sock,
		r:         interactiveReader{r: in},
		w:         out,
		halfClose: halfClose,
	}, nil
}

// Read returns whatever the peer has sent so far, blocking only for the
// first byte.
func (s *SocketStream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Write sends all of p.
func (s *SocketStream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// CloseWrite half-closes the socket if enabled.
func (s *SocketStream) CloseWrite() error {
	if !s.halfClose {
		return ErrNoHalfClose
	}
	return s.sock.ShutdownOutput()
}

// Close closes the socket.
func (s *SocketStream) Close() error {
	return s.sock.Close()
}
