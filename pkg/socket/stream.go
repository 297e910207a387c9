package socket

import (
	"io"
	"sync/atomic"

	"dominicbreuker/gosock/pkg/sockerr"
	"dominicbreuker/gosock/pkg/transport"
)

// InputStream is the read half of a socket. Closing it shuts down only the
// read direction.
type InputStream struct {
	hd     *handle
	closed atomic.Bool
	eof    atomic.Bool
}

func newInputStream(hd *handle) *InputStream {
	return &InputStream{hd: hd}
}

// Read fills p completely unless the peer half-closes first. Transfers are
// issued in chunks of at most transport.MaxTransfer bytes. A short count
// with a nil error means end-of-stream was reached; io.EOF is only returned
// when no byte could be read.
func (s *InputStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.closed.Load() || s.eof.Load() {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) {
		chunk := p[n:]
		if len(chunk) > transport.MaxTransfer {
			chunk = chunk[:transport.MaxTransfer]
		}

		m, err := s.recv(chunk)
		if err != nil {
			return n, err
		}
		if m == 0 {
			s.eof.Store(true)
			break
		}
		n += m
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadByte reads a single byte, returning io.EOF when the peer half-closed.
func (s *InputStream) ReadByte() (byte, error) {
	if s.closed.Load() || s.eof.Load() {
		return 0, io.EOF
	}

	var b [1]byte
	n, err := s.recv(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		s.eof.Store(true)
		return 0, io.EOF
	}
	return b[0], nil
}

func (s *InputStream) recv(b []byte) (int, error) {
	var n int
	err := s.hd.do("read", func(p transport.Provider, h transport.Handle) error {
		var err error
		n, err = p.Recv(h, b)
		return sockerr.IO("read", err)
	})
	return n, err
}

// Available returns the number of bytes that can be read without blocking.
func (s *InputStream) Available() (int, error) {
	if s.closed.Load() {
		return 0, nil
	}

	var n int
	err := s.hd.do("available", func(p transport.Provider, h transport.Handle) error {
		var err error
		n, err = p.Available(h)
		return sockerr.IO("available", err)
	})
	return n, err
}

// EOF reports whether the peer's half-close has been observed.
func (s *InputStream) EOF() bool {
	return s.eof.Load()
}

// Close shuts down the read direction. Further calls do nothing.
func (s *InputStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return sockerr.IO("shutdown input", s.hd.shutdown(s.hd.provider.ShutdownRead))
}

// OutputStream is the write half of a socket. Closing it sends end-of-stream
// to the peer while reads remain possible.
type OutputStream struct {
	hd     *handle
	closed atomic.Bool
}

func newOutputStream(hd *handle) *OutputStream {
	return &OutputStream{hd: hd}
}

// Write sends all of p in chunks of at most transport.MaxTransfer bytes. The
// first provider error aborts the loop.
func (s *OutputStream) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, sockerr.Closed("write")
	}

	n := 0
	for n < len(p) {
		chunk := p[n:]
		if len(chunk) > transport.MaxTransfer {
			chunk = chunk[:transport.MaxTransfer]
		}

		m, err := s.send(chunk)
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, sockerr.IO("write", io.ErrShortWrite)
		}
	}
	return n, nil
}

// WriteByte sends a single byte.
func (s *OutputStream) WriteByte(c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

func (s *OutputStream) send(b []byte) (int, error) {
	var n int
	err := s.hd.do("write", func(p transport.Provider, h transport.Handle) error {
		var err error
		n, err = p.Send(h, b)
		return sockerr.IO("write", err)
	})
	return n, err
}

// Close shuts down the write direction. Further calls do nothing.
func (s *OutputStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return sockerr.IO("shutdown output", s.hd.shutdown(s.hd.provider.ShutdownWrite))
}

var (
	_ io.ReadCloser  = (*InputStream)(nil)
	_ io.ByteReader  = (*InputStream)(nil)
	_ io.WriteCloser = (*OutputStream)(nil)
	_ io.ByteWriter  = (*OutputStream)(nil)
)
