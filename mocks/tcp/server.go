package tcp

import (
	"fmt"
	"sync"

	"dominicbreuker/gosock/pkg/transport"
)

// EchoServer is a peer used in tests. It listens on a provider handle and,
// for every accepted connection, writes Prefix followed by every byte it
// receives. When the client half-closes, the server half-closes too.
type EchoServer struct {
	provider transport.Provider
	h        transport.Handle
	port     int
	prefix   string

	mu    sync.Mutex
	conns map[transport.Handle]struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewEchoServer binds addr:port (port 0 picks one) on p and starts serving.
func NewEchoServer(p transport.Provider, addr uint32, port int, prefix string) (*EchoServer, error) {
	h, err := p.Create()
	if err != nil {
		return nil, fmt.Errorf("Create(): %w", err)
	}
	if err := p.Bind(h, addr, port); err != nil {
		p.Close(h)
		return nil, fmt.Errorf("Bind(): %w", err)
	}
	if err := p.Listen(h, 16); err != nil {
		p.Close(h)
		return nil, fmt.Errorf("Listen(): %w", err)
	}
	bound, err := p.LocalPort(h)
	if err != nil {
		p.Close(h)
		return nil, fmt.Errorf("LocalPort(): %w", err)
	}

	s := &EchoServer{
		provider: p,
		h:        h,
		port:     bound,
		prefix:   prefix,
		conns:    make(map[transport.Handle]struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Port returns the port the server listens on.
func (s *EchoServer) Port() int {
	return s.port
}

// Close stops accepting, closes active connections and waits for the
// serving goroutines to return.
func (s *EchoServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.provider.ShutdownRead(s.h)

		s.mu.Lock()
		for c := range s.conns {
			s.provider.ShutdownRead(c)
		}
		s.mu.Unlock()

		s.wg.Wait()
		err = s.provider.Close(s.h)
	})
	return err
}

func (s *EchoServer) acceptLoop() {
	defer s.wg.Done()
	for {
		c, err := s.provider.Accept(s.h)
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(c)
	}
}

func (s *EchoServer) handle(c transport.Handle) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		s.provider.Close(c)
	}()

	if s.prefix != "" {
		if err := s.sendAll(c, []byte(s.prefix)); err != nil {
			return
		}
	}

	buf := make([]byte, 4096)
	for {
		n, err := s.provider.Recv(c, buf)
		if err != nil || n == 0 {
			s.provider.ShutdownWrite(c)
			return
		}
		if err := s.sendAll(c, buf[:n]); err != nil {
			return
		}
	}
}

func (s *EchoServer) sendAll(c transport.Handle, b []byte) error {
	for len(b) > 0 {
		n, err := s.provider.Send(c, b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
