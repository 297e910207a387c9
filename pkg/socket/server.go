package socket

import (
	"fmt"
	"sync"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/inet"
	"dominicbreuker/gosock/pkg/log"
	"dominicbreuker/gosock/pkg/sockerr"
	"dominicbreuker/gosock/pkg/transport"
)

// ServerSocket is a blocking TCP listening socket.
type ServerSocket struct {
	impl     Impl
	provider transport.Provider
	logger   *log.Logger

	mu      sync.Mutex
	backlog int
	local   *inet.Endpoint
	closed  bool
}

// NewServer creates an unbound server socket with the default backlog.
func NewServer(deps *config.Dependencies) (*ServerSocket, error) {
	provider := config.GetProvider(deps)
	logger := config.GetLogger(deps)

	impl := NewTransportImpl(provider, logger)
	if err := impl.Create(); err != nil {
		return nil, err
	}

	return &ServerSocket{
		impl:     impl,
		provider: provider,
		logger:   logger,
		backlog:  config.DefaultBacklog,
	}, nil
}

// Listen creates a server socket bound to 127.0.0.1:port.
func Listen(port int, deps *config.Dependencies) (*ServerSocket, error) {
	addr := inet.Loopback
	return ListenOn(&addr, port, config.DefaultBacklog, deps)
}

// ListenOn creates a server socket bound to addr:port. A nil addr binds the
// wildcard address.
func ListenOn(addr *inet.Address, port, backlog int, deps *config.Dependencies) (*ServerSocket, error) {
	laddr := inet.Any
	if addr != nil {
		laddr = *addr
	}
	ep, err := inet.NewEndpoint(laddr, port)
	if err != nil {
		return nil, err
	}

	s, err := NewServer(deps)
	if err != nil {
		return nil, err
	}
	s.SetBacklog(backlog)

	if err := s.Bind(ep); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *ServerSocket) checkOpen(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sockerr.Closed(op)
	}
	return nil
}

// Bind assigns the local endpoint and starts listening. A nil ep binds the
// wildcard address on an ephemeral port.
func (s *ServerSocket) Bind(ep *inet.Endpoint) error {
	if err := s.checkOpen("bind"); err != nil {
		return err
	}
	if err := s.impl.Bind(ep); err != nil {
		return err
	}

	s.mu.Lock()
	s.local = s.impl.LocalEndpoint()
	s.mu.Unlock()

	if err := s.impl.Listen(s.Backlog()); err != nil {
		return err
	}
	s.logger.VerboseMsg("Listening on %s", s.LocalSocketAddress())
	return nil
}

// Accept waits for a client and returns it as a connected Socket. The listen
// call is repeated before every accept so that a changed backlog takes
// effect. A failed accept leaves the server usable.
func (s *ServerSocket) Accept() (*Socket, error) {
	if err := s.checkOpen("accept"); err != nil {
		return nil, err
	}

	if err := s.impl.Listen(s.Backlog()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.local == nil {
		s.local = s.impl.LocalEndpoint()
	}
	s.mu.Unlock()

	target := NewTransportImpl(s.provider, s.logger)
	if err := s.impl.Accept(target); err != nil {
		target.Close()
		return nil, err
	}

	client := newSocket(target, s.logger)
	if remote := client.RemoteSocketAddress(); remote != nil {
		s.logger.VerboseMsg("Accepted connection from %s", remote)
	}
	return client, nil
}

// SetBacklog sets the backlog passed to the next listen call. Values <= 0
// select the default.
func (s *ServerSocket) SetBacklog(backlog int) {
	if backlog <= 0 {
		backlog = config.DefaultBacklog
	}
	s.mu.Lock()
	s.backlog = backlog
	s.mu.Unlock()
}

// Backlog returns the configured backlog.
func (s *ServerSocket) Backlog() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backlog
}

// Close stops listening. Blocked accepts return with an error.
func (s *ServerSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.impl.Close()
}

// InetAddress returns the bound address, or nil while unbound.
func (s *ServerSocket) InetAddress() *inet.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return nil
	}
	addr := s.local.Address()
	return &addr
}

// LocalPort returns the bound port, or -1 while unbound.
func (s *ServerSocket) LocalPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return -1
	}
	return s.local.Port()
}

// LocalSocketAddress returns the bound endpoint, or nil while unbound.
func (s *ServerSocket) LocalSocketAddress() *inet.Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// IsBound reports whether the server has a local endpoint.
func (s *ServerSocket) IsBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local != nil
}

// IsClosed reports whether Close was called.
func (s *ServerSocket) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *ServerSocket) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return "ServerSocket[unbound]"
	}
	return fmt.Sprintf("ServerSocket[addr=%s,localport=%d]", s.local.Address(), s.local.Port())
}
