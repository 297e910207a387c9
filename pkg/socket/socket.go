package socket

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/inet"
	"dominicbreuker/gosock/pkg/log"
	"dominicbreuker/gosock/pkg/sockerr"
)

var (
	errAlreadyConnected  = errors.New("socket is already connected")
	errConnectInProgress = errors.New("connect already in progress")
)

// Socket is a blocking TCP client socket. It is created with a handle and
// optionally bound and connected by the constructors. Endpoint accessors keep
// reporting their last values after Close.
type Socket struct {
	impl   Impl
	logger *log.Logger

	mu         sync.Mutex
	local      *inet.Endpoint
	remote     *inet.Endpoint
	connecting bool // a connect call is in flight
	closed     bool
}

// New creates an unconnected socket.
func New(deps *config.Dependencies) (*Socket, error) {
	impl := NewTransportImpl(config.GetProvider(deps), config.GetLogger(deps))
	if err := impl.Create(); err != nil {
		return nil, err
	}
	return newSocket(impl, config.GetLogger(deps)), nil
}

// NewWithImpl wraps an impl that is created on demand.
func NewWithImpl(impl Impl, logger *log.Logger) (*Socket, error) {
	if impl == nil {
		return nil, sockerr.InvalidArgument("socket", "impl can't be nil")
	}
	if err := impl.Create(); err != nil {
		return nil, err
	}
	return newSocket(impl, logger), nil
}

func newSocket(impl Impl, logger *log.Logger) *Socket {
	return &Socket{
		impl:   impl,
		logger: logger,
		local:  impl.LocalEndpoint(),
		remote: impl.RemoteEndpoint(),
	}
}

// Dial resolves host and connects to host:port. The port is validated before
// any name lookup or transport call.
func Dial(host string, port int, deps *config.Dependencies) (*Socket, error) {
	return DialTimeout(host, port, 0, deps)
}

// DialTimeout is Dial with a connect deadline. A zero timeout waits
// indefinitely.
func DialTimeout(host string, port int, timeout time.Duration, deps *config.Dependencies) (*Socket, error) {
	if err := inet.ValidatePort("dial", port); err != nil {
		return nil, err
	}
	if timeout < 0 {
		return nil, sockerr.InvalidArgument("dial", "negative timeout %s", timeout)
	}
	addr, err := inet.Resolve(config.GetResolver(deps), host)
	if err != nil {
		return nil, err
	}
	ep, err := inet.NewEndpoint(addr, port)
	if err != nil {
		return nil, err
	}
	return dial(nil, ep, timeout, deps)
}

// DialAddress connects to addr:port.
func DialAddress(addr inet.Address, port int, deps *config.Dependencies) (*Socket, error) {
	ep, err := inet.NewEndpoint(addr, port)
	if err != nil {
		return nil, err
	}
	return dial(nil, ep, 0, deps)
}

// DialFrom binds to localAddr:localPort and connects to host:port. A nil
// localAddr binds the wildcard address.
func DialFrom(host string, port int, localAddr *inet.Address, localPort int, deps *config.Dependencies) (*Socket, error) {
	if err := inet.ValidatePort("dial", port); err != nil {
		return nil, err
	}
	if err := inet.ValidatePort("dial", localPort); err != nil {
		return nil, err
	}

	addr, err := inet.Resolve(config.GetResolver(deps), host)
	if err != nil {
		return nil, err
	}
	remote, err := inet.NewEndpoint(addr, port)
	if err != nil {
		return nil, err
	}

	laddr := inet.Any
	if localAddr != nil {
		laddr = *localAddr
	}
	local, err := inet.NewEndpoint(laddr, localPort)
	if err != nil {
		return nil, err
	}

	return dial(local, remote, 0, deps)
}

func dial(local, remote *inet.Endpoint, timeout time.Duration, deps *config.Dependencies) (*Socket, error) {
	s, err := New(deps)
	if err != nil {
		return nil, err
	}

	if local != nil {
		if err := s.Bind(local); err != nil {
			s.Close()
			return nil, err
		}
	}

	if err := s.ConnectTimeout(remote, timeout); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Socket) checkOpen(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sockerr.Closed(op)
	}
	return nil
}

// Connect connects to ep, waiting as long as the provider does.
func (s *Socket) Connect(ep *inet.Endpoint) error {
	return s.ConnectTimeout(ep, 0)
}

// ConnectTimeout connects to ep within timeout. A zero timeout waits
// indefinitely. A missed deadline fails with sockerr.ErrConnectTimeout.
func (s *Socket) ConnectTimeout(ep *inet.Endpoint, timeout time.Duration) error {
	if ep == nil {
		return sockerr.InvalidArgument("connect", "endpoint can't be nil")
	}
	if timeout < 0 {
		return sockerr.InvalidArgument("connect", "negative timeout %s", timeout)
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return sockerr.Closed("connect")
	case s.remote != nil:
		s.mu.Unlock()
		return sockerr.IO(fmt.Sprintf("connect(%s)", ep), errAlreadyConnected)
	case s.connecting:
		s.mu.Unlock()
		return sockerr.IO(fmt.Sprintf("connect(%s)", ep), errConnectInProgress)
	}
	s.connecting = true
	s.mu.Unlock()

	s.logger.VerboseMsg("Connecting to %s", ep)

	var err error
	if timeout > 0 {
		err = s.impl.ConnectTimeout(ep, timeout)
	} else {
		err = s.impl.Connect(ep)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connecting = false
	if err != nil {
		return err
	}
	s.remote = ep
	if s.local == nil {
		s.local = s.impl.LocalEndpoint()
	}
	return nil
}

// ConnectAddr connects to a *net.TCPAddr holding an IPv4 address. Other
// address types are invalid arguments.
func (s *Socket) ConnectAddr(addr net.Addr, timeout time.Duration) error {
	ep, err := inet.FromNetAddr(addr)
	if err != nil {
		return err
	}
	return s.ConnectTimeout(ep, timeout)
}

// Bind assigns the local endpoint. A nil ep binds the wildcard address on an
// ephemeral port. Binding twice, or after connecting, fails with
// sockerr.ErrAlreadyBound and leaves the endpoint unchanged.
func (s *Socket) Bind(ep *inet.Endpoint) error {
	if err := s.checkOpen("bind"); err != nil {
		return err
	}

	s.mu.Lock()
	bound := s.local
	s.mu.Unlock()
	if bound != nil {
		return sockerr.AlreadyBound("bind", bound)
	}

	if err := s.impl.Bind(ep); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = s.impl.LocalEndpoint()
	return nil
}

// InputStream returns the read half of the connection. It stays available
// after Close; reads on it then report io.EOF.
func (s *Socket) InputStream() (*InputStream, error) {
	in := s.impl.InputStream()
	if in == nil {
		return nil, sockerr.IO("input stream", errNoHandle)
	}
	return in, nil
}

// OutputStream returns the write half of the connection. It stays available
// after Close; writes on it then fail with sockerr.ErrClosed.
func (s *Socket) OutputStream() (*OutputStream, error) {
	out := s.impl.OutputStream()
	if out == nil {
		return nil, sockerr.IO("output stream", errNoHandle)
	}
	return out, nil
}

// Read reads from the input stream. Like InputStream.Read it fills p unless
// the peer half-closes first.
func (s *Socket) Read(p []byte) (int, error) {
	if err := s.checkOpen("read"); err != nil {
		return 0, err
	}
	in, err := s.InputStream()
	if err != nil {
		return 0, err
	}
	return in.Read(p)
}

// Write writes all of p to the output stream.
func (s *Socket) Write(p []byte) (int, error) {
	if err := s.checkOpen("write"); err != nil {
		return 0, err
	}
	out, err := s.OutputStream()
	if err != nil {
		return 0, err
	}
	return out.Write(p)
}

// ShutdownInput closes the read direction only.
func (s *Socket) ShutdownInput() error {
	if err := s.checkOpen("shutdown input"); err != nil {
		return err
	}
	return s.impl.ShutdownInput()
}

// ShutdownOutput sends end-of-stream to the peer. Reads remain possible.
func (s *Socket) ShutdownOutput() error {
	if err := s.checkOpen("shutdown output"); err != nil {
		return err
	}
	return s.impl.ShutdownOutput()
}

// CloseWrite is ShutdownOutput under the name used by *net.TCPConn.
func (s *Socket) CloseWrite() error {
	return s.ShutdownOutput()
}

// SetTCPNoDelay is accepted for compatibility and has no effect.
func (s *Socket) SetTCPNoDelay(on bool) error {
	return s.checkOpen("set tcp nodelay")
}

// Close releases the socket. Blocked reads return. Only the first call does
// anything.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	remote := s.remote
	s.mu.Unlock()

	if remote != nil {
		s.logger.VerboseMsg("Closing connection to %s", remote)
	}
	return s.impl.Close()
}

// InetAddress returns the remote address, or nil while unconnected.
func (s *Socket) InetAddress() *inet.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		return nil
	}
	addr := s.remote.Address()
	return &addr
}

// Port returns the remote port, or 0 while unconnected.
func (s *Socket) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		return 0
	}
	return s.remote.Port()
}

// LocalAddress returns the local address, or nil while unbound.
func (s *Socket) LocalAddress() *inet.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return nil
	}
	addr := s.local.Address()
	return &addr
}

// LocalPort returns the local port, or -1 while unbound.
func (s *Socket) LocalPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil {
		return -1
	}
	return s.local.Port()
}

// RemoteSocketAddress returns the remote endpoint, or nil while unconnected.
func (s *Socket) RemoteSocketAddress() *inet.Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

// LocalSocketAddress returns the local endpoint, or nil while unbound.
func (s *Socket) LocalSocketAddress() *inet.Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// IsConnected reports whether the socket was ever connected. It stays true
// after Close.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote != nil
}

// IsBound reports whether the socket has a local endpoint.
func (s *Socket) IsBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local != nil
}

// IsClosed reports whether Close was called.
func (s *Socket) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Socket) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		return "Socket[unconnected]"
	}
	localPort := -1
	if s.local != nil {
		localPort = s.local.Port()
	}
	return fmt.Sprintf("Socket[addr=%s,port=%d,localport=%d]", s.remote.Address(), s.remote.Port(), localPort)
}
