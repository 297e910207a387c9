//go:build linux

// Package tcp provides the default transport.Provider, backed by blocking
// IPv4 stream sockets, and a transport.Resolver backed by the system resolver.
package tcp

import (
	"errors"
	"fmt"
	"time"

	"dominicbreuker/gosock/pkg/format"
	"dominicbreuker/gosock/pkg/transport"

	"golang.org/x/sys/unix"
)

// Provider implements transport.Provider with raw linux sockets. Handles are
// file descriptors in blocking mode; every call blocks the calling goroutine's
// thread until the kernel returns.
type Provider struct{}

var defaultProvider = &Provider{}

// Default returns the process-wide provider.
func Default() *Provider {
	return defaultProvider
}

// Init has nothing to set up on linux.
func (p *Provider) Init() error {
	return nil
}

// Create opens a new IPv4 stream socket.
func (p *Provider) Create() (transport.Handle, error) {
	fd, err := ignoringEINTR(func() (int, error) {
		return unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	})
	if err != nil {
		return transport.InvalidHandle, fmt.Errorf("unix.Socket(AF_INET, SOCK_STREAM): %w", err)
	}
	return transport.Handle(fd), nil
}

// Connect blocks until the connection is established or refused.
func (p *Provider) Connect(h transport.Handle, addr uint32, port int) error {
	return p.connect(h, addr, port, 0)
}

// ConnectTimeout is Connect bounded by timeout. A timeout of zero means no
// deadline. A missed deadline yields an error wrapping transport.ErrTimeout.
func (p *Provider) ConnectTimeout(h transport.Handle, addr uint32, port int, timeout time.Duration) error {
	return p.connect(h, addr, port, timeout)
}

// connect always goes through a non-blocking connect plus poll so that an
// interrupted connect can be waited on instead of restarted.
func (p *Provider) connect(h transport.Handle, addr uint32, port int, timeout time.Duration) error {
	fd := int(h)
	target := format.HostPort(format.IPv4(addr), port)

	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("unix.SetNonblock(%d, true): %w", fd, err)
	}
	defer unix.SetNonblock(fd, false)

	err := unix.Connect(fd, sockaddr(addr, port))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EALREADY), errors.Is(err, unix.EINTR):
	default:
		return fmt.Errorf("unix.Connect(%s): %w", target, err)
	}

	if err := waitWritable(fd, timeout); err != nil {
		return fmt.Errorf("connect(%s): %w", target, err)
	}

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return fmt.Errorf("unix.GetsockoptInt(SO_ERROR): %w", err)
	}
	if soErr != 0 {
		return fmt.Errorf("connect(%s): %w", target, unix.Errno(soErr))
	}
	return nil
}

func waitWritable(fd int, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		ms := -1
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return transport.ErrTimeout
			}
			ms = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
		n, err := unix.Poll(fds, ms)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return fmt.Errorf("unix.Poll(): %w", err)
		}
		if n > 0 {
			// writable, or an error/hangup that SO_ERROR will report
			return nil
		}
	}
}

// Bind binds the socket to addr:port.
func (p *Provider) Bind(h transport.Handle, addr uint32, port int) error {
	if err := unix.Bind(int(h), sockaddr(addr, port)); err != nil {
		return fmt.Errorf("unix.Bind(%s): %w", format.HostPort(format.IPv4(addr), port), err)
	}
	return nil
}

// BindAny binds to the wildcard address and an ephemeral port.
func (p *Provider) BindAny(h transport.Handle) error {
	return p.Bind(h, 0, 0)
}

// Listen marks the socket as passive.
func (p *Provider) Listen(h transport.Handle, backlog int) error {
	if err := unix.Listen(int(h), backlog); err != nil {
		return fmt.Errorf("unix.Listen(%d): %w", backlog, err)
	}
	return nil
}

// Accept blocks until a connection arrives and returns its handle.
func (p *Provider) Accept(h transport.Handle) (transport.Handle, error) {
	for {
		nfd, _, err := unix.Accept4(int(h), unix.SOCK_CLOEXEC)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return transport.InvalidHandle, fmt.Errorf("unix.Accept4(): %w", err)
		}
		return transport.Handle(nfd), nil
	}
}

// Send writes at most transport.MaxTransfer bytes of b.
func (p *Provider) Send(h transport.Handle, b []byte) (int, error) {
	if len(b) > transport.MaxTransfer {
		b = b[:transport.MaxTransfer]
	}
	n, err := ignoringEINTR(func() (int, error) {
		return unix.SendmsgN(int(h), b, nil, nil, unix.MSG_NOSIGNAL)
	})
	if err != nil {
		return 0, fmt.Errorf("send: %w", err)
	}
	return n, nil
}

// Recv reads at most transport.MaxTransfer bytes into b. Zero bytes with a
// nil error means the peer shut down its write side.
func (p *Provider) Recv(h transport.Handle, b []byte) (int, error) {
	if len(b) > transport.MaxTransfer {
		b = b[:transport.MaxTransfer]
	}
	n, err := ignoringEINTR(func() (int, error) {
		return unix.Read(int(h), b)
	})
	if err != nil {
		return 0, fmt.Errorf("recv: %w", err)
	}
	return n, nil
}

// Available reports how many bytes are queued for reading.
func (p *Provider) Available(h transport.Handle) (int, error) {
	n, err := unix.IoctlGetInt(int(h), unix.SIOCINQ)
	if err != nil {
		return 0, fmt.Errorf("unix.IoctlGetInt(SIOCINQ): %w", err)
	}
	return n, nil
}

// Close releases the descriptor.
func (p *Provider) Close(h transport.Handle) error {
	if err := unix.Close(int(h)); err != nil {
		return fmt.Errorf("unix.Close(%d): %w", int(h), err)
	}
	return nil
}

// ShutdownRead disables further receives. An unconnected socket is not an error.
func (p *Provider) ShutdownRead(h transport.Handle) error {
	return shutdown(h, unix.SHUT_RD)
}

// ShutdownWrite sends FIN to the peer. An unconnected socket is not an error.
func (p *Provider) ShutdownWrite(h transport.Handle) error {
	return shutdown(h, unix.SHUT_WR)
}

func shutdown(h transport.Handle, how int) error {
	err := unix.Shutdown(int(h), how)
	if err != nil && !errors.Is(err, unix.ENOTCONN) {
		return fmt.Errorf("unix.Shutdown(%d, %d): %w", int(h), how, err)
	}
	return nil
}

// LocalAddr returns the address the socket is bound to.
func (p *Provider) LocalAddr(h transport.Handle) (uint32, error) {
	addr, _, err := sockname(h, unix.Getsockname)
	return addr, err
}

// LocalPort returns the port the socket is bound to.
func (p *Provider) LocalPort(h transport.Handle) (int, error) {
	_, port, err := sockname(h, unix.Getsockname)
	return port, err
}

// RemoteAddr returns the peer address of a connected socket.
func (p *Provider) RemoteAddr(h transport.Handle) (uint32, error) {
	addr, _, err := sockname(h, unix.Getpeername)
	return addr, err
}

// RemotePort returns the peer port of a connected socket.
func (p *Provider) RemotePort(h transport.Handle) (int, error) {
	_, port, err := sockname(h, unix.Getpeername)
	return port, err
}

func sockname(h transport.Handle, get func(int) (unix.Sockaddr, error)) (uint32, int, error) {
	sa, err := get(int(h))
	if err != nil {
		return 0, 0, fmt.Errorf("sockname(%d): %w", int(h), err)
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, 0, fmt.Errorf("sockname(%d): not an IPv4 address: %T", int(h), sa)
	}
	return uint32(sa4.Addr[0])<<24 | uint32(sa4.Addr[1])<<16 | uint32(sa4.Addr[2])<<8 | uint32(sa4.Addr[3]), sa4.Port, nil
}

func sockaddr(addr uint32, port int) *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{
		Port: port,
		Addr: [4]byte{byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr)},
	}
}

func ignoringEINTR(fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if !errors.Is(err, unix.EINTR) {
			if err != nil && n < 0 {
				n = 0
			}
			return n, err
		}
	}
}

var _ transport.Provider = (*Provider)(nil)
