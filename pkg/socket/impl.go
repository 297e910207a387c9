// Package socket implements blocking TCP client and server sockets on top of
// a transport.Provider.
package socket

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dominicbreuker/gosock/pkg/inet"
	"dominicbreuker/gosock/pkg/log"
	"dominicbreuker/gosock/pkg/sockerr"
	"dominicbreuker/gosock/pkg/transport"
)

// Impl is the capability behind Socket and ServerSocket. Implementations own
// at most one transport handle each.
type Impl interface {
	Create() error
	Connect(ep *inet.Endpoint) error
	ConnectTimeout(ep *inet.Endpoint, timeout time.Duration) error
	Bind(ep *inet.Endpoint) error
	Listen(backlog int) error
	Accept(target Impl) error
	Close() error

	InputStream() *InputStream
	OutputStream() *OutputStream
	ShutdownInput() error
	ShutdownOutput() error

	LocalEndpoint() *inet.Endpoint
	RemoteEndpoint() *inet.Endpoint
}

var errNoHandle = errors.New("socket has no handle")

// TransportImpl is the Impl backed by a transport.Provider.
type TransportImpl struct {
	provider transport.Provider
	logger   *log.Logger

	mu     sync.Mutex
	hd     *handle
	in     *InputStream
	out    *OutputStream
	local  *inet.Endpoint
	remote *inet.Endpoint
	closed bool
}

// NewTransportImpl returns an impl without a handle. Call Create, or pass it
// as the target of another impl's Accept.
func NewTransportImpl(p transport.Provider, logger *log.Logger) *TransportImpl {
	return &TransportImpl{provider: p, logger: logger}
}

// Create initializes the provider on first use and acquires a handle.
// Calling it again once a handle exists does nothing.
func (i *TransportImpl) Create() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return sockerr.Closed("create")
	}
	if i.hd != nil {
		return nil
	}

	if err := transport.EnsureInit(i.provider); err != nil {
		return sockerr.IO("init", err)
	}
	h, err := i.provider.Create()
	if err != nil {
		return sockerr.IO("create", err)
	}
	i.install(h)
	return nil
}

// install adopts h. Callers hold mu.
func (i *TransportImpl) install(h transport.Handle) {
	i.hd = newHandle(i.provider, h)
	i.in = newInputStream(i.hd)
	i.out = newOutputStream(i.hd)
}

// current returns the live handle. Callers hold mu.
func (i *TransportImpl) current(op string) (*handle, error) {
	if i.closed {
		return nil, sockerr.Closed(op)
	}
	if i.hd == nil {
		return nil, sockerr.IO(op, errNoHandle)
	}
	return i.hd, nil
}

func (i *TransportImpl) live(op string) (*handle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current(op)
}

// Connect blocks until ep accepts the connection or the provider fails.
func (i *TransportImpl) Connect(ep *inet.Endpoint) error {
	return i.connect(ep, func(p transport.Provider, h transport.Handle) error {
		return p.Connect(h, ep.Address().IP(), ep.Port())
	})
}

// ConnectTimeout is Connect bounded by timeout. A zero timeout waits
// indefinitely; a negative one is an invalid argument.
func (i *TransportImpl) ConnectTimeout(ep *inet.Endpoint, timeout time.Duration) error {
	if timeout < 0 {
		return sockerr.InvalidArgument("connect", "negative timeout %s", timeout)
	}
	return i.connect(ep, func(p transport.Provider, h transport.Handle) error {
		err := p.ConnectTimeout(h, ep.Address().IP(), ep.Port(), timeout)
		if errors.Is(err, transport.ErrTimeout) {
			return sockerr.ConnectTimeout(fmt.Sprintf("connect(%s)", ep), err)
		}
		return err
	})
}

func (i *TransportImpl) connect(ep *inet.Endpoint, fn func(transport.Provider, transport.Handle) error) error {
	if ep == nil {
		return sockerr.InvalidArgument("connect", "endpoint can't be nil")
	}
	hd, err := i.live("connect")
	if err != nil {
		return err
	}

	op := fmt.Sprintf("connect(%s)", ep)
	if err := hd.do(op, fn); err != nil {
		if sockerr.KindOf(err) == sockerr.KindConnectTimeout {
			return err
		}
		return sockerr.IO(op, err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.remote = ep
	return i.retrieveLocal(hd)
}

// retrieveLocal asks the provider for the local endpoint unless it is
// already known. Callers hold mu.
func (i *TransportImpl) retrieveLocal(hd *handle) error {
	if i.local != nil {
		return nil
	}
	ep, err := i.query(hd, "local endpoint", transport.Provider.LocalAddr, transport.Provider.LocalPort)
	if err != nil {
		return err
	}
	i.local = ep
	return nil
}

func (i *TransportImpl) query(
	hd *handle,
	op string,
	addrFn func(transport.Provider, transport.Handle) (uint32, error),
	portFn func(transport.Provider, transport.Handle) (int, error),
) (*inet.Endpoint, error) {
	var ep *inet.Endpoint
	err := hd.do(op, func(p transport.Provider, h transport.Handle) error {
		addr, err := addrFn(p, h)
		if err != nil {
			return sockerr.IO(op, err)
		}
		port, err := portFn(p, h)
		if err != nil {
			return sockerr.IO(op, err)
		}
		ep, err = inet.NewEndpoint(inet.AddressFrom(addr), port)
		return err
	})
	return ep, err
}

// Bind assigns the local endpoint. A nil ep binds the wildcard address on an
// ephemeral port. An impl binds at most once.
func (i *TransportImpl) Bind(ep *inet.Endpoint) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	hd, err := i.current("bind")
	if err != nil {
		return err
	}
	if i.local != nil {
		return sockerr.AlreadyBound("bind", i.local)
	}

	if ep == nil {
		err = hd.do("bind", func(p transport.Provider, h transport.Handle) error {
			return sockerr.IO("bind(*)", p.BindAny(h))
		})
		if err != nil {
			return err
		}
		return i.retrieveLocal(hd)
	}

	op := fmt.Sprintf("bind(%s)", ep)
	err = hd.do(op, func(p transport.Provider, h transport.Handle) error {
		return sockerr.IO(op, p.Bind(h, ep.Address().IP(), ep.Port()))
	})
	if err != nil {
		return err
	}
	if ep.Port() == 0 {
		return i.retrieveLocal(hd)
	}
	i.local = ep
	return nil
}

// Listen marks the impl as passive. Listening again only updates the backlog.
func (i *TransportImpl) Listen(backlog int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	hd, err := i.current("listen")
	if err != nil {
		return err
	}
	err = hd.do("listen", func(p transport.Provider, h transport.Handle) error {
		return sockerr.IO(fmt.Sprintf("listen(%d)", backlog), p.Listen(h, backlog))
	})
	if err != nil {
		return err
	}
	return i.retrieveLocal(hd)
}

// Accept waits for a connection and hands it to target, which must be a
// *TransportImpl that does not own a handle yet. On failure target is left
// untouched.
func (i *TransportImpl) Accept(target Impl) error {
	t, ok := target.(*TransportImpl)
	if !ok || t == nil {
		return sockerr.InvalidArgument("accept", "unsupported impl %T", target)
	}
	if t == i {
		return sockerr.InvalidArgument("accept", "impl can't accept into itself")
	}
	if t.provider != i.provider {
		return sockerr.InvalidArgument("accept", "target uses a different provider")
	}
	if !t.fresh() {
		return sockerr.InvalidArgument("accept", "target already owns a handle")
	}

	hd, err := i.live("accept")
	if err != nil {
		return err
	}

	nh := transport.InvalidHandle
	err = hd.do("accept", func(p transport.Provider, h transport.Handle) error {
		var err error
		nh, err = p.Accept(h)
		return sockerr.IO("accept", err)
	})
	if err != nil {
		return err
	}

	if err := t.adopt(nh); err != nil {
		i.provider.Close(nh)
		return err
	}
	return nil
}

func (i *TransportImpl) fresh() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hd == nil && !i.closed
}

// adopt installs an accepted handle and records both endpoints.
func (i *TransportImpl) adopt(h transport.Handle) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.hd != nil || i.closed {
		return sockerr.InvalidArgument("accept", "target already owns a handle")
	}
	i.install(h)

	if err := i.retrieveLocal(i.hd); err != nil {
		i.logger.VerboseMsg("accepted socket: %s", err)
	}
	remote, err := i.query(i.hd, "remote endpoint", transport.Provider.RemoteAddr, transport.Provider.RemotePort)
	if err != nil {
		// the peer may already be gone; reads will report it
		i.logger.VerboseMsg("accepted socket: %s", err)
		return nil
	}
	i.remote = remote
	return nil
}

// Close shuts down both directions, which wakes blocked readers, then
// releases the handle. Only the first call does anything.
func (i *TransportImpl) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	hd, in, out := i.hd, i.in, i.out
	i.mu.Unlock()

	if hd == nil {
		return nil
	}

	errIn := in.Close()
	errOut := out.Close()
	_, errClose := hd.release()
	return errors.Join(errIn, errOut, sockerr.IO("close", errClose))
}

// InputStream returns the read half, or nil before a handle exists.
func (i *TransportImpl) InputStream() *InputStream {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.in
}

// OutputStream returns the write half, or nil before a handle exists.
func (i *TransportImpl) OutputStream() *OutputStream {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.out
}

// ShutdownInput closes the input stream.
func (i *TransportImpl) ShutdownInput() error {
	i.mu.Lock()
	_, err := i.current("shutdown input")
	in := i.in
	i.mu.Unlock()
	if err != nil {
		return err
	}
	return in.Close()
}

// ShutdownOutput closes the output stream.
func (i *TransportImpl) ShutdownOutput() error {
	i.mu.Lock()
	_, err := i.current("shutdown output")
	out := i.out
	i.mu.Unlock()
	if err != nil {
		return err
	}
	return out.Close()
}

// LocalEndpoint returns the local endpoint, or nil while unbound.
func (i *TransportImpl) LocalEndpoint() *inet.Endpoint {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.local
}

// RemoteEndpoint returns the peer endpoint, or nil while unconnected.
func (i *TransportImpl) RemoteEndpoint() *inet.Endpoint {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.remote
}

var _ Impl = (*TransportImpl)(nil)
