// Package transport defines the raw socket primitives the socket layer is
// built on. Implementations own the OS resources behind a Handle:
//
// Provider:
//   - one-time process setup (Init), run through EnsureInit
//   - handle creation, connect (with and without deadline), bind, listen, accept
//   - byte transfer (Send, Recv, Available), bounded by MaxTransfer per call
//   - teardown (Close, ShutdownRead, ShutdownWrite)
//   - endpoint queries (LocalAddr/LocalPort, RemoteAddr/RemotePort)
//
// Resolver:
//   - ResolveIPv4 maps a host name to a 32-bit address, 0 meaning not found
//
// Addresses cross this boundary as host-order uint32 values (127.0.0.1 is
// 0x7f000001); providers convert to network order themselves.
//
// Implementations:
//   - tcp.Provider: linux sockets via golang.org/x/sys/unix
//   - mocks/tcp.MockNetwork: in-memory provider and resolver for tests
package transport

import (
	"errors"
	"sync"
	"time"
)

// MaxTransfer is the largest number of bytes moved by a single Send or Recv.
const MaxTransfer = 65535

// Handle identifies one socket owned by a Provider.
type Handle int

// InvalidHandle is never returned by a successful Create or Accept.
const InvalidHandle Handle = -1

// ErrTimeout is returned (possibly wrapped) by ConnectTimeout when the
// deadline passes before the connection is established.
var ErrTimeout = errors.New("connection timed out")

// Provider is the set of raw socket primitives.
type Provider interface {
	Init() error
	Create() (Handle, error)
	Connect(h Handle, addr uint32, port int) error
	ConnectTimeout(h Handle, addr uint32, port int, timeout time.Duration) error
	Bind(h Handle, addr uint32, port int) error
	BindAny(h Handle) error
	Listen(h Handle, backlog int) error
	Accept(h Handle) (Handle, error)
	Send(h Handle, b []byte) (int, error)
	Recv(h Handle, b []byte) (int, error)
	Available(h Handle) (int, error)
	Close(h Handle) error
	ShutdownRead(h Handle) error
	ShutdownWrite(h Handle) error
	LocalAddr(h Handle) (uint32, error)
	LocalPort(h Handle) (int, error)
	RemoteAddr(h Handle) (uint32, error)
	RemotePort(h Handle) (int, error)
}

// Resolver maps host names to IPv4 addresses.
type Resolver interface {
	ResolveIPv4(name string) (uint32, error)
}

type initState struct {
	once sync.Once
	err  error
}

var initialized sync.Map // Provider -> *initState

// EnsureInit runs p.Init exactly once for the lifetime of the process and
// returns its result on every call. Providers must be comparable.
func EnsureInit(p Provider) error {
	v, _ := initialized.LoadOrStore(p, &initState{})
	st := v.(*initState)
	st.once.Do(func() {
		st.err = p.Init()
	})
	return st.err
}
