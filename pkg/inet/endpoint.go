package inet

import (
	"net"

	"dominicbreuker/gosock/pkg/format"
	"dominicbreuker/gosock/pkg/sockerr"
)

// MaxPort is the largest valid port.
const MaxPort = 65535

// Endpoint is an immutable (address, port) pair.
type Endpoint struct {
	addr Address
	port int
}

// NewEndpoint validates port and builds an endpoint.
func NewEndpoint(addr Address, port int) (*Endpoint, error) {
	if err := ValidatePort("endpoint", port); err != nil {
		return nil, err
	}
	return &Endpoint{addr: addr, port: port}, nil
}

// ValidatePort fails with sockerr.ErrInvalidArgument unless 0 <= port <= 65535.
func ValidatePort(op string, port int) error {
	if port < 0 || port > MaxPort {
		return sockerr.InvalidArgument(op, "port %d not in [0, %d]", port, MaxPort)
	}
	return nil
}

// FromNetAddr converts an IPv4 *net.TCPAddr. Other address types, and IPv6
// addresses, are invalid arguments.
func FromNetAddr(addr net.Addr) (*Endpoint, error) {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok || tcpAddr == nil {
		return nil, sockerr.InvalidArgument("endpoint", "unsupported address type %T", addr)
	}

	var ip [4]byte
	switch {
	case tcpAddr.IP == nil:
	case tcpAddr.IP.To4() != nil:
		copy(ip[:], tcpAddr.IP.To4())
	default:
		return nil, sockerr.InvalidArgument("endpoint", "%s is not an IPv4 address", tcpAddr.IP)
	}
	return NewEndpoint(AddressFromBytes(ip), tcpAddr.Port)
}

// Address returns the endpoint address.
func (e *Endpoint) Address() Address {
	return e.addr
}

// Port returns the endpoint port.
func (e *Endpoint) Port() int {
	return e.port
}

// TCPAddr converts to a *net.TCPAddr.
func (e *Endpoint) TCPAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: e.addr.NetIP(), Port: e.port}
}

// Network implements net.Addr.
func (e *Endpoint) Network() string {
	return "tcp"
}

// Equal compares address values and ports.
func (e *Endpoint) Equal(o *Endpoint) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.addr.Equal(o.addr) && e.port == o.port
}

func (e *Endpoint) String() string {
	return format.HostPort(e.addr.String(), e.port)
}

var _ net.Addr = (*Endpoint)(nil)
