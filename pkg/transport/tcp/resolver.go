package tcp

import (
	"context"
	"fmt"
	"net"
	"time"

	"dominicbreuker/gosock/pkg/transport"
)

// DefaultLookupTimeout bounds a single name lookup.
const DefaultLookupTimeout = 10 * time.Second

// Resolver implements transport.Resolver using the Go system resolver.
// Dotted-quad literals are parsed without a lookup and the empty name
// resolves to the loopback address.
type Resolver struct {
	Timeout time.Duration
}

// NewResolver returns a resolver with DefaultLookupTimeout.
func NewResolver() *Resolver {
	return &Resolver{Timeout: DefaultLookupTimeout}
}

// ResolveIPv4 returns the first IPv4 address of name, or 0 if it has none.
func (r *Resolver) ResolveIPv4(name string) (uint32, error) {
	if name == "" {
		return 0x7f000001, nil
	}

	if ip := net.ParseIP(name); ip != nil {
		v4 := ip.To4()
		if v4 == nil {
			return 0, fmt.Errorf("%s is not an IPv4 address", name)
		}
		return toUint32(v4), nil
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", name)
	if err != nil {
		return 0, fmt.Errorf("LookupIP(ip4, %s): %w", name, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return toUint32(v4), nil
		}
	}
	return 0, nil
}

func toUint32(ip net.IP) uint32 {
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

var _ transport.Resolver = (*Resolver)(nil)
