// Package inet provides IPv4 addresses and (address, port) endpoints.
package inet

import (
	"net"

	"dominicbreuker/gosock/pkg/format"
	"dominicbreuker/gosock/pkg/sockerr"
	"dominicbreuker/gosock/pkg/transport"
)

// Address is an immutable IPv4 address with an optional display name.
// The zero value is 0.0.0.0 without a name.
type Address struct {
	ip   uint32
	name string
}

// Any is the wildcard address 0.0.0.0.
var Any = Address{}

// Loopback is 127.0.0.1.
var Loopback = Address{ip: 0x7f000001}

// AddressFrom wraps a host-order address, typically one reported by a provider.
func AddressFrom(ip uint32) Address {
	return Address{ip: ip}
}

// AddressFromBytes builds an address from its four octets.
func AddressFromBytes(b [4]byte) Address {
	return Address{ip: uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])}
}

// Resolve looks name up with r. A resolver error and a zero result are both
// reported as sockerr.ErrUnknownHost.
func Resolve(r transport.Resolver, name string) (Address, error) {
	ip, err := r.ResolveIPv4(name)
	if err != nil {
		return Address{}, sockerr.UnknownHost(name, err)
	}
	if ip == 0 {
		return Address{}, sockerr.UnknownHost(name, nil)
	}
	return Address{ip: ip, name: name}, nil
}

// IP returns the host-order 32-bit value.
func (a Address) IP() uint32 {
	return a.ip
}

// Bytes returns the four octets, most significant first.
func (a Address) Bytes() [4]byte {
	return [4]byte{byte(a.ip >> 24), byte(a.ip >> 16), byte(a.ip >> 8), byte(a.ip)}
}

// NetIP converts to a net.IP.
func (a Address) NetIP() net.IP {
	b := a.Bytes()
	return net.IPv4(b[0], b[1], b[2], b[3])
}

// HostName returns the name the address was resolved from, or the dotted quad.
// No reverse lookup is done.
func (a Address) HostName() string {
	if a.name == "" {
		return a.HostAddress()
	}
	return a.name
}

// HostAddress returns the dotted quad.
func (a Address) HostAddress() string {
	return format.IPv4(a.ip)
}

// Equal compares the addresses only, ignoring names.
func (a Address) Equal(b Address) bool {
	return a.ip == b.ip
}

func (a Address) String() string {
	if a.name == "" {
		return a.HostAddress()
	}
	return a.name + "/" + a.HostAddress()
}
