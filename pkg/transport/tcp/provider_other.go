//go:build !linux

// Package tcp provides the default transport.Provider, backed by blocking
// IPv4 stream sockets, and a transport.Resolver backed by the system resolver.
package tcp

import (
	"errors"
	"runtime"
	"time"

	"dominicbreuker/gosock/pkg/transport"
)

var errUnsupported = errors.New("raw socket provider not supported on " + runtime.GOOS)

// Provider is unavailable on this platform; Init fails and so does every
// socket created through it.
type Provider struct{}

var defaultProvider = &Provider{}

// Default returns the process-wide provider.
func Default() *Provider {
	return defaultProvider
}

func (p *Provider) Init() error { return errUnsupported }

func (p *Provider) Create() (transport.Handle, error) {
	return transport.InvalidHandle, errUnsupported
}

func (p *Provider) Connect(transport.Handle, uint32, int) error { return errUnsupported }

func (p *Provider) ConnectTimeout(transport.Handle, uint32, int, time.Duration) error {
	return errUnsupported
}

func (p *Provider) Bind(transport.Handle, uint32, int) error  { return errUnsupported }
func (p *Provider) BindAny(transport.Handle) error             { return errUnsupported }
func (p *Provider) Listen(transport.Handle, int) error         { return errUnsupported }
func (p *Provider) Send(transport.Handle, []byte) (int, error) { return 0, errUnsupported }
func (p *Provider) Recv(transport.Handle, []byte) (int, error) { return 0, errUnsupported }
func (p *Provider) Available(transport.Handle) (int, error)    { return 0, errUnsupported }
func (p *Provider) Close(transport.Handle) error               { return errUnsupported }
func (p *Provider) ShutdownRead(transport.Handle) error        { return errUnsupported }
func (p *Provider) ShutdownWrite(transport.Handle) error       { return errUnsupported }
func (p *Provider) LocalAddr(transport.Handle) (uint32, error) { return 0, errUnsupported }
func (p *Provider) LocalPort(transport.Handle) (int, error)    { return 0, errUnsupported }
func (p *Provider) RemoteAddr(transport.Handle) (uint32, error) {
	return 0, errUnsupported
}
func (p *Provider) RemotePort(transport.Handle) (int, error) { return 0, errUnsupported }

func (p *Provider) Accept(transport.Handle) (transport.Handle, error) {
	return transport.InvalidHandle, errUnsupported
}

var _ transport.Provider = (*Provider)(nil)
