// Package tcp provides an in-memory transport.Provider for testing.
package tcp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"dominicbreuker/gosock/pkg/format"
	"dominicbreuker/gosock/pkg/transport"
)

// Errors reported by the mock network. They mirror the errno values a real
// provider would return.
var (
	ErrBadHandle      = errors.New("bad handle")
	ErrRefused        = errors.New("connection refused")
	ErrAddrInUse      = errors.New("address already in use")
	ErrNotConnected   = errors.New("socket is not connected")
	ErrAlreadyConn    = errors.New("socket is already connected")
	ErrInvalid        = errors.New("invalid argument")
	ErrBrokenPipe     = errors.New("broken pipe")
	ErrListenerClosed = errors.New("listener closed")
	ErrAborted        = errors.New("connection aborted")
)

// LoopbackAddr is 127.0.0.1 in host order.
const LoopbackAddr uint32 = 0x7f000001

// FirstEphemeralPort is the first port handed out for implicit and port-0 binds.
const FirstEphemeralPort = 50000

type key struct {
	addr uint32
	port int
}

// MockNetwork simulates a TCP stack in memory. It implements both
// transport.Provider and transport.Resolver, counts every call by method name
// and supports one-shot failure injection.
type MockNetwork struct {
	mu   sync.Mutex
	cond *sync.Cond // signals any state change: data, accept queue, close

	nextHandle transport.Handle
	nextPort   int

	sockets    map[transport.Handle]*mockSocket
	bound      map[key]transport.Handle
	listeners  map[key]*mockSocket
	blackholes map[key]bool
	hosts      map[string]uint32

	calls    map[string]int
	failures map[string]error

	// MaxRecv caps the bytes returned by a single Recv when positive.
	MaxRecv int
	// MaxSend caps the bytes accepted by a single Send when positive.
	MaxSend int
}

type mockSocket struct {
	h transport.Handle

	laddr uint32
	lport int
	bound bool

	raddr     uint32
	rport     int
	connected bool

	listening bool
	backlog   int
	pending   []*mockSocket
	shutRead  bool
	aborted   bool // shut down while connecting

	in  *pipe // bytes this socket reads
	out *pipe // bytes this socket writes
}

// pipe is one direction of a connection.
type pipe struct {
	buf        []byte
	writerDone bool // FIN received: reader sees EOF once drained
	readerDone bool // reader shut down: reads return 0, writes are dropped
}

// NewMockNetwork creates a new mock network that resolves "localhost".
func NewMockNetwork() *MockNetwork {
	m := &MockNetwork{
		nextHandle: 3,
		nextPort:   FirstEphemeralPort,
		sockets:    make(map[transport.Handle]*mockSocket),
		bound:      make(map[key]transport.Handle),
		listeners:  make(map[key]*mockSocket),
		blackholes: make(map[key]bool),
		hosts:      map[string]uint32{"localhost": LoopbackAddr},
		calls:      make(map[string]int),
		failures:   make(map[string]error),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// AddHost registers a name for ResolveIPv4. An ip of 0 simulates a resolver
// that answers without an address.
func (m *MockNetwork) AddHost(name string, ip uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hosts[name] = ip
}

// Blackhole makes connects to addr:port hang instead of being refused.
func (m *MockNetwork) Blackhole(addr uint32, port int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blackholes[key{addr, port}] = true
}

// FailNext makes the next call to op return err.
func (m *MockNetwork) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls returns how often op was called.
func (m *MockNetwork) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of provider and resolver calls made so far.
func (m *MockNetwork) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// OpenHandles returns the number of handles not yet closed.
func (m *MockNetwork) OpenHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sockets)
}

// WaitForListener waits until a socket listens on addr:port or the timeout
// (in milliseconds) expires.
func (m *MockNetwork) WaitForListener(addr uint32, port int, timeoutMs int) error {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	timer := time.AfterFunc(time.Duration(timeoutMs)*time.Millisecond, m.wake)
	defer timer.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if _, ok := m.listeners[key{addr, port}]; ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for listener on %s", format.HostPort(format.IPv4(addr), port))
		}
		m.cond.Wait()
	}
}

func (m *MockNetwork) wake() {
	m.mu.Lock()
	m.cond.Broadcast()
	m.mu.Unlock()
}

// enter records a call and returns an injected failure, if any. Callers hold mu.
func (m *MockNetwork) enter(op string) error {
	m.calls[op]++
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return err
	}
	return nil
}

func (m *MockNetwork) lookup(h transport.Handle) (*mockSocket, error) {
	s, ok := m.sockets[h]
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, ErrBadHandle)
	}
	return s, nil
}

func (m *MockNetwork) ephemeralPort() int {
	port := m.nextPort
	m.nextPort++
	return port
}

func (m *MockNetwork) register() *mockSocket {
	s := &mockSocket{h: m.nextHandle}
	m.nextHandle++
	m.sockets[s.h] = s
	return s
}

// ResolveIPv4 implements transport.Resolver.
func (m *MockNetwork) ResolveIPv4(name string) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ResolveIPv4"); err != nil {
		return 0, err
	}
	if ip := net.ParseIP(name).To4(); ip != nil {
		return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3]), nil
	}
	return m.hosts[name], nil
}

// Init implements transport.Provider.
func (m *MockNetwork) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enter("Init")
}

// Create implements transport.Provider.
func (m *MockNetwork) Create() (transport.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Create"); err != nil {
		return transport.InvalidHandle, err
	}
	return m.register().h, nil
}

// Connect implements transport.Provider.
func (m *MockNetwork) Connect(h transport.Handle, addr uint32, port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Connect"); err != nil {
		return err
	}
	return m.connect(h, addr, port, 0)
}

// ConnectTimeout implements transport.Provider.
func (m *MockNetwork) ConnectTimeout(h transport.Handle, addr uint32, port int, timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ConnectTimeout"); err != nil {
		return err
	}
	return m.connect(h, addr, port, timeout)
}

func (m *MockNetwork) connect(h transport.Handle, addr uint32, port int, timeout time.Duration) error {
	s, err := m.lookup(h)
	if err != nil {
		return err
	}
	if s.connected {
		return ErrAlreadyConn
	}
	if s.listening {
		return ErrInvalid
	}

	target := key{addr, port}
	if m.blackholes[target] {
		return m.hang(h, timeout)
	}

	l, ok := m.listeners[target]
	if !ok {
		l, ok = m.listeners[key{0, port}]
	}
	if !ok || l.shutRead {
		return fmt.Errorf("%s: %w", format.HostPort(format.IPv4(addr), port), ErrRefused)
	}

	switch {
	case !s.bound:
		s.laddr = LoopbackAddr
		s.lport = m.ephemeralPort()
		s.bound = true
		m.bound[key{s.laddr, s.lport}] = s.h
	case s.laddr == 0:
		// a wildcard bind settles on a concrete address once connected
		delete(m.bound, key{0, s.lport})
		s.laddr = LoopbackAddr
		m.bound[key{s.laddr, s.lport}] = s.h
	}

	peer := m.register()
	peer.laddr, peer.lport, peer.bound = addr, port, true
	peer.raddr, peer.rport, peer.connected = s.laddr, s.lport, true
	s.raddr, s.rport, s.connected = addr, port, true

	c2s, s2c := &pipe{}, &pipe{}
	s.out, peer.in = c2s, c2s
	s.in, peer.out = s2c, s2c

	l.pending = append(l.pending, peer)
	m.cond.Broadcast()
	return nil
}

// hang blocks until the timeout expires or, without a timeout, until h is
// shut down or closed.
func (m *MockNetwork) hang(h transport.Handle, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		timer := time.AfterFunc(timeout, m.wake)
		defer timer.Stop()
	}
	for {
		s, ok := m.sockets[h]
		if !ok {
			return fmt.Errorf("handle %d: %w", h, ErrBadHandle)
		}
		if s.aborted {
			return ErrAborted
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return transport.ErrTimeout
		}
		m.cond.Wait()
	}
}

// Bind implements transport.Provider.
func (m *MockNetwork) Bind(h transport.Handle, addr uint32, port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Bind"); err != nil {
		return err
	}
	return m.bind(h, addr, port)
}

// BindAny implements transport.Provider.
func (m *MockNetwork) BindAny(h transport.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("BindAny"); err != nil {
		return err
	}
	return m.bind(h, 0, 0)
}

func (m *MockNetwork) bind(h transport.Handle, addr uint32, port int) error {
	s, err := m.lookup(h)
	if err != nil {
		return err
	}
	if s.bound {
		return ErrInvalid
	}
	if port == 0 {
		port = m.ephemeralPort()
	}
	k := key{addr, port}
	if _, taken := m.bound[k]; taken {
		return fmt.Errorf("%s: %w", format.HostPort(format.IPv4(addr), port), ErrAddrInUse)
	}
	m.bound[k] = h
	s.laddr, s.lport, s.bound = addr, port, true
	return nil
}

// Listen implements transport.Provider. Listening again updates the backlog.
func (m *MockNetwork) Listen(h transport.Handle, backlog int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Listen"); err != nil {
		return err
	}
	s, err := m.lookup(h)
	if err != nil {
		return err
	}
	if s.connected {
		return ErrInvalid
	}
	if !s.bound {
		if err := m.bind(h, 0, 0); err != nil {
			return err
		}
	}
	s.listening = true
	s.backlog = backlog
	m.listeners[key{s.laddr, s.lport}] = s
	m.cond.Broadcast()
	return nil
}

// Backlog returns the backlog of the last Listen call on h.
func (m *MockNetwork) Backlog(h transport.Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sockets[h]; ok {
		return s.backlog
	}
	return 0
}

// Accept implements transport.Provider.
func (m *MockNetwork) Accept(h transport.Handle) (transport.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Accept"); err != nil {
		return transport.InvalidHandle, err
	}
	for {
		s, err := m.lookup(h)
		if err != nil {
			return transport.InvalidHandle, ErrListenerClosed
		}
		if !s.listening {
			return transport.InvalidHandle, ErrInvalid
		}
		if s.shutRead {
			return transport.InvalidHandle, ErrListenerClosed
		}
		if len(s.pending) > 0 {
			peer := s.pending[0]
			s.pending = s.pending[1:]
			return peer.h, nil
		}
		m.cond.Wait()
	}
}

// Send implements transport.Provider.
func (m *MockNetwork) Send(h transport.Handle, b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Send"); err != nil {
		return 0, err
	}
	s, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	if s.out == nil {
		return 0, ErrNotConnected
	}
	if s.out.writerDone {
		return 0, ErrBrokenPipe
	}

	n := min(len(b), transport.MaxTransfer)
	if m.MaxSend > 0 {
		n = min(n, m.MaxSend)
	}
	if !s.out.readerDone {
		s.out.buf = append(s.out.buf, b[:n]...)
		m.cond.Broadcast()
	}
	return n, nil
}

// Recv implements transport.Provider.
func (m *MockNetwork) Recv(h transport.Handle, b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Recv"); err != nil {
		return 0, err
	}
	for {
		s, err := m.lookup(h)
		if err != nil {
			return 0, err
		}
		if s.in == nil {
			return 0, ErrNotConnected
		}
		if s.in.readerDone {
			return 0, nil
		}
		if len(s.in.buf) > 0 {
			n := min(len(b), transport.MaxTransfer)
			if m.MaxRecv > 0 {
				n = min(n, m.MaxRecv)
			}
			n = copy(b[:n], s.in.buf)
			s.in.buf = s.in.buf[n:]
			return n, nil
		}
		if s.in.writerDone {
			return 0, nil
		}
		m.cond.Wait()
	}
}

// Available implements transport.Provider.
func (m *MockNetwork) Available(h transport.Handle) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Available"); err != nil {
		return 0, err
	}
	s, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	if s.in == nil || s.in.readerDone {
		return 0, nil
	}
	return len(s.in.buf), nil
}

// Close implements transport.Provider. The peer sees end-of-stream.
func (m *MockNetwork) Close(h transport.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("Close"); err != nil {
		return err
	}
	s, err := m.lookup(h)
	if err != nil {
		return err
	}

	delete(m.sockets, h)
	if s.bound && m.bound[key{s.laddr, s.lport}] == h {
		delete(m.bound, key{s.laddr, s.lport})
	}
	if s.listening && m.listeners[key{s.laddr, s.lport}] == s {
		delete(m.listeners, key{s.laddr, s.lport})
	}
	if s.in != nil {
		s.in.readerDone = true
	}
	if s.out != nil {
		s.out.writerDone = true
	}
	m.cond.Broadcast()
	return nil
}

// ShutdownRead implements transport.Provider. On a listener it wakes
// blocked accepts, which then fail.
func (m *MockNetwork) ShutdownRead(h transport.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ShutdownRead"); err != nil {
		return err
	}
	s, err := m.lookup(h)
	if err != nil {
		return err
	}
	if s.listening {
		s.shutRead = true
	}
	if !s.connected && !s.listening {
		s.aborted = true
	}
	if s.in != nil {
		s.in.readerDone = true
	}
	m.cond.Broadcast()
	return nil
}

// ShutdownWrite implements transport.Provider.
func (m *MockNetwork) ShutdownWrite(h transport.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ShutdownWrite"); err != nil {
		return err
	}
	s, err := m.lookup(h)
	if err != nil {
		return err
	}
	if !s.connected && !s.listening {
		s.aborted = true
	}
	if s.out != nil {
		s.out.writerDone = true
	}
	m.cond.Broadcast()
	return nil
}

// LocalAddr implements transport.Provider.
func (m *MockNetwork) LocalAddr(h transport.Handle) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("LocalAddr"); err != nil {
		return 0, err
	}
	s, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	return s.laddr, nil
}

// LocalPort implements transport.Provider.
func (m *MockNetwork) LocalPort(h transport.Handle) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("LocalPort"); err != nil {
		return 0, err
	}
	s, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	return s.lport, nil
}

// RemoteAddr implements transport.Provider.
func (m *MockNetwork) RemoteAddr(h transport.Handle) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("RemoteAddr"); err != nil {
		return 0, err
	}
	s, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	if !s.connected {
		return 0, ErrNotConnected
	}
	return s.raddr, nil
}

// RemotePort implements transport.Provider.
func (m *MockNetwork) RemotePort(h transport.Handle) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("RemotePort"); err != nil {
		return 0, err
	}
	s, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	if !s.connected {
		return 0, ErrNotConnected
	}
	return s.rport, nil
}

var (
	_ transport.Provider = (*MockNetwork)(nil)
	_ transport.Resolver = (*MockNetwork)(nil)
)
