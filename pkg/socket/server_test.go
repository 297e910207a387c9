package socket

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	mocktcp "dominicbreuker/gosock/mocks/tcp"
	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/inet"
	"dominicbreuker/gosock/pkg/sockerr"
)

func TestListen_BindsLoopback(t *testing.T) {
	t.Parallel()

	n, deps := newMockDeps()
	srv, err := Listen(7000, deps)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}
	defer srv.Close()

	if err := n.WaitForListener(mocktcp.LoopbackAddr, 7000, 500); err != nil {
		t.Fatalf("WaitForListener(): %v", err)
	}
	if got := srv.InetAddress(); got == nil || !got.Equal(inet.Loopback) {
		t.Errorf("InetAddress() = %v, want 127.0.0.1", got)
	}
	if got := srv.LocalPort(); got != 7000 {
		t.Errorf("LocalPort() = %d, want 7000", got)
	}
	if got := srv.Backlog(); got != config.DefaultBacklog {
		t.Errorf("Backlog() = %d, want %d", got, config.DefaultBacklog)
	}
	if want := "ServerSocket[addr=127.0.0.1,localport=7000]"; srv.String() != want {
		t.Errorf("String() = %q, want %q", srv.String(), want)
	}
}

func TestListenOn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		addr     *inet.Address
		port     int
		backlog  int
		wantPort int
		wantLog  int
		wantErr  error
	}{
		{"wildcard", nil, 7000, 5, 7000, 5, nil},
		{"ephemeral port", &inet.Loopback, 0, 5, mocktcp.FirstEphemeralPort, 5, nil},
		{"default backlog", &inet.Loopback, 7000, 0, 7000, config.DefaultBacklog, nil},
		{"bad port", nil, 70000, 5, 0, 0, sockerr.ErrInvalidArgument},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n, deps := newMockDeps()
			srv, err := ListenOn(tc.addr, tc.port, tc.backlog, deps)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ListenOn() = %v, want %v", err, tc.wantErr)
				}
				if calls := n.TotalCalls(); calls != 0 {
					t.Errorf("TotalCalls() = %d, want 0", calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListenOn(): %v", err)
			}
			defer srv.Close()

			if got := srv.LocalPort(); got != tc.wantPort {
				t.Errorf("LocalPort() = %d, want %d", got, tc.wantPort)
			}
			if got := srv.Backlog(); got != tc.wantLog {
				t.Errorf("Backlog() = %d, want %d", got, tc.wantLog)
			}
		})
	}
}

func TestListen_PortInUse(t *testing.T) {
	t.Parallel()

	n, deps := newMockDeps()
	first, err := Listen(7000, deps)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}
	defer first.Close()

	if _, err := Listen(7000, deps); !errors.Is(err, mocktcp.ErrAddrInUse) {
		t.Fatalf("second Listen() = %v, want address in use", err)
	}
	if open := n.OpenHandles(); open != 1 {
		t.Errorf("OpenHandles() = %d, want 1", open)
	}
}

func TestServer_EndToEnd(t *testing.T) {
	t.Parallel()

	n, deps := newMockDeps()
	srv, err := Listen(7000, deps)
	if err != nil {
		t.Fatalf("Listen(): %v", err)
	}

	var wg sync.WaitGroup
	var clientErr error
	var reply []byte
	var clientLocal *inet.Endpoint

	wg.Add(1)
	go func() {
		defer wg.Done()

		c, err := Dial("localhost", 7000, deps)
		if err != nil {
			clientErr = err
			return
		}
		defer c.Close()
		clientLocal = c.LocalSocketAddress()

		if _, err := c.Write([]byte("hello")); err != nil {
			clientErr = err
			return
		}
		if err := c.ShutdownOutput(); err != nil {
			clientErr = err
			return
		}
		reply, clientErr = io.ReadAll(c)
	}()

	conn, err := srv.Accept()
	if err != nil {
		t.Fatalf("Accept(): %v", err)
	}

	got, err := io.ReadAll(conn)
	if err != nil || string(got) != "hello" {
		t.Fatalf("server read %q, %v", got, err)
	}
	conn.Write([]byte("world"))
	conn.Close()

	wg.Wait()
	if clientErr != nil {
		t.Fatalf("client: %v", clientErr)
	}
	if string(reply) != "world" {
		t.Errorf("client read %q, want \"world\"", reply)
	}

	if !conn.RemoteSocketAddress().Equal(clientLocal) {
		t.Errorf("accepted RemoteSocketAddress() = %v, want %v", conn.RemoteSocketAddress(), clientLocal)
	}
	if got := conn.LocalPort(); got != 7000 {
		t.Errorf("accepted LocalPort() = %d, want 7000", got)
	}

	srv.Close()
	if open := n.OpenHandles(); open != 0 {
		t.Errorf("OpenHandles() = %d, want 0", open)
	}
}

func TestServer_AcceptRepeatsListen(t *testing.T) {
	t.Parallel()

	n, deps := newMockDeps()
	srv, _ := Listen(7000, deps)
	defer srv.Close()

	for i := 0; i < 2; i++ {
		c, err := Dial("localhost", 7000, deps)
		if err != nil {
			t.Fatalf("Dial(): %v", err)
		}
		defer c.Close()

		if i == 1 {
			srv.SetBacklog(3)
		}
		conn, err := srv.Accept()
		if err != nil {
			t.Fatalf("Accept(): %v", err)
		}
		conn.Close()
	}

	// once from Bind, once per Accept
	if calls := n.Calls("Listen"); calls != 3 {
		t.Errorf("Listen called %d times, want 3", calls)
	}
}

func TestServer_AcceptFailureKeepsServerUsable(t *testing.T) {
	t.Parallel()

	n, deps := newMockDeps()
	srv, _ := Listen(7000, deps)
	defer srv.Close()

	n.FailNext("Accept", errors.New("EMFILE"))
	if _, err := srv.Accept(); !errors.Is(err, sockerr.ErrIO) {
		t.Fatalf("Accept() = %v, want i/o error", err)
	}
	if srv.IsClosed() || !srv.IsBound() {
		t.Fatalf("server state changed after failed accept")
	}

	c, err := Dial("localhost", 7000, deps)
	if err != nil {
		t.Fatalf("Dial(): %v", err)
	}
	defer c.Close()

	conn, err := srv.Accept()
	if err != nil {
		t.Fatalf("Accept() after failure: %v", err)
	}
	conn.Close()
}

func TestServer_CloseWakesAccept(t *testing.T) {
	t.Parallel()

	n, deps := newMockDeps()
	srv, _ := Listen(7000, deps)

	done := make(chan error, 1)
	go func() {
		_, err := srv.Accept()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := srv.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Errorf("Accept() succeeded on a closed server")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept() still blocked after Close()")
	}

	if _, err := srv.Accept(); !errors.Is(err, sockerr.ErrClosed) {
		t.Errorf("Accept() after close = %v, want closed", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("second Close(): %v", err)
	}
	if got := srv.LocalPort(); got != 7000 {
		t.Errorf("LocalPort() after close = %d, want 7000", got)
	}
	if open := n.OpenHandles(); open != 0 {
		t.Errorf("OpenHandles() = %d, want 0", open)
	}
}

func TestNewServer_Unbound(t *testing.T) {
	t.Parallel()

	n, deps := newMockDeps()
	srv, err := NewServer(deps)
	if err != nil {
		t.Fatalf("NewServer(): %v", err)
	}
	defer srv.Close()

	if srv.IsBound() || srv.InetAddress() != nil || srv.LocalPort() != -1 {
		t.Errorf("unbound server reports an endpoint")
	}
	if got := srv.String(); got != "ServerSocket[unbound]" {
		t.Errorf("String() = %q", got)
	}

	ep, _ := inet.NewEndpoint(inet.Loopback, 7000)
	if err := srv.Bind(ep); err != nil {
		t.Fatalf("Bind(): %v", err)
	}
	if err := srv.Bind(ep); !errors.Is(err, sockerr.ErrAlreadyBound) {
		t.Errorf("second Bind() = %v, want already bound", err)
	}
	if err := n.WaitForListener(mocktcp.LoopbackAddr, 7000, 500); err != nil {
		t.Errorf("WaitForListener(): %v", err)
	}
}
