// Package helpers provides common utilities for end-to-end tests.
package helpers

import (
	"io"

	"dominicbreuker/gosock/mocks"
	mocktcp "dominicbreuker/gosock/mocks/tcp"
	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/log"
)

// Peer is one side of a session: its stdio and its config.
type Peer struct {
	Stdio *mocks.MockStdio
	Cfg   *config.Shared
}

// MockSetup connects a listening and a connecting peer through one mock
// network.
type MockSetup struct {
	Network   *mocktcp.MockNetwork
	Listener  Peer
	Connector Peer
	ListenCfg *config.Listen
}

// SetupMockPeers creates both peers. The listener binds all interfaces on
// port; the connector dials 127.0.0.1:port.
func SetupMockPeers(port int) *MockSetup {
	n := mocktcp.NewMockNetwork()

	return &MockSetup{
		Network:   n,
		Listener:  newPeer(n, "", port),
		Connector: newPeer(n, "127.0.0.1", port),
		ListenCfg: &config.Listen{},
	}
}

func newPeer(n *mocktcp.MockNetwork, host string, port int) Peer {
	stdio := mocks.NewMockStdio()
	return Peer{
		Stdio: stdio,
		Cfg: &config.Shared{
			Host:   host,
			Port:   port,
			Logger: log.NewLoggerTo(io.Discard, true),
			Deps: &config.Dependencies{
				Provider: n,
				Resolver: n,
				Stdin:    stdio.GetStdin,
				Stdout:   stdio.GetStdout,
			},
		},
	}
}

// Close releases the mock stdio of both peers.
func (s *MockSetup) Close() {
	s.Listener.Stdio.Close()
	s.Connector.Stdio.Close()
}
