// Package server runs the accept loop of listen mode.
package server

import (
	"context"
	"fmt"
	"sync"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/inet"
	"dominicbreuker/gosock/pkg/socket"

	"github.com/sourcegraph/conc"
)

// Handler handles one accepted connection. The server closes the socket
// once the handler returns.
type Handler func(sock *socket.Socket) error

// Server accepts connections and hands them to a Handler, one at a time.
// Connections arriving while one is being handled are closed immediately.
type Server struct {
	ctx    context.Context
	cfg    *config.Shared
	handle Handler

	ss *socket.ServerSocket

	rdy bool // whether we can handle a new connection
	mu  sync.Mutex
	wg  conc.WaitGroup
}

// New binds the configured address. An empty host binds all interfaces.
func New(ctx context.Context, cfg *config.Shared, lCfg *config.Listen, handle Handler) (*Server, error) {
	deps := cfg.GetDeps()

	var addr *inet.Address
	if cfg.Host != "" {
		a, err := inet.Resolve(config.GetResolver(deps), cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", cfg.Host, err)
		}
		addr = &a
	}

	ss, err := socket.ListenOn(addr, cfg.Port, lCfg.GetBacklog(), deps)
	if err != nil {
		return nil, fmt.Errorf("socket.ListenOn(%d): %w", cfg.Port, err)
	}

	return &Server{
		ctx:    ctx,
		cfg:    cfg,
		handle: handle,
		ss:     ss,
		rdy:    true,
	}, nil
}

// Addr returns the bound endpoint.
func (s *Server) Addr() *inet.Endpoint {
	return s.ss.LocalSocketAddress()
}

// Serve accepts until the context is cancelled or Close is called, then
// waits for the active handler. It returns nil after a shutdown and the
// accept error otherwise.
func (s *Server) Serve() error {
	stop := context.AfterFunc(s.ctx, func() { s.Close() })
	defer stop()
	defer s.wg.Wait()

	for {
		sock, err := s.ss.Accept()
		if err != nil {
			if s.ss.IsClosed() {
				return nil
			}
			return fmt.Errorf("Accept(): %w", err)
		}

		s.mu.Lock()
		if !s.rdy {
			s.mu.Unlock()
			s.cfg.Logger.VerboseMsg("Rejecting %s: already handling a connection", sock.RemoteSocketAddress())
			sock.Close()
			continue
		}
		s.rdy = false
		s.mu.Unlock()

		s.wg.Go(func() { s.serveConn(sock) })
	}
}

func (s *Server) serveConn(sock *socket.Socket) {
	defer sock.Close()
	defer func() {
		s.mu.Lock()
		s.rdy = true
		s.mu.Unlock()
	}()

	s.cfg.Logger.InfoMsg("New connection from %s\n", sock.RemoteSocketAddress())
	defer s.cfg.Logger.InfoMsg("Connection from %s closed\n", sock.RemoteSocketAddress())

	if err := s.handle(sock); err != nil {
		s.cfg.Logger.ErrorMsg("Handling connection: %s\n", err)
	}
}

// Close stops accepting. Blocked accepts return.
func (s *Server) Close() error {
	return s.ss.Close()
}
