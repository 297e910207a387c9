package entrypoint

import (
	"context"
	"fmt"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/server"
	"dominicbreuker/gosock/pkg/socket"
)

// Listen accepts connections on cfg.Host:cfg.Port and runs an interactive
// session on each, one at a time, until ctx is cancelled.
func Listen(ctx context.Context, cfg *config.Shared, lCfg *config.Listen) error {
	return listen(ctx, cfg, lCfg, session)
}

func listen(ctx context.Context, cfg *config.Shared, lCfg *config.Listen, handle sessionFunc) error {
	s, err := server.New(ctx, cfg, lCfg, func(sock *socket.Socket) error {
		return handle(ctx, cfg, sock)
	})
	if err != nil {
		return fmt.Errorf("server.New(): %w", err)
	}
	defer s.Close()

	cfg.Logger.InfoMsg("Listening on %s\n", s.Addr())

	if err := s.Serve(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
