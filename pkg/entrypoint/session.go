// Package entrypoint runs the connect and listen modes of the CLI.
package entrypoint

import (
	"context"
	"fmt"
	"io"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/log"
	"dominicbreuker/gosock/pkg/pipeio"
	"dominicbreuker/gosock/pkg/socket"
)

// sessionFunc runs the interactive part of a connection.
type sessionFunc func(ctx context.Context, cfg *config.Shared, sock *socket.Socket) error

// session pipes stdio through sock until either side is done. With piped
// stdin, EOF half-closes the socket and the reply is still printed. On a
// terminal, EOF ends the session.
func session(ctx context.Context, cfg *config.Shared, sock *socket.Socket) error {
	stdio := pipeio.NewStdio(config.GetStdinFunc(cfg.Deps)(), config.GetStdoutFunc(cfg.Deps)())

	stream, err := pipeio.NewSocketStream(sock, !stdio.IsTerminal())
	if err != nil {
		return fmt.Errorf("NewSocketStream(): %w", err)
	}

	var rwc io.ReadWriteCloser = stream
	if cfg.LogFile != "" {
		rwc, err = log.NewLoggedStream(stream, cfg.LogFile)
		if err != nil {
			stream.Close()
			return fmt.Errorf("NewLoggedStream(%s): %w", cfg.LogFile, err)
		}
	}

	pipeio.Pipe(ctx, stdio, rwc, func(err error) {
		cfg.Logger.VerboseMsg("Session: %s", err)
	})
	return nil
}
