package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/sockerr"
	"dominicbreuker/gosock/pkg/socket"

	"github.com/cenkalti/backoff/v5"
)

// Connect dials cfg.Host:cfg.Port and runs an interactive session on the
// connection.
func Connect(ctx context.Context, cfg *config.Shared, cCfg *config.Connect) error {
	return connect(ctx, cfg, cCfg, session)
}

func connect(parent context.Context, cfg *config.Shared, cCfg *config.Connect, handle sessionFunc) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sock, err := dial(ctx, cfg, cCfg)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	var closeOnce sync.Once
	closeSock := func() { closeOnce.Do(func() { _ = sock.Close() }) }
	defer closeSock()

	cfg.Logger.InfoMsg("Connected to %s\n", sock.RemoteSocketAddress())

	errCh := make(chan error, 1)
	go func() {
		errCh <- handle(ctx, cfg, sock)
	}()

	select {
	case <-ctx.Done():
		cfg.Logger.VerboseMsg("Connect: context cancelled, closing connection")
		closeSock()
		err := <-errCh
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("handling after cancel: %w", err)

	case err := <-errCh:
		if err == nil {
			return nil
		}
		return fmt.Errorf("handling: %w", err)
	}
}

// dial connects, retrying refused and timed out attempts with exponential
// backoff up to cCfg.Retries times.
func dial(ctx context.Context, cfg *config.Shared, cCfg *config.Connect) (*socket.Socket, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cCfg.GetRetryInterval()
	b.MaxInterval = 10 * b.InitialInterval

	for attempt := 0; ; attempt++ {
		sock, err := socket.DialTimeout(cfg.Host, cfg.Port, cfg.Timeout, cfg.GetDeps())
		if err == nil {
			return sock, nil
		}
		if attempt >= cCfg.Retries || !retryable(err) {
			return nil, err
		}

		sleep := b.NextBackOff()
		if sleep == backoff.Stop {
			return nil, err
		}
		cfg.Logger.VerboseMsg("Connect attempt %d failed: %s (retrying in %s)", attempt+1, err, sleep)

		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(sleep):
		}
	}
}

func retryable(err error) bool {
	switch sockerr.KindOf(err) {
	case sockerr.KindIO, sockerr.KindConnectTimeout:
		return true
	default:
		return false
	}
}
