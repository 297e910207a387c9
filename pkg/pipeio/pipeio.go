// Package pipeio copies data between stdio and sockets.
package pipeio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"syscall"

	"dominicbreuker/gosock/pkg/sockerr"

	"github.com/muesli/cancelreader"
)

type closeWriter interface {
	CloseWrite() error
}

// Pipe copies rwc1 to rwc2 and rwc2 to rwc1 until ctx is cancelled or both
// directions have ended. When one direction reaches EOF and its destination
// can be half-closed, the other direction keeps running; otherwise the first
// direction to end closes both streams. Errors that merely signal a closed
// stream are not passed to logfunc.
func Pipe(ctx context.Context, rwc1 io.ReadWriteCloser, rwc2 io.ReadWriteCloser, logfunc func(error)) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var active atomic.Int32
	active.Store(2)

	copyHalf := func(dst, src io.ReadWriteCloser, name string) {
		_, err := io.Copy(dst, src)
		if err != nil && !isClosedErr(err) {
			logfunc(fmt.Errorf("%s: %w", name, err))
		}

		halfClosed := false
		if err == nil {
			if cw, ok := dst.(closeWriter); ok {
				halfClosed = cw.CloseWrite() == nil
			}
		}

		if active.Add(-1) == 0 || !halfClosed {
			cancel()
		}
	}

	go copyHalf(rwc2, rwc1, "io.Copy(rwc2, rwc1)")
	go copyHalf(rwc1, rwc2, "io.Copy(rwc1, rwc2)")

	<-ctx.Done()
	rwc1.Close()
	rwc2.Close()
}

func isClosedErr(err error) bool {
	return errors.Is(err, cancelreader.ErrCanceled) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, sockerr.ErrClosed) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
