package shared

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

// ShutdownGrace is how long a cancelled session gets to close its sockets
// before the process exits anyway.
const ShutdownGrace = 5 * time.Second

// SetupSignalHandling cancels the context on the first termination signal.
// Sessions tie their sockets to that context, so cancelling closes them and
// wakes any goroutine blocked in accept, connect or read. A second signal,
// or a session that outlives ShutdownGrace, ends the process.
func SetupSignalHandling(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, terminationSignals()...)
	if runtime.GOOS != "windows" {
		// a peer resetting the connection must surface as EPIPE on write
		signal.Ignore(syscall.SIGPIPE)
	}

	go handleSignals(sigCh, cancel, os.Exit, ShutdownGrace)
}

func terminationSignals() []os.Signal {
	if runtime.GOOS == "windows" {
		return []os.Signal{os.Interrupt}
	}
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}
}

// handleSignals runs the shutdown sequence for the signals arriving on sigCh.
func handleSignals(sigCh <-chan os.Signal, cancel context.CancelFunc, exit func(int), grace time.Duration) {
	first := <-sigCh
	cancel()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-sigCh:
		exit(exitCode(first))
	case <-timer.C:
		exit(0)
	}
}

// exitCode follows the shell convention of 128 plus the signal number.
func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
