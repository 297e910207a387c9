package shared

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

type fakeSignal string

func (f fakeSignal) String() string { return string(f) }
func (f fakeSignal) Signal()        {}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sig  os.Signal
		want int
	}{
		{sig: syscall.SIGINT, want: 130},
		{sig: syscall.SIGTERM, want: 143},
		{sig: syscall.SIGHUP, want: 129},
		{sig: fakeSignal("custom"), want: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.sig.String(), func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tc.sig); got != tc.want {
				t.Errorf("exitCode(%v) = %d, want %d", tc.sig, got, tc.want)
			}
		})
	}
}

func TestHandleSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		signals  []os.Signal
		grace    time.Duration
		wantExit int
	}{
		{name: "grace expires", signals: []os.Signal{syscall.SIGTERM}, grace: 10 * time.Millisecond, wantExit: 0},
		{name: "second signal", signals: []os.Signal{syscall.SIGINT, syscall.SIGINT}, grace: time.Minute, wantExit: 130},
		{name: "second signal keeps first code", signals: []os.Signal{syscall.SIGTERM, syscall.SIGINT}, grace: time.Minute, wantExit: 143},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, len(tc.signals))
			exited := make(chan int, 1)
			done := make(chan struct{})
			go func() {
				defer close(done)
				handleSignals(sigCh, cancel, func(code int) { exited <- code }, tc.grace)
			}()

			sigCh <- tc.signals[0]
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("first signal did not cancel the context")
			}
			for _, sig := range tc.signals[1:] {
				sigCh <- sig
			}

			select {
			case code := <-exited:
				if code != tc.wantExit {
					t.Errorf("exit code = %d, want %d", code, tc.wantExit)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("handleSignals did not exit")
			}
			<-done
		})
	}
}

func TestHandleSignals_NoExitBeforeSignal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal)
	exited := make(chan int, 1)
	go handleSignals(sigCh, cancel, func(code int) { exited <- code }, time.Millisecond)

	select {
	case code := <-exited:
		t.Fatalf("exited with %d without a signal", code)
	case <-ctx.Done():
		t.Fatal("context cancelled without a signal")
	case <-time.After(50 * time.Millisecond):
	}
}
