// Package mocks provides a pipe-backed stdin/stdout pair for tests of the
// interactive session. The in-memory network lives in mocks/tcp.
package mocks

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MockStdio stands in for the terminal. Tests feed stdin with WriteToStdin
// and inspect everything written to stdout.
type MockStdio struct {
	stdinR *io.PipeReader
	stdinW *io.PipeWriter

	stdoutW *io.PipeWriter

	mu     sync.Mutex
	output bytes.Buffer
	update chan struct{} // closed and replaced on every stdout write
}

// NewMockStdio creates the pipes and starts collecting stdout.
func NewMockStdio() *MockStdio {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	m := &MockStdio{
		stdinR:  stdinR,
		stdinW:  stdinW,
		stdoutW: stdoutW,
		update:  make(chan struct{}),
	}

	go m.collect(stdoutR)
	return m
}

func (m *MockStdio) collect(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m.mu.Lock()
			m.output.Write(buf[:n])
			close(m.update)
			m.update = make(chan struct{})
			m.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// WriteToStdin simulates typed input. It blocks until the input is read.
func (m *MockStdio) WriteToStdin(data []byte) (int, error) {
	return m.stdinW.Write(data)
}

// CloseStdin signals EOF on stdin while stdout stays open, like the end of
// piped input.
func (m *MockStdio) CloseStdin() error {
	return m.stdinW.Close()
}

// ReadFromStdout returns everything written to stdout so far.
func (m *MockStdio) ReadFromStdout() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output.String()
}

// GetStdin returns the stdin reader. It matches config.StdinFunc.
func (m *MockStdio) GetStdin() io.Reader {
	return m.stdinR
}

// GetStdout returns the stdout writer. It matches config.StdoutFunc.
func (m *MockStdio) GetStdout() io.Writer {
	return m.stdoutW
}

// WaitForOutput waits up to timeoutMs milliseconds for expected to appear
// on stdout.
func (m *MockStdio) WaitForOutput(expected string, timeoutMs int) error {
	deadline := time.After(time.Duration(timeoutMs) * time.Millisecond)

	for {
		m.mu.Lock()
		out := m.output.String()
		update := m.update
		m.mu.Unlock()

		if strings.Contains(out, expected) {
			return nil
		}

		select {
		case <-update:
		case <-deadline:
			return fmt.Errorf("timeout waiting for output %q, got: %q", expected, m.ReadFromStdout())
		}
	}
}

// Close closes stdin and stdout.
func (m *MockStdio) Close() error {
	m.stdinW.Close()
	m.stdoutW.Close()
	return nil
}
