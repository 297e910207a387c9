package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// loggedStream copies every byte read from or written to a stream into a file.
type loggedStream struct {
	rwc     io.ReadWriteCloser
	logFile io.WriteCloser
	mu      sync.Mutex // serializes transcript writes from both directions
}

func (ls *loggedStream) Read(b []byte) (int, error) {
	n, err := ls.rwc.Read(b)
	if n > 0 {
		if _, lerr := ls.record(b[:n]); lerr != nil {
			return n, fmt.Errorf("logging read: %w", lerr)
		}
	}
	return n, err
}

func (ls *loggedStream) Write(b []byte) (int, error) {
	n, err := ls.rwc.Write(b)
	if n > 0 {
		if _, lerr := ls.record(b[:n]); lerr != nil {
			return n, fmt.Errorf("logging write: %w", lerr)
		}
	}
	return n, err
}

func (ls *loggedStream) record(b []byte) (int, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.logFile.Write(b)
}

// CloseWrite forwards a half-close to the wrapped stream. Streams without
// one report errors.ErrUnsupported.
func (ls *loggedStream) CloseWrite() error {
	if cw, ok := ls.rwc.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return errors.ErrUnsupported
}

func (ls *loggedStream) Close() error {
	err := ls.rwc.Close()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if lerr := ls.logFile.Close(); err == nil {
		err = lerr
	}
	return err
}

// NewLoggedStream wraps a stream to log all data read from and written to it.
// The log file is created or appended to at the specified path.
func NewLoggedStream(rwc io.ReadWriteCloser, logFilePath string) (io.ReadWriteCloser, error) {
	logFile, err := os.OpenFile(logFilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &loggedStream{rwc: rwc, logFile: logFile}, nil
}
