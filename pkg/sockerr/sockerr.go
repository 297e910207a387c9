// Package sockerr defines the error taxonomy shared by the socket layer.
//
// Every error produced by pkg/inet and pkg/socket is an *Error carrying one
// of five kinds. Callers classify failures with errors.Is against the
// package sentinels:
//
//	if errors.Is(err, sockerr.ErrConnectTimeout) { ... }
//
// and recover the operation and the underlying provider error with errors.As.
package sockerr

import (
	"errors"
	"fmt"
)

// Kind identifies an error category.
type Kind int

const (
	// KindIO is any transport failure that is not classified otherwise.
	KindIO Kind = iota
	// KindInvalidArgument is raised before any transport call is made.
	KindInvalidArgument
	// KindUnknownHost means a name could not be resolved to an IPv4 address.
	KindUnknownHost
	// KindAlreadyBound means the socket already has a local endpoint.
	KindAlreadyBound
	// KindConnectTimeout means a timed connect missed its deadline.
	KindConnectTimeout
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "i/o error"
	case KindInvalidArgument:
		return "invalid argument"
	case KindUnknownHost:
		return "unknown host"
	case KindAlreadyBound:
		return "already bound"
	case KindConnectTimeout:
		return "connect timeout"
	default:
		return ""
	}
}

// Error is a classified socket error.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrIO              = &Error{Kind: KindIO}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrUnknownHost     = &Error{Kind: KindUnknownHost}
	ErrAlreadyBound    = &Error{Kind: KindAlreadyBound}
	ErrConnectTimeout  = &Error{Kind: KindConnectTimeout}
)

// ErrClosed is wrapped by the I/O error returned from operations on a closed
// socket or stream.
var ErrClosed = errors.New("socket is closed")

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg = e.Msg
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindIO if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// InvalidArgument builds an invalid-argument error.
func InvalidArgument(op string, format string, a ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// UnknownHost builds an unknown-host error for name. cause may be nil.
func UnknownHost(name string, cause error) error {
	return &Error{Kind: KindUnknownHost, Op: "resolve", Msg: "unknown host " + name, Err: cause}
}

// AlreadyBound builds an already-bound error naming the current binding.
func AlreadyBound(op string, bound fmt.Stringer) error {
	return &Error{Kind: KindAlreadyBound, Op: op, Msg: "socket already bound to " + bound.String()}
}

// ConnectTimeout builds a connect-timeout error.
func ConnectTimeout(op string, cause error) error {
	return &Error{Kind: KindConnectTimeout, Op: op, Err: cause}
}

// IO wraps a transport failure. A nil err yields nil, and an err that is
// already classified is returned unchanged.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// Closed builds the error returned by operations on a closed socket.
func Closed(op string) error {
	return &Error{Kind: KindIO, Op: op, Err: ErrClosed}
}
