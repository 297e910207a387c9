package config

import (
	"io"
	"os"

	"dominicbreuker/gosock/pkg/log"
	"dominicbreuker/gosock/pkg/transport"
	"dominicbreuker/gosock/pkg/transport/tcp"
)

// Dependencies contains injectable dependencies for testing and customization.
// All fields are optional and will use default implementations if nil.
type Dependencies struct {
	Provider transport.Provider
	Resolver transport.Resolver
	Logger   *log.Logger
	Stdin    StdinFunc
	Stdout   StdoutFunc
}

// StdinFunc is a function that returns a reader for stdin.
// It returns an io.Reader to allow for mock implementations.
type StdinFunc func() io.Reader

// StdoutFunc is a function that returns a writer for stdout.
// It returns an io.Writer to allow for mock implementations.
type StdoutFunc func() io.Writer

// GetProvider returns the transport provider from dependencies, or the
// process-wide tcp provider.
func GetProvider(deps *Dependencies) transport.Provider {
	if deps != nil && deps.Provider != nil {
		return deps.Provider
	}
	return tcp.Default()
}

// GetResolver returns the resolver from dependencies, or a system resolver.
func GetResolver(deps *Dependencies) transport.Resolver {
	if deps != nil && deps.Resolver != nil {
		return deps.Resolver
	}
	return tcp.NewResolver()
}

// GetLogger returns the logger from dependencies. The result may be nil,
// which discards all messages.
func GetLogger(deps *Dependencies) *log.Logger {
	if deps == nil {
		return nil
	}
	return deps.Logger
}

// GetStdinFunc returns the stdin function from dependencies, or a default implementation.
// If deps is nil or deps.Stdin is nil, returns a function that uses os.Stdin.
func GetStdinFunc(deps *Dependencies) StdinFunc {
	if deps != nil && deps.Stdin != nil {
		return deps.Stdin
	}
	return func() io.Reader {
		return os.Stdin
	}
}

// GetStdoutFunc returns the stdout function from dependencies, or a default implementation.
// If deps is nil or deps.Stdout is nil, returns a function that uses os.Stdout.
func GetStdoutFunc(deps *Dependencies) StdoutFunc {
	if deps != nil && deps.Stdout != nil {
		return deps.Stdout
	}
	return func() io.Writer {
		return os.Stdout
	}
}
