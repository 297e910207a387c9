// Package config holds the validated settings and injectable dependencies
// shared by the CLI entrypoints and the socket layer.
package config

import (
	"fmt"
	"time"

	"dominicbreuker/gosock/pkg/log"
)

// DefaultBacklog is the listen backlog used when none is configured. The
// kernel clamps it to its own maximum.
const DefaultBacklog = 0x7fffffff

// Shared contains settings used by both connect and listen mode.
type Shared struct {
	Host    string
	Port    int
	Timeout time.Duration // connect timeout, 0 = none
	Verbose bool
	LogFile string

	Logger *log.Logger
	Deps   *Dependencies
}

// Validate checks the shared settings.
func (c *Shared) Validate() []error {
	var errors []error

	if err := validatePort(c.Port); err != nil {
		errors = append(errors, fmt.Errorf("'--port': %s", err))
	}

	if c.Timeout < 0 {
		errors = append(errors, fmt.Errorf("'--timeout' must not be negative"))
	}

	return errors
}

// DefaultRetryInterval is the first pause between connect attempts.
const DefaultRetryInterval = 500 * time.Millisecond

// Connect contains settings specific to connect mode.
type Connect struct {
	Retries       int           // additional attempts after a failed connect
	RetryInterval time.Duration // first pause, grows exponentially
}

// Validate checks the connect settings.
func (c *Connect) Validate() []error {
	var errors []error

	if c.Retries < 0 {
		errors = append(errors, fmt.Errorf("'--retries' must not be negative"))
	}

	return errors
}

// GetRetryInterval returns the configured interval or DefaultRetryInterval.
func (c *Connect) GetRetryInterval() time.Duration {
	if c.RetryInterval <= 0 {
		return DefaultRetryInterval
	}
	return c.RetryInterval
}

// Listen contains settings specific to listen mode.
type Listen struct {
	Backlog int
}

// Validate checks the listen settings.
func (c *Listen) Validate() []error {
	var errors []error

	if c.Backlog < 0 {
		errors = append(errors, fmt.Errorf("'--backlog' must not be negative"))
	}

	return errors
}

// GetBacklog returns the configured backlog or DefaultBacklog if unset.
func (c *Listen) GetBacklog() int {
	if c.Backlog == 0 {
		return DefaultBacklog
	}
	return c.Backlog
}

// GetDeps returns a copy of the dependencies in which Logger defaults to
// the configured logger.
func (c *Shared) GetDeps() *Dependencies {
	deps := Dependencies{}
	if c.Deps != nil {
		deps = *c.Deps
	}
	if deps.Logger == nil {
		deps.Logger = c.Logger
	}
	return &deps
}
