// Package shared holds the flags and helpers common to the gosock commands.
package shared

import (
	"fmt"
	"strings"
	"time"

	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/log"

	"github.com/urfave/cli/v3"
)

const categoryCommon = "common"

// VerboseFlag enables verbose logging.
const VerboseFlag = "verbose"

// TimeoutFlag is the connect timeout in milliseconds.
const TimeoutFlag = "timeout"

// LogFileFlag names a file receiving a transcript of the session.
const LogFileFlag = "log"

// GetBaseDescription returns the description of the transport argument.
func GetBaseDescription() string {
	return strings.Join([]string{
		"Specify the address like this: tcp://127.0.0.1:123",
		"You can omit the host (or use *) when listening to bind to all interfaces.",
	}, "\n")
}

// GetArgsUsage returns the arguments usage string for CLI commands.
func GetArgsUsage() string {
	return "transport"
}

// GetCommonFlags returns the flags of both connect and listen.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose logging",
			Category: categoryCommon,
			Value:    false,
		},
		&cli.StringFlag{
			Name:     LogFileFlag,
			Aliases:  []string{"l"},
			Usage:    "Append a transcript of the session to this file",
			Category: categoryCommon,
			Value:    "",
		},
	}
}

const categoryConnect = "connect"

// RetriesFlag is the number of additional connect attempts.
const RetriesFlag = "retries"

// GetConnectFlags returns the flags specific to connect mode.
func GetConnectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     TimeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Connect timeout in milliseconds, 0 waits for the operating system",
			Category: categoryConnect,
			Value:    0,
		},
		&cli.IntFlag{
			Name:     RetriesFlag,
			Aliases:  []string{"r"},
			Usage:    "Retry a refused or timed out connect this many times, with exponential backoff",
			Category: categoryConnect,
			Value:    0,
		},
	}
}

const categoryListen = "listen"

// BacklogFlag sets the listen backlog.
const BacklogFlag = "backlog"

// GetListenFlags returns the flags specific to listen mode.
func GetListenFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     BacklogFlag,
			Aliases:  []string{"b"},
			Usage:    "Maximum queue of pending connections, 0 for the system maximum",
			Category: categoryListen,
			Value:    0,
		},
	}
}

// Timeout converts the timeout flag to a duration.
func Timeout(cmd *cli.Command) time.Duration {
	return time.Duration(cmd.Int(TimeoutFlag)) * time.Millisecond
}

// Validate prints all validation errors and fails if there were any.
func Validate(cfgs ...config.ValidatableConfig) error {
	errors := config.Validate(cfgs...)
	if len(errors) == 0 {
		return nil
	}

	log.ErrorMsg("Argument validation errors:\n")
	for _, err := range errors {
		log.ErrorMsg(" - %s\n", err)
	}
	return fmt.Errorf("exiting")
}
