// Package connect implements the connect command, which dials a remote host
// and pipes stdio through the connection.
package connect

import (
	"context"
	"fmt"
	"strings"

	"dominicbreuker/gosock/cmd/shared"
	"dominicbreuker/gosock/pkg/config"
	"dominicbreuker/gosock/pkg/entrypoint"
	"dominicbreuker/gosock/pkg/log"

	"github.com/urfave/cli/v3"
)

// GetCommand returns the CLI command for connect mode.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "connect",
		Usage:       "Connect to a remote host",
		Description: shared.GetBaseDescription(),
		ArgsUsage:   shared.GetArgsUsage(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return fmt.Errorf("must provide exactly one argument, got %d (%s)", args.Len(), strings.Join(args.Slice(), ", "))
			}

			host, port, err := shared.ParseTransport(args.Get(0))
			if err != nil {
				return fmt.Errorf("parsing transport: %s", err)
			}
			if host == "" {
				return fmt.Errorf("parsing transport: %s: specify a host", args.Get(0))
			}

			verbose := cmd.Bool(shared.VerboseFlag)
			cfg := &config.Shared{
				Host:    host,
				Port:    port,
				Timeout: shared.Timeout(cmd),
				Verbose: verbose,
				LogFile: cmd.String(shared.LogFileFlag),
				Logger:  log.NewLogger(verbose),
			}

			cCfg := &config.Connect{
				Retries: int(cmd.Int(shared.RetriesFlag)),
			}

			if err := shared.Validate(cfg, cCfg); err != nil {
				return err
			}

			return entrypoint.Connect(ctx, cfg, cCfg)
		},
		Flags: getFlags(),
	}
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetConnectFlags()...)

	return flags
}
