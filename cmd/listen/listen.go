// Package listen implements the listen command, which accepts connections
// and pipes stdio through each of them in turn.
package listen

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

// GetCommand returns the CLI command for listen mode.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "listen",
		Usage:       "Listen for connections",
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

			verbose := cmd.Bool(shared.VerboseFlag)
			cfg := &config.Shared{
				Host:    host,
				Port:    port,
				Verbose: verbose,
				LogFile: cmd.String(shared.LogFileFlag),
				Logger:  log.NewLogger(verbose),
			}
			lCfg := &config.Listen{
				Backlog: int(cmd.Int(shared.BacklogFlag)),
			}

			if err := shared.Validate(cfg, lCfg); err != nil {
				return err
			}

			return entrypoint.Listen(ctx, cfg, lCfg)
		},
		Flags: getFlags(),
	}
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetListenFlags()...)

	return flags
}
