package main

import (
	"context"
	"os"

	"dominicbreuker/gosock/cmd/connect"
	"dominicbreuker/gosock/cmd/listen"
	"dominicbreuker/gosock/cmd/shared"
	"dominicbreuker/gosock/cmd/version"
	"dominicbreuker/gosock/pkg/log"

	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "gosock",
		Usage: "netcat-like client and server over blocking TCP sockets",
		Commands: []*cli.Command{
			connect.GetCommand(),
			listen.GetCommand(),
			version.GetCommand(),
		},
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shared.SetupSignalHandling(cancel)

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.ErrorMsg("%s\n", err)
		os.Exit(1)
	}
}
