package version

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

func TestGetCommand(t *testing.T) {
	t.Parallel()

	cmd := GetCommand()
	if cmd.Name != "version" {
		t.Errorf("command name = %q; want %q", cmd.Name, "version")
	}
	if cmd.Action == nil {
		t.Fatal("command action should not be nil")
	}
}

func TestVersionCommand_Execute(t *testing.T) {
	var out bytes.Buffer
	root := &cli.Command{
		Name:     "gosock",
		Writer:   &out,
		Commands: []*cli.Command{GetCommand()},
	}

	if err := root.Run(context.Background(), []string{"gosock", "version"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, want := out.String(), Version+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
