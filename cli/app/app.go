package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/dot-go/cli/trie"
	"github.com/nspcc-dev/dot-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "dot-go\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a dot-go instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "dot-go"
	ctl.Version = config.Version
	ctl.Usage = "Substrate-compatible state trie toolkit"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, trie.NewCommands()...)
	return ctl
}
