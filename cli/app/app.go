package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/statetrie/cli/trie"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "statetrie\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a statetrie instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "statetrie"
	ctl.Version = config.Version
	ctl.Usage = "Versioned Merkle-Patricia state trie tool"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, trie.NewCommands()...)
	return ctl
}
