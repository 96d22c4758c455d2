package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookstore/internal/entrypoint"
)

// ServeCommand starts the web application.
type ServeCommand struct {
	configFlags
	Version string
}

func NewServeCommand(version string) *ServeCommand {
	return &ServeCommand{Version: version}
}

func (cmd *ServeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cmd.configFlags.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s serve [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Start the HTTP server. Every config key can also be set through the\n")
		fmt.Fprintf(os.Stderr, "environment, e.g. HTTP_PORT=9090 or DATABASE_PATH=/data/bookstore.db.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *ServeCommand) Run() error {
	cfg, err := cmd.load()
	if err != nil {
		return err
	}
	entrypoint.Run(cfg, cmd.Version)
	return nil
}
