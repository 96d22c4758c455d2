package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/bookstore/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type runner interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command = args[0]
		args = args[1:]
	}

	var cmd runner
	switch command {
	case "serve":
		cmd = cli.NewServeCommand(Version)
	case "import":
		cmd = cli.NewImportCommand()
	case "reconcile":
		cmd = cli.NewReconcileCommand()
	case "migrate":
		cmd = cli.NewMigrateCommand()
	case "hash-password":
		cmd = cli.NewHashPasswordCommand()
	case "version":
		fmt.Printf("bookstore %s (%s)\n", Version, Commit)
		return
	case "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve          Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import         Import a JSON file of books\n")
	fmt.Fprintf(os.Stderr, "  reconcile      Repair borrowed flags from the loans table\n")
	fmt.Fprintf(os.Stderr, "  migrate        Create or upgrade the database schema\n")
	fmt.Fprintf(os.Stderr, "  hash-password  Print a bcrypt hash for basic auth\n")
	fmt.Fprintf(os.Stderr, "  version        Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
