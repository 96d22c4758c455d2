package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
)

// HashPasswordCommand prints a bcrypt hash for auth.password_hash.
type HashPasswordCommand struct {
	ConfigPath string
	Password   string
	Cost       int
	stdin    io.Reader
	stdout   io.Writer
}

func NewHashPasswordCommand() *HashPasswordCommand {
	return &HashPasswordCommand{stdin: os.Stdin, stdout: os.Stdout}
}

func (cmd *HashPasswordCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)

	fs.StringVar(&cmd.Password, "password", "", "Password to hash (read from stdin when omitted)")
	fs.StringVar(&cmd.ConfigPath, "config", "", "Path to a config file, for auth.bcrypt_cost")
	fs.IntVar(&cmd.Cost, "cost", 0, "bcrypt cost (default: auth.bcrypt_cost from the config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s hash-password [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print a bcrypt hash for AUTH_PASSWORD_HASH.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  echo 'a long passphrase' | %s hash-password\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *HashPasswordCommand) Run() error {
	cost := cmd.Cost
	if cost == 0 {
		cfg, err := config.Load(cmd.ConfigPath)
		if err != nil {
			return err
		}
		cost = cfg.Auth.BcryptCost
	}

	password := cmd.Password
	if password == "" {
		line, err := bufio.NewReader(cmd.stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.stdout, hash)
	return nil
}
