package cli

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/mrlokans/bookstore/internal/config"
)

// configFlags are shared by every command that touches the library database.
type configFlags struct {
	ConfigPath   string
	DatabasePath string
}

func (f *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to a YAML/JSON/TOML config file (default: $"+config.DefaultConfigEnvVar+")")
	fs.StringVar(&f.DatabasePath, "db", "", "Path to the library database, overrides the config file")
}

// load reads the config and applies the -db override.
func (f *configFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if f.DatabasePath != "" {
		abs, err := filepath.Abs(f.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
		}
		cfg.Database.Path = abs
	}
	return cfg, nil
}
