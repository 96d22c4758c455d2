package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeBasic AuthMode = "basic" // HTTP basic auth against a single bcrypt-hashed account
)

var (
	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigInvalid is returned when the config file exists but cannot be parsed.
	ErrConfigInvalid = errors.New("invalid config file")
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Session
		Auth
		Import
		Tasks
		Reconcile
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path            string
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
		BusyTimeout     time.Duration
		LogQueries      bool
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Session struct {
		Lifetime        time.Duration
		CleanupInterval time.Duration
		SecureCookies   bool // Set to false for local dev without HTTPS
		CSRFEnabled     bool
		CSRFSecret      string // Generated at startup if empty
	}
	Auth struct {
		Mode         AuthMode
		Username     string
		PasswordHash string // bcrypt hash, see the hash-password command
		BcryptCost   int
	}
	Import struct {
		DefaultAuthorID   uint
		DefaultCategoryID uint
		Atomic            bool  // Wrap a whole import file in one transaction
		MaxUploadSize     int64 // Bytes
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Reconcile struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("global.shutdown_timeout_in_seconds", 5)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.busy_timeout", "5s")
	v.SetDefault("database.log_queries", false)

	v.SetDefault("ui.templates_path", "./templates")
	v.SetDefault("ui.static_path", "./static")

	v.SetDefault("session.lifetime", "12h")
	v.SetDefault("session.cleanup_interval", "5m")
	v.SetDefault("session.secure_cookies", false)
	v.SetDefault("session.csrf_enabled", true)
	v.SetDefault("session.csrf_secret", "")

	v.SetDefault("auth.mode", string(AuthModeNone))
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("import.default_author_id", FallbackAuthorID)
	v.SetDefault("import.default_category_id", FallbackCategoryID)
	v.SetDefault("import.atomic", false)
	v.SetDefault("import.max_upload_size", 5<<20) // 5 MiB

	v.SetDefault("tasks.enabled", true)
	v.SetDefault("tasks.workers", 1)
	v.SetDefault("tasks.release_after", "15m")
	v.SetDefault("tasks.cleanup_interval", "1h")

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.schedule", "0 * * * *") // Hourly at :00

	return v
}

// NewConfig builds a Config from defaults and environment variables only.
func NewConfig() *Config {
	return fromViper(newViper())
}

// Load builds a Config from defaults, the given config file and environment variables,
// in increasing order of precedence. An empty path falls back to the BOOKSTORE_CONFIG
// environment variable; if both are empty no file is read.
//
// A missing file yields ErrConfigNotFound and an unparseable one ErrConfigInvalid.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(DefaultConfigEnvVar)
	}

	v := newViper()
	if path == "" {
		return fromViper(v), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrConfigInvalid, path)
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, path, err)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("http.port"),
			Host: v.GetString("http.host"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("global.shutdown_timeout_in_seconds"),
		},
		Database: Database{
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			BusyTimeout:     v.GetDuration("database.busy_timeout"),
			LogQueries:      v.GetBool("database.log_queries"),
		},
		UI: UI{
			TemplatesPath: v.GetString("ui.templates_path"),
			StaticPath:    v.GetString("ui.static_path"),
		},
		Session: Session{
			Lifetime:        v.GetDuration("session.lifetime"),
			CleanupInterval: v.GetDuration("session.cleanup_interval"),
			SecureCookies:   v.GetBool("session.secure_cookies"),
			CSRFEnabled:     v.GetBool("session.csrf_enabled"),
			CSRFSecret:      v.GetString("session.csrf_secret"),
		},
		Auth: Auth{
			Mode:         AuthMode(v.GetString("auth.mode")),
			Username:     v.GetString("auth.username"),
			PasswordHash: v.GetString("auth.password_hash"),
			BcryptCost:   v.GetInt("auth.bcrypt_cost"),
		},
		Import: Import{
			DefaultAuthorID:   v.GetUint("import.default_author_id"),
			DefaultCategoryID: v.GetUint("import.default_category_id"),
			Atomic:            v.GetBool("import.atomic"),
			MaxUploadSize:     v.GetInt64("import.max_upload_size"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("tasks.enabled"),
			Workers:         v.GetInt("tasks.workers"),
			ReleaseAfter:    v.GetDuration("tasks.release_after"),
			CleanupInterval: v.GetDuration("tasks.cleanup_interval"),
		},
		Reconcile: Reconcile{
			Enabled:  v.GetBool("reconcile.enabled"),
			Schedule: v.GetString("reconcile.schedule"),
		},
	}
}

// Validate reports configuration combinations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path must not be empty", ErrConfigInvalid)
	}
	switch c.Auth.Mode {
	case AuthModeNone:
	case AuthModeBasic:
		if c.Auth.Username == "" || c.Auth.PasswordHash == "" {
			return fmt.Errorf("%w: auth.mode=basic requires auth.username and auth.password_hash", ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown auth.mode %q", ErrConfigInvalid, c.Auth.Mode)
	}
	if c.Import.DefaultAuthorID == 0 || c.Import.DefaultCategoryID == 0 {
		return fmt.Errorf("%w: import defaults must reference existing ids", ErrConfigInvalid)
	}
	return nil
}
