package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Equal(t, uint(FallbackAuthorID), cfg.Import.DefaultAuthorID)
	assert.Equal(t, uint(FallbackCategoryID), cfg.Import.DefaultCategoryID)
	assert.False(t, cfg.Import.Atomic)
	assert.Equal(t, "0 * * * *", cfg.Reconcile.Schedule)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, "bookstore.yaml", `
http:
  port: 9090
database:
  path: /tmp/library.db
  max_open_conns: 8
import:
  atomic: true
  default_category_id: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, "/tmp/library.db", cfg.Database.Path)
	assert.Equal(t, 8, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Import.Atomic)
	assert.Equal(t, uint(3), cfg.Import.DefaultCategoryID)
	// Untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeConfig(t, "db_config.json", `{"database": {"path": "./from-json.db"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./from-json.db", cfg.Database.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "bookstore.yaml", "database:\n  path: ./file.db\n")
	t.Setenv("DATABASE_PATH", "./env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./env.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.NotErrorIs(t, err, ErrConfigInvalid)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "broken.json", `{"database": {"path": `)

	_, err := Load(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_EmptyPathUsesEnvVariable(t *testing.T) {
	path := writeConfig(t, "bookstore.yaml", "http:\n  port: 7070\n")
	t.Setenv(DefaultConfigEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int32(7070), cfg.HTTP.Port)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("basic auth requires credentials", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Auth.Mode = AuthModeBasic
		cfg.Auth.PasswordHash = ""

		assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)
	})

	t.Run("unknown auth mode", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Auth.Mode = "oauth"

		assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)
	})

	t.Run("import defaults must be set", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Import.DefaultAuthorID = 0

		assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)
	})
}
