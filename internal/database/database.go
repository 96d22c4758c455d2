package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database/migrations"
)

// Database owns the connection pool shared by every repository.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the pool described by cfg and applies pending migrations.
func NewDatabase(cfg config.Database) (*Database, error) {
	logLevel := logger.Warn
	if cfg.LogQueries {
		logLevel = logger.Info
	}
	return open(cfg, logger.Default.LogMode(logLevel))
}

// NewDatabaseForTesting opens a database with query logging silenced.
func NewDatabaseForTesting(path string) (*Database, error) {
	cfg := config.NewConfig().Database
	cfg.Path = path
	return open(cfg, logger.Default.LogMode(logger.Silent))
}

func open(cfg config.Database, gormLogger logger.Interface) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn(cfg)), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := migrate(context.Background(), sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", cfg.Path)

	return &Database{DB: db}, nil
}

// dsn enables foreign keys (needed for the cascading deletes), WAL and a busy timeout
// on every connection the pool opens.
func dsn(cfg config.Database) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	params.Set("_busy_timeout", fmt.Sprintf("%d", busy.Milliseconds()))
	return "file:" + cfg.Path + "?" + params.Encode()
}

func migrate(ctx context.Context, sqlDB *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, migrations.FS)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		log.Printf("Applied migration %s (%s)", r.Source.Path, r.Duration)
	}
	return nil
}

// Migrate applies pending migrations without keeping the pool open.
func Migrate(cfg config.Database) error {
	db, err := NewDatabase(cfg)
	if err != nil {
		return err
	}
	return db.Close()
}

// SQLDB returns the pool underneath gorm, for collaborators that speak database/sql.
func (d *Database) SQLDB() (*sql.DB, error) {
	return d.DB.DB()
}

// Ping checks that a pooled connection can reach the store.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return apperr.Unavailable("database.Ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		if apperr.IsConnectionError(err) {
			log.Printf("Database ping failed: %v", err)
		}
		return apperr.Unavailable("database.Ping", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
