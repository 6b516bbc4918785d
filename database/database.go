package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/database/postgres"
	"github.com/sagarc03/depot/database/sqlite"
)

const (
	TypeNone     = "none"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Config holds the configuration for connecting to a journal backend.
type Config struct {
	// Type specifies the database type: "none", "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=none sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required_unless=Type none"`
	// Tables holds the table names
	Tables depot.Tables `mapstructure:"tables"`
}

// Database is a connected journal backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetJournal() depot.Journal
	Close() error
}

// Connect establishes a connection to the configured database backend.
// Callers run Migrate and Validate themselves; see Open for the usual path.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case TypeSQLite:
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case TypePostgres:
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects, pings, migrates and validates the configured backend and
// returns its journal. The "none" type returns a nil journal, which disables
// journaling. The returned cleanup function closes the connection.
func Open(ctx context.Context, cfg Config) (depot.Journal, func(), error) {
	if cfg.Type == TypeNone {
		return nil, func() {}, nil
	}

	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.GetJournal(), cleanup, nil
}
