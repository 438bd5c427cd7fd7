package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver for database/sql
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alexivanou/placematch-api/internal/config"
)

// Driver returns the database/sql driver name for the configured store
func Driver(cfg config.DBConfig) string {
	if cfg.IsMemory() {
		return "sqlite3"
	}
	return "pgx"
}

// Connect opens the gazetteer store and verifies it answers.
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, Driver(cfg), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s gazetteer: %w", cfg.Type, err)
	}

	if cfg.IsMemory() {
		// Shared-cache memory databases vanish with their last connection
		db.SetConnMaxIdleTime(0)
		db.SetMaxIdleConns(2)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		return db, nil
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
