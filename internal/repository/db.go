package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path string
}

// Open connects to the SQLite store and runs schema migrations. A single
// connection avoids SQLITE_BUSY under the modernc driver.
func Open(cfg Config, logger *slog.Logger) (*sql.DB, error) {
	logger.Info("connecting to store", "path", cfg.Path)

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_foreign_keys=1", cfg.Path))
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrate(db); err != nil {
		logger.Error("failed to migrate store", "error", err)
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("store ready", "path", cfg.Path)
	return db, nil
}

// Close closes the store gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	logger.Info("closing store")
	if err := db.Close(); err != nil {
		logger.Error("failed to close store", "error", err)
	}
}

// HealthCheck pings the store to catch path or lock issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("store ping successful")
	return nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS generation_jobs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			model TEXT NOT NULL,
			status TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			note_path TEXT,
			error TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON generation_jobs(status);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created ON generation_jobs(created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}
