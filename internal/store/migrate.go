package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		industry TEXT,
		keywords TEXT,
		competitors TEXT,
		models TEXT,
		monthly_credit_limit REAL NOT NULL DEFAULT 0,
		hourly_run_limit INTEGER NOT NULL DEFAULT 0,
		competitor_analysis INTEGER NOT NULL DEFAULT 0,
		credits_used REAL NOT NULL DEFAULT 0,
		period_start INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_runs_account ON runs(account_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(account_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS work_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		model TEXT NOT NULL,
		prompt TEXT NOT NULL,
		subject TEXT NOT NULL,
		status TEXT NOT NULL,
		response TEXT,
		mentioned INTEGER,
		rank_position INTEGER,
		sentiment REAL,
		error TEXT,
		updated_at INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_items_pending ON work_items(run_id, status);`,
	`CREATE TABLE IF NOT EXISTS model_prices (
		model TEXT PRIMARY KEY,
		input_per_token REAL NOT NULL,
		output_per_token REAL NOT NULL
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
