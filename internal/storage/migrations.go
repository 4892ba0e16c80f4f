package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS pending_topups (
					id TEXT PRIMARY KEY,
					amount TEXT NOT NULL,
					currency TEXT NOT NULL,
					sender_name TEXT NOT NULL DEFAULT '',
					bank_reference TEXT NOT NULL DEFAULT '',
					normalized_reference TEXT NOT NULL DEFAULT '',
					source TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					risk_level TEXT NOT NULL DEFAULT 'clear',
					risk_matches TEXT NOT NULL DEFAULT '[]',
					email_from TEXT NOT NULL DEFAULT '',
					email_subject TEXT NOT NULL DEFAULT '',
					email_excerpt TEXT NOT NULL DEFAULT '',
					message_id TEXT NOT NULL DEFAULT '',
					received_at DATETIME NOT NULL,
					ai_parsed_data TEXT NOT NULL DEFAULT '{}',
					target_user_id TEXT NOT NULL DEFAULT '',
					credited INTEGER NOT NULL DEFAULT 0,
					reviewed_by TEXT NOT NULL DEFAULT '',
					reviewed_at DATETIME,
					reject_reason TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					CHECK (status IN ('pending', 'approved', 'rejected'))
				)`,
				`CREATE INDEX idx_topups_status ON pending_topups(status)`,
				`CREATE INDEX idx_topups_received ON pending_topups(received_at)`,
				`CREATE INDEX idx_topups_reference ON pending_topups(normalized_reference)`,

				`CREATE TABLE IF NOT EXISTS rule_config (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					config TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS settings (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					settings TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS processing_log (
					id TEXT PRIMARY KEY,
					message_id TEXT UNIQUE NOT NULL,
					email_from TEXT NOT NULL DEFAULT '',
					subject TEXT NOT NULL DEFAULT '',
					outcome TEXT NOT NULL,
					reason TEXT NOT NULL DEFAULT '',
					parsed_snapshot TEXT NOT NULL DEFAULT '{}',
					topup_id TEXT NOT NULL DEFAULT '',
					processed_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_processing_log_outcome ON processing_log(outcome)`,
				`CREATE INDEX idx_processing_log_processed ON processing_log(processed_at)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add wallet ledger",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS wallets (
					user_id TEXT PRIMARY KEY,
					balance TEXT NOT NULL DEFAULT '0',
					updated_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS wallet_credits (
					topup_id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					amount TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					FOREIGN KEY (topup_id) REFERENCES pending_topups(id)
				)`,
				`CREATE INDEX idx_wallet_credits_user ON wallet_credits(user_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add board sync tables",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS board_config (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					config TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS board_items (
					topup_id TEXT PRIMARY KEY,
					item_id TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
