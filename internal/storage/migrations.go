package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version the application expects.
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
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					fingerprint TEXT NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					merchant_name TEXT,
					location TEXT,
					reference_number TEXT,
					check_number TEXT,
					amount REAL NOT NULL,
					type TEXT NOT NULL,
					extraction_confidence REAL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_fingerprint ON transactions(fingerprint)`,

				`CREATE TABLE IF NOT EXISTS rules (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					conditions TEXT NOT NULL,
					action_type TEXT NOT NULL,
					action_value TEXT NOT NULL,
					confidence REAL DEFAULT 0,
					created_date DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS classifications (
					transaction_id TEXT PRIMARY KEY,
					category TEXT NOT NULL,
					subcategory TEXT,
					confidence REAL DEFAULT 0,
					reasoning TEXT,
					classified_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (transaction_id) REFERENCES transactions(id)
				)`,
				`CREATE INDEX idx_classifications_category ON classifications(category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add user validation flag to classifications",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE classifications ADD COLUMN user_validated INTEGER DEFAULT 0`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Add duplicate resolution audit table",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS duplicate_resolutions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					group_id TEXT NOT NULL,
					transaction_id TEXT NOT NULL,
					action TEXT NOT NULL,
					similarity REAL DEFAULT 0,
					resolved_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_duplicate_resolutions_group ON duplicate_resolutions(group_id)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
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

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
