// Package migrations applies the transaction-database schema,
// mirroring the teacher's internal/store/migrations runner: a small
// ordered list of statements tracked in a schema_migrations table so
// Run is safe to call on every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	stmt    string
}

var migrationList = []migration{
	{
		version: 1,
		stmt: `CREATE TABLE IF NOT EXISTS transactions (
			tid         TEXT PRIMARY KEY,
			started_at  TIMESTAMP NOT NULL,
			succeeded   BOOLEAN NOT NULL,
			role        TEXT NOT NULL,
			duration_ms BIGINT NOT NULL,
			data        TEXT,
			uid         INTEGER NOT NULL,
			cmdline     TEXT
		)`,
	},
	{
		version: 2,
		stmt:    `CREATE INDEX IF NOT EXISTS idx_transactions_started_at ON transactions (started_at)`,
	},
	{
		version: 3,
		stmt:    `CREATE INDEX IF NOT EXISTS idx_transactions_role ON transactions (role)`,
	},
}

// Run applies every migration not yet recorded in schema_migrations.
// Idempotent: safe to call on every daemon startup.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("migrations: create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("migrations: list applied: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("migrations: scan applied: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, m := range migrationList {
		if applied[m.version] {
			continue
		}
		if _, err := db.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("migrations: apply version %d: %w", m.version, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("migrations: record version %d: %w", m.version, err)
		}
	}
	return nil
}
