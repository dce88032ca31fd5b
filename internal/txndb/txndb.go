// Package txndb is the append-only transaction database (§4.9): one
// row per finished transaction, queried by most-recent-N. Grounded on
// the teacher's internal/store package — a thin *sql.DB wrapper backed
// by an embedded DuckDB file, repository methods built with
// Masterminds/squirrel, and a migrations subpackage applied at open
// time.
//
// DB satisfies both internal/transaction.Persister (RecordTransaction)
// and internal/control.RoleHistory (LastCompletion), so the daemon
// wires a single *DB into both collaborators.
package txndb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/opkgd/pkgbrokerd/internal/enums"
	"github.com/opkgd/pkgbrokerd/internal/results"
	"github.com/opkgd/pkgbrokerd/internal/txndb/migrations"
)

// DB is the transaction database.
type DB struct {
	db *sql.DB
}

// Open creates (or attaches to) the DuckDB file at path and applies
// pending migrations. path may be ":memory:" or "" for an ephemeral
// in-process database, as DuckDB's driver treats both the same way.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := path
	if dsn == ":memory:" {
		dsn = ""
	}
	sqlDB, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("txndb: open %s: %w", path, err)
	}
	if err := migrations.Run(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("txndb: migrate %s: %w", path, err)
	}
	return &DB{db: sqlDB}, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

// RecordTransaction appends rec as a new row. Transactions are
// identified by tid, which the scheduler guarantees is unique, so a
// duplicate insert indicates a caller bug rather than a condition to
// paper over.
func (d *DB) RecordTransaction(ctx context.Context, rec results.TransactionPast) error {
	query, args, err := sq.Insert("transactions").
		Columns("tid", "started_at", "succeeded", "role", "duration_ms", "data", "uid", "cmdline").
		Values(rec.TID, rec.Timespec, rec.Succeeded, rec.Role.String(), rec.Duration.Milliseconds(), rec.Data, rec.UID, rec.Cmdline).
		ToSql()
	if err != nil {
		return fmt.Errorf("txndb: build insert: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("txndb: record transaction %s: %w", rec.TID, err)
	}
	return nil
}

// GetOldTransactions returns the most recent n finished transactions,
// newest first. n == 0 means "all" (§6 Open Questions).
func (d *DB) GetOldTransactions(ctx context.Context, n uint32) ([]results.TransactionPast, error) {
	builder := sq.Select("tid", "started_at", "succeeded", "role", "duration_ms", "data", "uid", "cmdline").
		From("transactions").
		OrderBy("started_at DESC")
	if n > 0 {
		builder = builder.Limit(uint64(n))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("txndb: build select: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("txndb: list transactions: %w", err)
	}
	defer rows.Close()

	var out []results.TransactionPast
	for rows.Next() {
		var (
			rec        results.TransactionPast
			role       string
			durationMs int64
		)
		if err := rows.Scan(&rec.TID, &rec.Timespec, &rec.Succeeded, &role, &durationMs, &rec.Data, &rec.UID, &rec.Cmdline); err != nil {
			return nil, fmt.Errorf("txndb: scan transaction row: %w", err)
		}
		rec.Role, _ = enums.ParseRole(role)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LastCompletion returns the started_at of the most recently finished
// transaction for role, satisfying internal/control.RoleHistory
// (GetTimeSinceAction, §4.7).
func (d *DB) LastCompletion(ctx context.Context, role enums.Role) (time.Time, bool, error) {
	query, args, err := sq.Select("started_at").
		From("transactions").
		Where(sq.Eq{"role": role.String()}).
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("txndb: build last-completion select: %w", err)
	}

	var at time.Time
	err = d.db.QueryRowContext(ctx, query, args...).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("txndb: last completion for %s: %w", role, err)
	}
	return at, true, nil
}
