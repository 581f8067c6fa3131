package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// schema holds one statement per version. Append only; applied versions
// are never edited.
var schema = []string{
	1: `CREATE TABLE IF NOT EXISTS local_storage (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated INTEGER NOT NULL
	)`,
}

// migrate brings db up to the latest schema version, one transaction per
// version.
func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	have, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for v := have + 1; v < len(schema); v++ {
		if err := applyVersion(ctx, db, v); err != nil {
			return fmt.Errorf("schema v%d: %w", v, err)
		}
	}
	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func applyVersion(ctx context.Context, db *sql.DB, v int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after Commit

	if _, err := tx.ExecContext(ctx, schema[v]); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied) VALUES (?, ?)",
		v, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}
