package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migration moves the notes table from version to-1 to version to. Each step
// must be safe to run against a table that already has its change.
type migration struct {
	to    int
	apply func(ctx context.Context, tx *sql.Tx) error
}

func defaultMigrations() []migration {
	return []migration{
		{to: 2, apply: addModifiedIndex},
		{to: 3, apply: addCategoryColumn},
	}
}

func addModifiedIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_notes_modified ON notes(modified)`)
	return err
}

func addCategoryColumn(ctx context.Context, tx *sql.Tx) error {
	has, err := hasColumn(ctx, tx, tableNotes, "category")
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE notes ADD COLUMN category TEXT NOT NULL DEFAULT 'General'`)
	return err
}

// MigrateResult reports what Migrate did.
type MigrateResult struct {
	// Version is the schema version after Migrate returns.
	Version int
	// Created is set when the table did not exist and was created.
	Created bool
	// Recreated is set when a failed migration dropped and rebuilt the table.
	Recreated bool
}

// Migrate brings the notes table in conn to target. A missing table is
// created directly at target. An older table is migrated one version at a
// time; if a step fails the table is dropped and recreated empty at target.
// That fallback loses every stored note and is logged at WARN.
func Migrate(ctx context.Context, conn *sql.DB, target int, logger *slog.Logger) (MigrateResult, error) {
	return migrate(ctx, conn, target, logger, defaultMigrations())
}

func migrate(ctx context.Context, conn *sql.DB, target int, logger *slog.Logger, steps []migration) (MigrateResult, error) {
	if target < 1 || target > CurrentVersion {
		return MigrateResult{}, fmt.Errorf("store: unsupported schema version %d", target)
	}

	version, err := userVersion(ctx, conn)
	if err != nil {
		return MigrateResult{}, err
	}
	exists, err := tableExists(ctx, conn, tableNotes)
	if err != nil {
		return MigrateResult{}, err
	}

	if !exists {
		if err := recreate(ctx, conn, target); err != nil {
			return MigrateResult{}, fmt.Errorf("store: create schema: %w", err)
		}
		logger.Info("schema: created", slog.Int("version", target))
		return MigrateResult{Version: target, Created: true}, nil
	}

	// A table written before versioning was tracked has the oldest shape.
	if version == 0 {
		version = 1
	}
	if version > target {
		return MigrateResult{}, fmt.Errorf("store: database version %d is newer than supported %d", version, target)
	}

	for _, step := range steps {
		if step.to <= version || step.to > target {
			continue
		}
		if err := applyStep(ctx, conn, step); err != nil {
			logger.Warn("schema: migration failed, recreating table; existing notes are discarded",
				slog.Int("from", version),
				slog.Int("to", step.to),
				slog.Int("target", target),
				slog.String("error", err.Error()))
			if err := recreate(ctx, conn, target); err != nil {
				return MigrateResult{}, fmt.Errorf("store: recreate after failed migration: %w", err)
			}
			return MigrateResult{Version: target, Recreated: true}, nil
		}
		logger.Info("schema: migrated", slog.Int("from", version), slog.Int("to", step.to))
		version = step.to
	}

	if version != target {
		// No step covers the remaining range; record the target anyway so the
		// comparison at the next open is stable.
		if _, err := conn.ExecContext(ctx, setUserVersionSQL(target)); err != nil {
			return MigrateResult{}, fmt.Errorf("store: set version: %w", err)
		}
		version = target
	}
	return MigrateResult{Version: version}, nil
}

func applyStep(ctx context.Context, conn *sql.DB, step migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := step.apply(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, setUserVersionSQL(step.to)); err != nil {
		return err
	}
	return tx.Commit()
}

// recreate drops the notes table and builds it at version.
func recreate(ctx context.Context, conn *sql.DB, version int) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS notes`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(version)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, setUserVersionSQL(version)); err != nil {
		return err
	}
	return tx.Commit()
}

// PRAGMA does not accept bound parameters; version is always an int.
func setUserVersionSQL(version int) string {
	return fmt.Sprintf("PRAGMA user_version = %d", version)
}

func userVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("store: read version: %w", err)
	}
	return v, nil
}

func tableExists(ctx context.Context, conn *sql.DB, name string) (bool, error) {
	var n int
	err := conn.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: inspect schema: %w", err)
	}
	return n > 0, nil
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
