package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded migrations of dialect that have not been
// recorded in schema_migrations yet, in file name order.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id VARCHAR(191) NOT NULL PRIMARY KEY,
  applied_at BIGINT NOT NULL
)`); err != nil {
		return err
	}

	dir := "migrations/" + dialect
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationsFS.ReadFile(dir + "/" + name)
		if err != nil {
			return err
		}
		id := migrationID(name)
		applied, err := isMigrationApplied(ctx, db, id)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := applyMigration(ctx, db, id, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// migrationID is the file name without extension. Editing an applied file
// does not run it again; add a new file instead.
func migrationID(name string) string {
	return strings.TrimSuffix(name, ".sql")
}

func isMigrationApplied(ctx context.Context, db *sql.DB, id string) (bool, error) {
	var v string
	err := db.QueryRowContext(ctx, "SELECT id FROM schema_migrations WHERE id = ?", id).Scan(&v)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// applyMigration runs each statement of body in one transaction. The mysql
// driver rejects multi statement queries, so statements are split on ';'.
func applyMigration(ctx context.Context, db *sql.DB, id, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(body) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (id, applied_at) VALUES (?, ?)",
		id, time.Now().UTC().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func splitStatements(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
