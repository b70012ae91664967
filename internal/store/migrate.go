package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RunMigrations executes the .sql files under db/migrations in lexicographic
// order, tracking applied files in schema_migrations. A missing migrations
// directory is skipped so the bot can run without the optional database.
func (d *DB) RunMigrations(ctx context.Context, root string) error {
	if d == nil || d.SQL == nil {
		return nil
	}
	dir := filepath.Join(root, "db", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	const createMeta = `CREATE TABLE IF NOT EXISTS schema_migrations (filename text PRIMARY KEY, applied_at timestamptz NOT NULL DEFAULT now())`
	if _, err := d.SQL.ExecContext(ctx, createMeta); err != nil {
		return err
	}
	applied := map[string]struct{}{}
	rows, err := d.SQL.QueryContext(ctx, `SELECT filename FROM schema_migrations`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var f string
			if err := rows.Scan(&f); err == nil {
				applied[f] = struct{}{}
			}
		}
		_ = rows.Err()
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		base := filepath.Base(f)
		if _, ok := applied[base]; ok {
			continue
		}
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		tx, err := d.SQL.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", base, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`, base); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s failed: %w", base, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
