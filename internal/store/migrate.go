package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every embedded .sql file, each inside its own
// transaction, in lexical order (001_..., 002_..., etc.). Statements are
// written to be re-runnable, so there is no applied-version bookkeeping.
func runMigrations(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		stmts, err := fs.ReadFile(migrationsFS, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := applyMigration(ctx, db, string(stmts)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		log.Debug("migration applied", zap.String("file", name))
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, stmts string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, stmts); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
