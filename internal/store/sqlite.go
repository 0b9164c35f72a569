package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle shared by the timetable and enrollment repos.
type DB struct {
	db *sql.DB

	timetable   *Timetable
	enrollments *Enrollments
}

// Open opens (or creates) the SQLite database at the given path, applies
// recommended PRAGMAs, runs SQL migrations, and returns the handle.
func Open(ctx context.Context, path string, log *zap.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := runMigrations(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	d := &DB{db: db}
	d.timetable = &Timetable{db: db}
	d.enrollments = &Enrollments{db: db}
	return d, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Timetable returns the catalogue repo backed by this database.
func (d *DB) Timetable() *Timetable { return d.timetable }

// Enrollments returns the enrollment repo backed by this database.
func (d *DB) Enrollments() *Enrollments { return d.enrollments }

// Close releases the underlying database resources.
func (d *DB) Close() error { return d.db.Close() }
