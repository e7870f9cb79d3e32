// Package db provides the shared data-access layer for backlog job tracking.
//
// One database (by default .backlogctl/backlog_jobs.db) holds three tables:
// backlog_jobs, backlog_reports, and llm_configurations. Every command goes
// through this package; no ad hoc SQL elsewhere.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mwhitford/backlogctl/internal/db/driver"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// timeLayout is the stored timestamp format, matching SQLite's datetime('now').
const timeLayout = "2006-01-02 15:04:05"

// DB wraps a database connection with dialect abstraction.
type DB struct {
	driver driver.Driver
	dsn    string
}

// Open opens a SQLite job store at the given path, creating the parent
// directory if needed.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return OpenWithDialect(path, driver.DialectSQLite)
}

// OpenInMemory opens an in-memory SQLite job store. Each call creates a new
// isolated database; intended for tests.
func OpenInMemory() (*DB, error) {
	return OpenWithDialect(":memory:", driver.DialectSQLite)
}

// OpenWithDialect opens a job store with a specific dialect.
func OpenWithDialect(dsn string, dialect driver.Dialect) (*DB, error) {
	drv, err := driver.New(dialect)
	if err != nil {
		return nil, err
	}
	if err := drv.Open(dsn); err != nil {
		return nil, err
	}
	return &DB{driver: drv, dsn: dsn}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.driver.Close()
}

// DSN returns the database DSN/path.
func (d *DB) DSN() string {
	return d.dsn
}

// Dialect returns the database dialect.
func (d *DB) Dialect() driver.Dialect {
	return d.driver.Dialect()
}

// DB returns the underlying sql.DB for advanced operations.
func (d *DB) DB() *sql.DB {
	return d.driver.DB()
}

// Migrate applies all pending schema migrations for the active dialect.
func (d *DB) Migrate(ctx context.Context) error {
	prefix := fmt.Sprintf("backlog_%s", d.driver.Dialect())
	return d.driver.Migrate(ctx, schemaFS, prefix)
}

// AppliedMigrations returns the applied schema versions, sorted ascending.
func (d *DB) AppliedMigrations(ctx context.Context) ([]int, error) {
	rows, err := d.driver.Query(ctx, "SELECT version FROM _migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// now renders the current UTC time in the stored format.
func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp; zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
