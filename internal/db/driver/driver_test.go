package driver

import (
	"context"
	"testing"
	"testing/fstest"
)

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   int
	}{
		{"backlog_sqlite_001.sql", "backlog_sqlite_", 1},
		{"backlog_sqlite_012.sql", "backlog_sqlite_", 12},
		{"backlog_postgres_002.sql", "backlog_postgres_", 2},
		{"garbage.sql", "backlog_sqlite_", 0},
	}
	for _, tt := range tests {
		if got := extractVersion(tt.name, tt.prefix); got != tt.want {
			t.Errorf("extractVersion(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	if _, err := New("oracle"); err == nil {
		t.Error("expected error for unsupported dialect")
	}
}

func TestSQLiteMigrateAppliesInOrderAndSkipsApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"schema/test_sqlite_001.sql": {Data: []byte(
			"CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"schema/test_sqlite_002.sql": {Data: []byte(
			"ALTER TABLE things ADD COLUMN note TEXT NOT NULL DEFAULT '';")},
		"schema/test_postgres_001.sql": {Data: []byte(
			"CREATE TABLE wrong_dialect (id BIGSERIAL PRIMARY KEY);")},
	}

	d := NewSQLite()
	if err := d.Open(":memory:"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = d.Close() }()

	ctx := context.Background()
	if err := d.Migrate(ctx, fsys, "test_sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// Both sqlite migrations applied, the postgres one skipped.
	if _, err := d.Exec(ctx, "INSERT INTO things (name, note) VALUES (?, ?)", "a", "b"); err != nil {
		t.Fatalf("insert into migrated table: %v", err)
	}
	var count int
	if err := d.QueryRow(ctx, "SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("applied migrations = %d, want 2", count)
	}

	row := d.QueryRow(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = 'wrong_dialect'")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("check table: %v", err)
	}
	if count != 0 {
		t.Error("postgres migration must not run under the sqlite prefix")
	}

	// Re-running is a no-op.
	if err := d.Migrate(ctx, fsys, "test_sqlite"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSQLiteMigrateFailureRollsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"schema/bad_sqlite_001.sql": {Data: []byte("CREATE TABLE nope (")},
	}

	d := NewSQLite()
	if err := d.Open(":memory:"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = d.Close() }()

	ctx := context.Background()
	if err := d.Migrate(ctx, fsys, "bad_sqlite"); err == nil {
		t.Fatal("expected migration failure")
	}

	var count int
	if err := d.QueryRow(ctx, "SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 0 {
		t.Errorf("failed migration must not be recorded, got %d rows", count)
	}
}

func TestPlaceholders(t *testing.T) {
	s := NewSQLite()
	if got := s.Placeholder(3); got != "?" {
		t.Errorf("sqlite Placeholder = %q", got)
	}
	p := NewPostgres()
	if got := p.Placeholder(3); got != "$3" {
		t.Errorf("postgres Placeholder = %q", got)
	}
}
