package database

import (
	"context"
	"path/filepath"
	"testing"
)

// openTestDB opens a database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestOpen(t *testing.T) {
	t.Run("creates the database file and directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
		db, err := Open(Config{Path: path, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		if db.Path() != path {
			t.Errorf("Path() = %q, want %q", db.Path(), path)
		}
	})

	t.Run("connection survives a round trip", func(t *testing.T) {
		db := openTestDB(t)

		if _, err := db.Exec("CREATE TABLE t (x INTEGER)"); err != nil {
			t.Fatalf("Exec() error = %v", err)
		}
		if _, err := db.Exec("INSERT INTO t (x) VALUES (42)"); err != nil {
			t.Fatalf("Exec() error = %v", err)
		}

		var x int
		if err := db.QueryRow("SELECT x FROM t").Scan(&x); err != nil {
			t.Fatalf("QueryRow() error = %v", err)
		}
		if x != 42 {
			t.Errorf("x = %d, want 42", x)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Closing a zero-value wrapper is a no-op.
	var empty DB
	if err := empty.Close(); err != nil {
		t.Errorf("Close() on zero value error = %v", err)
	}
}
