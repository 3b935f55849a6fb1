package otel_test

import (
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	adapter "github.com/neomorfeo/assetiq/internal/adapter/otel"
)

func TestOpenDB_AppliesPragmas(t *testing.T) {
	db, err := adapter.OpenDB(filepath.Join(t.TempDir(), "otel.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpenDB_InvalidPath(t *testing.T) {
	if _, err := adapter.OpenDB("/nonexistent/path/db.sqlite"); err == nil {
		t.Fatal("expected error for invalid path")
	}
}
