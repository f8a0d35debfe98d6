package db_test

import (
	"path/filepath"
	"testing"

	"github.com/vrsandeep/anisync/internal/assets"
	"github.com/vrsandeep/anisync/internal/db"
)

func TestInitDBAndMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anisync.db")
	conn, err := db.InitDB(path)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(conn, assets.MigrationsFS); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	// A second run must be a no-op.
	if err := db.RunMigrations(conn, assets.MigrationsFS); err != nil {
		t.Fatalf("RunMigrations (second run) failed: %v", err)
	}

	for _, table := range []string{"seasons", "selected_anime", "auto_rules", "collections", "settings"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	var mode string
	if err := conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to read journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL journal mode, got %q", mode)
	}

	var foreignKeys int
	if err := conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("Failed to read foreign_keys pragma: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("Expected foreign keys to be enabled, got %d", foreignKeys)
	}
}
