// Package testutil provides shared test helpers for snapshot databases and
// markdown files.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/inkpad/internal/kvstore"
)

// TestDB creates a temporary SQLite snapshot database that is automatically
// cleaned up.
func TestDB(t *testing.T) *kvstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "inkpad-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := kvstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestMarkdownFile writes content to name inside a temporary directory and
// returns its path.
func TestMarkdownFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
