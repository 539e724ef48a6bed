// Package dbtest opens throwaway SQLite databases carrying the full schema.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/monocle-dev/taskboard/db"
	"gorm.io/gorm"
)

// New returns a migrated database stored under t.TempDir and closed on cleanup.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "taskboard.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	gdb, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(gdb); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	})

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return gdb
}
