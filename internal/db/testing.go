package db

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// OpenTest opens a migrated SQLite store in t.TempDir() and closes it when
// the test ends. The store is not seeded.
func OpenTest(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := Open(DriverSQLite, path, nil)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = Close(gdb) })

	if err := Migrate(context.Background(), gdb, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return gdb
}
