package history

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLoadMigrationsOrdered(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) == 0 || migrations[0].version != 1 {
		t.Fatalf("expected migrations starting at version 1, got %+v", migrations)
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].version <= migrations[i-1].version {
			t.Fatalf("migrations out of order: %s after %s", migrations[i].name, migrations[i-1].name)
		}
	}
}

func TestOpenRecordsSchemaVersionOnce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	for range 2 {
		store, err := OpenPath(dbPath)
		if err != nil {
			t.Fatalf("OpenPath: %v", err)
		}
		var version int
		if err := store.db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
			t.Fatalf("read user_version: %v", err)
		}
		migrations, _ := loadMigrations()
		if want := migrations[len(migrations)-1].version; version != want {
			t.Fatalf("user_version = %d, want %d", version, want)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}
