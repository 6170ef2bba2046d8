package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/database/migrations"
)

// newTestDB creates a new in-memory catalog.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := Open(MemoryPath, bt.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// openFileDB opens a catalog at path and closes it at cleanup.
func openFileDB(t *testing.T, path string) *SQLiteDatabase {
	t.Helper()

	db, err := Open(path, bt.NewNopLogger())
	if err != nil {
		t.Fatalf("Open(%s) error = %v", path, err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func schemaVersion(t *testing.T, db *SQLiteDatabase) int64 {
	t.Helper()

	v, found, err := db.GetIntProperty(schemaVersionProperty)
	if err != nil {
		t.Fatalf("GetIntProperty(SchemaVersion) error = %v", err)
	}
	if !found {
		t.Fatal("SchemaVersion property missing")
	}
	return v
}

func TestOpen(t *testing.T) {
	t.Run("fresh file gets current schema version", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")
		db := openFileDB(t, path)

		if got := schemaVersion(t, db); got != migrations.SchemaVersion {
			t.Errorf("SchemaVersion = %d, want %d", got, migrations.SchemaVersion)
		}
		if db.Path() != path {
			t.Errorf("Path() = %q, want %q", db.Path(), path)
		}
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")

		db, err := Open(path, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := db.InsertFile("/music/a.mp3", time.Unix(100, 0), 0); err != nil {
			t.Fatalf("InsertFile() error = %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		reopened := openFileDB(t, path)
		f, err := reopened.FindFileByPath("/music/a.mp3")
		if err != nil {
			t.Fatalf("FindFileByPath() error = %v", err)
		}
		if f == nil {
			t.Fatal("FindFileByPath() = nil after reopen")
		}
	})

	t.Run("newer schema version is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")

		db, err := Open(path, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if err := db.SetIntProperty(schemaVersionProperty, migrations.SchemaVersion+1); err != nil {
			t.Fatalf("SetIntProperty() error = %v", err)
		}
		db.Close()

		_, err = Open(path, nil)
		if !errors.Is(err, bt.ErrIncompatibleVersion) {
			t.Fatalf("Open() error = %v, want ErrIncompatibleVersion", err)
		}
	})

	t.Run("zero byte file is initialized", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}

		db := openFileDB(t, path)
		if got := schemaVersion(t, db); got != migrations.SchemaVersion {
			t.Errorf("SchemaVersion = %d, want %d", got, migrations.SchemaVersion)
		}
	})

	t.Run("missing property table is recreated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")

		db, err := Open(path, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := db.conn.ExecContext(context.Background(), "DROP TABLE Properties"); err != nil {
			t.Fatalf("dropping Properties: %v", err)
		}
		db.Close()

		reopened := openFileDB(t, path)
		if got := schemaVersion(t, reopened); got != migrations.SchemaVersion {
			t.Errorf("SchemaVersion = %d, want %d", got, migrations.SchemaVersion)
		}
	})

	t.Run("non-database file is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")
		junk := make([]byte, 4096)
		for i := range junk {
			junk[i] = byte('a' + i%26)
		}
		if err := os.WriteFile(path, junk, 0644); err != nil {
			t.Fatal(err)
		}

		_, err := Open(path, nil)
		if !errors.Is(err, bt.ErrIncompatibleVersion) {
			t.Fatalf("Open() error = %v, want ErrIncompatibleVersion", err)
		}
	})

	t.Run("sqlite file of another application is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "other.db")
		other, err := OpenConnection(path)
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		if _, err := other.Exec("CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT)"); err != nil {
			t.Fatal(err)
		}
		if _, err := other.Exec("INSERT INTO moz_places (url) VALUES ('https://example.com')"); err != nil {
			t.Fatal(err)
		}
		other.Close()

		_, err = Open(path, nil)
		if !errors.Is(err, bt.ErrIncompatibleVersion) {
			t.Fatalf("Open() error = %v, want ErrIncompatibleVersion", err)
		}

		check, err := OpenConnection(path)
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		defer check.Close()
		var tables int
		if err := check.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&tables); err != nil {
			t.Fatal(err)
		}
		if tables != 1 {
			t.Errorf("file holds %d tables after Open, want 1", tables)
		}
	})

	t.Run("partial catalog schema is completed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")
		partial, err := OpenConnection(path)
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		if _, err := partial.Exec(`CREATE TABLE Collections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			time INTEGER NOT NULL,
			time_completed INTEGER NOT NULL DEFAULT 0,
			count_total_files INTEGER NOT NULL DEFAULT 0,
			count_new_contents INTEGER NOT NULL DEFAULT 0,
			count_new_contents_bytes INTEGER NOT NULL DEFAULT 0
		)`); err != nil {
			t.Fatal(err)
		}
		partial.Close()

		db := openFileDB(t, path)
		if got := schemaVersion(t, db); got != migrations.SchemaVersion {
			t.Errorf("SchemaVersion = %d, want %d", got, migrations.SchemaVersion)
		}
	})

	t.Run("relative path is rejected", func(t *testing.T) {
		_, err := Open("catalog.db", nil)
		if !errors.Is(err, bt.ErrIO) {
			t.Fatalf("Open() error = %v, want ErrIO", err)
		}
	})

	t.Run("missing directory is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent", "catalog.db")
		_, err := Open(path, nil)
		if !errors.Is(err, bt.ErrIO) {
			t.Fatalf("Open() error = %v, want ErrIO", err)
		}
	})

	t.Run("read-only directory is rejected", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root bypasses directory permissions")
		}
		dir := t.TempDir()
		if err := os.Chmod(dir, 0500); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chmod(dir, 0700) })

		_, err := Open(filepath.Join(dir, "catalog.db"), nil)
		if !errors.Is(err, bt.ErrIO) {
			t.Fatalf("Open() error = %v, want ErrIO", err)
		}
	})
}

func TestSQLiteDatabase_Close(t *testing.T) {
	t.Run("close is idempotent", func(t *testing.T) {
		db, err := Open(MemoryPath, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := db.CountFiles(); err != nil {
			t.Fatalf("CountFiles() error = %v", err)
		}

		if err := db.Close(); err != nil {
			t.Fatalf("first Close() error = %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("second Close() error = %v", err)
		}
	})

	t.Run("close rolls back an open transaction", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.db")
		db, err := Open(path, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := db.Begin(); err != nil {
			t.Fatalf("Begin() error = %v", err)
		}
		if err := db.SetStringProperty("pending", "yes"); err != nil {
			t.Fatalf("SetStringProperty() error = %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		reopened := openFileDB(t, path)
		_, found, err := reopened.GetStringProperty("pending")
		if err != nil {
			t.Fatalf("GetStringProperty() error = %v", err)
		}
		if found {
			t.Error("uncommitted property survived close")
		}
	})
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.InsertFile("/music/a.flac", time.Unix(5, 0), 0); err != nil {
		t.Fatalf("InsertFile() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	snap := openFileDB(t, dest)
	n, err := snap.CountFiles()
	if err != nil {
		t.Fatalf("CountFiles() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountFiles() on snapshot = %d, want 1", n)
	}
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.InsertFile("/a", time.Time{}, 0); err != nil {
		t.Fatalf("InsertFile() error = %v", err)
	}
	if err := db.CheckMigrations(); err != nil {
		t.Fatalf("CheckMigrations() error = %v", err)
	}

	// The catalog must still be usable, with its data, afterwards.
	n, err := db.CountFiles()
	if err != nil {
		t.Fatalf("CountFiles() after CheckMigrations error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountFiles() = %d, want 1", n)
	}
}
