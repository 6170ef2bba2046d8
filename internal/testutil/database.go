package testutil

import (
	"path/filepath"
	"testing"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/database"
)

// NewTestCatalog opens a file-backed catalog in a temp directory. It is
// closed when the test completes.
func NewTestCatalog(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "catalog.db"), bt.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// CommitTestContent reserves and commits a content row for hash and
// length, archived in collection 1 archive 1.
func CommitTestContent(t *testing.T, db bt.Database, hash bt.ContentHash, length int64) *bt.ContentEntry {
	t.Helper()

	r, err := db.ReserveContent()
	if err != nil {
		t.Fatalf("ReserveContent() error = %v", err)
	}
	entry, err := db.CommitContent(r, bt.ContentFields{
		Hash:           hash,
		ContentsLength: length,
		Location:       bt.NewArchiveLocation(1, 1),
	})
	if err != nil {
		t.Fatalf("CommitContent() error = %v", err)
	}
	return entry
}
