package database

import (
	"errors"
	"testing"

	"bt-catalog/internal/bt"
)

var testHash = bt.ContentHash{0xffffffffffffffff, 0x8000000000000001, 0x0123456789abcdef, 0}

func commitTestContent(t *testing.T, db *SQLiteDatabase, hash bt.ContentHash, length, collection int64) *bt.ContentEntry {
	t.Helper()

	r, err := db.ReserveContent()
	if err != nil {
		t.Fatalf("ReserveContent() error = %v", err)
	}
	entry, err := db.CommitContent(r, bt.ContentFields{
		Hash:                     hash,
		ContentsLength:           length,
		CompressedContentsLength: length / 2,
		CRC32:                    0xdeadbeef,
		Location:                 bt.NewArchiveLocation(uint32(collection), 1),
		MostRecentCollection:     collection,
	})
	if err != nil {
		t.Fatalf("CommitContent() error = %v", err)
	}
	return entry
}

func TestSQLiteDatabase_ReserveCommitFind(t *testing.T) {
	t.Run("reserved row is not findable", func(t *testing.T) {
		db := newTestDB(t)

		r, err := db.ReserveContent()
		if err != nil {
			t.Fatalf("ReserveContent() error = %v", err)
		}
		if r.ID() == 0 {
			t.Fatal("ReserveContent() returned id 0")
		}

		got, err := db.FindContentByHash(bt.ContentHash{}, 0)
		if err != nil {
			t.Fatalf("FindContentByHash() error = %v", err)
		}
		if got != nil {
			t.Errorf("FindContentByHash() matched reserved row %+v", got)
		}
		got, err = db.FindContentByID(r.ID())
		if err != nil {
			t.Fatalf("FindContentByID() error = %v", err)
		}
		if got != nil {
			t.Errorf("FindContentByID() returned reserved row %+v", got)
		}
	})

	t.Run("committed row round-trips", func(t *testing.T) {
		db := newTestDB(t)
		entry := commitTestContent(t, db, testHash, 1000, 3)

		got, err := db.FindContentByHash(testHash, 1000)
		if err != nil {
			t.Fatalf("FindContentByHash() error = %v", err)
		}
		if got == nil {
			t.Fatal("FindContentByHash() = nil")
		}
		if *got != *entry {
			t.Errorf("FindContentByHash() = %+v, want %+v", got, entry)
		}

		byID, err := db.FindContentByID(entry.ID)
		if err != nil {
			t.Fatalf("FindContentByID() error = %v", err)
		}
		if byID == nil || *byID != *entry {
			t.Errorf("FindContentByID() = %+v, want %+v", byID, entry)
		}
	})

	t.Run("length and every word must match", func(t *testing.T) {
		db := newTestDB(t)
		commitTestContent(t, db, testHash, 1000, 3)

		if got, _ := db.FindContentByHash(testHash, 999); got != nil {
			t.Error("FindContentByHash() matched a different length")
		}
		for i := range testHash {
			h := testHash
			h[i] ^= 1
			if got, _ := db.FindContentByHash(h, 1000); got != nil {
				t.Errorf("FindContentByHash() matched with word %d changed", i)
			}
		}
	})

	t.Run("incomplete location is rejected", func(t *testing.T) {
		db := newTestDB(t)
		r, err := db.ReserveContent()
		if err != nil {
			t.Fatalf("ReserveContent() error = %v", err)
		}
		for _, loc := range []bt.ArchiveLocation{0, bt.NewArchiveLocation(0, 4), bt.NewArchiveLocation(4, 0)} {
			_, err := db.CommitContent(r, bt.ContentFields{Hash: testHash, Location: loc})
			if !errors.Is(err, bt.ErrInvalidArgument) {
				t.Errorf("CommitContent(location %s) error = %v, want ErrInvalidArgument", loc, err)
			}
		}
	})

	t.Run("commit happens once", func(t *testing.T) {
		db := newTestDB(t)
		r, err := db.ReserveContent()
		if err != nil {
			t.Fatalf("ReserveContent() error = %v", err)
		}
		fields := bt.ContentFields{Hash: testHash, Location: bt.NewArchiveLocation(1, 1)}
		if _, err := db.CommitContent(r, fields); err != nil {
			t.Fatalf("CommitContent() error = %v", err)
		}
		if _, err := db.CommitContent(r, fields); !errors.Is(err, bt.ErrUnexpectedRowCount) {
			t.Errorf("second CommitContent() error = %v, want ErrUnexpectedRowCount", err)
		}
	})

	t.Run("zero reservation is rejected", func(t *testing.T) {
		db := newTestDB(t)
		_, err := db.CommitContent(bt.ReservedContent{}, bt.ContentFields{Location: bt.NewArchiveLocation(1, 1)})
		if !errors.Is(err, bt.ErrInvalidArgument) {
			t.Errorf("CommitContent() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("id zero", func(t *testing.T) {
		db := newTestDB(t)
		if _, err := db.FindContentByID(0); !errors.Is(err, bt.ErrInvalidArgument) {
			t.Errorf("FindContentByID(0) error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSQLiteDatabase_TouchContent(t *testing.T) {
	db := newTestDB(t)
	entry := commitTestContent(t, db, testHash, 10, 1)

	if err := db.TouchContent(entry.ID, 5); err != nil {
		t.Fatalf("TouchContent() error = %v", err)
	}
	got, err := db.FindContentByID(entry.ID)
	if err != nil {
		t.Fatalf("FindContentByID() error = %v", err)
	}
	if got.MostRecentCollection != 5 {
		t.Errorf("MostRecentCollection = %d, want 5", got.MostRecentCollection)
	}

	tests := []struct {
		name       string
		id, collID int64
	}{
		{"zero id", 0, 5},
		{"zero collection", entry.ID, 0},
		{"missing id", entry.ID + 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.TouchContent(tt.id, tt.collID)
			if !errors.Is(err, bt.ErrUnexpectedRowCount) {
				t.Errorf("TouchContent(%d, %d) error = %v, want ErrUnexpectedRowCount", tt.id, tt.collID, err)
			}
		})
	}
}

func TestSQLiteDatabase_ExpiredContents(t *testing.T) {
	db := newTestDB(t)

	old := commitTestContent(t, db, bt.ContentHash{1}, 10, 1)
	recent := commitTestContent(t, db, bt.ContentHash{2}, 10, 4)
	if _, err := db.ReserveContent(); err != nil {
		t.Fatalf("ReserveContent() error = %v", err)
	}

	ids, err := db.FindExpiredContents(3)
	if err != nil {
		t.Fatalf("FindExpiredContents() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != old.ID {
		t.Fatalf("FindExpiredContents(3) = %v, want [%d]", ids, old.ID)
	}

	if err := db.DeleteContents(ids, 0); err != nil {
		t.Fatalf("DeleteContents() error = %v", err)
	}

	var seen []int64
	err = db.IterateContents(func(c *bt.ContentEntry) error {
		seen = append(seen, c.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("IterateContents() error = %v", err)
	}
	if len(seen) != 1 || seen[0] != recent.ID {
		t.Errorf("IterateContents() ids = %v, want [%d]", seen, recent.ID)
	}

	// The reservation is still counted.
	n, err := db.CountContents()
	if err != nil {
		t.Fatalf("CountContents() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountContents() = %d, want 2", n)
	}
}
