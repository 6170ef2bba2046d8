package database

import (
	"database/sql"
	"errors"
	"fmt"

	"bt-catalog/internal/bt"
)

func scanArchive(r rowScanner) (*bt.ArchiveRecord, error) {
	var (
		a             bt.ArchiveRecord
		loc, modified int64
	)
	if err := r.Scan(&a.RowID, &loc, &modified, &a.CompactionCutoff, &a.Checksum); err != nil {
		return nil, err
	}
	a.Location = bt.ArchiveLocation(uint64(loc))
	a.ModifiedTime = fromDBTime(modified)
	return &a, nil
}

// PutArchive inserts or replaces the record for rec.Location and sets
// rec.RowID.
func (s *SQLiteDatabase) PutArchive(rec *bt.ArchiveRecord) error {
	if !rec.Location.IsArchived() {
		return fmt.Errorf("%w: archive location %s is incomplete", bt.ErrInvalidArgument, rec.Location)
	}
	if _, _, err := bt.SplitArchiveChecksum(rec.Checksum); err != nil {
		return err
	}

	loc := int64(rec.Location)
	modified := toDBTime(rec.ModifiedTime)
	res, err := s.queries.exec(qUpdateArchive, anyRows, modified, rec.CompactionCutoff, rec.Checksum, loc)
	if err != nil {
		return fmt.Errorf("updating archive %s: %w", rec.Location, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting rows for archive %s: %w", rec.Location, err)
	}

	if n > 0 {
		existing, err := s.FindArchive(rec.Location)
		if err != nil {
			return err
		}
		if existing != nil {
			rec.RowID = existing.RowID
		}
		return nil
	}

	res, err = s.queries.exec(qInsertArchive, oneRow, loc, modified, rec.CompactionCutoff, rec.Checksum)
	if err != nil {
		return fmt.Errorf("inserting archive %s: %w", rec.Location, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading archive row id: %w", err)
	}
	rec.RowID = id
	return nil
}

func (s *SQLiteDatabase) FindArchive(location bt.ArchiveLocation) (*bt.ArchiveRecord, error) {
	row, err := s.queries.queryRow(qGetArchive, int64(location))
	if err != nil {
		return nil, err
	}
	a, err := scanArchive(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding archive %s: %w", location, err)
	}
	return a, nil
}

func (s *SQLiteDatabase) ListArchives() ([]*bt.ArchiveRecord, error) {
	rows, err := s.queries.query(qListArchives)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bt.ArchiveRecord
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning archive: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	return out, nil
}

func (s *SQLiteDatabase) DeleteArchive(location bt.ArchiveLocation) error {
	if _, err := s.queries.exec(qDeleteArchive, oneRow, int64(location)); err != nil {
		return fmt.Errorf("deleting archive %s: %w", location, err)
	}
	return nil
}
