package database

import (
	"database/sql"
	"errors"
	"fmt"

	"bt-catalog/internal/bt"
)

func scanContent(r rowScanner) (*bt.ContentEntry, error) {
	var (
		c        bt.ContentEntry
		h        [4]int64
		crc, loc int64
	)
	if err := r.Scan(&c.ID, &h[0], &h[1], &h[2], &h[3], &c.ContentsLength, &c.CompressedContentsLength,
		&crc, &loc, &c.MostRecentCollection); err != nil {
		return nil, err
	}
	for i := range h {
		c.Hash[i] = uint64(h[i])
	}
	c.CRC32 = uint32(crc)
	c.Location = bt.ArchiveLocation(uint64(loc))
	return &c, nil
}

// hashColumns converts hash words to the signed column type bit for bit.
func hashColumns(h bt.ContentHash) [4]int64 {
	return [4]int64{int64(h[0]), int64(h[1]), int64(h[2]), int64(h[3])}
}

func (s *SQLiteDatabase) ReserveContent() (bt.ReservedContent, error) {
	res, err := s.queries.exec(qReserveContent, oneRow)
	if err != nil {
		return bt.ReservedContent{}, fmt.Errorf("reserving content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return bt.ReservedContent{}, fmt.Errorf("reading content id: %w", err)
	}
	return bt.NewReservedContent(id), nil
}

func (s *SQLiteDatabase) CommitContent(r bt.ReservedContent, fields bt.ContentFields) (*bt.ContentEntry, error) {
	if r.ID() == 0 {
		return nil, fmt.Errorf("%w: content was never reserved", bt.ErrInvalidArgument)
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	h := hashColumns(fields.Hash)
	_, err := s.queries.exec(qCommitContent, oneRow,
		h[0], h[1], h[2], h[3], fields.ContentsLength, fields.CompressedContentsLength,
		int64(fields.CRC32), int64(fields.Location), fields.MostRecentCollection,
		r.ID())
	if err != nil {
		return nil, fmt.Errorf("committing content %d: %w", r.ID(), err)
	}

	return &bt.ContentEntry{
		ID:                       r.ID(),
		Hash:                     fields.Hash,
		ContentsLength:           fields.ContentsLength,
		CompressedContentsLength: fields.CompressedContentsLength,
		CRC32:                    fields.CRC32,
		Location:                 fields.Location,
		MostRecentCollection:     fields.MostRecentCollection,
	}, nil
}

func (s *SQLiteDatabase) FindContentByHash(hash bt.ContentHash, length int64) (*bt.ContentEntry, error) {
	h := hashColumns(hash)
	return s.oneContent(qContentByHash, h[0], h[1], h[2], h[3], length)
}

func (s *SQLiteDatabase) FindContentByID(id int64) (*bt.ContentEntry, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: content id 0", bt.ErrInvalidArgument)
	}
	return s.oneContent(qContentByID, id)
}

func (s *SQLiteDatabase) oneContent(id queryID, args ...any) (*bt.ContentEntry, error) {
	row, err := s.queries.queryRow(id, args...)
	if err != nil {
		return nil, err
	}
	c, err := scanContent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return c, nil
}

// TouchContent fails with ErrUnexpectedRowCount unless exactly one row is
// updated, which is never the case for a zero id or collection.
func (s *SQLiteDatabase) TouchContent(id, collectionID int64) error {
	if id == 0 || collectionID == 0 {
		return fmt.Errorf("%w: touch content %d for collection %d", bt.ErrUnexpectedRowCount, id, collectionID)
	}
	if _, err := s.queries.exec(qTouchContent, oneRow, collectionID, id); err != nil {
		return fmt.Errorf("touching content %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteDatabase) IterateContents(fn func(*bt.ContentEntry) error) error {
	rows, err := s.queries.query(qAllContents)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return fmt.Errorf("scanning content: %w", err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating contents: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindExpiredContents(cutoff int64) ([]int64, error) {
	rows, err := s.queries.query(qExpiredContents, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning content id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding expired contents: %w", err)
	}
	return ids, nil
}

func (s *SQLiteDatabase) DeleteContents(ids []int64, batchSize int) error {
	return s.deleteByID("ContentsList", "id", ids, batchSize)
}

func (s *SQLiteDatabase) CountContents() (int64, error) {
	return s.count(qCountContents)
}
