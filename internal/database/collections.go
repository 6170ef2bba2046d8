package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bt-catalog/internal/bt"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(r rowScanner) (*bt.Collection, error) {
	var (
		c             bt.Collection
		start, finish int64
	)
	if err := r.Scan(&c.ID, &start, &finish, &c.CountTotalFiles, &c.CountNewContents, &c.CountNewContentsBytes); err != nil {
		return nil, err
	}
	c.StartTime = fromDBTime(start)
	c.FinishTime = fromDBTime(finish)
	return &c, nil
}

func (s *SQLiteDatabase) CreateCollection(startTime time.Time) (*bt.Collection, error) {
	if startTime.IsZero() {
		return nil, fmt.Errorf("%w: collection start time is zero", bt.ErrInvalidArgument)
	}
	res, err := s.queries.exec(qInsertCollection, oneRow, toDBTime(startTime))
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading collection id: %w", err)
	}
	return &bt.Collection{ID: id, StartTime: fromDBTime(toDBTime(startTime))}, nil
}

func (s *SQLiteDatabase) FinishCollection(c *bt.Collection) error {
	if c.FinishTime.IsZero() {
		return fmt.Errorf("%w: collection %d has no finish time", bt.ErrInvalidArgument, c.ID)
	}

	stored, err := s.GetCollection(c.ID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("%w: collection %d does not exist", bt.ErrInvalidArgument, c.ID)
	}
	if toDBTime(stored.StartTime) != toDBTime(c.StartTime) {
		return fmt.Errorf("%w: collection %d start time is write-once", bt.ErrInvalidArgument, c.ID)
	}
	if stored.Finished() {
		return fmt.Errorf("%w: collection %d is already finished", bt.ErrInvalidArgument, c.ID)
	}

	_, err = s.queries.exec(qFinishCollection, oneRow,
		toDBTime(c.FinishTime), c.CountTotalFiles, c.CountNewContents, c.CountNewContentsBytes,
		c.ID, toDBTime(c.StartTime))
	if err != nil {
		return fmt.Errorf("finishing collection %d: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) GetCollection(id int64) (*bt.Collection, error) {
	return s.oneCollection(qGetCollection, id)
}

func (s *SQLiteDatabase) LatestCollection() (*bt.Collection, error) {
	return s.oneCollection(qLatestCollection)
}

func (s *SQLiteDatabase) oneCollection(id queryID, args ...any) (*bt.Collection, error) {
	row, err := s.queries.queryRow(id, args...)
	if err != nil {
		return nil, err
	}
	c, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return c, nil
}

func (s *SQLiteDatabase) ListCollections() ([]*bt.Collection, error) {
	rows, err := s.queries.query(qListCollections)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bt.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return out, nil
}
