package database

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"bt-catalog/internal/bt"
)

func scanFile(r rowScanner) (*bt.FileEntry, error) {
	var (
		f             bt.FileEntry
		lastWrite, st int64
	)
	if err := r.Scan(&f.ID, &f.Path, &f.ContentsLength, &f.ContentsID, &lastWrite, &st); err != nil {
		return nil, err
	}
	f.LastWriteTime = fromDBTime(lastWrite)
	f.Status = bt.StatusWord(st)
	return &f, nil
}

// statusColumn converts a status word for storage. Every valid word fits the
// signed column.
func statusColumn(w bt.StatusWord) (int64, error) {
	if uint64(w) > math.MaxInt64 {
		return 0, fmt.Errorf("%w: status word %s cannot be stored", bt.ErrInvalidArgument, w)
	}
	return int64(w), nil
}

func (s *SQLiteDatabase) InsertFile(path string, lastWriteTime time.Time, status bt.StatusWord) (int64, error) {
	if path == "" {
		return 0, fmt.Errorf("%w: empty path", bt.ErrInvalidArgument)
	}
	st, err := statusColumn(status)
	if err != nil {
		return 0, err
	}
	res, err := s.queries.exec(qInsertFile, oneRow, path, toDBTime(lastWriteTime), st)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", bt.ErrDuplicatePath, path)
		}
		return 0, fmt.Errorf("inserting file %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading file id: %w", err)
	}
	return id, nil
}

// UpdateFile fails with ErrUnexpectedRowCount if the entry does not exist or
// the update would lower the collection encoded in its status.
func (s *SQLiteDatabase) UpdateFile(entry *bt.FileEntry, permissions []byte) error {
	st, err := statusColumn(entry.Status)
	if err != nil {
		return err
	}
	_, err = s.queries.exec(qUpdateFile, oneRow,
		entry.Path, entry.ContentsLength, entry.ContentsID, toDBTime(entry.LastWriteTime), st, permissions,
		entry.ID, st)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", bt.ErrDuplicatePath, entry.Path)
		}
		return fmt.Errorf("updating file %d: %w", entry.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) FindFileByPath(path string) (*bt.FileEntry, error) {
	row, err := s.queries.queryRow(qGetFileByPath, path)
	if err != nil {
		return nil, err
	}
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by path: %w", err)
	}
	return f, nil
}

func (s *SQLiteDatabase) IterateFiles(ceiling bt.StatusWord, fn func(*bt.FileEntry) error) error {
	var (
		rows *sql.Rows
		err  error
	)
	// Every stored word is below any ceiling that does not fit the column.
	if uint64(ceiling) > math.MaxInt64 {
		rows, err = s.queries.query(qAllFiles)
	} else {
		rows, err = s.queries.query(qFilesBelow, int64(ceiling))
	}
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return fmt.Errorf("scanning file: %w", err)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating files: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteFiles(ids []int64, batchSize int) error {
	return s.deleteByID("FilesList", "id", ids, batchSize)
}

func (s *SQLiteDatabase) CountFiles() (int64, error) {
	return s.count(qCountFiles)
}

func (s *SQLiteDatabase) count(id queryID) (int64, error) {
	row, err := s.queries.queryRow(id)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", id, err)
	}
	return n, nil
}
