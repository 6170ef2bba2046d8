package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DefaultDeleteBatchSize is the number of ids deleted per statement when the
// caller passes a batch size of 0.
const DefaultDeleteBatchSize = 200

// buildDeleteBatch renders one bulk delete. The trailing "OR 0" closes the
// disjunction without special-casing the last id.
func buildDeleteBatch(table, column string, ids []int64) string {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(table)
	b.WriteString(" WHERE ")
	for _, id := range ids {
		b.WriteString(column)
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteString(" OR ")
	}
	b.WriteString("0")
	return b.String()
}

// deleteByID deletes rows whose column matches any of ids, batchSize ids
// per statement. Missing ids are not an error.
func (s *SQLiteDatabase) deleteByID(table, column string, ids []int64, batchSize int) error {
	if len(ids) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultDeleteBatchSize
	}

	ctx := context.Background()
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		if _, err := s.conn.ExecContext(ctx, buildDeleteBatch(table, column, ids[start:end])); err != nil {
			return fmt.Errorf("deleting %s rows %d..%d: %w", table, start, end, err)
		}
	}
	return nil
}
