package database

import (
	"fmt"

	"bt-catalog/internal/bt"
)

// transaction is an explicit BEGIN/COMMIT scope on the catalog connection.
type transaction struct {
	s    *SQLiteDatabase
	done bool
}

// Begin opens a transaction. Nested transactions are not supported.
func (s *SQLiteDatabase) Begin() (bt.Transaction, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: catalog is closed", bt.ErrInvalidTransactionState)
	}
	if s.inTx {
		return nil, fmt.Errorf("%w: transaction already active", bt.ErrInvalidTransactionState)
	}
	if _, err := s.queries.exec(qBegin, anyRows); err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	s.inTx = true
	return &transaction{s: s}, nil
}

func (t *transaction) Commit() error {
	if err := t.check("commit"); err != nil {
		return err
	}
	// A failed COMMIT leaves the transaction open; Close still rolls it back.
	if _, err := t.s.queries.exec(qCommit, anyRows); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	t.finish()
	return nil
}

func (t *transaction) Rollback() error {
	if err := t.check("rollback"); err != nil {
		return err
	}
	if _, err := t.s.queries.exec(qRollback, anyRows); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	t.finish()
	return nil
}

// Close rolls back a transaction that was neither committed nor rolled back.
func (t *transaction) Close() {
	if t.done || t.s.closed {
		return
	}
	if err := t.Rollback(); err != nil {
		t.s.logger.Warn("rolling back abandoned transaction", "path", t.s.path, "error", err)
	}
}

func (t *transaction) check(op string) error {
	if t.done || !t.s.inTx {
		return fmt.Errorf("%w: %s without an active transaction", bt.ErrInvalidTransactionState, op)
	}
	return nil
}

func (t *transaction) finish() {
	t.done = true
	t.s.inTx = false
}
