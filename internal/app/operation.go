package app

import (
	"time"

	"bt-catalog/internal/bt"
)

// lastOperationProperty holds the most recent catalog-mutating command as a
// list property: id, name, parameters, status, finish time.
const lastOperationProperty = "LastOperation"

// Operation tracks one CLI command. Its ID tags every log line the command
// writes. Only commands that change the catalog are recorded in it.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Mutating   bool
}

// NewOperation creates an operation whose ID is derived from start.
func NewOperation(name, parameters string, start time.Time) *Operation {
	return &Operation{
		ID:         start.UTC().Format("20060102T150405Z"),
		Name:       name,
		Parameters: parameters,
		Status:     "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// record stores op as the catalog's last operation.
func (op *Operation) record(db bt.Database, finished time.Time) error {
	return db.SetListProperty(lastOperationProperty, []string{
		op.ID,
		op.Name,
		op.Parameters,
		op.Status,
		finished.UTC().Format(time.RFC3339),
	})
}
