package bt

import "errors"

// Error classes surfaced by the catalog and the hasher. Callers match them
// with errors.Is; every returned error wraps one of these with context.
var (
	// ErrIO reports an unusable catalog location (relative path, unwritable
	// directory).
	ErrIO = errors.New("io error")

	// ErrDuplicatePath reports a unique path index violation.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrUnexpectedRowCount reports that a mutating statement changed a
	// different number of rows than the caller declared.
	ErrUnexpectedRowCount = errors.New("unexpected row count")

	// ErrIncompatibleVersion reports a catalog written by a newer build, or a
	// file that is not a catalog at all.
	ErrIncompatibleVersion = errors.New("incompatible catalog version")

	// ErrFileNotFound reports that a file handle's path no longer exists.
	ErrFileNotFound = errors.New("file not found")

	// ErrBadHandle reports a file handle that was never opened.
	ErrBadHandle = errors.New("bad file handle")

	// ErrInvalidArgument reports a caller error such as a zero id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidTransactionState reports begin while active, or
	// commit/rollback while inactive.
	ErrInvalidTransactionState = errors.New("invalid transaction state")
)
