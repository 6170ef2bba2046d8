package bt

import (
	"context"
	"os"

	"bt-catalog/internal/extension"
)

// ContentHasher computes the dedup identity of an open file.
type ContentHasher interface {
	// HashFile hashes f from the start. kind selects the normalization
	// path; audio kinds may hash a tag-free rendition of the file.
	// Returns ErrBadHandle for a nil handle and ErrFileNotFound when the
	// handle's path no longer exists.
	HashFile(ctx context.Context, f *os.File, kind extension.Kind) (HashResult, error)
}
