package hasher

import (
	"context"
	"errors"
)

// ErrNotNormalized is returned by normalizers that leave content as is.
// The hasher then hashes the on-disk bytes without logging a fallback.
var ErrNotNormalized = errors.New("content not normalized")

// Normalized is the semantic rendition of a file produced by a
// ContentNormalizer.
type Normalized struct {
	// Data is hashed in place of the file bytes.
	Data []byte
	// Empty is set when the normalizer produced the rendition of an empty
	// stream. For some tools that is a transient failure worth retrying.
	Empty bool
}

// ContentNormalizer produces a rendition of a file that ignores
// non-semantic metadata. Implementations must not modify the file.
type ContentNormalizer interface {
	Normalize(ctx context.Context, path string) (Normalized, error)
}

// PassThrough leaves every file as is.
type PassThrough struct{}

func (PassThrough) Normalize(context.Context, string) (Normalized, error) {
	return Normalized{}, ErrNotNormalized
}

var _ ContentNormalizer = PassThrough{}
