package bt

import (
	"fmt"
	"strconv"
	"strings"
)

// ContentHash is a 256-bit content identity stored as four independent
// 64-bit words (hash1..hash4 in the catalog).
type ContentHash [4]uint64

// IsZero reports whether every word is zero, as in a reserved content row.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// String renders the hash as four space-separated 16-digit hex words in
// array order.
func (h ContentHash) String() string {
	return fmt.Sprintf("%016x %016x %016x %016x", h[0], h[1], h[2], h[3])
}

// ParseContentHash parses the String form. Words may omit leading zeros.
func ParseContentHash(s string) (ContentHash, error) {
	var h ContentHash
	fields := strings.Fields(s)
	if len(fields) != len(h) {
		return h, fmt.Errorf("%w: hash %q has %d words, want %d", ErrInvalidArgument, s, len(fields), len(h))
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 64)
		if err != nil {
			return h, fmt.Errorf("%w: parsing hash word %d: %v", ErrInvalidArgument, i, err)
		}
		h[i] = v
	}
	return h, nil
}

// HashResult is the output of hashing one file.
type HashResult struct {
	Hash ContentHash
	// CRC32 is always computed over the on-disk bytes, so it changes on
	// tag-only edits even when Hash does not.
	CRC32 uint32
	// Length is the on-disk length in bytes.
	Length int64
	// Normalized is true when Hash came from a content normalizer rather
	// than the raw bytes.
	Normalized bool
}
