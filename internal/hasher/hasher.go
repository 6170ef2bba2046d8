// Package hasher computes content identities: a seeded 256-bit BLAKE3 hash
// plus a CRC32 of the on-disk bytes. Audio files can be hashed through a
// ContentNormalizer so that tag-only edits keep their identity.
package hasher

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/extension"
)

// DefaultEmptyOutputRetries is how many times an empty-stream result is
// retried before it is accepted.
const DefaultEmptyOutputRetries = 3

// Options configures a Hasher.
type Options struct {
	Config HashConfig

	// Audio normalizes audio kinds. Nil disables audio normalization.
	Audio ContentNormalizer

	// EmptyOutputRetries bounds re-invocations of Audio after an
	// empty-stream result. Zero uses DefaultEmptyOutputRetries; negative
	// disables retries.
	EmptyOutputRetries int

	Logger bt.Logger
}

// Hasher implements bt.ContentHasher.
type Hasher struct {
	key     [32]byte
	audio   ContentNormalizer
	retries int
	logger  bt.Logger
}

var _ bt.ContentHasher = (*Hasher)(nil)

// New creates a Hasher.
func New(opts Options) *Hasher {
	retries := opts.EmptyOutputRetries
	switch {
	case retries == 0:
		retries = DefaultEmptyOutputRetries
	case retries < 0:
		retries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = bt.NewNopLogger()
	}
	return &Hasher{
		key:     opts.Config.key(),
		audio:   opts.Audio,
		retries: retries,
		logger:  logger,
	}
}

// NormalizerFor returns the normalizer used for kind.
func (h *Hasher) NormalizerFor(kind extension.Kind) ContentNormalizer {
	if kind.IsAudio() && h.audio != nil {
		return h.audio
	}
	return PassThrough{}
}

// HashFile hashes f from offset zero.
func (h *Hasher) HashFile(ctx context.Context, f *os.File, kind extension.Kind) (bt.HashResult, error) {
	if f == nil {
		return bt.HashResult{}, fmt.Errorf("%w: nil file", bt.ErrBadHandle)
	}
	if _, err := f.Stat(); err != nil {
		return bt.HashResult{}, fmt.Errorf("%w: %v", bt.ErrBadHandle, err)
	}
	if _, err := os.Stat(f.Name()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return bt.HashResult{}, fmt.Errorf("%w: %s", bt.ErrFileNotFound, f.Name())
		}
		return bt.HashResult{}, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return bt.HashResult{}, fmt.Errorf("rewinding %s: %w", f.Name(), err)
	}

	normalized, ok := h.normalize(ctx, h.NormalizerFor(kind), f.Name())
	if !ok {
		return h.hashRaw(f)
	}

	crc := crc32.NewIEEE()
	n, err := io.Copy(crc, f)
	if err != nil {
		return bt.HashResult{}, fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	return bt.HashResult{
		Hash:       h.HashBytes(normalized),
		CRC32:      crc.Sum32(),
		Length:     n,
		Normalized: true,
	}, nil
}

// normalize runs n with the empty-output retry policy. ok is false when the
// raw bytes should be hashed instead.
func (h *Hasher) normalize(ctx context.Context, n ContentNormalizer, path string) ([]byte, bool) {
	for attempt := 0; ; attempt++ {
		out, err := n.Normalize(ctx, path)
		if errors.Is(err, ErrNotNormalized) {
			return nil, false
		}
		if err != nil {
			h.logger.Warn("normalization failed, hashing raw bytes", "path", path, "error", err)
			return nil, false
		}
		if !out.Empty || attempt >= h.retries {
			if out.Empty {
				h.logger.Warn("normalizer kept returning an empty stream, accepting it", "path", path, "attempts", attempt+1)
			}
			return out.Data, true
		}
		h.logger.Debug("normalizer returned an empty stream, retrying", "path", path, "attempt", attempt+1)
	}
}

func (h *Hasher) hashRaw(f *os.File) (bt.HashResult, error) {
	sum := h.newHash()
	crc := crc32.NewIEEE()
	n, err := io.Copy(io.MultiWriter(sum, crc), f)
	if err != nil {
		return bt.HashResult{}, fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	return bt.HashResult{
		Hash:   toContentHash(sum.Sum(nil)),
		CRC32:  crc.Sum32(),
		Length: n,
	}, nil
}

// HashBytes returns the content hash of data.
func (h *Hasher) HashBytes(data []byte) bt.ContentHash {
	sum := h.newHash()
	sum.Write(data)
	return toContentHash(sum.Sum(nil))
}

// ChecksumArchive returns the archive checksum string for the file at path:
// its base name followed by the hex digest of its bytes.
func (h *Hasher) ChecksumArchive(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	sum := h.newHash()
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("reading archive: %w", err)
	}
	return bt.NewArchiveChecksum(filepath.Base(path), hex.EncodeToString(sum.Sum(nil)))
}

func (h *Hasher) newHash() *blake3.Hasher {
	// NewKeyed only fails for a key that is not 32 bytes.
	sum, err := blake3.NewKeyed(h.key[:])
	if err != nil {
		panic("hasher: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return sum
}

func toContentHash(sum []byte) bt.ContentHash {
	var out bt.ContentHash
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(sum[i*8:])
	}
	return out
}
