package hasher

import "encoding/binary"

// HashConfig carries the two 64-bit seeds that key the content hash.
// The seeds are part of the catalog's on-disk format: changing them changes
// every content identity.
type HashConfig struct {
	Seed1 uint64
	Seed2 uint64
}

// Default seeds. Only the composition root (app wiring, tests) reads these.
const (
	DefaultSeed1 uint64 = 0x9ae16a3b2f90404f
	DefaultSeed2 uint64 = 0xc3a5c85c97cb3127
)

// DefaultHashConfig returns the seeds used by catalogs created with default
// settings.
func DefaultHashConfig() HashConfig {
	return HashConfig{Seed1: DefaultSeed1, Seed2: DefaultSeed2}
}

// key expands the seeds into a 32-byte BLAKE3 key: seed1, seed2, then their
// complements, little-endian.
func (c HashConfig) key() [32]byte {
	var k [32]byte
	binary.LittleEndian.PutUint64(k[0:8], c.Seed1)
	binary.LittleEndian.PutUint64(k[8:16], c.Seed2)
	binary.LittleEndian.PutUint64(k[16:24], ^c.Seed1)
	binary.LittleEndian.PutUint64(k[24:32], ^c.Seed2)
	return k
}
