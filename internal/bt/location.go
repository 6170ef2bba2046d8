package bt

import "fmt"

// ArchiveLocation identifies the physical archive holding a content's bytes:
// (original collection << 32) | archive number.
type ArchiveLocation uint64

// NewArchiveLocation packs the collection that first archived the content
// and the archive number within that collection.
func NewArchiveLocation(originalCollection, archiveNumber uint32) ArchiveLocation {
	return ArchiveLocation(uint64(originalCollection)<<32 | uint64(archiveNumber))
}

// ArchiveLocationFor is NewArchiveLocation for callers holding a collection
// id as int64. It rejects ids outside the 32-bit half.
func ArchiveLocationFor(collectionID int64, archiveNumber uint32) (ArchiveLocation, error) {
	if collectionID < 0 || collectionID > 1<<32-1 {
		return 0, fmt.Errorf("%w: collection id %d does not fit an archive location", ErrInvalidArgument, collectionID)
	}
	return NewArchiveLocation(uint32(collectionID), archiveNumber), nil
}

// OriginalCollection returns the upper 32 bits.
func (l ArchiveLocation) OriginalCollection() uint32 {
	return uint32(uint64(l) >> 32)
}

// ArchiveNumber returns the lower 32 bits.
func (l ArchiveLocation) ArchiveNumber() uint32 {
	return uint32(uint64(l))
}

// IsArchived reports whether both halves are set, which is what makes a
// content row eligible for hash lookups.
func (l ArchiveLocation) IsArchived() bool {
	return l.OriginalCollection() != 0 && l.ArchiveNumber() != 0
}

func (l ArchiveLocation) String() string {
	return fmt.Sprintf("%d:%d", l.OriginalCollection(), l.ArchiveNumber())
}
