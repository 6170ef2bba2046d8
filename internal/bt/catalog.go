package bt

import (
	"fmt"
	"strings"
	"time"
)

// Collection is one backup run. StartTime is write-once; FinishTime and the
// counters are set exactly once when the run completes.
type Collection struct {
	ID                    int64
	StartTime             time.Time
	FinishTime            time.Time // zero until the run completes
	CountTotalFiles       int64
	CountNewContents      int64
	CountNewContentsBytes int64
}

// Finished reports whether the run has completed.
func (c *Collection) Finished() bool {
	return !c.FinishTime.IsZero()
}

// FileEntry is one tracked path.
type FileEntry struct {
	ID             int64
	Path           string
	ContentsLength int64
	ContentsID     int64 // 0 until resolved to a ContentEntry
	LastWriteTime  time.Time
	Status         StatusWord
}

// ContentEntry is a committed, deduplicated content record. Values of this
// type only come from CommitContent or from lookups, so they always carry a
// real hash and archive location.
type ContentEntry struct {
	ID                       int64
	Hash                     ContentHash
	ContentsLength           int64
	CompressedContentsLength int64
	CRC32                    uint32
	Location                 ArchiveLocation
	MostRecentCollection     int64
}

// ReservedContent is a content row that holds a durable id but no content
// yet. It cannot be used for hash lookups; pass it to CommitContent once the
// content is hashed and archived.
type ReservedContent struct {
	id int64
}

// NewReservedContent wraps an id obtained from the catalog's reserve step.
// It exists for catalog implementations; other callers get values from
// Database.ReserveContent.
func NewReservedContent(id int64) ReservedContent {
	return ReservedContent{id: id}
}

// ID returns the reserved row id.
func (r ReservedContent) ID() int64 { return r.id }

// ContentFields are the values written when a reserved row is committed.
type ContentFields struct {
	Hash                     ContentHash
	ContentsLength           int64
	CompressedContentsLength int64
	CRC32                    uint32
	Location                 ArchiveLocation
	MostRecentCollection     int64
}

// Validate rejects fields that would leave the row ineligible for lookups.
func (f ContentFields) Validate() error {
	if !f.Location.IsArchived() {
		return fmt.Errorf("%w: archive location %s is incomplete", ErrInvalidArgument, f.Location)
	}
	return nil
}

// ArchiveRecord is one physical archive file.
type ArchiveRecord struct {
	RowID            int64
	Location         ArchiveLocation
	ModifiedTime     time.Time
	CompactionCutoff int64 // collection before which compaction removed data
	Checksum         string
}

// archiveChecksumSeparator splits the archive file name from its digest.
const archiveChecksumSeparator = ":"

// NewArchiveChecksum builds the checksum string stored for an archive:
// the archive's own file name, a separator, then the digest.
func NewArchiveChecksum(fileName, digest string) (string, error) {
	if fileName == "" || strings.Contains(fileName, archiveChecksumSeparator) {
		return "", fmt.Errorf("%w: archive file name %q", ErrInvalidArgument, fileName)
	}
	return fileName + archiveChecksumSeparator + digest, nil
}

// SplitArchiveChecksum is the inverse of NewArchiveChecksum.
func SplitArchiveChecksum(checksum string) (fileName, digest string, err error) {
	fileName, digest, ok := strings.Cut(checksum, archiveChecksumSeparator)
	if !ok || fileName == "" {
		return "", "", fmt.Errorf("%w: malformed archive checksum %q", ErrInvalidArgument, checksum)
	}
	return fileName, digest, nil
}

// VaultRegistration mirrors a remote archive destination.
type VaultRegistration struct {
	ID        int64
	Name      string // unique local name
	Region    string
	VaultName string
	VaultARN  string
}

// VaultArchive mirrors one remote archive object.
type VaultArchive struct {
	ID           int64
	VaultID      int64
	CloudPath    string
	RemoteID     string
	Description  string
	CreationDate time.Time
	Size         int64
	CRC32        uint32
	ModifiedTime time.Time
}
