package bt

import (
	"context"
	"io"
	"time"
)

// RemoteArchive is one archive object as listed by a vault backend.
type RemoteArchive struct {
	CloudPath    string
	RemoteID     string
	Description  string
	CreationDate time.Time
	Size         int64
	CRC32        uint32
	ModifiedTime time.Time
}

// Vault is a remote archive destination. The catalog only mirrors what the
// vault reports; deciding what goes into an archive happens elsewhere.
type Vault interface {
	// Describe returns the registration identity of this vault. ID is zero.
	Describe() VaultRegistration

	// PutArchive stores a finished archive file as archives/<name>.
	// size is the number of bytes that will be read from r.
	PutArchive(name string, r io.Reader, size int64) error

	// Inventory lists the archive objects currently held by the vault.
	Inventory(ctx context.Context) ([]RemoteArchive, error)

	// PutMetadata stores a named metadata item for a specific host.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the metadata for consistency checks.
	PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata retrieves a named metadata item for a host and writes it to w.
	GetMetadata(hostID string, name string, w io.Writer) error

	// GetMetadataVersion returns the version stored with a metadata item,
	// or 0 if nothing has been stored.
	GetMetadataVersion(hostID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible.
	ValidateSetup() error
}
