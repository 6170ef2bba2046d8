package vault

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
	"sync"
	"time"

	"bt-catalog/internal/bt"
)

type memoryArchive struct {
	data    []byte
	created time.Time
}

// MemoryVault is an in-memory implementation of the Vault interface.
// It stores all archives and metadata in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name            string
	archives        map[string]memoryArchive // cloud path -> archive
	metadata        map[string][]byte        // "hostID/name" -> metadata
	metadataVersion map[string]int64         // "hostID/name" -> version
	mu              sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:            name,
		archives:        make(map[string]memoryArchive),
		metadata:        make(map[string][]byte),
		metadataVersion: make(map[string]int64),
	}
}

// Describe returns the vault identity.
func (m *MemoryVault) Describe() bt.VaultRegistration {
	return bt.VaultRegistration{Name: m.name, VaultName: "memory"}
}

// PutArchive stores an archive under archives/<name>, replacing any
// previous object at that path.
func (m *MemoryVault) PutArchive(name string, r io.Reader, size int64) error {
	cloudPath, err := archivePath(name)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.archives[cloudPath] = memoryArchive{data: data, created: time.Now().UTC()}
	return nil
}

// RemoveArchive deletes an archive; it stands in for out-of-band deletion
// in tests.
func (m *MemoryVault) RemoveArchive(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.archives, archivePrefix+name)
}

// Inventory lists stored archives in path order.
func (m *MemoryVault) Inventory(ctx context.Context) ([]bt.RemoteArchive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]bt.RemoteArchive, 0, len(m.archives))
	for path, a := range m.archives {
		out = append(out, bt.RemoteArchive{
			CloudPath:    path,
			CreationDate: a.created,
			Size:         int64(len(a.data)),
			CRC32:        crc32.ChecksumIEEE(a.data),
			ModifiedTime: a.created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CloudPath < out[j].CloudPath })
	return out, nil
}

// PutMetadata stores a named metadata item for a specific host.
func (m *MemoryVault) PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error {
	key, err := metadataPath(hostID, name)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.metadata[key] = data
	m.metadataVersion[key] = version
	return nil
}

// GetMetadataVersion returns the metadata version for a named item on a host.
// Returns 0 if no metadata has been stored for this host/name.
func (m *MemoryVault) GetMetadataVersion(hostID string, name string) (int64, error) {
	key, err := metadataPath(hostID, name)
	if err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.metadataVersion[key], nil
}

// GetMetadata retrieves a named metadata item for a specific host.
func (m *MemoryVault) GetMetadata(hostID string, name string, w io.Writer) error {
	key, err := metadataPath(hostID, name)
	if err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.metadata[key]
	if !ok {
		return fmt.Errorf("metadata %q not found for host: %s", name, hostID)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryVault implements bt.Vault interface
var _ bt.Vault = (*MemoryVault)(nil)
