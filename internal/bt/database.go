package bt

import "time"

// Transaction is an explicit transaction scope on a catalog connection.
// Close rolls back a scope that was neither committed nor rolled back, so
// callers can always `defer tx.Close()` right after Begin.
type Transaction interface {
	Commit() error
	Rollback() error
	Close()
}

// Database is the catalog: snapshots, tracked files, deduplicated contents,
// archive checksums, vault mirrors, and a small property store.
// Lookups return (nil, nil) when nothing matches.
//
// A Database is single-threaded. Callers serialize all calls against one
// instance.
type Database interface {
	// Begin opens a transaction. Nested transactions are not supported.
	Begin() (Transaction, error)

	// Collection operations

	// CreateCollection records the start of a backup run.
	CreateCollection(startTime time.Time) (*Collection, error)

	// FinishCollection stores FinishTime and the counters of c. It rejects
	// a change of StartTime and a second completion.
	FinishCollection(c *Collection) error

	GetCollection(id int64) (*Collection, error)
	ListCollections() ([]*Collection, error)

	// LatestCollection returns the collection with the highest id.
	LatestCollection() (*Collection, error)

	// File operations

	// InsertFile tracks a new path. Returns ErrDuplicatePath if the path
	// (under the platform's path collation) is already tracked.
	InsertFile(path string, lastWriteTime time.Time, status StatusWord) (int64, error)

	// UpdateFile writes every field of entry plus the permissions blob.
	UpdateFile(entry *FileEntry, permissions []byte) error

	FindFileByPath(path string) (*FileEntry, error)

	// IterateFiles calls fn for each entry with Status < ceiling in id
	// order. AllStatuses selects every entry. Iteration stops at the first
	// error returned by fn.
	IterateFiles(ceiling StatusWord, fn func(*FileEntry) error) error

	// DeleteFiles deletes entries by id in batches; batchSize 0 uses the
	// default.
	DeleteFiles(ids []int64, batchSize int) error

	CountFiles() (int64, error)

	// Content operations

	// ReserveContent inserts a placeholder row to obtain a durable id
	// before the content is archived.
	ReserveContent() (ReservedContent, error)

	// CommitContent fills a reserved row with its hash, lengths and archive
	// location.
	CommitContent(r ReservedContent, fields ContentFields) (*ContentEntry, error)

	// FindContentByHash matches all four hash words plus length against
	// committed rows.
	FindContentByHash(hash ContentHash, length int64) (*ContentEntry, error)

	FindContentByID(id int64) (*ContentEntry, error)

	// TouchContent records collectionID as the latest collection that
	// references content id.
	TouchContent(id, collectionID int64) error

	IterateContents(fn func(*ContentEntry) error) error

	// FindExpiredContents lists ids of contents last referenced before the
	// cutoff collection.
	FindExpiredContents(cutoff int64) ([]int64, error)

	DeleteContents(ids []int64, batchSize int) error

	CountContents() (int64, error)

	// Archive operations

	// PutArchive inserts or replaces the record for rec.Location.
	PutArchive(rec *ArchiveRecord) error
	FindArchive(location ArchiveLocation) (*ArchiveRecord, error)
	ListArchives() ([]*ArchiveRecord, error)
	DeleteArchive(location ArchiveLocation) error

	// Vault operations

	// RegisterVault inserts or updates a vault by name and sets v.ID.
	RegisterVault(v *VaultRegistration) error
	FindVaultByName(name string) (*VaultRegistration, error)
	ListVaults() ([]*VaultRegistration, error)

	// PutVaultArchive inserts or updates by (CloudPath, VaultID) and sets a.ID.
	PutVaultArchive(a *VaultArchive) error
	FindVaultArchive(vaultID int64, cloudPath string) (*VaultArchive, error)
	ListVaultArchives(vaultID int64) ([]*VaultArchive, error)
	DeleteVaultArchive(id int64) error

	// Property operations

	GetIntProperty(name string) (int64, bool, error)
	SetIntProperty(name string, value int64) error
	GetStringProperty(name string) (string, bool, error)
	SetStringProperty(name string, value string) error
	GetListProperty(name string) ([]string, bool, error)
	SetListProperty(name string, values []string) error
	DeleteProperty(name string) error

	// Path returns the catalog file path.
	Path() string

	// BackupTo writes a consistent copy of the catalog to destPath.
	BackupTo(destPath string) error

	// CheckMigrations verifies the schema is at this build's version.
	CheckMigrations() error

	// Close releases cached statements and the connection. Safe to call
	// more than once.
	Close() error
}
