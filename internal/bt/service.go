package bt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bt-catalog/internal/extension"
)

// CatalogMetadataName is the vault metadata item holding the sealed catalog.
const CatalogMetadataName = "catalog"

// SnapshotSealer turns a plaintext catalog copy into the form stored in a
// vault, and back.
type SnapshotSealer interface {
	Seal(r io.Reader, w io.Writer) error
	Unseal(passphrase string, r io.Reader, w io.Writer) error
}

// Service is the orchestration layer the CLI talks to. It combines the
// hasher, the classifier and the catalog, and moves catalog snapshots and
// inventories between the catalog and a vault.
type Service struct {
	database Database
	hasher   ContentHasher
	fsmgr    FilesystemManager
	vault    Vault
	sealer   SnapshotSealer
	hostID   string
	logger   Logger
	clock    Clock
}

// NewService creates a Service. vault and sealer may be nil when the caller
// only needs local operations.
func NewService(database Database, hasher ContentHasher, fsmgr FilesystemManager, vault Vault, sealer SnapshotSealer, hostID string, logger Logger, clock Clock) *Service {
	return &Service{
		database: database,
		hasher:   hasher,
		fsmgr:    fsmgr,
		vault:    vault,
		sealer:   sealer,
		hostID:   hostID,
		logger:   LoggerWith(logger, "host", hostID),
		clock:    clock,
	}
}

// Identification is what the catalog knows about one file on disk.
type Identification struct {
	Path   string
	Kind   extension.Kind
	Result HashResult
	// Content is the committed content with the same hash and length, or
	// nil when the content has never been archived.
	Content *ContentEntry
	// File is the tracked entry for Path, or nil when the path is untracked.
	File *FileEntry
}

// Archived reports whether the file's content is already in an archive.
func (id *Identification) Archived() bool {
	return id.Content != nil
}

// IdentifyFile classifies, hashes and looks up a single regular file.
func (s *Service) IdentifyFile(ctx context.Context, rawPath string) (*Identification, error) {
	path, err := s.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if path.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, path)
	}
	return s.identify(ctx, path)
}

// IdentifyFiles identifies rawPath, or every file below it when it is a
// directory, and passes each result to fn. Iteration stops at the first
// error.
func (s *Service) IdentifyFiles(ctx context.Context, rawPath string, recursive bool, fn func(*Identification) error) error {
	path, err := s.fsmgr.Resolve(rawPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	paths := []*Path{path}
	if path.IsDir() {
		if paths, err = s.fsmgr.FindFiles(path, recursive); err != nil {
			return fmt.Errorf("finding files: %w", err)
		}
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		id, err := s.identify(ctx, p)
		if err != nil {
			return err
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) identify(ctx context.Context, path *Path) (*Identification, error) {
	f, err := s.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	kind := extension.Classify(path.Name())
	result, err := s.hasher.HashFile(ctx, f, kind)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}

	content, err := s.database.FindContentByHash(result.Hash, result.Length)
	if err != nil {
		return nil, fmt.Errorf("looking up content: %w", err)
	}
	file, err := s.database.FindFileByPath(path.String())
	if err != nil {
		return nil, fmt.Errorf("looking up file: %w", err)
	}

	s.logger.Debug("file identified", "path", path.String(), "kind", kind.String(), "archived", content != nil)
	return &Identification{
		Path:    path.String(),
		Kind:    kind,
		Result:  result,
		Content: content,
		File:    file,
	}, nil
}

// TrackFiles starts tracking rawPath, or every file below it when it is a
// directory. New entries are queued with no resolved content; paths that
// are already tracked are left alone. Returns the number of new entries.
func (s *Service) TrackFiles(rawPath string, recursive bool) (int, error) {
	path, err := s.fsmgr.Resolve(rawPath)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}
	paths := []*Path{path}
	if path.IsDir() {
		if paths, err = s.fsmgr.FindFiles(path, recursive); err != nil {
			return 0, fmt.Errorf("finding files: %w", err)
		}
	}

	tx, err := s.database.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Close()

	added := 0
	for _, p := range paths {
		_, err := s.database.InsertFile(p.String(), p.ModTime(), 0)
		if errors.Is(err, ErrDuplicatePath) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("tracking %s: %w", p, err)
		}
		added++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info("files tracked", "path", path.String(), "added", added, "seen", len(paths))
	return added, nil
}

// SyncResult summarizes one inventory reconciliation.
type SyncResult struct {
	Vault    VaultRegistration
	Upserted int
	Deleted  int
}

// SyncVaultInventory mirrors the vault's archive listing into the catalog.
// The vault is registered by name, every listed archive is upserted, and
// mirrored archives the vault no longer lists are deleted, all in one
// transaction.
func (s *Service) SyncVaultInventory(ctx context.Context) (*SyncResult, error) {
	if s.vault == nil {
		return nil, fmt.Errorf("no vault configured")
	}
	// List before opening the transaction; this may be slow.
	remote, err := s.vault.Inventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vault inventory: %w", err)
	}

	tx, err := s.database.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Close()

	reg := s.vault.Describe()
	if err := s.database.RegisterVault(&reg); err != nil {
		return nil, fmt.Errorf("registering vault: %w", err)
	}

	existing, err := s.database.ListVaultArchives(reg.ID)
	if err != nil {
		return nil, fmt.Errorf("listing mirrored archives: %w", err)
	}

	result := &SyncResult{Vault: reg}
	seen := make(map[string]bool, len(remote))
	for _, ra := range remote {
		seen[ra.CloudPath] = true
		va := &VaultArchive{
			VaultID:      reg.ID,
			CloudPath:    ra.CloudPath,
			RemoteID:     ra.RemoteID,
			Description:  ra.Description,
			CreationDate: ra.CreationDate,
			Size:         ra.Size,
			CRC32:        ra.CRC32,
			ModifiedTime: ra.ModifiedTime,
		}
		if err := s.database.PutVaultArchive(va); err != nil {
			return nil, fmt.Errorf("mirroring %s: %w", ra.CloudPath, err)
		}
		result.Upserted++
	}
	for _, va := range existing {
		if seen[va.CloudPath] {
			continue
		}
		if err := s.database.DeleteVaultArchive(va.ID); err != nil {
			return nil, fmt.Errorf("removing mirrored %s: %w", va.CloudPath, err)
		}
		result.Deleted++
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.logger.Info("vault inventory synced", "vault", reg.Name, "upserted", result.Upserted, "deleted", result.Deleted)
	return result, nil
}

// PublishCatalog seals a consistent copy of the catalog and stores it in
// the vault under this host. The stored version is the latest collection id
// (0 before the first collection). Returns that version.
func (s *Service) PublishCatalog() (int64, error) {
	if s.vault == nil || s.sealer == nil {
		return 0, fmt.Errorf("publishing requires a vault and an encryptor")
	}

	var version int64
	latest, err := s.database.LatestCollection()
	if err != nil {
		return 0, fmt.Errorf("reading latest collection: %w", err)
	}
	if latest != nil {
		version = latest.ID
	}

	tmpDir, err := os.MkdirTemp("", "bt-publish-")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plainPath := filepath.Join(tmpDir, "catalog.db")
	if err := s.database.BackupTo(plainPath); err != nil {
		return 0, fmt.Errorf("snapshotting catalog: %w", err)
	}

	sealedPath := filepath.Join(tmpDir, "catalog.sealed")
	if err := sealFile(s.sealer, plainPath, sealedPath); err != nil {
		return 0, err
	}

	sealed, err := os.Open(sealedPath)
	if err != nil {
		return 0, fmt.Errorf("opening sealed catalog: %w", err)
	}
	defer sealed.Close()
	info, err := sealed.Stat()
	if err != nil {
		return 0, fmt.Errorf("stating sealed catalog: %w", err)
	}

	if err := s.vault.PutMetadata(s.hostID, CatalogMetadataName, sealed, info.Size(), version); err != nil {
		return 0, fmt.Errorf("storing catalog in vault: %w", err)
	}
	s.logger.Info("catalog published", "version", version, "bytes", info.Size(), "at", s.clock.Now())
	return version, nil
}

func sealFile(sealer SnapshotSealer, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening catalog snapshot: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating sealed catalog: %w", err)
	}
	if err := sealer.Seal(in, out); err != nil {
		out.Close()
		return fmt.Errorf("sealing catalog: %w", err)
	}
	return out.Close()
}

// FetchCatalog downloads this host's published catalog, unseals it with
// passphrase and writes it to destPath. destPath must not be the open
// catalog. Returns the fetched version.
func (s *Service) FetchCatalog(passphrase, destPath string) (int64, error) {
	if s.vault == nil || s.sealer == nil {
		return 0, fmt.Errorf("fetching requires a vault and an encryptor")
	}
	if !filepath.IsAbs(destPath) {
		return 0, fmt.Errorf("%w: destination %q is not absolute", ErrInvalidArgument, destPath)
	}
	if filepath.Clean(destPath) == filepath.Clean(s.database.Path()) {
		return 0, fmt.Errorf("%w: refusing to overwrite the open catalog", ErrInvalidArgument)
	}

	version, err := s.vault.GetMetadataVersion(s.hostID, CatalogMetadataName)
	if err != nil {
		return 0, fmt.Errorf("reading catalog version: %w", err)
	}
	sealed, err := os.CreateTemp("", "bt-fetch-*.sealed")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(sealed.Name())
	defer sealed.Close()

	if err := s.vault.GetMetadata(s.hostID, CatalogMetadataName, sealed); err != nil {
		return 0, fmt.Errorf("downloading catalog: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding sealed catalog: %w", err)
	}

	out, err := os.CreateTemp(filepath.Dir(destPath), ".bt-fetch-*")
	if err != nil {
		return 0, fmt.Errorf("creating destination: %w", err)
	}
	tmpName := out.Name()
	defer os.Remove(tmpName)

	if err := s.sealer.Unseal(passphrase, sealed, out); err != nil {
		out.Close()
		return 0, fmt.Errorf("unsealing catalog: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing destination: %w", err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		return 0, fmt.Errorf("moving catalog into place: %w", err)
	}

	s.logger.Info("catalog fetched", "version", version, "path", destPath)
	return version, nil
}
