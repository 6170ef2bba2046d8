package vault

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"bt-catalog/internal/bt"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// It stores archives and metadata as files in a directory structure:
//
//	<root>/
//	  archives/
//	    <name>                  (archive files)
//	  metadata/
//	    <hostID>/<name>         (per-host metadata items)
//	    <hostID>/<name>.version (version marker)
type FileSystemVault struct {
	name        string
	root        string
	archiveDir  string
	metadataDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	archiveDir := filepath.Join(root, filepath.FromSlash(archivePrefix))
	metadataDir := filepath.Join(root, filepath.FromSlash(metadataPrefix))

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.MkdirAll(metadataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		archiveDir:  archiveDir,
		metadataDir: metadataDir,
	}, nil
}

// Describe returns the vault identity. The vault name is the root directory.
func (v *FileSystemVault) Describe() bt.VaultRegistration {
	return bt.VaultRegistration{Name: v.name, VaultName: v.root}
}

// PutArchive stores an archive file, replacing any previous file at that name.
func (v *FileSystemVault) PutArchive(name string, r io.Reader, size int64) error {
	cloudPath, err := archivePath(name)
	if err != nil {
		return err
	}
	destPath := filepath.Join(v.root, filepath.FromSlash(cloudPath))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	return v.writeFile(destPath, r, size)
}

// Inventory walks the archive directory. Sizes and CRC32s are read from
// disk, so archives placed there by other tools are reported too.
func (v *FileSystemVault) Inventory(ctx context.Context) ([]bt.RemoteArchive, error) {
	var out []bt.RemoteArchive
	err := filepath.WalkDir(v.archiveDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		crc, err := fileCRC32(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(v.archiveDir, p)
		if err != nil {
			return err
		}

		out = append(out, bt.RemoteArchive{
			CloudPath:    archivePrefix + filepath.ToSlash(rel),
			CreationDate: info.ModTime().UTC(),
			Size:         info.Size(),
			CRC32:        crc,
			ModifiedTime: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	return out, nil
}

func fileCRC32(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

func (v *FileSystemVault) metadataFile(hostID, name string) (string, error) {
	p, err := metadataPath(hostID, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(v.root, filepath.FromSlash(p)), nil
}

// PutMetadata stores a named metadata item for a specific host along with a version marker.
func (v *FileSystemVault) PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error {
	destPath, err := v.metadataFile(hostID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}
	if err := v.writeFile(destPath, r, size); err != nil {
		return err
	}

	versionData := strconv.FormatInt(version, 10)
	return os.WriteFile(destPath+".version", []byte(versionData), 0644)
}

// GetMetadataVersion returns the version stored with a metadata item.
// Returns 0 if no version file exists.
func (v *FileSystemVault) GetMetadataVersion(hostID string, name string) (int64, error) {
	path, err := v.metadataFile(hostID, name)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path + ".version")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// GetMetadata retrieves a named metadata item for a specific host and writes it to w.
func (v *FileSystemVault) GetMetadata(hostID string, name string, w io.Writer) error {
	path, err := v.metadataFile(hostID, name)
	if err != nil {
		return err
	}
	return v.readFile(path, w, fmt.Sprintf("metadata %q not found for host: %s", name, hostID))
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	for _, dir := range []string{v.archiveDir, v.metadataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}

	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// The temp file shares the destination directory so the rename is atomic.
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// readFile reads from the specified path and writes to w.
func (v *FileSystemVault) readFile(srcPath string, w io.Writer, notFoundMsg string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s", notFoundMsg)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return nil
}

// Compile-time check that FileSystemVault implements bt.Vault interface
var _ bt.Vault = (*FileSystemVault)(nil)
