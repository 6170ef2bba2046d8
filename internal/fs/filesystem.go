package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bt-catalog/internal/bt"
)

// OSFilesystemManager is the real filesystem behind bt.FilesystemManager.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

var _ bt.FilesystemManager = (*OSFilesystemManager)(nil)

// NewOSFilesystemManager creates a manager that skips the default patterns
// plus the configured ignore patterns.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		ignore: NewIgnoreMatcher(defaultIgnorePatterns).with(ignorePatterns),
	}
}

// Resolve makes rawPath absolute and rejects anything that is not a
// regular file or a directory.
func (m *OSFilesystemManager) Resolve(rawPath string) (*bt.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if !info.Mode().IsRegular() && !info.IsDir() {
		return nil, fmt.Errorf("%w: unsupported file type %s: %s", bt.ErrInvalidArgument, info.Mode().Type(), absPath)
	}
	return bt.NewPath(absPath, info), nil
}

// Open opens a regular file for hashing.
func (m *OSFilesystemManager) Open(path *bt.Path) (*os.File, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("%w: cannot open directory as file: %s", bt.ErrInvalidArgument, path)
	}
	f, err := os.Open(path.String())
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", bt.ErrFileNotFound, path)
	}
	return f, err
}

// FindFiles lists regular files under a directory in lexical order,
// skipping anything matched by the ignore patterns or by the directory's
// own ignore file.
func (m *OSFilesystemManager) FindFiles(path *bt.Path, recursive bool) ([]*bt.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("%w: path is not a directory: %s", bt.ErrInvalidArgument, path)
	}
	root := path.String()

	local, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	matcher := m.ignore.with(local)

	var paths []*bt.Path
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive || matcher.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || matcher.Match(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		paths = append(paths, bt.NewPath(p, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return paths, nil
}
