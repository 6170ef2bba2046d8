package bt

import "os"

// FilesystemManager resolves and opens files for hashing.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it, and rejects anything that is
	// not a regular file or directory.
	Resolve(rawPath string) (*Path, error)

	// Open opens a regular file. The handle is what the hasher consumes.
	Open(path *Path) (*os.File, error)

	// FindFiles lists regular files under a directory, skipping ignored
	// names.
	FindFiles(path *Path, recursive bool) ([]*Path, error)
}
