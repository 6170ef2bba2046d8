package bt

import (
	"io/fs"
	"path/filepath"
	"time"
)

// Path is a resolved absolute path to a regular file or directory, with the
// stat fields the catalog records. Paths come from FilesystemManager.
type Path struct {
	abs     string
	dir     bool
	size    int64
	modTime time.Time
}

// NewPath captures absPath with the stat info read when it was resolved.
func NewPath(absPath string, info fs.FileInfo) *Path {
	return &Path{
		abs:     absPath,
		dir:     info.IsDir(),
		size:    info.Size(),
		modTime: info.ModTime(),
	}
}

func (p *Path) String() string { return p.abs }

func (p *Path) IsDir() bool { return p.dir }

// Name is the final element, which decides the file's Kind.
func (p *Path) Name() string { return filepath.Base(p.abs) }

// Size is the on-disk length at resolve time. Zero for directories.
func (p *Path) Size() int64 {
	if p.dir {
		return 0
	}
	return p.size
}

// ModTime is the modification time recorded when a file starts being tracked.
func (p *Path) ModTime() time.Time { return p.modTime }
