package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFileName is read from the root of every scanned directory.
const IgnoreFileName = ".btignore"

// defaultIgnorePatterns apply to every scan: the ignore file itself and the
// temp files this tool leaves behind while writing catalogs and vaults.
var defaultIgnorePatterns = []string{IgnoreFileName, ".bt-fetch-*", ".tmp-*"}

type ignorePattern struct {
	glob     string
	anchored bool // contains '/': match the whole relative path
	dirOnly  bool // trailing '/': match directories only
}

// IgnoreMatcher decides which files a scan skips.
//
// A pattern without '/' matches any basename. A pattern containing '/' is
// matched against the slash-separated path relative to the scan root. A
// trailing '/' restricts the pattern to directories, and a matched
// directory is skipped with everything below it.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher parses raw patterns. Blank lines and lines starting
// with '#' are skipped, as are patterns path.Match rejects.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		p := ignorePattern{}
		if strings.HasSuffix(raw, "/") {
			p.dirOnly = true
			raw = strings.TrimSuffix(raw, "/")
		}
		raw = strings.TrimPrefix(raw, "/")
		p.anchored = strings.Contains(raw, "/")
		p.glob = raw
		if _, err := path.Match(p.glob, ""); err != nil {
			continue
		}
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Match reports whether the file at relativePath is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	return m.match(relativePath, false)
}

// MatchDir reports whether the directory at relativePath is ignored.
func (m *IgnoreMatcher) MatchDir(relativePath string) bool {
	return m.match(relativePath, true)
}

func (m *IgnoreMatcher) match(relativePath string, isDir bool) bool {
	rel := filepath.ToSlash(relativePath)
	base := path.Base(rel)
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		target := base
		if p.anchored {
			target = rel
		}
		if ok, _ := path.Match(p.glob, target); ok {
			return true
		}
	}
	return false
}

// with returns a matcher holding m's patterns followed by extra.
func (m *IgnoreMatcher) with(extra []string) *IgnoreMatcher {
	more := NewIgnoreMatcher(extra)
	out := &IgnoreMatcher{patterns: make([]ignorePattern, 0, len(m.patterns)+len(more.patterns))}
	out.patterns = append(out.patterns, m.patterns...)
	out.patterns = append(out.patterns, more.patterns...)
	return out
}

// ParseIgnoreFile reads raw patterns from an ignore file. A missing file
// yields no patterns and no error.
func ParseIgnoreFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
