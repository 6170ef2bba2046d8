package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"bt-catalog/internal/hasher"
)

// WriteFiles creates files under root, keyed by slash-separated relative
// path, creating parent directories as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}
}

// FakeNormalizer returns canned renditions by file base name. Files
// without an entry fail with Err, or hasher.ErrNotNormalized when Err is
// nil. Safe for concurrent use.
type FakeNormalizer struct {
	Outputs map[string][]byte
	Err     error

	mu    sync.Mutex
	calls map[string]int
}

var _ hasher.ContentNormalizer = (*FakeNormalizer)(nil)

func (f *FakeNormalizer) Normalize(_ context.Context, path string) (hasher.Normalized, error) {
	base := filepath.Base(path)

	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[base]++
	f.mu.Unlock()

	if out, ok := f.Outputs[base]; ok {
		return hasher.Normalized{Data: out, Empty: len(out) == 0}, nil
	}
	if f.Err != nil {
		return hasher.Normalized{}, f.Err
	}
	return hasher.Normalized{}, hasher.ErrNotNormalized
}

// Calls returns how often base was normalized.
func (f *FakeNormalizer) Calls(base string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[base]
}
