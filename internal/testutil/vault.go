package testutil

import (
	"bytes"
	"testing"

	"bt-catalog/internal/vault"
)

// NewTestVault creates an in-memory vault named "test-vault".
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}

// PutTestArchives stores each named archive with its data in v.
func PutTestArchives(t *testing.T, v *vault.MemoryVault, archives map[string]string) {
	t.Helper()
	for name, data := range archives {
		if err := v.PutArchive(name, bytes.NewReader([]byte(data)), int64(len(data))); err != nil {
			t.Fatalf("PutArchive(%s) error = %v", name, err)
		}
	}
}
