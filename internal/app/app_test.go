package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/config"
	"bt-catalog/internal/testutil"
)

func newTestApp(t *testing.T, withVault bool) (*BTApp, *config.Config) {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig("host-1", base)
	cfg.Encryption.Type = "test"
	if withVault {
		cfg.Vaults = []config.VaultConfig{{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(base, "vault")}}
	}

	clock := testutil.FixedClock()
	a, err := wire(cfg, NewOperation("test", "", clock.Now()), bt.NewNopLogger(), clock)
	if err != nil {
		t.Fatalf("wire() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, cfg
}

func TestBTApp_TrackAndIdentify(t *testing.T) {
	a, _ := newTestApp(t, false)
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"a.txt": "a", "b/c.txt": "c"})

	added, err := a.TrackFiles(root, true)
	if err != nil || added != 2 {
		t.Fatalf("TrackFiles() = %d, %v; want 2", added, err)
	}

	var tracked int
	err = a.IdentifyFiles(context.Background(), root, true, func(id *bt.Identification) error {
		if id.File != nil {
			tracked++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("IdentifyFiles() error = %v", err)
	}
	if tracked != 2 {
		t.Errorf("IdentifyFiles() saw %d tracked files, want 2", tracked)
	}
}

func TestBTApp_CloseRecordsMutation(t *testing.T) {
	a, cfg := newTestApp(t, false)
	if err := a.SetProperty("Owner", "me"); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	clock := testutil.FixedClock()
	b, err := wire(cfg, NewOperation("check", "", clock.Now()), bt.NewNopLogger(), clock)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer b.Close()
	got, ok, err := b.Catalog().GetListProperty(lastOperationProperty)
	if err != nil || !ok || len(got) != 5 || got[1] != "test" {
		t.Errorf("LastOperation = %q, %v, %v", got, ok, err)
	}
}

func TestBTApp_MutationRefusedWhenBehind(t *testing.T) {
	a, cfg := newTestApp(t, true)

	// Another machine published a newer catalog for this host.
	payload := []byte("sealed")
	if err := a.vault.PutMetadata(cfg.HostID, bt.CatalogMetadataName, bytes.NewReader(payload), int64(len(payload)), 7); err != nil {
		t.Fatalf("PutMetadata() error = %v", err)
	}

	err := a.SetProperty("Owner", "me")
	if err == nil || !strings.Contains(err.Error(), "behind") {
		t.Errorf("SetProperty() error = %v, want behind-published error", err)
	}
}

func TestBTApp_PublishCatalog(t *testing.T) {
	a, _ := newTestApp(t, true)

	version, err := a.PublishCatalog()
	if err != nil {
		t.Fatalf("PublishCatalog() error = %v", err)
	}
	if version != 0 {
		t.Errorf("PublishCatalog() version = %d, want 0 before any collection", version)
	}
}

func TestBTApp_SyncVault(t *testing.T) {
	a, _ := newTestApp(t, true)
	if err := a.vault.PutArchive("c1-a1.tar", bytes.NewReader([]byte("x")), 1); err != nil {
		t.Fatalf("PutArchive() error = %v", err)
	}
	res, err := a.SyncVault(context.Background())
	if err != nil {
		t.Fatalf("SyncVault() error = %v", err)
	}
	if res.Vault.Name != "local" || res.Upserted != 1 {
		t.Errorf("SyncVault() = %+v", res)
	}
}
