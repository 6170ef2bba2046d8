package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID:   "test-host-abc",
		BaseDir:  "/home/user/.local/share/bt",
		LogDir:   "/home/user/.local/share/bt/log",
		LogLevel: "debug",
		Catalog:  CatalogConfig{Type: "sqlite", Path: "/home/user/.local/share/bt/catalog/h.db"},
		Hashing: HashingConfig{
			Seed1:              "0123456789abcdef",
			AudioNormalization: true,
			AudioTool:          "/usr/bin/ffmpeg",
			AudioToolArgs:      "-v quiet",
			AudioToolTimeout:   "90s",
			EmptyOutputRetries: 5,
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/bt/keys/bt.pub",
			PrivateKeyPath: "/home/user/.local/share/bt/keys/bt.key",
		},
		Filesystem: FilesystemConfig{
			Ignore: []string{"*.log", ".git"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.HostID != original.HostID {
		t.Errorf("HostID = %q, want %q", got.HostID, original.HostID)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.LogLevel != original.LogLevel {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, original.LogLevel)
	}
	if got.Catalog != original.Catalog {
		t.Errorf("Catalog = %+v, want %+v", got.Catalog, original.Catalog)
	}
	if got.Hashing != original.Hashing {
		t.Errorf("Hashing = %+v, want %+v", got.Hashing, original.Hashing)
	}
	if len(got.Vaults) != 1 {
		t.Fatalf("len(Vaults) = %d, want 1", len(got.Vaults))
	}
	if got.Vaults[0].FSVaultRoot != "/backup/vault" {
		t.Errorf("Vault.FSVaultRoot = %q, want %q", got.Vaults[0].FSVaultRoot, "/backup/vault")
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
}

func TestManager_Read_HashingSection(t *testing.T) {
	input := `
host_id = "h"

[catalog]
type = "memory"

[hashing]
seed1 = "9ae16a3b2f90404f"
audio_normalization = true
audio_tool = "/opt/ffmpeg"
empty_output_retries = -1
`
	m := &Manager{}
	got, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Catalog.Type != "memory" {
		t.Errorf("Catalog.Type = %q, want memory", got.Catalog.Type)
	}
	if got.Hashing.Seed1 != "9ae16a3b2f90404f" || got.Hashing.Seed2 != "" {
		t.Errorf("seeds = %q/%q", got.Hashing.Seed1, got.Hashing.Seed2)
	}
	if !got.Hashing.AudioNormalization || got.Hashing.AudioTool != "/opt/ffmpeg" {
		t.Errorf("audio settings = %+v", got.Hashing)
	}
	if got.Hashing.EmptyOutputRetries != -1 {
		t.Errorf("EmptyOutputRetries = %d, want -1", got.Hashing.EmptyOutputRetries)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/bt")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.LogDir != "/data/bt/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/bt/log")
	}
	if cfg.Catalog.Type != "sqlite" {
		t.Errorf("Catalog.Type = %q, want sqlite", cfg.Catalog.Type)
	}
	if cfg.Catalog.Path != "/data/bt/catalog/host-1.db" {
		t.Errorf("Catalog.Path = %q, want %q", cfg.Catalog.Path, "/data/bt/catalog/host-1.db")
	}
	if cfg.Encryption.PublicKeyPath != "/data/bt/keys/bt.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/bt/keys/bt.pub")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/bt/keys/bt.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/bt/keys/bt.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bt.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bt.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bt.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Catalog = CatalogConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
		if got.Catalog.Type != "memory" {
			t.Errorf("Catalog.Type = %q, want memory", got.Catalog.Type)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/bt.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
