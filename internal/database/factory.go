package database

import (
	"fmt"
	"os"
	"path/filepath"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/config"
)

// NewDatabaseFromConfig opens the catalog described by cfg, creating its
// directory if needed.
func NewDatabaseFromConfig(cfg config.CatalogConfig, logger bt.Logger) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite catalog")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
		return Open(cfg.Path, logger)
	case "memory":
		return Open(MemoryPath, logger)
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}
