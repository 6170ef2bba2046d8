package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the locations used when the config does not say otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths. Environment variables
// take precedence:
//   - BT_CONFIG_PATH: config file location (default: ~/.config/bt.toml)
//   - BT_HOME: base directory for catalog, keys and logs (default: ~/.local/share/bt)
func GetDefaults() (*Defaults, error) {
	configPath := os.Getenv("BT_CONFIG_PATH")
	baseDir := os.Getenv("BT_HOME")

	if configPath == "" || baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if configPath == "" {
			configPath = filepath.Join(homeDir, ".config", "bt.toml")
		}
		if baseDir == "" {
			baseDir = filepath.Join(homeDir, ".local", "share", "bt")
		}
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}
