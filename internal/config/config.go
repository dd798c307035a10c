// Package config handles loading and managing wasearch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DataConfig holds data source configuration.
type DataConfig struct {
	ChatStorage string `toml:"chat_storage"` // Override path to ChatStorage.sqlite
}

// SearchConfig holds default search parameters.
type SearchConfig struct {
	Threshold    int    `toml:"threshold"`     // Minimum match score (0-100)
	PageSize     int    `toml:"page_size"`     // Results per page
	Sort         string `toml:"sort"`          // relevance or time
	PrefilterCap int    `toml:"prefilter_cap"` // Max candidate rows per search
}

// CacheConfig holds result cache configuration.
type CacheConfig struct {
	MaxEntries int `toml:"max_entries"` // LRU bound on cached result sets
}

type Config struct {
	Data   DataConfig   `toml:"data"`
	Search SearchConfig `toml:"search"`
	Cache  CacheConfig  `toml:"cache"`

	// Computed (not from config file)
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default wasearch home directory.
// Respects WASEARCH_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("WASEARCH_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wasearch"
	}
	return filepath.Join(home, ".wasearch")
}

// Load reads the configuration from the specified file.
// If path is empty, uses the default location (~/.wasearch/config.toml).
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		Search: SearchConfig{
			Threshold:    60,
			PageSize:     20,
			Sort:         "relevance",
			PrefilterCap: 10000,
		},
		Cache: CacheConfig{
			MaxEntries: 64,
		},
	}

	// Config file is optional - use defaults if not present
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Data.ChatStorage = expandPath(cfg.Data.ChatStorage)

	return cfg, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
