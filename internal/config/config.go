// Package config provides configuration loading and structs for the hydra server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/hydra/internal/mapping"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool                 `yaml:"debug"`
	Server      ServerConfig         `yaml:"server"`
	Storage     StorageConfig        `yaml:"storage"`
	Search      SearchConfig         `yaml:"search"`
	Collections []mapping.Collection `yaml:"collections"`
	Import      ImportConfig         `yaml:"import"`
}

// ImportConfig holds the watched record import directories.
type ImportConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// DefaultCollection receives records from files whose parent directory is not
	// named after a declared collection.
	DefaultCollection string `yaml:"default_collection"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *ImportConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the record database and the search indices.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// IndexDir holds one bleve index per collection, named after the index.
	IndexDir string `yaml:"index_dir"`
}

// SearchConfig holds search and hydration settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// MissingPolicy is "omit" (drop hits whose record is gone) or "fail".
	MissingPolicy string `yaml:"missing_policy"`
	// HighlightStyle is "html" or "ansi".
	HighlightStyle string `yaml:"highlight_style"`
}

// Collection returns the declaration of the named collection.
func (c *Config) Collection(name string) (*mapping.Collection, bool) {
	for i := range c.Collections {
		if c.Collections[i].Name == name {
			return &c.Collections[i], true
		}
	}
	return nil, false
}

// Validate checks the collection declarations and search settings.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Collections))
	for i := range c.Collections {
		col := &c.Collections[i]
		if err := col.Validate(); err != nil {
			return err
		}
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("collection %q declared twice", col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	switch strings.ToLower(c.Search.MissingPolicy) {
	case "", "omit", "fail":
	default:
		return fmt.Errorf("search.missing_policy must be omit or fail, got %q", c.Search.MissingPolicy)
	}
	switch strings.ToLower(c.Search.HighlightStyle) {
	case "", "html", "ansi":
	default:
		return fmt.Errorf("search.highlight_style must be html or ansi, got %q", c.Search.HighlightStyle)
	}
	if c.Import.DefaultCollection != "" {
		if _, ok := c.Collection(c.Import.DefaultCollection); !ok {
			return fmt.Errorf("import.default_collection %q is not a declared collection", c.Import.DefaultCollection)
		}
	}
	return nil
}

// Load reads and parses the config file at path, expands paths, applies defaults and validates.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting import directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
