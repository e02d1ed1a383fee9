// Package config loads and validates searchsync configuration.
//
// Configuration is applied in order of increasing precedence: hardcoded
// defaults, then a YAML file, then SEARCHSYNC_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/searchsync/searchsync/internal/analyzer"
	serrors "github.com/searchsync/searchsync/internal/errors"
)

// Config is the complete searchsync configuration.
type Config struct {
	// IndexDir is the directory holding per-entity index shards. Empty
	// means in-memory indexes, which do not survive the process.
	IndexDir string `yaml:"index_dir"`

	// StorePath is the SQLite record store file. Empty means in-memory.
	StorePath string `yaml:"store_path"`

	// DefaultAnalyzer applies to entities without their own analyzer.
	DefaultAnalyzer string `yaml:"default_analyzer"`

	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
	Entities []EntityConfig `yaml:"entities"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// FilePath receives JSON log lines when set.
	FilePath string `yaml:"file_path"`

	// Stderr additionally mirrors log lines to stderr.
	Stderr bool `yaml:"stderr"`
}

// CacheConfig configures the query composer's ranked-hit cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Size is the maximum number of cached hit lists.
	Size int `yaml:"size"`
}

// EntityConfig declares one searchable entity.
type EntityConfig struct {
	Name       string   `yaml:"name"`
	PrimaryKey string   `yaml:"primary_key"`
	Fields     []string `yaml:"fields"`

	// Analyzer overrides the default analyzer for this entity only.
	Analyzer string `yaml:"analyzer"`
}

// NewConfig creates a Config with defaults. No entities are declared;
// a usable configuration always names at least one.
func NewConfig() *Config {
	return &Config{
		IndexDir:        "",
		StorePath:       "",
		DefaultAnalyzer: analyzer.DefaultName,
		Logging: LoggingConfig{
			Level:  "info",
			Stderr: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    256,
		},
	}
}

// Load reads configuration from a YAML file, merged over defaults, with
// SEARCHSYNC_* environment overrides applied last. A missing file is an
// error; use NewConfig plus explicit entities when no file exists.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.New(serrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		return nil, serrors.Configuration(fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, serrors.Configuration(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	cfg.mergeWith(&parsed)

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.expandPaths()
	return cfg, nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.IndexDir != "" {
		c.IndexDir = other.IndexDir
	}
	if other.StorePath != "" {
		c.StorePath = other.StorePath
	}
	if other.DefaultAnalyzer != "" {
		c.DefaultAnalyzer = other.DefaultAnalyzer
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	// Stderr is boolean; follow the file whenever any logging key is set.
	if other.Logging.Level != "" || other.Logging.FilePath != "" {
		c.Logging.Stderr = other.Logging.Stderr
	}

	// A cache block with an explicit size carries its enabled flag too.
	if other.Cache.Size != 0 {
		c.Cache = other.Cache
	}

	if len(other.Entities) > 0 {
		c.Entities = other.Entities
	}
}

// applyEnvOverrides applies SEARCHSYNC_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHSYNC_INDEX_DIR"); v != "" {
		c.IndexDir = v
	}
	if v := os.Getenv("SEARCHSYNC_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("SEARCHSYNC_DEFAULT_ANALYZER"); v != "" {
		c.DefaultAnalyzer = v
	}
	if v := os.Getenv("SEARCHSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SEARCHSYNC_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Cache.Size = n
			c.Cache.Enabled = n > 0
		}
	}
}

// Validate checks the configuration. Returned errors are fatal: a process
// never starts on an invalid configuration.
func (c *Config) Validate() error {
	if _, err := analyzer.BleveName(c.DefaultAnalyzer); err != nil {
		return serrors.Configuration(
			fmt.Sprintf("default_analyzer %q is not a known analyzer (known: %s)",
				c.DefaultAnalyzer, strings.Join(analyzer.Names(), ", ")), err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return serrors.Configuration(
			fmt.Sprintf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level), nil)
	}

	if c.Cache.Enabled && c.Cache.Size <= 0 {
		return serrors.Configuration(
			fmt.Sprintf("cache.size must be positive when the cache is enabled, got %d", c.Cache.Size), nil)
	}

	if len(c.Entities) == 0 {
		return serrors.Configuration("at least one entity must be declared", nil)
	}

	seen := make(map[string]bool, len(c.Entities))
	for _, e := range c.Entities {
		if e.Name == "" {
			return serrors.Configuration("entity name must not be empty", nil)
		}
		if seen[e.Name] {
			return serrors.Configuration(fmt.Sprintf("entity %q is declared twice", e.Name), nil)
		}
		seen[e.Name] = true

		if e.PrimaryKey == "" {
			return serrors.Configuration(
				fmt.Sprintf("entity %q has no primary_key", e.Name), nil)
		}
		if len(e.Fields) == 0 {
			return serrors.Configuration(
				fmt.Sprintf("entity %q declares no searchable fields", e.Name), nil)
		}
		if e.Analyzer != "" {
			if _, err := analyzer.BleveName(e.Analyzer); err != nil {
				return serrors.Configuration(
					fmt.Sprintf("entity %q names unknown analyzer %q", e.Name, e.Analyzer), err)
			}
		}
	}
	return nil
}

// expandPaths resolves ~ and makes filesystem paths absolute.
func (c *Config) expandPaths() {
	c.IndexDir = expandPath(c.IndexDir)
	c.StorePath = expandPath(c.StorePath)
	c.Logging.FilePath = expandPath(c.Logging.FilePath)
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return serrors.Configuration("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return serrors.Configuration(fmt.Sprintf("failed to write config file %s", path), err)
	}
	return nil
}
