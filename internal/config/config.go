package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rzbill/multipart/internal/feed"
	pebblestore "github.com/rzbill/multipart/internal/storage/pebble"
	"github.com/rzbill/multipart/pkg/keys"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir         string         `json:"dataDir" yaml:"dataDir"`
	Fsync           string         `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int            `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	Compression     string         `json:"compression" yaml:"compression"`
	Paging          PagingDefaults `json:"paging" yaml:"paging"`
	ReadConcurrency int            `json:"readConcurrency" yaml:"readConcurrency"`
	Log             logpkg.Config  `json:"log" yaml:"log"`
}

// PagingDefaults are used by write sessions unless overridden per command.
type PagingDefaults struct {
	Namespace  string `json:"namespace" yaml:"namespace"`
	BufferSize int    `json:"bufferSize" yaml:"bufferSize"`
	PageSize   uint64 `json:"pageSize" yaml:"pageSize"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Fsync:           "always",
		FsyncIntervalMs: 5,
		Compression:     "none",
		Paging: PagingDefaults{
			Namespace:  keys.DefaultNamespace,
			BufferSize: 4096,
			PageSize:   10 << 20,
		},
		ReadConcurrency: 4,
		Log:             logpkg.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks every field that has a fixed vocabulary or range.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: dataDir is required")
	}
	if _, err := c.FsyncMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.CompressionMode(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Paging.BufferSize <= 0 {
		return fmt.Errorf("config: paging.bufferSize must be > 0")
	}
	if c.Paging.PageSize == 0 {
		return fmt.Errorf("config: paging.pageSize must be > 0")
	}
	if c.Paging.Namespace == "" {
		return fmt.Errorf("config: paging.namespace must not be empty")
	}
	if _, err := logpkg.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// FsyncMode parses Fsync.
func (c Config) FsyncMode() (pebblestore.FsyncMode, error) {
	return pebblestore.ParseFsyncMode(c.Fsync)
}

// FsyncInterval converts FsyncIntervalMs.
func (c Config) FsyncInterval() time.Duration {
	return time.Duration(c.FsyncIntervalMs) * time.Millisecond
}

// CompressionMode parses Compression.
func (c Config) CompressionMode() (feed.Compression, error) {
	return feed.ParseCompression(c.Compression)
}
