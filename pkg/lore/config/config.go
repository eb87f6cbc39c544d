// Package config loads the engine configuration from YAML and constructs
// the configured blob backend.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/blob/fsblob"
	"github.com/cognicore/loredb/pkg/lore/blob/memblob"
	"github.com/cognicore/loredb/pkg/lore/blob/sqliteblob"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
)

// Duration wraps time.Duration with YAML support for strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", internalerr.ErrInvalidInput, raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the full engine configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Library  LibraryConfig  `yaml:"library"`
}

// StorageConfig selects and parameterizes the blob backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory, fs or sqlite
	Path   string `yaml:"path"`   // fs root directory, or sqlite file
}

// DatabaseConfig tunes the frequency database.
type DatabaseConfig struct {
	Root      string   `yaml:"root"`
	CacheSize int      `yaml:"cacheSize"`
	CacheTTL  Duration `yaml:"cacheTTL"`
}

// LibraryConfig tunes the document library.
type LibraryConfig struct {
	Root string `yaml:"root"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Storage:  StorageConfig{Driver: DriverMemory},
		Database: DatabaseConfig{Root: "database", CacheSize: 1024, CacheTTL: Duration(time.Minute)},
		Library:  LibraryConfig{Root: "library"},
	}
}

// Load reads a YAML configuration file, applying defaults for anything
// unset.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read config %s: %v", internalerr.ErrInvalidInput, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config %s: %v", internalerr.ErrInvalidInput, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for anything Open would reject.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFS, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage driver %q needs a path", internalerr.ErrInvalidInput, c.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", internalerr.ErrInvalidInput, c.Storage.Driver)
	}
	return nil
}

// Open constructs the configured blob backend.
func (c Config) Open(ctx context.Context) (blob.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Storage.Driver {
	case DriverFS:
		return fsblob.New(c.Storage.Path)
	case DriverSQLite:
		return sqliteblob.Open(ctx, c.Storage.Path)
	default:
		return memblob.New(), nil
	}
}
