// Package config loads pxsvg settings from a TOML file.
//
// The file is optional. Values it sets override the built-in defaults, and
// command-line flags that are explicitly given override the file. A typical
// file looks like:
//
//	scale = 4
//	workers = 8
//	extensions = [".png", ".bmp"]
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
//	max_body = 4194304
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pxsvg/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "pxsvg"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Defaults.
const (
	DefaultAddr    = ":8080"
	DefaultMaxBody = 4 << 20
	DefaultTTL     = 30 * 24 * time.Hour
)

// Config holds all settings.
type Config struct {
	// Scale is the default scale factor. Zero means 1.
	Scale int `toml:"scale"`

	// Workers bounds concurrent batch conversions. Zero means one per CPU.
	Workers int `toml:"workers"`

	// Extensions selects the files a batch converts.
	Extensions []string `toml:"extensions"`

	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Cache configures the artifact cache.
type Cache struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	// Prefix namespaces cache keys, letting deployments share a Redis.
	Prefix string `toml:"prefix"`
	// TTL bounds how long documents stay cached; "0s" keeps them forever.
	TTL Duration `toml:"ttl"`
}

// Server configures pxsvg serve.
type Server struct {
	Addr    string `toml:"addr"`
	MaxBody int64  `toml:"max_body"`
}

// Duration is a time.Duration written as a Go duration string ("72h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scale:      1,
		Extensions: []string{".png"},
		Cache: Cache{
			Backend: BackendFile,
			TTL:     Duration{DefaultTTL},
		},
		Server: Server{
			Addr:    DefaultAddr,
			MaxBody: DefaultMaxBody,
		},
	}
}

// DefaultPath returns the config file location using the XDG standard
// (~/.config/pxsvg/config.toml).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// Load reads the file at path on top of Default. An empty path loads
// DefaultPath if it exists and the defaults otherwise; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		if _, err := os.Stat(p); err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Scale != 0 {
		if err := errors.ValidateScale(c.Scale); err != nil {
			return err
		}
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be >= 0, got %d", c.Workers)
	}
	for _, ext := range c.Extensions {
		if err := errors.ValidateExtension(ext); err != nil {
			return err
		}
	}
	switch c.Cache.Backend {
	case "", BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend %q requires redis_url", BackendRedis)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	if c.Server.MaxBody < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server max_body must not be negative")
	}
	return nil
}
