// Package config loads and saves guji's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/guji/config.toml (falling back to
// ~/.config/guji/config.toml). Missing keys keep their [Default] values and
// a missing file is not an error:
//
//	storage_dir = "/home/me/guji"
//
//	[layout]
//	width_ratio = 0.25
//
//	[cache]
//	backend   = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[store]
//	backend   = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
// The same settings may be written as YAML in a file ending in .yaml or
// .yml. Connection strings and the LLM key can also come from GUJI_*
// environment variables or a .env file; see [Environ].
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/layout"
)

// AppName names the config, cache and data directories.
const AppName = "guji"

// Cache backends.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// File formats understood by Load and Save, chosen by extension.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Config is the full application configuration.
type Config struct {
	// StorageDir holds per-document result files for the file store.
	// Empty means $XDG_DATA_HOME/guji/documents.
	StorageDir string `toml:"storage_dir" yaml:"storage_dir"`

	Layout layout.Config `toml:"layout" yaml:"layout"`
	Cache  CacheConfig   `toml:"cache" yaml:"cache"`
	Store  StoreConfig   `toml:"store" yaml:"store"`
	Server ServerConfig  `toml:"server" yaml:"server"`
	LLM    LLMConfig     `toml:"llm" yaml:"llm"`
}

// CacheConfig selects and tunes the ordered-page cache.
type CacheConfig struct {
	Backend  string   `toml:"backend" yaml:"backend"`
	Dir      string   `toml:"dir" yaml:"dir"`
	Capacity int      `toml:"capacity" yaml:"capacity"`
	RedisURL string   `toml:"redis_url" yaml:"redis_url"`
	TTL      Duration `toml:"ttl" yaml:"ttl"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend  string `toml:"backend" yaml:"backend"`
	MongoURI string `toml:"mongo_uri" yaml:"mongo_uri"`
	Database string `toml:"database" yaml:"database"`

	PostgresURL string `toml:"postgres_url" yaml:"postgres_url"`

	// OpenDocuments bounds how many documents a workspace keeps in memory.
	OpenDocuments int `toml:"open_documents" yaml:"open_documents"`
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	Addr             string `toml:"addr" yaml:"addr"`
	MaxBodyBytes     int64  `toml:"max_body_bytes" yaml:"max_body_bytes"`
	BatchConcurrency int    `toml:"batch_concurrency" yaml:"batch_concurrency"`

	// MaxConcurrent bounds requests being processed at once.
	MaxConcurrent int64 `toml:"max_concurrent" yaml:"max_concurrent"`

	// RateEvery and RateBurst configure the per-client token bucket.
	// A zero burst disables rate limiting.
	RateEvery Duration `toml:"rate_every" yaml:"rate_every"`
	RateBurst int      `toml:"rate_burst" yaml:"rate_burst"`
}

// LLMConfig is read by the desktop application that post-processes ordered
// text. guji only validates and round-trips it.
type LLMConfig struct {
	BaseURL         string `toml:"base_url" yaml:"base_url"`
	APIKey          string `toml:"api_key" yaml:"api_key"`
	PunctuateModel  string `toml:"punctuate_model" yaml:"punctuate_model"`
	VernacularModel string `toml:"vernacular_model" yaml:"vernacular_model"`
	ExplainModel    string `toml:"explain_model" yaml:"explain_model"`
}

// Duration is a time.Duration written as a string such as "720h".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Cache: CacheConfig{
			Backend:  CacheFile,
			Capacity: 6,
			TTL:      Duration{30 * 24 * time.Hour},
		},
		Store: StoreConfig{
			Backend:       StoreFile,
			Database:      AppName,
			OpenDocuments: 6,
		},
		Server: ServerConfig{
			Addr:             "127.0.0.1:8080",
			MaxBodyBytes:     8 << 20,
			BatchConcurrency: 4,
			MaxConcurrent:    32,
			RateEvery:        Duration{100 * time.Millisecond},
			RateBurst:        20,
		},
	}
}

// Validate reports the first unusable setting as an INVALID_CONFIG error.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}

	backends := []string{CacheFile, CacheMemory, CacheRedis, CacheNone}
	if !slices.Contains(backends, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend must be one of %s, got %q",
			strings.Join(backends, ", "), c.Cache.Backend)
	}
	if c.Cache.Capacity < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.capacity must not be negative")
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Cache.Backend == CacheRedis &&
		!strings.HasPrefix(c.Cache.RedisURL, "redis://") && !strings.HasPrefix(c.Cache.RedisURL, "rediss://") {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_url must be a redis:// or rediss:// URL")
	}

	switch c.Store.Backend {
	case StoreFile:
	case StoreMongo:
		if !strings.HasPrefix(c.Store.MongoURI, "mongodb://") && !strings.HasPrefix(c.Store.MongoURI, "mongodb+srv://") {
			return errs.New(errs.ErrCodeInvalidConfig, "store.mongo_uri must be a mongodb:// URL")
		}
		if c.Store.Database == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "store.database cannot be empty")
		}
	case StorePostgres:
		if !strings.HasPrefix(c.Store.PostgresURL, "postgres://") && !strings.HasPrefix(c.Store.PostgresURL, "postgresql://") {
			return errs.New(errs.ErrCodeInvalidConfig, "store.postgres_url must be a postgres:// URL")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "store.backend must be one of %s, got %q",
			strings.Join([]string{StoreFile, StoreMongo, StorePostgres}, ", "), c.Store.Backend)
	}
	if c.Store.OpenDocuments < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "store.open_documents must be at least 1")
	}

	if c.Server.Addr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	if c.Server.BatchConcurrency < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.batch_concurrency must be at least 1")
	}
	if c.Server.MaxConcurrent < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.max_concurrent must be at least 1")
	}
	if c.Server.RateBurst < 0 || c.Server.RateEvery.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server rate limits must not be negative")
	}
	if c.Server.RateBurst > 0 && c.Server.RateEvery.Duration == 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.rate_every must be set when rate_burst is")
	}

	if c.LLM.BaseURL != "" {
		if err := errs.ValidateURL(c.LLM.BaseURL); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "llm.base_url")
		}
	}
	return nil
}

// Load reads the file at path over the defaults. Files ending in .yaml or
// .yml are read as YAML, anything else as TOML. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := decode(data, FormatOf(path), &cfg); err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	cfg.Layout.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FormatOf returns the file format implied by path's extension.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// decode overlays data onto cfg, rejecting keys cfg does not know.
func decode(data []byte, format string, cfg *Config) error {
	if format == FormatYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return nil
}

// Save writes cfg to path, creating parent directories. The format follows
// the extension as in Load.
func Save(path string, cfg Config) error {
	data, err := Encode(cfg, FormatOf(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Marshal encodes cfg as TOML.
func Marshal(cfg Config) ([]byte, error) {
	return Encode(cfg, FormatTOML)
}

// Encode encodes cfg as TOML or YAML.
func Encode(cfg Config, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode config: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode config: %w", err)
		}
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "config format %q (must be toml or yaml)", format)
	}
	return buf.Bytes(), nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "********"
	}
	if c.Store.PostgresURL != "" {
		c.Store.PostgresURL = redactURL(c.Store.PostgresURL)
	}
	if c.Store.MongoURI != "" {
		c.Store.MongoURI = redactURL(c.Store.MongoURI)
	}
	if c.Cache.RedisURL != "" {
		c.Cache.RedisURL = redactURL(c.Cache.RedisURL)
	}
	return c
}

// redactURL masks the password of a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
