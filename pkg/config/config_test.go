package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/layout"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("Load(missing) = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
storage_dir = "/data/guji"

[layout]
width_ratio = 0.25

[cache]
backend   = "redis"
redis_url = "redis://localhost:6379/1"
ttl       = "2h"

[server]
addr = ":9000"

[llm]
base_url = "https://api.example.com/v1"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageDir != "/data/guji" {
		t.Errorf("StorageDir = %q", cfg.StorageDir)
	}
	if cfg.Layout.WidthRatio != 0.25 || cfg.Layout.SpanRatio != layout.DefaultConfig().SpanRatio {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.TTL.Duration != 2*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Capacity != Default().Cache.Capacity {
		t.Errorf("unset keys should keep defaults, got capacity %d", cfg.Cache.Capacity)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.BatchConcurrency != 4 {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "storage_dir = "},
		{"unknown key", "colour = \"red\""},
		{"bad backend", "[cache]\nbackend = \"memcached\""},
		{"bad duration", "[cache]\nttl = \"forever\""},
		{"bad llm url", "[llm]\nbase_url = \"ftp://example.com\""},
		{"bad layout", "[layout]\narea_margin = 0.5"},
		{"mongo without uri", "[store]\nbackend = \"mongo\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"redis without url", func(c *Config) { c.Cache.Backend = CacheRedis }},
		{"negative capacity", func(c *Config) { c.Cache.Capacity = -1 }},
		{"store backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"open documents", func(c *Config) { c.Store.OpenDocuments = 0 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
		{"concurrency", func(c *Config) { c.Server.BatchConcurrency = 0 }},
		{"max concurrent", func(c *Config) { c.Server.MaxConcurrent = 0 }},
		{"rate burst", func(c *Config) { c.Server.RateBurst = -1 }},
		{"rate every", func(c *Config) { c.Server.RateEvery = Duration{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("Validate() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.StorageDir = "/srv/guji"
	cfg.Layout.MinThreshold = 5
	cfg.Cache.TTL = Duration{90 * time.Minute}
	cfg.LLM.PunctuateModel = "qwen-max"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `ttl = "1h30m0s"`) {
		t.Errorf("ttl should be written as a string:\n%s", data)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-secret"
	if r := cfg.Redacted(); r.LLM.APIKey == "sk-secret" {
		t.Error("Redacted should hide the API key")
	}
	if cfg.LLM.APIKey != "sk-secret" {
		t.Error("Redacted should not modify the receiver")
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	if p, _ := Path(); p != filepath.Join("/xdg/config", "guji", "config.toml") {
		t.Errorf("Path() = %s", p)
	}
	cfg := Default()
	if d, _ := cfg.CacheDir(); d != filepath.Join("/xdg/cache", "guji") {
		t.Errorf("CacheDir() = %s", d)
	}
	if d, _ := cfg.DocumentDir(); d != filepath.Join("/xdg/data", "guji", "documents") {
		t.Errorf("DocumentDir() = %s", d)
	}

	cfg.Cache.Dir = "/tmp/c"
	cfg.StorageDir = "/tmp/s"
	if d, _ := cfg.CacheDir(); d != "/tmp/c" {
		t.Errorf("CacheDir() override = %s", d)
	}
	if d, _ := cfg.DocumentDir(); d != "/tmp/s" {
		t.Errorf("DocumentDir() override = %s", d)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage_dir: /data/guji
layout:
  min_threshold: 4
cache:
  backend: memory
  ttl: 90m
store:
  backend: postgres
  postgres_url: postgres://guji@localhost/guji
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageDir != "/data/guji" || cfg.Layout.MinThreshold != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache.Backend != CacheMemory || cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != StorePostgres {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Layout.AreaMargin != layout.DefaultConfig().AreaMargin {
		t.Errorf("unset layout keys should keep defaults, got %+v", cfg.Layout)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	for name, content := range map[string]string{
		"unknown key":  "colour: red\n",
		"bad duration": "cache:\n  ttl: forever\n",
		"bad postgres": "store:\n  backend: postgres\n  postgres_url: mysql://x\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestSaveRoundTripYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Cache.TTL = Duration{2 * time.Hour}
	cfg.Server.RateBurst = 5

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "ttl: 2h0m0s") {
		t.Errorf("ttl should be written as a string:\n%s", data)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if _, err := Encode(Default(), "ini"); !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("Encode(ini) = %v, want UNSUPPORTED", err)
	}
}

func TestEnviron(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	content := "GUJI_REDIS_URL=redis://from-file:6379/0\nGUJI_SERVER_ADDR=:7000\nOTHER=ignored\n"
	if err := os.WriteFile(dotenv, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GUJI_SERVER_ADDR", ":9000")

	env, err := Environ(filepath.Join(dir, "missing.env"), dotenv)
	if err != nil {
		t.Fatal(err)
	}
	if env["GUJI_REDIS_URL"] != "redis://from-file:6379/0" {
		t.Errorf("GUJI_REDIS_URL = %q", env["GUJI_REDIS_URL"])
	}
	if env["GUJI_SERVER_ADDR"] != ":9000" {
		t.Errorf("process environment should win, got %q", env["GUJI_SERVER_ADDR"])
	}
	if _, ok := env["OTHER"]; ok {
		t.Error("variables without the prefix should be skipped")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(map[string]string{
		"GUJI_CACHE_BACKEND": "redis",
		"GUJI_REDIS_URL":     "redis://cache:6379/2",
		"GUJI_LLM_API_KEY":   "sk-env",
		"GUJI_SERVER_ADDR":   "",
		"GUJI_UNKNOWN":       "x",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisURL != "redis://cache:6379/2" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.LLM.APIKey != "sk-env" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("empty values should be ignored, Addr = %q", cfg.Server.Addr)
	}

	bad := Default()
	if err := bad.ApplyEnv(map[string]string{"GUJI_STORE_BACKEND": "postgres"}); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("ApplyEnv = %v, want INVALID_CONFIG", err)
	}
}

func TestRedactedURLs(t *testing.T) {
	cfg := Default()
	cfg.Store.PostgresURL = "postgres://guji:hunter2@db/guji"
	r := cfg.Redacted()
	if strings.Contains(r.Store.PostgresURL, "hunter2") {
		t.Errorf("password not masked: %s", r.Store.PostgresURL)
	}
}
