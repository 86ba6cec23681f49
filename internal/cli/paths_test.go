package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/guji/pkg/cache"
	"github.com/matzehuels/guji/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	c := New(os.Stderr, LogInfo)
	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := "/tmp/custom-cache"
	t.Setenv("XDG_CACHE_HOME", customCache)

	c := New(os.Stderr, LogInfo)
	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestCacheDirConfigured(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.cfg.Cache.Dir = "/srv/guji-cache"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != "/srv/guji-cache" {
		t.Errorf("cacheDir() = %q, want configured dir", dir)
	}
	if strings.Contains(dir, ".cache") {
		t.Errorf("cacheDir() = %q should ignore XDG paths", dir)
	}
}

func TestKeyerScope(t *testing.T) {
	keyOf := func(backend, dir string) string {
		c := New(os.Stderr, LogInfo)
		c.cfg.Cache.Backend = backend
		c.cfg.StorageDir = dir
		return c.newKeyer().PageKey("abc", cache.PageKeyOpts{})
	}
	plain := cache.NewDefaultKeyer().PageKey("abc", cache.PageKeyOpts{})

	tests := []struct {
		name    string
		backend string
		dir     string
		want    string
	}{
		{"file cache", config.CacheFile, "/srv/a", plain},
		{"memory cache", config.CacheMemory, "/srv/a", plain},
		{"redis", config.CacheRedis, "/srv/a", workspaceScope("/srv/a") + plain},
		{"redis unclean dir", config.CacheRedis, "/srv/a/", workspaceScope("/srv/a") + plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyOf(tt.backend, tt.dir); got != tt.want {
				t.Errorf("PageKey = %q, want %q", got, tt.want)
			}
		})
	}

	if keyOf(config.CacheRedis, "/srv/a") == keyOf(config.CacheRedis, "/srv/b") {
		t.Error("workspaces sharing a Redis cache should get distinct keys")
	}
}

func TestGraphOutputPath(t *testing.T) {
	tests := []struct {
		input, format, want string
	}{
		{"scans/page-3.json", "png", "scans/page-3.order.png"},
		{"page", "pdf", "page.order.pdf"},
		{"-", "png", "page.order.png"},
	}
	for _, tt := range tests {
		if got := graphOutputPath(tt.input, tt.format); got != tt.want {
			t.Errorf("graphOutputPath(%q, %q) = %q, want %q", tt.input, tt.format, got, tt.want)
		}
	}
}
