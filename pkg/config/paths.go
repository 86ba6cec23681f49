package config

import (
	"os"
	"path/filepath"
)

// Path returns the config file path.
func Path() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config", "config.toml")
}

// CacheDir returns the file cache directory: cfg's cache.dir when set,
// otherwise $XDG_CACHE_HOME/guji.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache", "")
}

// DocumentDir returns the file store directory: storage_dir when set,
// otherwise $XDG_DATA_HOME/guji/documents.
func (c Config) DocumentDir() (string, error) {
	if c.StorageDir != "" {
		return c.StorageDir, nil
	}
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"), "documents")
}

// xdgDir resolves $env/guji/leaf, falling back to ~/fallback/guji/leaf.
func xdgDir(env, fallback, leaf string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, AppName, leaf), nil
}
