package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	errs "github.com/matzehuels/guji/pkg/errors"
)

// EnvPrefix prefixes the environment variables read by [Config.ApplyEnv].
const EnvPrefix = "GUJI_"

// envSetters maps variable names, without the prefix, to the setting they
// override. Only connection strings, locations and secrets are covered;
// thresholds belong in the config file.
var envSetters = map[string]func(*Config, string){
	"STORAGE_DIR":   func(c *Config, v string) { c.StorageDir = v },
	"CACHE_BACKEND": func(c *Config, v string) { c.Cache.Backend = v },
	"CACHE_DIR":     func(c *Config, v string) { c.Cache.Dir = v },
	"REDIS_URL":     func(c *Config, v string) { c.Cache.RedisURL = v },
	"STORE_BACKEND": func(c *Config, v string) { c.Store.Backend = v },
	"MONGO_URI":     func(c *Config, v string) { c.Store.MongoURI = v },
	"POSTGRES_URL":  func(c *Config, v string) { c.Store.PostgresURL = v },
	"SERVER_ADDR":   func(c *Config, v string) { c.Server.Addr = v },
	"LLM_BASE_URL":  func(c *Config, v string) { c.LLM.BaseURL = v },
	"LLM_API_KEY":   func(c *Config, v string) { c.LLM.APIKey = v },
}

// Environ collects GUJI_* variables from the given dotenv files and the
// process environment. The process environment wins over the files, and
// later files win over earlier ones. Missing files are skipped.
func Environ(dotenv ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, path := range dotenv {
		vars, err := godotenv.Read(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read %s", path)
		}
		for k, v := range vars {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides c with the recognised variables in env and validates
// the result. Empty values are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	for k, v := range env {
		set, ok := envSetters[strings.TrimPrefix(k, EnvPrefix)]
		if !ok || v == "" || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		set(c, v)
	}
	return c.Validate()
}
