package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/guji/pkg/buildinfo"
	"github.com/matzehuels/guji/pkg/cache"
	"github.com/matzehuels/guji/pkg/config"
	"github.com/matzehuels/guji/pkg/observability"
	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/pipeline"
	"github.com/matzehuels/guji/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	cfg    config.Config
	loaded bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level. At debug level pipeline, cache
// and HTTP events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetOrderHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "guji restores the reading order of classical Chinese OCR pages",
		Long: `guji reorders the text lines an OCR engine found on a scanned page into
reading order. Vertical pages are read in columns from right to left and
top to bottom; horizontal pages line by line.

Pages are exchanged as PaddleOCR-style JSON with rec_polys, rec_texts and
rec_scores arrays.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/guji/config.toml)")

	// Register all subcommands
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.textCommand())
	root.AddCommand(c.columnsCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.docCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// configPath returns --config or the default location.
func (c *CLI) configPath() (string, error) {
	if c.ConfigPath != "" {
		return c.ConfigPath, nil
	}
	return config.Path()
}

// loadConfig reads the config file once, then applies GUJI_* variables
// from the environment and ./.env.
func (c *CLI) loadConfig() error {
	if c.loaded {
		return nil
	}
	path, err := c.configPath()
	if err != nil {
		return fmt.Errorf("locate config: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	env, err := config.Environ(".env")
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return err
	}
	c.cfg = cfg
	c.loaded = true
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, c.newKeyer(), c.Logger), nil
}

// newKeyer prefixes keys with a hash of the document directory when the
// cache is a Redis server that several workspaces may share. Local caches
// already belong to one workspace and use plain keys.
func (c *CLI) newKeyer() cache.Keyer {
	keyer := cache.NewDefaultKeyer()
	if c.cfg.Cache.Backend != config.CacheRedis {
		return keyer
	}
	dir, err := c.cfg.DocumentDir()
	if err != nil {
		c.Logger.Warn("cache keys not scoped", "error", err)
		return keyer
	}
	return cache.NewScopedKeyer(keyer, workspaceScope(dir))
}

// workspaceScope returns the key prefix for the workspace rooted at dir.
func workspaceScope(dir string) string {
	return "ws:" + cache.Hash([]byte(filepath.Clean(dir)))[:12] + ":"
}

// newCache opens the configured backend. An unusable cache directory falls
// back to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.cfg.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}

	var (
		cc  cache.Cache
		err error
	)
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		cc = cache.NewMemoryCache(cfg.Capacity)
	case config.CacheRedis:
		cc, err = cache.NewRedisCache(ctx, cfg.RedisURL, appName+":")
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
	default:
		dir, derr := c.cacheDir()
		if derr != nil {
			c.Logger.Warn("cache disabled", "error", derr)
			return cache.NewNullCache(), nil
		}
		cc, err = cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
	}
	return cache.WithTTL(cc, cfg.TTL.Duration), nil
}

// =============================================================================
// Store Factory
// =============================================================================

// newStore opens the configured document store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	switch c.cfg.Store.Backend {
	case config.StoreMongo:
		s, err := store.NewMongoStore(ctx, c.cfg.Store.MongoURI, c.cfg.Store.Database)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return s, nil
	case config.StorePostgres:
		s, err := store.NewPostgresStore(ctx, c.cfg.Store.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return s, nil
	default:
		dir, err := c.cfg.DocumentDir()
		if err != nil {
			return nil, fmt.Errorf("locate documents: %w", err)
		}
		return store.NewFileStore(dir, c.Logger)
	}
}

// newWorkspace opens the store behind a workspace.
func (c *CLI) newWorkspace(ctx context.Context) (*store.Workspace, error) {
	s, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.NewWorkspace(s, c.cfg.Store.OpenDocuments, c.Logger), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns cache.dir or $XDG_CACHE_HOME/guji (~/.cache/guji).
func (c *CLI) cacheDir() (string, error) {
	return c.cfg.CacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions returns options seeded from the configured thresholds.
func (c *CLI) pipelineOptions() pipeline.Options {
	opts := pipeline.Options{Layout: c.cfg.Layout, Logger: c.Logger}
	opts.SetDefaults()
	return opts
}

// readPageArg reads a page from a file path, or from stdin for "-".
func readPageArg(cmd *cobra.Command, path string) (*ocr.Page, error) {
	if path == "-" {
		p, err := ocr.ReadPage(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return p, nil
	}
	p, err := ocr.ReadPageFile(path)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", path, err)
	}
	return p, nil
}

// createOutput opens path for writing, or returns stdout for "" and "-".
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
