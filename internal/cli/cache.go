package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/guji/pkg/cache"
	"github.com/matzehuels/guji/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the ordered-page cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached results",
		Long: `Clear all cached results from the configured backend.

For the redis backend only keys under the guji: prefix are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := statusOf(cmd)
			if c.cfg.Cache.Backend == config.CacheNone {
				out.info("Caching is disabled")
				return nil
			}

			cc, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cc.Close()

			cl, ok := cc.(cache.Clearer)
			if !ok {
				out.info("Cache is empty")
				return nil
			}
			if err := cl.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			out.success("Cleared %s cache", c.cfg.Cache.Backend)
			if fc, ok := unwrapCache(cc).(*cache.FileCache); ok {
				out.detail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func unwrapCache(cc cache.Cache) cache.Cache {
	if f, ok := cc.(*cache.FixedTTL); ok {
		return f.Cache
	}
	return cc
}
