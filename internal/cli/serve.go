package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/guji/internal/server"
)

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ordering engine over HTTP",
		Long: `Serve the ordering engine over HTTP.

Routes:
  POST /v1/order        order one page
  POST /v1/order/batch  order an array of pages
  POST /v1/text         ordered text of one page
  POST /v1/graph        reading-order diagram (?format=svg|dot|png|pdf)
  GET  /healthz
  GET  /version

Settings come from the [server] and [cache] sections of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			cfg := c.serverConfig()
			if addr != "" {
				cfg.Addr = addr
			}
			return server.New(runner, cfg, c.Logger).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// serverConfig maps the [server] config section onto server.Config.
func (c *CLI) serverConfig() server.Config {
	sc := c.cfg.Server
	cfg := server.DefaultConfig()
	cfg.Addr = sc.Addr
	cfg.Layout = c.cfg.Layout
	cfg.MaxBodyBytes = sc.MaxBodyBytes
	cfg.BatchConcurrency = sc.BatchConcurrency
	cfg.MaxConcurrent = sc.MaxConcurrent
	cfg.RateEvery = sc.RateEvery.Duration
	cfg.RateBurst = sc.RateBurst
	return cfg
}
