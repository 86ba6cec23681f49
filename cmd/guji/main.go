package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/guji/internal/cli"
	errs "github.com/matzehuels/guji/pkg/errors"
)

// Exit statuses. 130 follows the shell convention for SIGINT.
const (
	exitError        = 1
	exitInvalidInput = 2
	exitInterrupted  = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(exitInterrupted)
	}
	fmt.Fprintln(os.Stderr, "guji:", err)
	os.Exit(exitCode(err))
}

// exitCode separates bad pages, indices and flags, which scripts over a
// scan directory usually skip, from every other failure.
func exitCode(err error) int {
	if errs.IsInputError(err) {
		return exitInvalidInput
	}
	return exitError
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline, cache and HTTP events")

	// The level has to be set before the root pre-run loads the config.
	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if loadConfig == nil {
			return nil
		}
		return loadConfig(cmd, args)
	}

	return root.ExecuteContext(ctx)
}
