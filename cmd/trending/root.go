// cmd/trending/root.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github-trending-notifier/internal/app"
	"github-trending-notifier/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trending",
		Short: "Fetch, store and inspect GitHub trending snapshots.",
		Long: `trending runs one-shot collections against the configured trending source
and reads back stored snapshots. Configuration comes from the environment
and an optional .env file, the same as the service.`,
		SilenceUsage: true,
	}
	// Add a persistent flag for verbose output, available to all commands.
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")

	root.AddCommand(newFetchCmd(), newShowCmd())
	return root
}

// newApp loads the configuration and wires the application. Logs go to stderr
// so stdout carries only command output.
func newApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logLevel := app.NewLogger(os.Stderr, cfg.LogFormat)
	app.SetLogLevel(cfg.LogLevel, logLevel)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		app.SetLogLevel("debug", logLevel)
	}

	return app.New(ctx, cfg, logger)
}
