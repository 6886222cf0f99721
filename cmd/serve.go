package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagewatch/internal/config"
	"github.com/conneroisu/pagewatch/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the working tree over HTTP",
	Long: `Serve files from the configured root without watching or building.

Paths ending in / serve the default document. Files that cannot be found
fall back to a generated listing of the pages directory, answered with
200 unless --strict-not-found is set. Icon requests get an empty 204.

Examples:
  pagewatch serve                          # Serve . on localhost:8080
  pagewatch serve --port 3000 --root public
  pagewatch serve --pages-dir tests --scripts-dir dist`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd.Flags(), serverFlagBindings)
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().AddFlagSet(serverFlags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return serveUntilDone(ctx, cfg, logger)
}

// serveUntilDone serves until ctx is cancelled.
func serveUntilDone(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	return srv.Start(ctx)
}
