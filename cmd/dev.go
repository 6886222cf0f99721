package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/pagewatch/internal/config"
	"github.com/conneroisu/pagewatch/internal/logging"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Watch, build, and serve in one process",
	Long: `Run the watch-build loop and the static server together. The server
reads files from disk on every request, so a finished build is visible
on the next page load.

Examples:
  pagewatch dev                            # Defaults for both halves
  pagewatch dev -w src --pages-dir tests --scripts-dir dist
  pagewatch dev --no-initial-build --port 0`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd.Flags(), serverFlagBindings)
		bindFlags(cmd.Flags(), watchFlagBindings)
		applyWatchOverrides(cmd.Flags())
	},
	RunE: runDev,
}

func init() {
	rootCmd.AddCommand(devCmd)

	devCmd.Flags().AddFlagSet(serverFlags())
	devCmd.Flags().AddFlagSet(watchFlags())
}

func runDev(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return devUntilDone(ctx, cfg, logger)
}

// devUntilDone starts the server and the watch session. Either failing to
// start stops both.
func devUntilDone(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	g.Go(func() error {
		return watchUntilDone(gctx, cfg, logger)
	})

	return g.Wait()
}
