package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagewatch/internal/config"
	"github.com/conneroisu/pagewatch/internal/logging"
	"github.com/conneroisu/pagewatch/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever watched sources change",
	Long: `Watch the source roots and run the build command once a burst of
changes has settled. Only files with a qualifying extension trigger a
build; editor backup files and ignored directories never do.

A build that fails is reported and watching continues. A watch root that
cannot be subscribed stops the command immediately.

Examples:
  pagewatch watch                          # Watch src/ and run npm run build
  pagewatch watch -w src -w lib            # Watch two roots
  pagewatch watch --debounce 200ms         # Shorter quiet period
  pagewatch watch --build-cmd make --build-arg bundle`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd.Flags(), watchFlagBindings)
		applyWatchOverrides(cmd.Flags())
	},
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().AddFlagSet(watchFlags())
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	return watchUntilDone(ctx, cfg, logger)
}

// watchUntilDone runs the watch-build loop until ctx is cancelled. An
// interrupt is a clean exit.
func watchUntilDone(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	s, err := startSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return awaitShutdown(ctx, s)
}

// awaitShutdown blocks until ctx is done, then closes s.
func awaitShutdown(ctx context.Context, s *session.Session) error {
	<-ctx.Done()

	return s.Close()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
