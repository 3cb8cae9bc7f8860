package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcanaland/builderbot/internal/build"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the store and build whenever the sources change",
	Long: `Watch runs a build attempt immediately and then once every poll interval
until interrupted. Attempts against unchanged sources are cheap: only the
namespace revisions are read.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			interval = cfg.PollInterval
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, closeFn, err := newBuilder(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		logger.Info("watching store", slog.String("store", cfg.StoreRoot), slog.Duration("interval", interval))
		return watch(ctx, b, interval)
	},
}

func init() {
	RootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("interval", 0, "Poll interval (default from config)")
}

// watch attempts a build every interval. Failed attempts are logged and
// retried on the next tick.
func watch(ctx context.Context, b *build.Builder, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		outcome, err := b.Attempt(ctx, false)
		switch {
		case err != nil:
			logger.Error("build attempt failed", slog.Any("error", err))
		case !outcome.Skipped && outcome.Report != nil:
			logger.Info("build complete",
				slog.String("build", outcome.BuildPath),
				slog.Int("built", len(outcome.Report.Built)),
				slog.Int("failed", len(outcome.Report.Failed)),
			)
		}

		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}
