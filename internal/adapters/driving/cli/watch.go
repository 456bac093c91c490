package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/consulta-labs/consulta/internal/watcher"
)

var (
	watchDir  string
	watchKeep bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch an inbox directory and ingest dropped PDFs",
	Long: `Watches a directory and runs every PDF dropped into it through the
ingest pipeline. Ingested files are removed from the inbox unless
--keep is set. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "directory to watch (default from config)")
	watchCmd.Flags().BoolVar(&watchKeep, "keep", false, "keep ingested files in the inbox")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := watchDir
	if dir == "" {
		if application == nil {
			return errors.New("no watch directory configured")
		}
		dir = application.Config.Watch.Inbox
	}

	var opts []watcher.Option
	if watchKeep {
		opts = append(opts, watcher.WithKeepFiles())
	}

	w, err := watcher.New(dir, ingestService, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
