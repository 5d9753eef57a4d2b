package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexsearch/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and re-ingest changed files",
	Long: `Monitors a corpus directory for .txt and .md files and re-ingests
documents whose content actually changed. Unchanged rewrites are
detected through the stored snapshots and skipped. Runs until
interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if changeDetector == nil || ingestService == nil {
		return errors.New("watch services not configured")
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)

	w := watcher.New(dir, changeDetector, ingestService)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
