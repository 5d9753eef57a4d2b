package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driving"
	"github.com/custodia-labs/lexsearch/internal/normalisers"
)

var detectIngest bool

var detectCmd = &cobra.Command{
	Use:   "detect [file...]",
	Short: "Detect content changes against stored snapshots",
	Long: `Compares each file against the snapshot stored for its document ID
and classifies it as created, unchanged or updated. With --ingest,
created and updated documents are re-ingested in the same run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectIngest, "ingest", false, "re-ingest created and updated documents")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	if changeDetector == nil {
		return errors.New("change detector not configured")
	}
	if detectIngest && ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	items := make([]driving.BatchItem, 0, len(args))
	texts := make(map[string]string, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			continue
		}
		docID := documentIDFromPath(path)
		text := normalisers.ForPath(path).Normalise(data)
		items = append(items, driving.BatchItem{DocumentID: docID, Text: text})
		texts[docID] = text
	}
	if len(items) == 0 {
		return errors.New("no readable files")
	}

	results := changeDetector.DetectBatch(ctx, items)
	for _, r := range results {
		switch r.Kind {
		case domain.ChangeUnchanged:
			cmd.Printf("  %s: unchanged\n", r.DocumentID)
		case domain.ChangeCreated:
			cmd.Printf("  %s: created (version %d)\n", r.DocumentID, r.Version)
		case domain.ChangeUpdated:
			cmd.Printf("  %s: updated (version %d, similarity %.3f, %+d chars)\n",
				r.DocumentID, r.Version, r.Similarity, r.SizeDelta)
		}

		if detectIngest && r.Kind != domain.ChangeUnchanged {
			if _, err := ingestService.Ingest(ctx, r.DocumentID, texts[r.DocumentID]); err != nil {
				cmd.Printf("  %s: re-ingestion failed: %v\n", r.DocumentID, err)
			}
		}
	}

	summary := changeDetector.Summarize(results)
	cmd.Println()
	cmd.Printf("%d created, %d updated, %d unchanged (%d significant)\n",
		summary.Created, summary.Updated, summary.Unchanged, summary.Significant)

	return nil
}
