package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexsearch/internal/normalisers"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents into the corpus",
	Long: `Normalises each file, chunks it into passages, embeds them and
stores the result. Markdown and HTML files have their formatting
stripped first. The document ID is the file name without its
extension; re-ingesting a file replaces its prior passages.

Embedding failures do not drop passages: affected passages are stored
without a vector and remain reachable through keyword search.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	failed := 0

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}

		docID := documentIDFromPath(path)
		text := normalisers.ForPath(path).Normalise(data)
		result, err := ingestService.Ingest(ctx, docID, text)
		if err != nil {
			cmd.Printf("  %s: %v\n", docID, err)
			failed++
			continue
		}

		status := "ok"
		if !result.Success {
			status = fmt.Sprintf("%d embeddings failed", result.EmbeddingsFailed)
		}
		cmd.Printf("  %s: %d passages, %d embedded (%s)\n",
			docID, result.TotalChunks, result.EmbeddingsGenerated, status)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// documentIDFromPath derives the document identifier from a file path.
func documentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
