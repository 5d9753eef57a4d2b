package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

var (
	searchLimit        int
	searchOffset       int
	searchJSON         bool
	searchRecent       bool
	searchTypes        []string
	searchJurisdiction []string
	searchMinRelevance float64
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed corpus",
	Long: `Runs the retrieval pipeline for one natural-language query.
Scoring combines semantic similarity with keyword, metadata, recency
and structural signals. Without a query embedding the search falls
back to keyword-only scoring.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchRecent, "recent", false, "prefer recently published documents")
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "restrict to document types (ley, decreto, ...)")
	searchCmd.Flags().StringSliceVar(&searchJurisdiction, "jurisdiction", nil, "restrict to jurisdictions")
	searchCmd.Flags().Float64Var(&searchMinRelevance, "min-relevance", 0, "minimum combined score in [0,1]")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit:        searchLimit,
		Offset:       searchOffset,
		PreferRecent: searchRecent,
	}
	if len(searchTypes) > 0 || len(searchJurisdiction) > 0 || searchMinRelevance > 0 {
		opts.Filters = &domain.Filters{
			DocumentTypes: searchTypes,
			Jurisdictions: searchJurisdiction,
			MinRelevance:  searchMinRelevance,
		}
	}

	page, err := searchService.Search(context.Background(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, page)
	}

	return outputSearchTable(cmd, page)
}

func outputSearchJSON(cmd *cobra.Command, page *domain.ResultPage) error {
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, page *domain.ResultPage) error {
	if len(page.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	if page.KeywordOnly {
		cmd.Println("(keyword-only: no query embedding available)")
	}
	cmd.Println("Results:")
	cmd.Println()
	for i, r := range page.Results {
		title := r.Document.Meta.Title
		if title == "" {
			title = r.Document.ID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", page.Pagination.Offset+i+1, title, r.Score)
		cmd.Printf("      %s, passage %d\n", r.Document.ID, r.Passage.Position)
		if snippet := snippetOf(r.Passage.Content); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		if r.Explanation != "" {
			cmd.Printf("      %s\n", r.Explanation)
		}
		cmd.Println()
	}

	shown := page.Pagination.Offset + len(page.Results)
	cmd.Printf("Showing %d of %d results (%dms)\n",
		shown, page.TotalCount, page.ProcessingTimeMs)
	if len(page.Query.Expanded) > 0 {
		cmd.Printf("Matched against: %s\n", strings.Join(page.Query.Expanded, ", "))
	}

	return nil
}

// snippetOf trims a passage to one display line.
func snippetOf(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	const max = 120
	if len(content) <= max {
		return content
	}
	cut := strings.LastIndex(content[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return content[:cut] + "..."
}
