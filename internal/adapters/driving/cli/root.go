// Package cli implements the lexsearch command-line interface.
// Commands depend on the driving ports; concrete services are wired
// in Execute and can be swapped for tests.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexsearch/internal/adapters/driven/embedding"
	"github.com/custodia-labs/lexsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driving"
	"github.com/custodia-labs/lexsearch/internal/core/services"
	"github.com/custodia-labs/lexsearch/internal/logger"
	"github.com/custodia-labs/lexsearch/internal/retry"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var verbose bool

// Services used by the commands. Wired in initServices, swapped by tests.
var (
	searchService  driving.SearchService
	ingestService  driving.Ingestor
	changeDetector driving.ChangeDetector
	configStore    driven.ConfigStore
	store          *sqlite.Store
	embedder       driven.EmbeddingService
)

var rootCmd = &cobra.Command{
	Use:   "lexsearch",
	Short: "Passage retrieval over a legal corpus",
	Long: `lexsearch indexes legal documents as embedded passages and answers
natural-language queries with ranked passages. Retrieval combines
semantic similarity with keyword, metadata and recency signals, and
falls back to keyword-only scoring when no embedding provider is
configured.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
}

// Execute wires the services and runs the root command.
func Execute() error {
	// Optional; API keys may come from a .env file next to the binary.
	_ = godotenv.Load()

	if err := initServices(); err != nil {
		return err
	}
	defer closeServices()

	return rootCmd.Execute()
}

// initServices builds the production wiring: SQLite storage, TOML
// configuration and the configured embedding provider.
func initServices() error {
	cfg, err := file.NewConfigStore(os.Getenv("LEXSEARCH_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	configStore = cfg

	st, err := sqlite.NewStore(os.Getenv("LEXSEARCH_DATA_DIR"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	store = st

	embedder = buildEmbedder(cfg)
	policy := retry.DefaultPolicy()

	passages := st.PassageStore()
	vectors := st.VectorIndex()
	stats := st.CorpusStats()

	features := services.NewQueryFeatureService(stats, embedder, policy)
	searchService = services.NewRetrievalService(
		passages, vectors, stats, features, services.NewFilterService())

	ingestOpts := []services.IngestOption{services.WithRetryPolicy(policy)}
	if n := cfg.GetInt("ingest.workers"); n > 0 {
		ingestOpts = append(ingestOpts, services.WithEmbedWorkers(n))
	}
	if perSecond := cfg.GetFloat("ingest.rate_limit"); perSecond > 0 {
		ingestOpts = append(ingestOpts, services.WithRateLimit(perSecond))
	}
	ingestService = services.NewIngestService(passages, vectors, embedder, ingestOpts...)

	changeDetector = services.NewChangeService(st.SnapshotStore())

	return nil
}

func closeServices() {
	if embedder != nil {
		_ = embedder.Close()
	}
	if store != nil {
		_ = store.Close()
	}
}

// buildEmbedder constructs the configured embedding provider. A
// missing or unreachable provider is not fatal: ingestion stores
// passages without embeddings and retrieval stays keyword-only.
func buildEmbedder(cfg driven.ConfigStore) driven.EmbeddingService {
	svc, err := embedding.FromConfig(cfg)
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		logger.Warn("No embedding provider configured, retrieval is keyword-only")
		return nil
	}
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
		return nil
	}

	if err := embedding.Validate(svc); err != nil {
		logger.Warn("Embedding provider unreachable (%v), retrieval is keyword-only", err)
		_ = svc.Close()
		return nil
	}

	return svc
}
