// Package embedding selects and validates the configured embedding
// provider. Providers live in the sub-packages; this package maps
// configuration onto one of them.
package embedding

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/lexsearch/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/lexsearch/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/lexsearch/internal/core/domain"
	"github.com/custodia-labs/lexsearch/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// FromConfig creates the embedding service named under the
// "embedding" configuration table. A missing API key yields
// domain.ErrEmbeddingUnavailable; callers degrade to keyword-only.
func FromConfig(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		}), nil

	case "openai":
		apiKey := cfg.GetString("embedding.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%w: no API key configured", domain.ErrEmbeddingUnavailable)
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// Validate pings the service with a short timeout. A nil service
// validates trivially.
func Validate(svc driven.EmbeddingService) error {
	if svc == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	return svc.Ping(ctx)
}
