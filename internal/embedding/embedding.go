package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"docqna/internal/config"
	"docqna/internal/helper"
)

// Embedder wraps an OpenAI-compatible embeddings endpoint and pins the
// expected vector dimensionality.
type Embedder struct {
	impl       *embeddings.EmbedderImpl
	dimension  int
	maxRetries int
}

// NewEmbedder creates a new embedder
func NewEmbedder(cfg *config.EmbeddingConfig) (*Embedder, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %v", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %v", err)
	}
	return &Embedder{impl: impl, dimension: cfg.Dimension, maxRetries: cfg.MaxRetries}, nil
}

// EmbedQuery maps text to a fixed-length vector, retrying transient provider
// failures with backoff. A vector of unexpected dimensionality is terminal.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		vec, err := e.impl.EmbedQuery(ctx, text)
		if err == nil {
			if e.dimension > 0 && len(vec) != e.dimension {
				return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), e.dimension)
			}
			return vec, nil
		}
		lastErr = err
		if attempt < e.maxRetries {
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("embedding call failed, retrying")
			time.Sleep(helper.RetryDelay(attempt))
		}
	}
	return nil, fmt.Errorf("embedding provider: %w", lastErr)
}

// Dimension returns the configured vector size.
func (e *Embedder) Dimension() int { return e.dimension }
