// Package embedding wraps an OpenAI-compatible embedding endpoint behind a
// batched, order-preserving adapter.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"campus-rag/internal/config"
)

// Embedder produces one fixed-dimension vector per input text, order-aligned
// with the input. Batching is a cost concern only; callers must not assume
// atomicity across batches.
type Embedder struct {
	impl      *embeddings.EmbedderImpl
	batchSize int
}

// NewOpenAIEmbedder builds an embedder against the configured endpoint.
func NewOpenAIEmbedder(llmCfg *config.LLMConfig, batchSize int) (*Embedder, error) {
	if batchSize <= 0 {
		batchSize = config.DefaultEmbedBatchSize
	}

	llm, err := openai.New(
		openai.WithBaseURL(llmCfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmCfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(llmCfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init embedding client: %w", err)
	}

	impl, err := embeddings.NewEmbedder(llm,
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &Embedder{impl: impl, batchSize: batchSize}, nil
}

// BatchSize returns the number of texts sent per upstream call.
func (e *Embedder) BatchSize() int { return e.batchSize }

// EmbedDocuments embeds texts in order, one vector per input. Any upstream
// failure aborts the whole call; no partial result is returned.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(texts))
	}
	log.Debug().Int("texts", len(texts)).Int("dimension", len(vectors[0])).Msg("Embedded batch")
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}
