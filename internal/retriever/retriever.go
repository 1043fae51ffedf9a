// Package retriever implements the read path: classify a question's intent,
// embed it (or a fan-out of broadened variants), query the vector index and
// reduce the matches to a ranked, threshold-checked result.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"campus-rag/internal/config"
	"campus-rag/internal/entities"
	"campus-rag/internal/models"
)

// Embedder is the slice of the embedding adapter the retriever needs.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is the slice of the vector index port the retriever needs.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]models.Match, error)
}

// Retriever is stateless per call; all tunables are fixed at construction.
type Retriever struct {
	embedder    Embedder
	index       Index
	namespace   string
	threshold   float64
	relaxFactor float64
	extractor   entities.Extractor
}

func New(embedder Embedder, index Index, cfg *config.RAGConfig, extractor entities.Extractor) *Retriever {
	threshold := cfg.ScoreThreshold
	if threshold == 0 {
		threshold = config.DefaultScoreThreshold
	}
	relax := cfg.AggregationRelaxFactor
	if relax == 0 {
		relax = config.DefaultRelaxFactor
	}
	return &Retriever{
		embedder:    embedder,
		index:       index,
		namespace:   cfg.Namespace,
		threshold:   threshold,
		relaxFactor: relax,
		extractor:   extractor,
	}
}

// IsAggregationQuery reports whether a question asks for a collection of
// facts: it must contain a breadth keyword and an internship-domain keyword.
// Deterministic on purpose; no model in the loop.
func IsAggregationQuery(question string) bool {
	q := strings.ToLower(question)
	breadth := false
	for _, kw := range models.BreadthKeywords {
		if strings.Contains(q, kw) {
			breadth = true
			break
		}
	}
	if !breadth {
		return false
	}
	for _, kw := range models.DomainKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Retrieve answers the read path for one question.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) (*models.RetrievalResult, error) {
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	if IsAggregationQuery(question) {
		return r.retrieveAggregation(ctx, question, topK)
	}
	return r.retrieveSingle(ctx, question, topK)
}

func (r *Retriever) retrieveSingle(ctx context.Context, question string, topK int) (*models.RetrievalResult, error) {
	matches, err := r.queryOnce(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	result := &models.RetrievalResult{Matches: matches}
	if len(matches) == 0 {
		result.BelowThreshold = true
		return result, nil
	}
	result.TopScore = matches[0].Score
	result.BelowThreshold = float64(result.TopScore) < r.threshold
	log.Debug().Float32("top_score", result.TopScore).Bool("below_threshold", result.BelowThreshold).
		Int("matches", len(matches)).Msg("Single-query retrieval")
	return result, nil
}

// retrieveAggregation widens recall: a list-style question has no single
// best-matching chunk, so the original question is fanned out alongside a
// fixed set of broadened paraphrases, merged, deduplicated and re-ranked.
func (r *Retriever) retrieveAggregation(ctx context.Context, question string, topK int) (*models.RetrievalResult, error) {
	queries := append([]string{question}, models.FanOutQueries...)

	var merged []models.Match
	seen := make(map[string]bool)
	for _, q := range queries {
		matches, err := r.queryOnce(ctx, q, topK)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			merged = append(merged, m)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if max := 3 * topK; len(merged) > max {
		merged = merged[:max]
	}

	result := &models.RetrievalResult{Matches: merged, IsAggregation: true}
	if len(merged) == 0 {
		result.BelowThreshold = true
		return result, nil
	}
	result.TopScore = merged[0].Score
	// Aggregation trades precision for recall, so the acceptance bar drops.
	result.BelowThreshold = float64(result.TopScore) < r.threshold*r.relaxFactor

	if r.extractor != nil && !result.BelowThreshold {
		var texts []string
		for _, m := range merged {
			texts = append(texts, m.Metadata.Text)
		}
		result.Entities = r.extractor.Extract(strings.Join(texts, "\n"))
	}

	log.Debug().Float32("top_score", result.TopScore).Bool("below_threshold", result.BelowThreshold).
		Int("queries", len(queries)).Int("matches", len(merged)).Msg("Aggregation retrieval")
	return result, nil
}

func (r *Retriever) queryOnce(ctx context.Context, question string, topK int) ([]models.Match, error) {
	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	matches, err := r.index.Query(ctx, vector, topK, r.namespace)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return matches, nil
}
