package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportchat-cli/internal/logger"
	"github.com/custodia-labs/reportchat-cli/internal/retry"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.RetrievalService = (*RetrievalEngine)(nil)

// RetrievalEngine ranks stored chunks by cosine similarity to a query.
// Only chunks of persisted reports are candidates; partially processed
// reports never surface. Retrieval is read-only and safe for unbounded
// concurrent callers.
type RetrievalEngine struct {
	reports  driven.ReportStore
	embedder driven.EmbeddingService
	retry    retry.Policy
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(reports driven.ReportStore, embedder driven.EmbeddingService) *RetrievalEngine {
	return &RetrievalEngine{
		reports:  reports,
		embedder: embedder,
		retry:    retry.Default(),
	}
}

// SetRetryPolicy overrides the adapter retry policy.
func (e *RetrievalEngine) SetRetryPolicy(policy retry.Policy) {
	e.retry = policy
}

// Retrieve embeds the query and returns the top-k most similar chunks,
// highest score first. Scores are cosine similarities in [-1, 1]. Ties are
// broken by report ID then chunk index, ascending, so the same query against
// an unchanged repository always returns the same sequence.
func (e *RetrievalEngine) Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if opts.TopK < 1 {
		return nil, fmt.Errorf("%w: top-k must be at least 1, got %d", domain.ErrInvalidInput, opts.TopK)
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q, top-k: %d", query, opts.TopK)

	var queryVec []float32
	err := e.retry.Do(ctx, "embed query", func(ctx context.Context) error {
		var err error
		queryVec, err = e.embedder.Embed(ctx, query)
		if err != nil {
			return domain.NewAdapterError("embedding", domain.ErrEmbedding, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	candidates, err := e.reports.ListRetrievableChunks(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	logger.Debug("Candidates: %d chunks", len(candidates))

	scored := make([]domain.RetrievedChunk, 0, len(candidates))
	for _, c := range candidates {
		score := CosineSimilarity(queryVec, c.Embedding)
		if score < opts.MinScore {
			continue
		}
		scored = append(scored, domain.RetrievedChunk{Chunk: c, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.ReportID != scored[j].Chunk.ReportID {
			return scored[i].Chunk.ReportID < scored[j].Chunk.ReportID
		}
		return scored[i].Chunk.Index < scored[j].Chunk.Index
	})

	if len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}
	logger.Info("Retrieved %d chunks", len(scored))
	return scored, nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value in [-1, 1]; mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
