package driving

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// RetrievalService ranks stored report chunks by similarity to a query.
type RetrievalService interface {
	// Retrieve embeds the query and returns the top-k most similar chunks
	// of persisted reports, highest score first. The same query against an
	// unchanged repository returns the same ordered results.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.RetrievedChunk, error)
}
