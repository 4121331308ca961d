package driven

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// ReportStore persists reports and their chunks.
// Backed by SQLite for metadata and vector storage.
//
// Writes for a single report are serialized by the store; writes across
// different reports may run concurrently. Reads are safe for unbounded
// concurrent callers.
type ReportStore interface {
	// SaveReport stores or updates a report record. The pipeline calls
	// this after every stage so cached stage outputs survive failures.
	SaveReport(ctx context.Context, report *domain.Report) error

	// GetReport retrieves a report by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetReport(ctx context.Context, id string) (*domain.Report, error)

	// ListReports returns reports matching the filter, newest first.
	// A zero filter returns all reports.
	ListReports(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error)

	// DeleteReport removes a report and its chunks.
	DeleteReport(ctx context.Context, id string) error

	// UpsertChunks stores chunks keyed by (report ID, chunk index) in a
	// single transaction, replacing any existing rows. Retries of a failed
	// persistence stage therefore never create duplicate chunks.
	// Returns domain.ErrConsistency if indices are not contiguous from 0.
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a report, ordered by index.
	GetChunks(ctx context.Context, reportID string) ([]domain.Chunk, error)

	// GetChunk retrieves a single chunk by its deterministic ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListRetrievableChunks returns the chunks of reports whose status is
	// persisted, optionally narrowed by the filter. Partially processed
	// reports never appear here.
	ListRetrievableChunks(ctx context.Context, filter domain.ReportFilter) ([]domain.Chunk, error)
}
