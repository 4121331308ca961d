package driving

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// ReportService provides report management operations.
type ReportService interface {
	// Get retrieves a report by ID.
	Get(ctx context.Context, id string) (*domain.Report, error)

	// List returns reports newest first, optionally filtered by
	// classification label.
	List(ctx context.Context, classification string) ([]domain.Report, error)

	// Delete removes the report record, its chunks and its stored image.
	// Deletion is always explicit; the pipeline never deletes reports.
	Delete(ctx context.Context, id string) error

	// Image fetches the raw source image for a report.
	Image(ctx context.Context, id string) ([]byte, error)
}
