package driving

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// IngestService runs the ingestion pipeline for scanned report images.
type IngestService interface {
	// Ingest runs the full pipeline for a new report: store the image,
	// extract text, classify, chunk, embed, persist. The returned report
	// carries the terminal status; on a stage failure the report records
	// the failure and the error is returned alongside it.
	Ingest(ctx context.Context, image []byte, meta domain.UploadMetadata) (*domain.Report, error)

	// Resume restarts a failed ingestion at the first incomplete stage.
	// Completed stage outputs are reused from the report record, so OCR
	// and classification never run twice for the same input.
	Resume(ctx context.Context, reportID string) (*domain.Report, error)
}
