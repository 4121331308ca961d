package domain

import (
	"fmt"
	"time"
)

// ReportStatus tracks a report's progress through the ingestion pipeline.
// The success path is Ingesting → OCRDone → Classified → Embedded → Persisted.
// Each failure status is terminal and records the stage that failed so the
// ingestion can be resumed from there.
type ReportStatus string

const (
	// StatusIngesting means the raw image has been accepted and stored.
	StatusIngesting ReportStatus = "ingesting"

	// StatusOCRDone means text extraction succeeded and the text is cached
	// on the record.
	StatusOCRDone ReportStatus = "ocr_done"

	// StatusClassified means a taxonomy label has been assigned.
	StatusClassified ReportStatus = "classified"

	// StatusEmbedded means all chunks have embedding vectors.
	StatusEmbedded ReportStatus = "embedded"

	// StatusPersisted is the terminal success state. Only chunks of
	// persisted reports are eligible for retrieval.
	StatusPersisted ReportStatus = "persisted"

	// StatusFailedOCR means the OCR adapter returned empty or low-confidence
	// text. No later stage ran.
	StatusFailedOCR ReportStatus = "failed_ocr"

	// StatusFailedClassification means the classifier adapter failed.
	StatusFailedClassification ReportStatus = "failed_classification"

	// StatusFailedEmbedding means the embedding adapter failed.
	StatusFailedEmbedding ReportStatus = "failed_embedding"

	// StatusFailedPersistence means the blob or metadata write failed.
	// Chunking and embedding are deterministic, so resuming is safe.
	StatusFailedPersistence ReportStatus = "failed_persistence"
)

// Failed reports whether the status is a terminal failure state.
func (s ReportStatus) Failed() bool {
	switch s {
	case StatusFailedOCR, StatusFailedClassification, StatusFailedEmbedding, StatusFailedPersistence:
		return true
	}
	return false
}

// Retrievable reports whether chunks of a report in this status may appear
// in retrieval results.
func (s ReportStatus) Retrievable() bool {
	return s == StatusPersisted
}

// Valid reports whether s is a known status value.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusIngesting, StatusOCRDone, StatusClassified, StatusEmbedded, StatusPersisted,
		StatusFailedOCR, StatusFailedClassification, StatusFailedEmbedding, StatusFailedPersistence:
		return true
	}
	return false
}

// Report is a scanned or photographed document that has been (or is being)
// ingested. The record is created when ingestion starts and mutated as each
// pipeline stage completes; it is never deleted implicitly.
type Report struct {
	// ID is the unique identifier, assigned at ingestion and immutable.
	ID string

	// BlobKey is the object-store reference for the raw image.
	BlobKey string

	// Filename is the original (or LLM-suggested) file name.
	Filename string

	// MimeType is the content type of the source image.
	MimeType string

	// SizeBytes is the size of the source image.
	SizeBytes int64

	// Text is the OCR-extracted text, normalised and cached after the OCR
	// stage. Chunk spans cover exactly this text.
	Text string

	// OCRConfidence is the extraction confidence reported by the adapter.
	OCRConfidence float64

	// Classification is the taxonomy label. Empty until classified.
	Classification string

	// Status is the pipeline processing status.
	Status ReportStatus

	// FailureReason holds the error message of the failing stage, if any.
	FailureReason string

	// CreatedAt is when ingestion started.
	CreatedAt time.Time

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time
}

// Chunk is a bounded slice of a report's text, the unit of embedding and
// retrieval. Indices within a report are contiguous from 0 and the spans
// cover the report text exactly (overlapping by the configured amount).
type Chunk struct {
	// ID is deterministic: "<report_id>:<index>". Retries of a failed
	// ingestion therefore upsert instead of duplicating rows.
	ID string

	// ReportID links to the parent report.
	ReportID string

	// Index is the ordinal position within the report, starting at 0.
	Index int

	// Text is the chunk's text span.
	Text string

	// Embedding is the vector representation, produced once and immutable.
	Embedding []float32
}

// ChunkID builds the deterministic chunk identifier for a report and index.
func ChunkID(reportID string, index int) string {
	return fmt.Sprintf("%s:%d", reportID, index)
}

// BlobKey builds the object-store key for a report's source image.
// Layout: reports/<report_id>/source/<filename>.
func BlobKey(reportID, filename string) string {
	return fmt.Sprintf("reports/%s/source/%s", reportID, filename)
}

// UploadMetadata describes the file being ingested, supplied by the caller.
type UploadMetadata struct {
	// Filename is the original file name, used in the blob key.
	Filename string

	// MimeType is the content type; inferred from the filename when empty.
	MimeType string
}

// ReportFilter narrows report or chunk queries.
type ReportFilter struct {
	// Classification restricts to reports with this taxonomy label.
	Classification string

	// ReportID restricts to a single report.
	ReportID string
}
