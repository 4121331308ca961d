package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input (empty query,
	// top-k below 1, bad chunking configuration). Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestInProgress indicates an ingestion is already running for the
	// report ID. A second concurrent run would duplicate chunk rows.
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrConsistency indicates a repository invariant was violated, e.g. a
	// gap in chunk indices. Fatal; the ingestion is marked failed.
	ErrConsistency = errors.New("consistency violation")

	// Adapter failure kinds. Each maps to the pipeline stage that surfaces
	// it. All are transient in the sense of the retry policy.

	// ErrStorageUnavailable indicates the blob store failed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrExtraction indicates the OCR adapter returned empty or garbled
	// output, or failed outright.
	ErrExtraction = errors.New("text extraction failed")

	// ErrClassification indicates the classifier adapter failed or returned
	// a label outside the taxonomy.
	ErrClassification = errors.New("classification failed")

	// ErrEmbedding indicates the embedding adapter failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the generation adapter failed. The chat
	// orchestrator surfaces this instead of fabricating an answer.
	ErrGeneration = errors.New("generation failed")
)

// AdapterError wraps a failure of an external adapter call. It records which
// adapter failed and marks the error as transient for the retry policy.
type AdapterError struct {
	// Adapter names the external collaborator, e.g. "ocr" or "embedding".
	Adapter string

	// Kind is the matching sentinel (ErrExtraction, ErrEmbedding, ...).
	Kind error

	// Err is the underlying failure.
	Err error
}

// NewAdapterError builds an AdapterError for the named adapter.
func NewAdapterError(adapter string, kind, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Kind: kind, Err: err}
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %v: %v", e.Adapter, e.Kind, e.Err)
}

// Unwrap exposes both the sentinel kind and the underlying error to
// errors.Is/As chains.
func (e *AdapterError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsTransient reports whether err may be retried with backoff. Validation
// and consistency failures are never transient.
func IsTransient(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}
