package driven

import "context"

// OCRService extracts text from a scanned or photographed report image.
//
// The engine itself is an external collaborator (vision-capable LLM, cloud
// OCR API). Implementations must be cancellable via the context; a timeout
// surfaces as the OCR stage's failure, never a hang.
type OCRService interface {
	// Extract returns the recognised text and a confidence in [0, 1].
	// Implementations handle multi-page inputs internally and return a
	// single text. Empty output is reported with confidence 0.
	Extract(ctx context.Context, image []byte, mimeType string) (text string, confidence float64, err error)

	// ModelName returns the name of the OCR engine or model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
