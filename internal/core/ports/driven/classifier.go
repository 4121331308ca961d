package driven

import "context"

// ClassifierService maps report text to a label from the fixed taxonomy
// defined in the domain package (domain.ClassificationLabels).
//
// Implementations must only return valid labels; a label outside the
// taxonomy is a classification failure, not a new category.
type ClassifierService interface {
	// Classify returns the taxonomy label for the given report text.
	Classify(ctx context.Context, text string) (string, error)

	// ModelName returns the name of the classifier being used.
	ModelName() string
}
