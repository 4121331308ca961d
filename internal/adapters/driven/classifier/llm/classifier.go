// Package llm provides a classifier service adapter that labels report text
// using whichever LLM service is configured.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

// Ensure ClassifierService implements the interface.
var _ driven.ClassifierService = (*ClassifierService)(nil)

// maxClassifyChars bounds the text sent to the model. The document type is
// almost always apparent from the opening of the report.
const maxClassifyChars = 4000

// defaultClassifyPrompt expects the label list and the report text.
const defaultClassifyPrompt = `Classify this medical report into exactly one of these categories:
%s

Respond with only the category name, nothing else.

Report text:
%s`

// ClassifierService labels extracted report text with a taxonomy category.
// The model's answer is normalised and checked against the taxonomy; an
// answer outside it is an error, never a new category.
type ClassifierService struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewClassifierService creates a classifier backed by the given LLM.
func NewClassifierService(llm driven.LLMService) *ClassifierService {
	return &ClassifierService{llm: llm}
}

// SetPromptStore sets the prompt store for customisable prompts.
func (s *ClassifierService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Classify returns the taxonomy label for the given report text.
func (s *ClassifierService) Classify(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("classifier: empty text")
	}
	if len(text) > maxClassifyChars {
		text = text[:maxClassifyChars]
	}

	template := defaultClassifyPrompt
	if s.prompts != nil {
		if custom, err := s.prompts.Load(driven.PromptClassify); err == nil && custom != "" {
			template = custom
		}
	}
	prompt := fmt.Sprintf(template, strings.Join(domain.ClassificationLabels(), "\n"), text)

	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   10,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("classifier: %w", err)
	}

	label := normaliseLabel(answer)
	if !domain.ValidLabel(label) {
		return "", fmt.Errorf("classifier: model returned %q, not a taxonomy label", strings.TrimSpace(answer))
	}
	return label, nil
}

// normaliseLabel maps model output onto the taxonomy's snake_case form,
// tolerating case, surrounding punctuation and spaces instead of underscores.
func normaliseLabel(answer string) string {
	label := strings.ToLower(strings.TrimSpace(answer))
	label = strings.Trim(label, `"'.,:`)
	label = strings.ReplaceAll(label, " ", "_")
	label = strings.ReplaceAll(label, "-", "_")
	return label
}

// ModelName returns the name of the underlying model.
func (s *ClassifierService) ModelName() string {
	return s.llm.ModelName()
}
