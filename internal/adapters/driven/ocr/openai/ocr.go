// Package openai provides an OCR service adapter backed by an OpenAI
// vision-capable model.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

// Ensure OCRService implements the interface.
var _ driven.OCRService = (*OCRService)(nil)

// Default configuration values.
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// defaultExtractPrompt instructs the vision model to transcribe, not
// interpret. Page breaks come back as form feeds so Extract can join them.
const defaultExtractPrompt = `Transcribe all text in this scanned medical report exactly as written.
Preserve the layout with line breaks. Do not summarise, interpret or omit anything.
If the document has multiple pages or columns, separate them with a form feed character.
If you cannot read a word, write [illegible]. Output only the transcription.`

// Config holds configuration for the OpenAI OCR service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL for compatible gateways.
	BaseURL string

	// Model is the vision model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// OCRService extracts text from report images via a vision model. The model
// reports no confidence of its own, so the adapter derives one from the
// output: the share of legible, printable content.
type OCRService struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
	prompts driven.PromptStore
}

// NewOCRService creates a new OpenAI OCR service.
func NewOCRService(cfg Config) (*OCRService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai ocr: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OCRService{
		client:  goopenai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// SetPromptStore sets the prompt store for customisable prompts.
func (s *OCRService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Extract transcribes the image and returns the text with a derived
// confidence in [0, 1]. Empty output is reported with confidence 0.
func (s *OCRService) Extract(ctx context.Context, image []byte, mimeType string) (string, float64, error) {
	if len(image) == 0 {
		return "", 0, fmt.Errorf("openai ocr: empty image")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := defaultExtractPrompt
	if s.prompts != nil {
		if custom, err := s.prompts.Load(driven.PromptOCRExtract); err == nil && custom != "" {
			prompt = custom
		}
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := s.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{
						Type: goopenai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: goopenai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("openai ocr: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("openai ocr: no response choices returned")
	}

	text := joinPages(resp.Choices[0].Message.Content)
	if strings.TrimSpace(text) == "" {
		return "", 0, nil
	}

	return text, confidence(text), nil
}

// joinPages replaces form-feed page markers with paragraph breaks so pages
// read as one continuous document.
func joinPages(text string) string {
	pages := strings.Split(text, "\f")
	trimmed := make([]string, 0, len(pages))
	for _, page := range pages {
		page = strings.TrimSpace(page)
		if page != "" {
			trimmed = append(trimmed, page)
		}
	}
	return strings.Join(trimmed, "\n\n")
}

// confidence estimates extraction quality from the transcription itself:
// the ratio of letters, digits and common punctuation to total runes,
// discounted by [illegible] markers.
func confidence(text string) float64 {
	var total, legible int
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) {
			legible++
		}
	}
	if total == 0 {
		return 0
	}
	score := float64(legible) / float64(total)

	illegible := strings.Count(text, "[illegible]")
	words := len(strings.Fields(text))
	if words > 0 && illegible > 0 {
		score *= 1 - float64(illegible)/float64(words)
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ModelName returns the name of the vision model being used.
func (s *OCRService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *OCRService) Close() error {
	return nil
}
