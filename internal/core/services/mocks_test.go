package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportchat-cli/internal/retry"
)

// fastRetry keeps test runs quick: a single attempt, no backoff.
func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

// --- Mock implementations ---

// mockOCR implements driven.OCRService for testing.
type mockOCR struct {
	text       string
	confidence float64
	err        error
	calls      int
}

func (m *mockOCR) Extract(_ context.Context, _ []byte, _ string) (string, float64, error) {
	m.calls++
	if m.err != nil {
		return "", 0, m.err
	}
	return m.text, m.confidence, nil
}

func (m *mockOCR) ModelName() string { return "mock-ocr" }
func (m *mockOCR) Close() error      { return nil }

// mockClassifier implements driven.ClassifierService for testing.
type mockClassifier struct {
	label string
	err   error
	calls int
}

func (m *mockClassifier) Classify(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.label, nil
}

func (m *mockClassifier) ModelName() string { return "mock-classifier" }

// mockEmbedder implements driven.EmbeddingService for testing. By default it
// produces a deterministic vector per text so similarity ordering is stable;
// a vectors map overrides specific texts.
type mockEmbedder struct {
	vectors    map[string][]float32
	embedErr   error
	batchErr   error
	batchCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	// Cheap deterministic embedding: character histogram over 4 buckets.
	v := make([]float32, 4)
	for i, r := range text {
		v[(i+int(r))%4]++
	}
	return v
}

func (m *mockEmbedder) Dimensions() int              { return 4 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	generateText string
	generateErr  error
	lastPrompt   string
	chatText     string
	chatErr      error
	chatCalls    int
	lastMessages []driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.generateText, nil
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.chatCalls++
	m.lastMessages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.chatText, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("prompt %s not found", name)
}

func (m *mockPrompts) Reload() {}
