// Package ai provides factory functions for creating AI service adapters
// from configuration.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	llmclassifier "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/classifier/llm"
	ollamaembed "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/llm/openai"
	openaiocr "github.com/custodia-labs/reportchat-cli/internal/adapters/driven/ocr/openai"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config selects and configures the AI provider backing the pipeline.
type Config struct {
	// Provider is one of openai, anthropic, ollama.
	Provider string

	// APIKey authenticates against hosted providers.
	APIKey string

	// BaseURL overrides the provider endpoint (e.g. a proxy or a local
	// Ollama instance).
	BaseURL string

	// ChatModel is the generation model. Provider default when empty.
	ChatModel string

	// EmbeddingModel is the embedding model. Provider default when empty.
	EmbeddingModel string

	// OCRModel is the vision model used for transcription. Provider
	// default when empty.
	OCRModel string

	// OCRAPIKey authenticates the OCR provider when it differs from the
	// main provider (Anthropic setups still need an OpenAI-compatible
	// vision endpoint). Falls back to APIKey.
	OCRAPIKey string

	// Prompts supplies customisable prompt templates to the OCR and
	// classifier services. Optional; embedded defaults apply when nil.
	Prompts driven.PromptStore
}

// Services bundles the driven AI ports created from one Config.
type Services struct {
	Embedding  driven.EmbeddingService
	LLM        driven.LLMService
	OCR        driven.OCRService
	Classifier driven.ClassifierService
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
	if s.OCR != nil {
		s.OCR.Close()
	}
}

// NewServices creates the embedding, LLM, OCR and classifier services for
// the configured provider. The classifier is always LLM-backed.
func NewServices(cfg Config) (*Services, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}

	embedding, err := createEmbedding(provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}

	llm, err := createLLM(provider, cfg)
	if err != nil {
		embedding.Close()
		return nil, fmt.Errorf("llm service: %w", err)
	}

	ocr, err := createOCR(provider, cfg)
	if err != nil {
		embedding.Close()
		llm.Close()
		return nil, fmt.Errorf("ocr service: %w", err)
	}

	classifier := llmclassifier.NewClassifierService(llm)

	if cfg.Prompts != nil {
		ocr.SetPromptStore(cfg.Prompts)
		classifier.SetPromptStore(cfg.Prompts)
	}

	return &Services{
		Embedding:  embedding,
		LLM:        llm,
		OCR:        ocr,
		Classifier: classifier,
	}, nil
}

// Validate pings the embedding and LLM services so misconfiguration is
// reported before the pipeline runs.
func (s *Services) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.Embedding.Ping(ctx); err != nil {
		return fmt.Errorf("embedding provider unreachable: %w", err)
	}
	if err := s.LLM.Ping(ctx); err != nil {
		return fmt.Errorf("llm provider unreachable: %w", err)
	}
	return nil
}

func createEmbedding(provider string, cfg Config) (driven.EmbeddingService, error) {
	switch provider {
	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.EmbeddingModel,
		}), nil

	case ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.EmbeddingModel,
		})

	case ProviderAnthropic:
		// Anthropic has no embedding API; those setups use OpenAI
		// embeddings with the OCR key slot.
		apiKey := cfg.OCRAPIKey
		if apiKey == "" {
			apiKey = cfg.APIKey
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: apiKey,
			Model:  cfg.EmbeddingModel,
		})

	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func createLLM(provider string, cfg Config) (driven.LLMService, error) {
	switch provider {
	case ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.ChatModel,
		}), nil

	case ProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ChatModel,
		})

	case ProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ChatModel,
		})

	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func createOCR(provider string, cfg Config) (*openaiocr.OCRService, error) {
	apiKey := cfg.OCRAPIKey
	if apiKey == "" {
		apiKey = cfg.APIKey
	}

	switch provider {
	case ProviderOllama:
		// Ollama exposes an OpenAI-compatible endpoint under /v1.
		baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return openaiocr.NewOCRService(openaiocr.Config{
			APIKey:  "ollama",
			BaseURL: baseURL + "/v1",
			Model:   cfg.OCRModel,
		})

	case ProviderOpenAI:
		return openaiocr.NewOCRService(openaiocr.Config{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.OCRModel,
		})

	case ProviderAnthropic:
		// Transcription goes through the OpenAI vision API; Anthropic
		// setups provide a separate key via OCRAPIKey. The Anthropic
		// base URL does not apply here.
		return openaiocr.NewOCRService(openaiocr.Config{
			APIKey: apiKey,
			Model:  cfg.OCRModel,
		})

	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
