package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServices_OpenAI(t *testing.T) {
	svcs, err := NewServices(Config{
		Provider: ProviderOpenAI,
		APIKey:   "sk-test",
	})

	require.NoError(t, err)
	defer svcs.Close()

	assert.NotNil(t, svcs.Embedding)
	assert.NotNil(t, svcs.LLM)
	assert.NotNil(t, svcs.OCR)
	assert.NotNil(t, svcs.Classifier)
}

func TestNewServices_Ollama(t *testing.T) {
	svcs, err := NewServices(Config{
		Provider: ProviderOllama,
		BaseURL:  "http://localhost:11434",
	})

	require.NoError(t, err)
	defer svcs.Close()

	assert.NotNil(t, svcs.Embedding)
	assert.NotNil(t, svcs.LLM)
	assert.NotNil(t, svcs.OCR)
}

func TestNewServices_Anthropic(t *testing.T) {
	svcs, err := NewServices(Config{
		Provider:  ProviderAnthropic,
		APIKey:    "sk-ant-test",
		OCRAPIKey: "sk-openai-test",
	})

	require.NoError(t, err)
	defer svcs.Close()

	assert.NotNil(t, svcs.LLM)
	assert.NotNil(t, svcs.OCR)
}

func TestNewServices_DefaultsToOpenAI(t *testing.T) {
	svcs, err := NewServices(Config{APIKey: "sk-test"})

	require.NoError(t, err)
	defer svcs.Close()

	assert.NotNil(t, svcs.LLM)
}

func TestNewServices_UnknownProvider(t *testing.T) {
	svcs, err := NewServices(Config{Provider: "watson"})

	assert.Error(t, err)
	assert.Nil(t, svcs)
}

func TestNewServices_MissingKeyFails(t *testing.T) {
	// Hosted providers require an API key at construction time.
	svcs, err := NewServices(Config{Provider: ProviderOpenAI})

	assert.Error(t, err)
	assert.Nil(t, svcs)
}
