package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

type stubLLM struct {
	answer     string
	err        error
	lastPrompt string
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	s.lastPrompt = prompt
	return s.answer, s.err
}

func (s *stubLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "", errors.New("not used")
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

func TestClassify_ValidLabel(t *testing.T) {
	llm := &stubLLM{answer: "lab_report"}
	classifier := NewClassifierService(llm)

	label, err := classifier.Classify(context.Background(), "Haemoglobin 13.2 g/dL")
	require.NoError(t, err)
	assert.Equal(t, domain.LabelLabReport, label)

	// The prompt carries the taxonomy and the report text.
	assert.Contains(t, llm.lastPrompt, domain.LabelDischargeSummary)
	assert.Contains(t, llm.lastPrompt, "Haemoglobin")
}

func TestClassify_NormalisesModelOutput(t *testing.T) {
	cases := map[string]string{
		"Lab Report":          domain.LabelLabReport,
		" imaging-report.\n":  domain.LabelImagingReport,
		`"discharge_summary"`: domain.LabelDischargeSummary,
		"OTHER":               domain.LabelOther,
	}
	for answer, want := range cases {
		classifier := NewClassifierService(&stubLLM{answer: answer})
		label, err := classifier.Classify(context.Background(), "some text")
		require.NoError(t, err, "answer %q", answer)
		assert.Equal(t, want, label)
	}
}

func TestClassify_RejectsUnknownLabel(t *testing.T) {
	classifier := NewClassifierService(&stubLLM{answer: "horoscope"})
	_, err := classifier.Classify(context.Background(), "some text")
	assert.Error(t, err)
}

func TestClassify_RejectsEmptyText(t *testing.T) {
	classifier := NewClassifierService(&stubLLM{answer: "other"})
	_, err := classifier.Classify(context.Background(), "   ")
	assert.Error(t, err)
}

func TestClassify_TruncatesLongText(t *testing.T) {
	llm := &stubLLM{answer: "other"}
	classifier := NewClassifierService(llm)

	_, err := classifier.Classify(context.Background(), strings.Repeat("a", 10000))
	require.NoError(t, err)
	assert.Less(t, len(llm.lastPrompt), 6000)
}

func TestClassify_LLMErrorSurfaces(t *testing.T) {
	classifier := NewClassifierService(&stubLLM{err: errors.New("down")})
	_, err := classifier.Classify(context.Background(), "text")
	assert.Error(t, err)
}
