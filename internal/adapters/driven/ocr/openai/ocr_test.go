package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinPages(t *testing.T) {
	in := "Page one text.\f\nPage two text.\f"
	assert.Equal(t, "Page one text.\n\nPage two text.", joinPages(in))

	assert.Equal(t, "no pages", joinPages("no pages"))
	assert.Equal(t, "", joinPages("\f\f"))
}

func TestConfidence(t *testing.T) {
	clean := "Haemoglobin 13.2 g/dL. White cell count within range."
	assert.Greater(t, confidence(clean), 0.9)

	garbled := strings.Repeat("\x01\x02", 50) + "ok"
	assert.Less(t, confidence(garbled), 0.5)

	assert.Zero(t, confidence(""))
}

func TestConfidence_IllegibleMarkersLowerScore(t *testing.T) {
	partial := "Result [illegible] mmol/L and [illegible] reading taken on Monday"
	full := "Result 5.4 mmol/L and glucose reading taken on Monday"
	assert.Less(t, confidence(partial), confidence(full))
}

func TestNewOCRService_RequiresAPIKey(t *testing.T) {
	_, err := NewOCRService(Config{})
	assert.Error(t, err)

	svc, err := NewOCRService(Config{APIKey: "sk-test"})
	assert.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}
