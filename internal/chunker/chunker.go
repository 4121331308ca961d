// Package chunker provides the deterministic text chunking policy used by
// the ingestion pipeline.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// DefaultMaxLength is the default maximum number of characters per chunk.
const DefaultMaxLength = 3500

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// boundaryTolerance is the fraction of the maximum length a chunk must reach
// before a sentence break is accepted as the cut point. Cuts earlier than
// this fall back to a hard cut at the maximum length.
const boundaryTolerance = 0.6

// Splitter splits report text into chunks with a fixed maximum length and a
// configurable overlap. Splitting is a pure function of (text, max, overlap):
// the same input always yields the same chunk set, so a retried ingestion
// regenerates identical chunks.
type Splitter struct {
	maxLength int
	overlap   int
}

// New creates a Splitter. Overlap must be non-negative and strictly smaller
// than maxLength; anything else is a configuration error, rejected here so
// the pipeline can never loop on a pathological window.
func New(maxLength, overlap int) (*Splitter, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("%w: chunk max length must be positive, got %d", domain.ErrInvalidInput, maxLength)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", domain.ErrInvalidInput, overlap)
	}
	if overlap >= maxLength {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than max length %d", domain.ErrInvalidInput, overlap, maxLength)
	}
	return &Splitter{maxLength: maxLength, overlap: overlap}, nil
}

// MaxLength returns the configured maximum chunk length.
func (s *Splitter) MaxLength() int { return s.maxLength }

// Overlap returns the configured overlap length.
func (s *Splitter) Overlap() int { return s.overlap }

// Split produces the ordered chunk sequence for a report's text. Indices are
// contiguous from 0 and the spans cover the text exactly: each chunk starts
// overlap characters before the previous chunk's end (clamped to keep
// forward progress). Chunks carry no embeddings; the pipeline fills those in.
func (s *Splitter) Split(reportID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(text)/(s.maxLength-s.overlap)+1)

	start := 0
	for start < len(text) {
		end := s.cut(text, start)

		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(reportID, len(chunks)),
			ReportID: reportID,
			Index:    len(chunks),
			Text:     text[start:end],
		})

		if end == len(text) {
			break
		}

		next := end - s.overlap
		if next <= start {
			// The sentence cut produced a chunk shorter than the
			// overlap; skip the overlap for this pair rather than
			// re-emitting the same span.
			next = end
		}
		// Overlap is counted in bytes; round forward so the next chunk
		// never starts mid-rune.
		for next < end && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}

	return chunks
}

// cut returns the end offset for a chunk starting at start. It prefers the
// last sentence break inside the tolerance window and falls back to a hard
// cut at the maximum length.
func (s *Splitter) cut(text string, start int) int {
	end := start + s.maxLength
	if end >= len(text) {
		return len(text)
	}

	window := text[start:end]
	minCut := int(float64(s.maxLength) * boundaryTolerance)

	if idx := lastBreak(window); idx >= minCut {
		return start + idx
	}

	// Hard cut: back up to the previous rune boundary so a multi-byte
	// character is never split across chunks.
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == start {
		// A single rune wider than the maximum length; emit it whole
		// rather than stalling.
		_, n := utf8.DecodeRuneInString(text[start:])
		end = start + n
	}
	return end
}

// lastBreak finds the offset just past the last sentence or paragraph break
// in window, or -1 if there is none.
func lastBreak(window string) int {
	best := -1
	for _, sep := range []string{"\n\n", ". ", ".\n", "! ", "? "} {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			// Cut after the terminator itself, keeping trailing
			// whitespace with the next chunk's span boundary.
			if end := idx + len(sep); end > best {
				best = end
			}
		}
	}
	return best
}
