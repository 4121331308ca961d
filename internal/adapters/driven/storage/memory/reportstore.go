// Package memory provides in-memory implementations of the storage ports,
// used in tests and available as a throwaway backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

// Ensure ReportStore implements the interface.
var _ driven.ReportStore = (*ReportStore)(nil)

// ReportStore is an in-memory implementation of driven.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]domain.Report
	chunks  map[string][]domain.Chunk
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[string]domain.Report),
		chunks:  make(map[string][]domain.Chunk),
	}
}

// SaveReport stores or updates a report record.
func (s *ReportStore) SaveReport(_ context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = *report
	return nil
}

// GetReport retrieves a report by ID.
func (s *ReportStore) GetReport(_ context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &report, nil
}

// ListReports returns reports matching the filter, newest first.
func (s *ReportStore) ListReports(_ context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Report
	for id := range s.reports {
		report := s.reports[id]
		if filter.ReportID != "" && report.ID != filter.ReportID {
			continue
		}
		if filter.Classification != "" && report.Classification != filter.Classification {
			continue
		}
		result = append(result, report)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteReport removes a report and its chunks.
func (s *ReportStore) DeleteReport(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, id)
	delete(s.chunks, id)
	return nil
}

// UpsertChunks replaces the chunk set for the chunks' report.
func (s *ReportStore) UpsertChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for i, chunk := range chunks {
		if chunk.Index != i || chunk.ReportID != chunks[0].ReportID {
			return fmt.Errorf("%w: chunk indices not contiguous", domain.ErrConsistency)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	s.chunks[chunks[0].ReportID] = stored
	return nil
}

// GetChunks retrieves all chunks for a report, ordered by index.
func (s *ReportStore) GetChunks(_ context.Context, reportID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[reportID]
	if !ok {
		return nil, nil
	}
	result := make([]domain.Chunk, len(chunks))
	copy(result, chunks)
	return result, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *ReportStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// ListRetrievableChunks returns chunks of persisted reports only.
func (s *ReportStore) ListRetrievableChunks(_ context.Context, filter domain.ReportFilter) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for reportID, chunks := range s.chunks {
		report, ok := s.reports[reportID]
		if !ok || !report.Status.Retrievable() {
			continue
		}
		if filter.ReportID != "" && reportID != filter.ReportID {
			continue
		}
		if filter.Classification != "" && report.Classification != filter.Classification {
			continue
		}
		result = append(result, chunks...)
	}
	return result, nil
}
