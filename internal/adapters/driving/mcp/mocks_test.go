package mcp

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievedChunk
	err     error
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ string,
	_ domain.RetrievalOptions,
) ([]domain.RetrievedChunk, error) {
	return m.results, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	response *domain.ChatResponse
	turns    []domain.ConversationTurn
	err      error
}

func (m *mockChatService) Respond(_ context.Context, _, _ string) (*domain.ChatResponse, error) {
	return m.response, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.ConversationTurn, error) {
	return m.turns, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report    *domain.Report
	err       error
	lastImage []byte
	lastMeta  domain.UploadMetadata
}

func (m *mockIngestService) Ingest(_ context.Context, image []byte, meta domain.UploadMetadata) (*domain.Report, error) {
	m.lastImage = image
	m.lastMeta = meta
	return m.report, m.err
}

func (m *mockIngestService) Resume(_ context.Context, _ string) (*domain.Report, error) {
	return m.report, m.err
}

// mockReportService is a mock implementation of driving.ReportService.
type mockReportService struct {
	reports []domain.Report
	report  *domain.Report
	image   []byte
	err     error
}

func (m *mockReportService) Get(_ context.Context, _ string) (*domain.Report, error) {
	return m.report, m.err
}

func (m *mockReportService) List(_ context.Context, _ string) ([]domain.Report, error) {
	return m.reports, m.err
}

func (m *mockReportService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockReportService) Image(_ context.Context, _ string) ([]byte, error) {
	return m.image, m.err
}
