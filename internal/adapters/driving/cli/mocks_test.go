package cli

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

type mockRetrievalService struct {
	results  []domain.RetrievedChunk
	err      error
	lastOpts domain.RetrievalOptions
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, opts domain.RetrievalOptions) ([]domain.RetrievedChunk, error) {
	m.lastOpts = opts
	return m.results, m.err
}

type mockChatService struct {
	response    *domain.ChatResponse
	turns       []domain.ConversationTurn
	err         error
	lastSession string
	lastMessage string
}

func (m *mockChatService) Respond(_ context.Context, sessionID, message string) (*domain.ChatResponse, error) {
	m.lastSession = sessionID
	m.lastMessage = message
	return m.response, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.ConversationTurn, error) {
	return m.turns, m.err
}

type mockReportService struct {
	reports   []domain.Report
	report    *domain.Report
	image     []byte
	err       error
	deletedID string
}

func (m *mockReportService) Get(_ context.Context, _ string) (*domain.Report, error) {
	return m.report, m.err
}

func (m *mockReportService) List(_ context.Context, _ string) ([]domain.Report, error) {
	return m.reports, m.err
}

func (m *mockReportService) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *mockReportService) Image(_ context.Context, _ string) ([]byte, error) {
	return m.image, m.err
}

type mockIngestService struct {
	report   *domain.Report
	err      error
	lastMeta domain.UploadMetadata
}

func (m *mockIngestService) Ingest(_ context.Context, _ []byte, meta domain.UploadMetadata) (*domain.Report, error) {
	m.lastMeta = meta
	return m.report, m.err
}

func (m *mockIngestService) Resume(_ context.Context, _ string) (*domain.Report, error) {
	return m.report, m.err
}
