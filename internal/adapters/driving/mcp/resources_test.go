package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

func readRequest(uri string) *sdk.ReadResourceRequest {
	req := &sdk.ReadResourceRequest{}
	req.Params = &sdk.ReadResourceParams{URI: uri}
	return req
}

func TestServer_handleReportsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns report list as JSON", func(t *testing.T) {
		mockReport := &mockReportService{
			reports: []domain.Report{
				{
					ID:             "rep-1",
					Filename:       "labs.png",
					Classification: domain.LabelLabReport,
					Status:         domain.StatusPersisted,
					CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				},
			},
		}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Report: mockReport}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleReportsResource(ctx, readRequest(uriScheme+"reports"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "rep-1")
		assert.Contains(t, result.Contents[0].Text, "labs.png")
		assert.Contains(t, result.Contents[0].Text, "2026-03-01")
	})

	t.Run("nil report service returns empty list", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleReportsResource(ctx, readRequest(uriScheme+"reports"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("list error propagates", func(t *testing.T) {
		ports := &Ports{
			Retrieval: &mockRetrievalService{},
			Report:    &mockReportService{err: errors.New("db gone")},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleReportsResource(ctx, readRequest(uriScheme+"reports"))

		assert.Error(t, err)
	})
}

func TestServer_handleReportTextResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns transcription as text", func(t *testing.T) {
		mockReport := &mockReportService{
			report: &domain.Report{ID: "rep-1", Text: "Haemoglobin 13.2 g/dL"},
		}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Report: mockReport}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleReportTextResource(ctx, readRequest(uriScheme+"reports/rep-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "Haemoglobin 13.2 g/dL", result.Contents[0].Text)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}, Report: &mockReportService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleReportTextResource(ctx, readRequest("bogus://nope"))

		assert.Error(t, err)
	})
}

func TestExtractReportID(t *testing.T) {
	assert.Equal(t, "rep-1", extractReportID(uriScheme+"reports/rep-1"))
	assert.Equal(t, "", extractReportID(uriScheme+"reports/"))
	assert.Equal(t, "", extractReportID("http://example.com"))
}
