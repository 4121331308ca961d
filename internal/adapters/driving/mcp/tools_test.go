package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			results: []domain.RetrievedChunk{
				{
					Chunk: domain.Chunk{
						ID:       "rep-1:0",
						ReportID: "rep-1",
						Index:    0,
						Text:     "Haemoglobin 13.2 g/dL",
					},
					Score: 0.91,
				},
			},
		}

		ports := &Ports{Retrieval: mockRetrieval}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "haemoglobin", Limit: 5}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Passages, 1)
		assert.Equal(t, "rep-1:0", output.Passages[0].ChunkID)
		assert.Equal(t, "rep-1", output.Passages[0].ReportID)
		assert.Equal(t, 0.91, output.Passages[0].Score)
		assert.Equal(t, "Haemoglobin 13.2 g/dL", output.Passages[0].Text)
	})

	t.Run("zero limit defaults", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Query: "test", Limit: 0}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{err: errors.New("embed failed")}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embed failed")
	})
}

func TestServer_handleChat(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grounded answer", func(t *testing.T) {
		mockChat := &mockChatService{
			response: &domain.ChatResponse{
				Message:           "Your haemoglobin is 13.2 g/dL.",
				Grounded:          true,
				GroundingChunkIDs: []string{"rep-1:0"},
			},
		}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Chat: mockChat}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleChat(ctx, nil, ChatInput{SessionID: "s1", Message: "hb?"})

		require.NoError(t, err)
		assert.True(t, output.Grounded)
		assert.Equal(t, "Your haemoglobin is 13.2 g/dL.", output.Answer)
		assert.Equal(t, []string{"rep-1:0"}, output.GroundingChunkIDs)
	})

	t.Run("missing chat service", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleChat(ctx, nil, ChatInput{SessionID: "s1", Message: "hb?"})

		assert.Error(t, err)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes image and forwards metadata", func(t *testing.T) {
		mockIngest := &mockIngestService{
			report: &domain.Report{
				ID:             "rep-1",
				Classification: domain.LabelLabReport,
				Status:         domain.StatusPersisted,
			},
		}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Ingest: mockIngest}
		server, err := NewServer(ports)
		require.NoError(t, err)

		image := []byte{0x89, 'P', 'N', 'G'}
		input := IngestInput{
			Filename:    "labs.png",
			ImageBase64: base64.StdEncoding.EncodeToString(image),
		}

		_, output, err := server.handleIngest(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "rep-1", output.ReportID)
		assert.Equal(t, domain.LabelLabReport, output.Classification)
		assert.Equal(t, string(domain.StatusPersisted), output.Status)
		assert.Equal(t, image, mockIngest.lastImage)
		assert.Equal(t, "labs.png", mockIngest.lastMeta.Filename)
	})

	t.Run("invalid base64 is rejected", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}, Ingest: &mockIngestService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{
			Filename:    "labs.png",
			ImageBase64: "not base64!!!",
		})

		assert.Error(t, err)
	})

	t.Run("missing ingest service", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{Filename: "labs.png"})

		assert.Error(t, err)
	})
}
