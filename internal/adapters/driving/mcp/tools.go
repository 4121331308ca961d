package mcp

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query          string  `json:"query" jsonschema:"the question or phrase to find report passages for"`
	Limit          int     `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	MinScore       float64 `json:"min_score,omitempty" jsonschema:"drop passages below this cosine similarity"`
	Classification string  `json:"classification,omitempty" jsonschema:"restrict to a document type, e.g. lab_report"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	ChunkID  string  `json:"chunk_id"`
	ReportID string  `json:"report_id"`
	Index    int     `json:"index"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// ChatInput is the input schema for the chat tool.
type ChatInput struct {
	SessionID string `json:"session_id" jsonschema:"conversation session to continue; any stable string"`
	Message   string `json:"message" jsonschema:"the user's question about their reports"`
}

// ChatOutput is the output schema for the chat tool.
type ChatOutput struct {
	Answer            string   `json:"answer"`
	Grounded          bool     `json:"grounded"`
	GroundingChunkIDs []string `json:"grounding_chunk_ids,omitempty"`
}

// IngestInput is the input schema for the ingest_report tool.
type IngestInput struct {
	Filename    string `json:"filename" jsonschema:"original file name of the scan"`
	ImageBase64 string `json:"image_base64" jsonschema:"the scan image, base64 encoded"`
	MimeType    string `json:"mime_type,omitempty" jsonschema:"content type; inferred from filename when empty"`
}

// IngestOutput is the output schema for the ingest_report tool.
type IngestOutput struct {
	ReportID       string `json:"report_id"`
	Classification string `json:"classification"`
	Status         string `json:"status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find passages from ingested medical reports relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chat",
		Description: "Ask a question answered from the user's ingested medical reports",
	}, s.handleChat)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_report",
		Description: "Ingest a scanned medical report image into the archive",
	}, s.handleIngest)
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	opts := domain.RetrievalOptions{
		TopK:     limit,
		MinScore: input.MinScore,
		Filter:   domain.ReportFilter{Classification: input.Classification},
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Passages: make([]PassageOutput, len(results)),
		Count:    len(results),
	}

	for i := range results {
		output.Passages[i] = PassageOutput{
			ChunkID:  results[i].Chunk.ID,
			ReportID: results[i].Chunk.ReportID,
			Index:    results[i].Chunk.Index,
			Score:    results[i].Score,
			Text:     results[i].Chunk.Text,
		}
	}

	return nil, output, nil
}

// handleChat handles the chat tool invocation.
func (s *Server) handleChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChatInput,
) (*mcp.CallToolResult, ChatOutput, error) {
	if s.ports.Chat == nil {
		return nil, ChatOutput{}, errors.New("chat service not configured")
	}

	resp, err := s.ports.Chat.Respond(ctx, input.SessionID, input.Message)
	if err != nil {
		return nil, ChatOutput{}, err
	}

	return nil, ChatOutput{
		Answer:            resp.Message,
		Grounded:          resp.Grounded,
		GroundingChunkIDs: resp.GroundingChunkIDs,
	}, nil
}

// handleIngest handles the ingest_report tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, errors.New("ingest service not configured")
	}

	image, err := base64.StdEncoding.DecodeString(input.ImageBase64)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	report, err := s.ports.Ingest.Ingest(ctx, image, domain.UploadMetadata{
		Filename: input.Filename,
		MimeType: input.MimeType,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		ReportID:       report.ID,
		Classification: report.Classification,
		Status:         string(report.Status),
	}, nil
}
