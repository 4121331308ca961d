package mcp

import (
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval finds report passages relevant to a query.
	Retrieval driving.RetrievalService

	// Chat answers questions grounded in ingested reports.
	Chat driving.ChatService

	// Ingest runs the ingestion pipeline for new scans.
	Ingest driving.IngestService

	// Report manages ingested reports.
	Report driving.ReportService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Chat, Ingest and Report are optional; the matching tools and
	// resources are registered but answer with an error when unset.
	return nil
}
