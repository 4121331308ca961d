package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for reportchat resources.
	uriScheme = "reportchat://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing reports.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "reports",
		Name:        "reports",
		Description: "List of all ingested medical reports",
		MIMEType:    "application/json",
	}, s.handleReportsResource)

	// Template for report transcriptions.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "reports/{reportId}",
		Name:        "report-text",
		Description: "Transcribed text of a specific report",
		MIMEType:    "text/plain",
	}, s.handleReportTextResource)
}

// handleReportsResource returns a list of all ingested reports.
func (s *Server) handleReportsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Report == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	reports, err := s.ports.Report.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	// Build simplified report list.
	type reportInfo struct {
		ID             string `json:"id"`
		Filename       string `json:"filename"`
		Classification string `json:"classification"`
		Status         string `json:"status"`
		CreatedAt      string `json:"created_at"`
	}

	infos := make([]reportInfo, len(reports))
	for i := range reports {
		infos[i] = reportInfo{
			ID:             reports[i].ID,
			Filename:       reports[i].Filename,
			Classification: reports[i].Classification,
			Status:         string(reports[i].Status),
			CreatedAt:      reports[i].CreatedAt.Format("2006-01-02"),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling reports: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleReportTextResource returns the transcribed text of a specific report.
func (s *Server) handleReportTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Report == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract reportId from URI: reportchat://reports/{reportId}
	reportID := extractReportID(req.Params.URI)
	if reportID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	report, err := s.ports.Report.Get(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     report.Text,
		}},
	}, nil
}

// extractReportID extracts the report ID from a URI like reportchat://reports/{reportId}.
func extractReportID(uri string) string {
	const prefix = uriScheme + "reports/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
