// Package mcp provides an MCP (Model Context Protocol) server adapter for
// reportchat. It lets AI assistants query and converse over the user's
// ingested medical reports.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
