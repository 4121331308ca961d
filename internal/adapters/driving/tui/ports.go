package tui

import (
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the chat UI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions grounded in ingested reports.
	Chat driving.ChatService

	// Report is used for the header line (report count). Optional.
	Report driving.ReportService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
