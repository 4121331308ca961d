package driving

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// ChatService answers user messages grounded in stored reports.
type ChatService interface {
	// Respond retrieves relevant chunks for the message, assembles a
	// prompt with the session's recent history, invokes the generation
	// adapter and appends the turn to the session log. Concurrent calls
	// for the same session are serialized.
	Respond(ctx context.Context, sessionID, userMessage string) (*domain.ChatResponse, error)

	// History returns the session's turns in insertion order.
	History(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
}
