package driven

import (
	"context"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

// ConversationStore persists chat turns as an append-only log per session.
type ConversationStore interface {
	// AppendTurn appends a turn to its session's log. The store assigns
	// the next contiguous index; any value in turn.Index is ignored.
	AppendTurn(ctx context.Context, turn *domain.ConversationTurn) error

	// ListTurns returns all turns for a session in insertion order.
	// An unknown session returns an empty slice, not an error.
	ListTurns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
}
