package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.ConversationTurn
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		turns: make(map[string][]domain.ConversationTurn),
	}
}

// AppendTurn appends a turn, assigning the next index in its session.
func (s *ConversationStore) AppendTurn(_ context.Context, turn *domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn.Index = len(s.turns[turn.SessionID])
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], *turn)
	return nil
}

// ListTurns returns all turns for a session in insertion order.
func (s *ConversationStore) ListTurns(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[sessionID]
	result := make([]domain.ConversationTurn, len(turns))
	copy(result, turns)
	return result, nil
}
