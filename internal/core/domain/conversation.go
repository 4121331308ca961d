package domain

import "time"

// ConversationTurn is one user message and the assistant's response, together
// with the chunks that grounded the response. Turns form an append-only log
// per session; Index is assigned by the store in insertion order.
type ConversationTurn struct {
	// SessionID identifies the conversation.
	SessionID string

	// Index is the turn's position in the session log, starting at 0.
	Index int

	// UserMessage is the user's message.
	UserMessage string

	// AssistantMessage is the generated response.
	AssistantMessage string

	// GroundingChunkIDs lists the chunks whose text was included in the
	// prompt that produced AssistantMessage, for auditability.
	GroundingChunkIDs []string

	// Grounded is false when no chunk scored above the relevance threshold
	// and the answer was produced without source material.
	Grounded bool

	// CreatedAt is when the turn was appended.
	CreatedAt time.Time
}

// ChatResponse is the result of one orchestrated chat turn.
type ChatResponse struct {
	// Message is the assistant's answer.
	Message string

	// GroundingChunkIDs are the chunks actually included in the prompt.
	GroundingChunkIDs []string

	// Grounded is false when the answer had no source material above the
	// relevance threshold.
	Grounded bool
}
