package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportchat-cli/internal/logger"
	"github.com/custodia-labs/reportchat-cli/internal/retry"
)

// Ensure ChatOrchestrator implements the interface.
var _ driving.ChatService = (*ChatOrchestrator)(nil)

// Chat defaults. The relevance threshold and window sizes are configuration
// choices, not values the adapters dictate.
const (
	DefaultChatTopK         = 5
	DefaultMinRelevance     = 0.25
	DefaultHistoryWindow    = 10
	DefaultMaxPromptChars   = 16000
	DefaultChatMaxTokens    = 1024
	sourceHeader            = "\n\nSource material:\n"
	ungroundedNotice        = "No stored report content was relevant to this question. Say so plainly and answer only with general information, clearly marked as such."
	defaultChatSystemPrompt = `You are a health advisor answering questions about the user's stored medical reports.

Ground every patient-specific statement in the source material below; never fabricate findings. Name the report a fact came from. Prefer final notes over preliminary ones and use absolute dates. If the source material does not cover the question, say so directly and suggest which report to upload. Plain language, concise answers.`
)

// ChatConfig tunes the orchestrator. Zero fields fall back to defaults.
type ChatConfig struct {
	// TopK is how many chunks to retrieve per turn.
	TopK int

	// MinRelevance is the similarity threshold below which a chunk does
	// not count as grounding.
	MinRelevance float64

	// HistoryWindow is the number of most recent prior turns included in
	// the prompt, oldest first.
	HistoryWindow int

	// MaxPromptChars bounds the assembled prompt. On overflow the oldest
	// history turns are dropped first, then the lowest-scoring chunks:
	// grounding content is deliberately preserved longer than chat history.
	MaxPromptChars int

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Temperature controls generation randomness.
	Temperature float64
}

func (c ChatConfig) withDefaults() ChatConfig {
	if c.TopK <= 0 {
		c.TopK = DefaultChatTopK
	}
	if c.MinRelevance <= 0 {
		c.MinRelevance = DefaultMinRelevance
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = DefaultMaxPromptChars
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultChatMaxTokens
	}
	return c
}

// ChatOrchestrator answers user messages grounded in stored reports. It
// retrieves relevant chunks, assembles a prompt with a bounded history
// window, invokes the generation adapter and appends the turn to the
// session's append-only log. Turns within one session are serialized;
// sessions are independent.
type ChatOrchestrator struct {
	retrieval     driving.RetrievalService
	reports       driven.ReportStore
	llm           driven.LLMService
	conversations driven.ConversationStore
	prompts       driven.PromptStore
	cfg           ChatConfig
	retry         retry.Policy

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// NewChatOrchestrator creates a chat orchestrator.
func NewChatOrchestrator(
	retrieval driving.RetrievalService,
	reports driven.ReportStore,
	llm driven.LLMService,
	conversations driven.ConversationStore,
	cfg ChatConfig,
) *ChatOrchestrator {
	return &ChatOrchestrator{
		retrieval:     retrieval,
		reports:       reports,
		llm:           llm,
		conversations: conversations,
		cfg:           cfg.withDefaults(),
		retry:         retry.Default(),
		sessions:      make(map[string]*sync.Mutex),
	}
}

// SetPromptStore sets the prompt store for customisable prompts.
func (o *ChatOrchestrator) SetPromptStore(store driven.PromptStore) {
	o.prompts = store
}

// SetRetryPolicy overrides the adapter retry policy.
func (o *ChatOrchestrator) SetRetryPolicy(policy retry.Policy) {
	o.retry = policy
}

// Respond produces one grounded chat turn.
func (o *ChatOrchestrator) Respond(ctx context.Context, sessionID, userMessage string) (*domain.ChatResponse, error) {
	userMessage = strings.TrimSpace(userMessage)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session ID", domain.ErrInvalidInput)
	}
	if userMessage == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	unlock := o.lockSession(sessionID)
	defer unlock()

	logger.Section("Chat Turn")
	logger.Debug("Session %s: %q", sessionID, userMessage)

	retrieved, err := o.retrieval.Retrieve(ctx, userMessage, domain.RetrievalOptions{
		TopK:     o.cfg.TopK,
		MinScore: o.cfg.MinRelevance,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	grounded := len(retrieved) > 0
	logger.Debug("Grounding chunks: %d (threshold %.2f)", len(retrieved), o.cfg.MinRelevance)

	history, err := o.conversations.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(history) > o.cfg.HistoryWindow {
		history = history[len(history)-o.cfg.HistoryWindow:]
	}

	// Render the source blocks up front so overflow trimming measures the
	// exact text the prompt will carry, labels included.
	system := o.systemPrompt()
	blocks := make([]string, len(retrieved))
	for i, rc := range retrieved {
		blocks[i] = fmt.Sprintf("\n[%s]\n%s\n", o.chunkLabel(ctx, rc.Chunk), rc.Chunk.Text)
	}

	history, retrieved, blocks = o.fitPrompt(system, history, retrieved, blocks, userMessage)
	// Overflow trimming can drop every chunk; the turn is then ungrounded.
	grounded = len(retrieved) > 0
	messages := o.assemble(system, blocks, history, userMessage, grounded)

	var answer string
	err = o.retry.Do(ctx, "generate answer", func(ctx context.Context) error {
		var err error
		answer, err = o.llm.Chat(ctx, messages, driven.ChatOptions{
			MaxTokens:   o.cfg.MaxTokens,
			Temperature: o.cfg.Temperature,
		})
		if err != nil {
			return domain.NewAdapterError("llm", domain.ErrGeneration, err)
		}
		return nil
	})
	if err != nil {
		// Never substitute a fabricated answer for a generation failure.
		return nil, fmt.Errorf("respond: %w", err)
	}

	chunkIDs := make([]string, len(retrieved))
	for i, rc := range retrieved {
		chunkIDs[i] = rc.Chunk.ID
	}

	turn := &domain.ConversationTurn{
		SessionID:         sessionID,
		UserMessage:       userMessage,
		AssistantMessage:  answer,
		GroundingChunkIDs: chunkIDs,
		Grounded:          grounded,
		CreatedAt:         time.Now().UTC(),
	}
	if err := o.conversations.AppendTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}

	return &domain.ChatResponse{
		Message:           answer,
		GroundingChunkIDs: chunkIDs,
		Grounded:          grounded,
	}, nil
}

// History returns the session's turns in insertion order.
func (o *ChatOrchestrator) History(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	return o.conversations.ListTurns(ctx, sessionID)
}

// systemPrompt returns the configured system prompt, or the embedded
// default when no override is set.
func (o *ChatOrchestrator) systemPrompt() string {
	if o.prompts != nil {
		if custom, err := o.prompts.Load(driven.PromptChatSystem); err == nil && custom != "" {
			return custom
		}
	}
	return defaultChatSystemPrompt
}

// fitPrompt shrinks the prompt until it fits the configured budget: oldest
// history turns go first, then the lowest-scoring chunks. Grounding content
// outlives chat history on purpose. The size is measured over the same
// strings assemble will emit, so the budget holds for the real prompt.
func (o *ChatOrchestrator) fitPrompt(
	system string,
	history []domain.ConversationTurn,
	retrieved []domain.RetrievedChunk,
	blocks []string,
	userMessage string,
) ([]domain.ConversationTurn, []domain.RetrievedChunk, []string) {
	size := func() int {
		n := len(system) + len(userMessage)
		if len(blocks) > 0 {
			n += len(sourceHeader)
		} else {
			n += len("\n\n") + len(ungroundedNotice)
		}
		for _, t := range history {
			n += len(t.UserMessage) + len(t.AssistantMessage)
		}
		for _, b := range blocks {
			n += len(b)
		}
		return n
	}

	for size() > o.cfg.MaxPromptChars && len(history) > 0 {
		history = history[1:]
	}
	// Retrieval results are ordered best first, so trimming the tail drops
	// the lowest-scoring chunk each time.
	for size() > o.cfg.MaxPromptChars && len(retrieved) > 0 {
		retrieved = retrieved[:len(retrieved)-1]
		blocks = blocks[:len(blocks)-1]
	}
	return history, retrieved, blocks
}

// assemble builds the chat message sequence: system prompt with labelled
// source material, the history window oldest first, then the new message.
func (o *ChatOrchestrator) assemble(
	system string,
	blocks []string,
	history []domain.ConversationTurn,
	userMessage string,
	grounded bool,
) []driven.ChatMessage {
	var sb strings.Builder
	sb.WriteString(system)
	if grounded && len(blocks) > 0 {
		sb.WriteString(sourceHeader)
		for _, b := range blocks {
			sb.WriteString(b)
		}
	} else {
		sb.WriteString("\n\n")
		sb.WriteString(ungroundedNotice)
	}

	messages := make([]driven.ChatMessage, 0, 2*len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: "system", Content: sb.String()})
	for _, t := range history {
		messages = append(messages,
			driven.ChatMessage{Role: "user", Content: t.UserMessage},
			driven.ChatMessage{Role: "assistant", Content: t.AssistantMessage},
		)
	}
	return append(messages, driven.ChatMessage{Role: "user", Content: userMessage})
}

// chunkLabel names a chunk's source report for the prompt. Falls back to
// the bare report ID when the record cannot be loaded.
func (o *ChatOrchestrator) chunkLabel(ctx context.Context, chunk domain.Chunk) string {
	report, err := o.reports.GetReport(ctx, chunk.ReportID)
	if err != nil {
		return fmt.Sprintf("report %s, part %d", chunk.ReportID, chunk.Index+1)
	}
	return fmt.Sprintf("%s (%s), part %d", report.Filename, report.Classification, chunk.Index+1)
}

// lockSession serializes turns within one session. The per-session mutex is
// never removed; sessions are few and small.
func (o *ChatOrchestrator) lockSession(sessionID string) func() {
	o.mu.Lock()
	m, ok := o.sessions[sessionID]
	if !ok {
		m = &sync.Mutex{}
		o.sessions[sessionID] = m
	}
	o.mu.Unlock()

	m.Lock()
	return m.Unlock
}
