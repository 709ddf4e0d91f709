package provider

import (
	"context"
	"strings"
	"sync"

	"appforge/internal/domain"
	"appforge/internal/registry"
)

// Scripted replays a fixed sequence of turns. It backs demo mode when no
// provider is configured and is the model stand-in for loop tests. Once the
// script is exhausted it echoes the latest user message.
type Scripted struct {
	mu    sync.Mutex
	turns []TurnResult
	next  int
}

func NewScripted(turns ...TurnResult) *Scripted {
	return &Scripted{turns: turns}
}

func (p *Scripted) Name() string {
	return "scripted"
}

func (p *Scripted) GenerateTurn(_ context.Context, conversation []domain.ConversationTurn, _ []registry.ToolDefinition) (TurnResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next < len(p.turns) {
		turn := p.turns[p.next]
		p.next++
		return turn, nil
	}
	return TurnResult{Text: echoReply(conversation)}, nil
}

func (p *Scripted) GenerateTurnStream(ctx context.Context, conversation []domain.ConversationTurn, tools []registry.ToolDefinition, handler StreamHandler) (TurnResult, error) {
	turn, err := p.GenerateTurn(ctx, conversation, tools)
	if err != nil {
		return TurnResult{}, err
	}
	if handler.OnTextDelta != nil && turn.Text != "" {
		handler.OnTextDelta(turn.Text)
	}
	for _, call := range turn.ToolCalls {
		if handler.OnToolCallPreview != nil {
			handler.OnToolCallPreview(call.ID, call.Name)
		}
	}
	return turn, nil
}

func echoReply(conversation []domain.ConversationTurn) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == domain.RoleUser && strings.TrimSpace(conversation[i].Content) != "" {
			return "Echo: " + strings.TrimSpace(conversation[i].Content)
		}
	}
	return "Echo: (empty input)"
}
