// Package provider abstracts the chat-completion backend. The orchestration
// loop is written against ModelProvider, not any vendor schema; adapters
// translate the conversation and tool catalog into their wire format.
package provider

import (
	"context"
	"errors"
	"net"
	"strings"

	"appforge/internal/domain"
	"appforge/internal/registry"
)

const (
	ErrorCodeNotConfigured = "provider_not_configured"
	ErrorCodeRequestFailed = "provider_request_failed"
	ErrorCodeRateLimited   = "provider_rate_limited"
	ErrorCodeInvalidReply  = "provider_invalid_reply"
)

// Error carries the failure class the loop uses to decide whether a retry
// makes sense. Transient transport failures are recoverable; a malformed or
// unsupported reply is not.
type Error struct {
	Code        string
	Message     string
	Recoverable bool
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Recoverable reports whether retrying the model call could succeed.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.Recoverable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// ToolCall is one tool invocation parsed out of a model turn. Arguments are
// the fully decoded JSON object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// TurnResult is one complete model turn: plain text plus zero or more tool
// calls in the order the model emitted them.
type TurnResult struct {
	Text      string
	ToolCalls []ToolCall
}

// StreamHandler receives incremental visibility into a streaming turn. Any
// callback may be nil. Adapters that cannot expose incremental tool-call
// JSON simply never call the building hooks.
type StreamHandler struct {
	OnTextDelta        func(delta string)
	OnToolCallPreview  func(id, name string)
	OnToolCallBuilding func(id, name string, argsLength int)
}

// ModelProvider is the chat-completion capability the loop consumes.
type ModelProvider interface {
	Name() string
	GenerateTurn(ctx context.Context, conversation []domain.ConversationTurn, tools []registry.ToolDefinition) (TurnResult, error)
	GenerateTurnStream(ctx context.Context, conversation []domain.ConversationTurn, tools []registry.ToolDefinition, handler StreamHandler) (TurnResult, error)
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case domain.RoleSystem:
		return domain.RoleSystem
	case domain.RoleAssistant:
		return domain.RoleAssistant
	case domain.RoleTool:
		return domain.RoleTool
	default:
		return domain.RoleUser
	}
}
