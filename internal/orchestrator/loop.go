// Package orchestrator drives one user turn: it alternates model calls and
// tool executions under an iteration budget, streaming protocol events to
// the client as it goes.
package orchestrator

import (
	"context"
	"encoding/json"
	"log"

	"appforge/internal/domain"
	"appforge/internal/executor"
	"appforge/internal/provider"
	"appforge/internal/registry"
	"appforge/internal/stream"
)

const (
	DefaultSimpleBudget  = 15
	DefaultComplexBudget = 30
)

// Sink receives each protocol event in emission order. It returns an error
// once the client is gone; the loop stops emitting from then on.
type Sink func(stream.Event) error

// ToolExecutor is the slice of the executor the loop needs. Execute never
// fails at the Go level; failures live inside the result payload.
type ToolExecutor interface {
	Execute(ctx context.Context, req domain.ToolCallRequest, execCtx executor.Context) domain.ToolResult
}

type Options struct {
	SimpleBudget  int
	ComplexBudget int
}

type Loop struct {
	model provider.ModelProvider
	tools ToolExecutor
	opts  Options
}

func New(model provider.ModelProvider, tools ToolExecutor, opts Options) *Loop {
	if opts.SimpleBudget <= 0 {
		opts.SimpleBudget = DefaultSimpleBudget
	}
	if opts.ComplexBudget <= 0 {
		opts.ComplexBudget = DefaultComplexBudget
	}
	return &Loop{model: model, tools: tools, opts: opts}
}

type Params struct {
	Conversation []domain.ConversationTurn
	Context      executor.Context
}

type Result struct {
	// NewTurns are the assistant and tool turns created during the run, in
	// order, ready to append to the persisted history.
	NewTurns  []domain.ConversationTurn
	Truncated bool
}

// Run executes one user turn. It terminates the stream with exactly one
// done event, preceded by an error event when the model call itself failed.
// A canceled ctx means the client dropped the connection: the loop stops
// without attempting further writes.
func (l *Loop) Run(ctx context.Context, params Params, emit Sink) (Result, error) {
	budget := l.budgetFor(params.Conversation)
	conversation := make([]domain.ConversationTurn, len(params.Conversation))
	copy(conversation, params.Conversation)

	result := Result{}
	clientGone := false
	send := func(evt stream.Event) {
		if clientGone || ctx.Err() != nil {
			return
		}
		if err := emit(evt); err != nil {
			clientGone = true
		}
	}

	for iteration := 1; ; iteration++ {
		if iteration > budget {
			// budget exhaustion is a signaled early stop, not an error
			result.Truncated = true
			send(stream.StatusEvent("truncated", "stopping early: iteration budget reached before the task finished"))
			break
		}

		send(stream.ThinkingStartEvent())
		sawDelta := false
		handler := provider.StreamHandler{
			OnTextDelta: func(delta string) {
				if !sawDelta {
					sawDelta = true
					send(stream.ThinkingEndEvent())
				}
				send(stream.TextEvent(delta))
			},
			OnToolCallPreview: func(id, name string) {
				if !sawDelta {
					sawDelta = true
					send(stream.ThinkingEndEvent())
				}
				send(stream.ToolCallPreviewEvent(id, name, nil))
			},
			OnToolCallBuilding: func(id, name string, argsLength int) {
				send(stream.ToolCallBuildingEvent(id, name, nil, argsLength))
			},
		}

		turn, err := l.model.GenerateTurnStream(ctx, conversation, registry.Definitions(), handler)
		if err != nil {
			if ctx.Err() != nil {
				// client abort: the pipe is gone, emit nothing further
				return result, ctx.Err()
			}
			send(stream.ErrorEvent(err.Error(), provider.Recoverable(err)))
			send(stream.DoneEvent())
			return result, err
		}
		if !sawDelta {
			send(stream.ThinkingEndEvent())
			if turn.Text != "" {
				send(stream.TextEvent(turn.Text))
			}
		}

		assistant := domain.ConversationTurn{
			Role:      domain.RoleAssistant,
			Content:   turn.Text,
			ToolCalls: toRequests(turn.ToolCalls),
		}
		conversation = append(conversation, assistant)
		result.NewTurns = append(result.NewTurns, assistant)

		if len(turn.ToolCalls) == 0 {
			send(stream.DoneEvent())
			return result, nil
		}

		// tools run strictly in emission order; later calls may depend on
		// earlier writes
		for _, call := range assistant.ToolCalls {
			// once the client aborts, calls not yet started are skipped;
			// only a call already in flight runs to completion
			if ctx.Err() != nil {
				break
			}
			send(stream.ToolCallStartEvent(call.ID, call.Name, call.Arguments))
			// a call already in flight when the client aborts still runs to
			// completion so the store is never left half-written; its result
			// is simply discarded from the stream
			toolResult := l.tools.Execute(context.WithoutCancel(ctx), call, params.Context)
			toolTurn := toolResultTurn(toolResult)
			conversation = append(conversation, toolTurn)
			result.NewTurns = append(result.NewTurns, toolTurn)

			if toolResult.Success() {
				send(stream.ToolCallCompleteEvent(call.ID, toolResult.Content))
			} else {
				message, _ := toolResult.Content["error"].(string)
				send(stream.ToolCallErrorEvent(call.ID, message))
			}
		}

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	send(stream.DoneEvent())
	return result, nil
}

func (l *Loop) budgetFor(conversation []domain.ConversationTurn) int {
	message := latestUserMessage(conversation)
	if ClassifyComplexity(message) == ComplexityComplex {
		return l.opts.ComplexBudget
	}
	return l.opts.SimpleBudget
}

func latestUserMessage(conversation []domain.ConversationTurn) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == domain.RoleUser {
			return conversation[i].Content
		}
	}
	return ""
}

func toRequests(calls []provider.ToolCall) []domain.ToolCallRequest {
	if len(calls) == 0 {
		return nil
	}
	out := make([]domain.ToolCallRequest, 0, len(calls))
	for _, call := range calls {
		out = append(out, domain.ToolCallRequest{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	return out
}

func toolResultTurn(result domain.ToolResult) domain.ConversationTurn {
	content, err := json.Marshal(result.Content)
	if err != nil {
		log.Printf("tool result serialization failed: tool=%s call=%s err=%v", result.Name, result.ToolCallID, err)
		content = []byte(`{"success":false,"error":"Failed to serialize tool result"}`)
	}
	return domain.ConversationTurn{
		Role:       domain.RoleTool,
		Content:    string(content),
		ToolCallID: result.ToolCallID,
	}
}
