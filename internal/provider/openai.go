package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"appforge/internal/domain"
	"appforge/internal/registry"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures one OpenAI-compatible endpoint.
type OpenAIConfig struct {
	Model     string
	APIKey    string
	BaseURL   string
	Headers   map[string]string
	TimeoutMS int
}

// OpenAI talks to any chat-completions-compatible endpoint with function
// tool calling, streamed or not.
type OpenAI struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

func NewOpenAI(cfg OpenAIConfig, httpClient *http.Client) *OpenAI {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAI{cfg: cfg, httpClient: httpClient}
}

func (p *OpenAI) Name() string {
	return "openai-compatible"
}

type openAIChatRequest struct {
	Model    string                 `json:"model"`
	Messages []openAIMessage        `json:"messages"`
	Tools    []openAIToolDefinition `json:"tools,omitempty"`
	Stream   bool                   `json:"stream,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    interface{}      `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

type openAIToolDefinition struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content   json.RawMessage  `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIChatStreamResponse struct {
	Choices []struct {
		Delta struct {
			Content   json.RawMessage        `json:"content"`
			ToolCalls []openAIStreamToolCall `json:"tool_calls,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
}

type openAIStreamToolCall struct {
	Index    int                `json:"index"`
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function openAIFunctionCall `json:"function"`
}

func (p *OpenAI) GenerateTurn(ctx context.Context, conversation []domain.ConversationTurn, tools []registry.ToolDefinition) (TurnResult, error) {
	body, err := p.encodeRequest(conversation, tools, false)
	if err != nil {
		return TurnResult{}, err
	}
	resp, err := p.doRequest(ctx, body, false)
	if err != nil {
		return TurnResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return TurnResult{}, &Error{Code: ErrorCodeRequestFailed, Message: "failed to read provider response", Recoverable: true, Err: err}
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		return TurnResult{}, err
	}

	var completion openAIChatResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return TurnResult{}, &Error{Code: ErrorCodeInvalidReply, Message: "provider response is not valid json", Err: err}
	}
	if len(completion.Choices) == 0 {
		return TurnResult{}, &Error{Code: ErrorCodeInvalidReply, Message: "provider response has no choices"}
	}
	message := completion.Choices[0].Message
	toolCalls, err := parseToolCalls(message.ToolCalls)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{
		Text:      strings.TrimSpace(extractContent(message.Content)),
		ToolCalls: toolCalls,
	}, nil
}

func (p *OpenAI) GenerateTurnStream(ctx context.Context, conversation []domain.ConversationTurn, tools []registry.ToolDefinition, handler StreamHandler) (TurnResult, error) {
	body, err := p.encodeRequest(conversation, tools, true)
	if err != nil {
		return TurnResult{}, err
	}
	resp, err := p.doRequest(ctx, body, true)
	if err != nil {
		return TurnResult{}, err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return TurnResult{}, err
	}

	var replyBuilder strings.Builder
	accumulated := map[int]*openAIToolCall{}
	announcedID := map[int]string{}

	processData := func(data string) error {
		if strings.EqualFold(strings.TrimSpace(data), "[DONE]") {
			return nil
		}
		var chunk openAIChatStreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("provider stream chunk is not valid json: %w", err)
		}
		for _, choice := range chunk.Choices {
			if delta := extractContent(choice.Delta.Content); delta != "" {
				replyBuilder.WriteString(delta)
				if handler.OnTextDelta != nil {
					handler.OnTextDelta(delta)
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				idx := tc.Index
				if idx < 0 {
					idx = 0
				}
				current, ok := accumulated[idx]
				if !ok {
					current = &openAIToolCall{}
					accumulated[idx] = current
				}
				if id := strings.TrimSpace(tc.ID); id != "" {
					current.ID = id
				}
				if name := strings.TrimSpace(tc.Function.Name); name != "" {
					current.Function.Name = name
				}
				if tc.Function.Arguments != "" {
					current.Function.Arguments += tc.Function.Arguments
				}
				if current.Function.Name == "" {
					continue
				}
				// if the real id arrives after a synthesized one, the preview
				// is re-announced so preview and start share one id
				if id := callID(current, idx); announcedID[idx] != id {
					announcedID[idx] = id
					if handler.OnToolCallPreview != nil {
						handler.OnToolCallPreview(id, current.Function.Name)
					}
				} else if tc.Function.Arguments != "" && handler.OnToolCallBuilding != nil {
					handler.OnToolCallBuilding(id, current.Function.Name, len(current.Function.Arguments))
				}
			}
		}
		return nil
	}

	if err := consumeSSE(resp.Body, processData); err != nil {
		return TurnResult{}, classifyStreamError(err)
	}

	indexes := make([]int, 0, len(accumulated))
	for idx := range accumulated {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	ordered := make([]openAIToolCall, 0, len(indexes))
	for _, idx := range indexes {
		if call := accumulated[idx]; call != nil {
			if call.ID == "" {
				call.ID = callID(call, idx)
			}
			ordered = append(ordered, *call)
		}
	}
	toolCalls, err := parseToolCalls(ordered)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{
		Text:      replyBuilder.String(),
		ToolCalls: toolCalls,
	}, nil
}

func callID(call *openAIToolCall, index int) string {
	if id := strings.TrimSpace(call.ID); id != "" {
		return id
	}
	return fmt.Sprintf("call_%d", index+1)
}

func (p *OpenAI) encodeRequest(conversation []domain.ConversationTurn, tools []registry.ToolDefinition, streaming bool) ([]byte, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, &Error{Code: ErrorCodeNotConfigured, Message: "provider api_key is required"}
	}
	if strings.TrimSpace(p.cfg.Model) == "" {
		return nil, &Error{Code: ErrorCodeNotConfigured, Message: "model is required for active provider"}
	}
	payload := openAIChatRequest{
		Model:    p.cfg.Model,
		Messages: toMessages(conversation),
		Tools:    toToolDefinitions(tools),
		Stream:   streaming,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Code: ErrorCodeRequestFailed, Message: "failed to encode provider request", Err: err}
	}
	return body, nil
}

func (p *OpenAI) doRequest(ctx context.Context, body []byte, streaming bool) (*http.Response, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(p.cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	requestCtx := ctx
	cancel := func() {}
	if p.cfg.TimeoutMS > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutMS)*time.Millisecond)
	}

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, &Error{Code: ErrorCodeRequestFailed, Message: "failed to create provider request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
	}
	for key, value := range p.cfg.Headers {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k == "" || v == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Code: ErrorCodeRequestFailed, Message: "provider request failed", Recoverable: true, Err: err}
	}
	// cancel must outlive the body read for streaming responses
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func classifyStatus(status int) error {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusTooManyRequests:
		return &Error{Code: ErrorCodeRateLimited, Message: "provider rate limited the request", Recoverable: true}
	case status >= http.StatusInternalServerError:
		return &Error{Code: ErrorCodeRequestFailed, Message: fmt.Sprintf("provider returned status %d", status), Recoverable: true}
	default:
		return &Error{Code: ErrorCodeRequestFailed, Message: fmt.Sprintf("provider returned status %d", status)}
	}
}

func classifyStreamError(err error) error {
	if Recoverable(err) {
		return &Error{Code: ErrorCodeRequestFailed, Message: "provider stream request failed", Recoverable: true, Err: err}
	}
	return &Error{Code: ErrorCodeInvalidReply, Message: "provider stream response is invalid", Err: err}
}

func toMessages(conversation []domain.ConversationTurn) []openAIMessage {
	out := make([]openAIMessage, 0, len(conversation))
	for _, turn := range conversation {
		role := normalizeRole(turn.Role)
		switch role {
		case domain.RoleAssistant:
			item := openAIMessage{Role: role}
			if content := strings.TrimSpace(turn.Content); content != "" {
				item.Content = content
			}
			for _, call := range turn.ToolCalls {
				args, _ := json.Marshal(call.Arguments)
				item.ToolCalls = append(item.ToolCalls, openAIToolCall{
					ID:   call.ID,
					Type: "function",
					Function: openAIFunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			if item.Content == nil && len(item.ToolCalls) == 0 {
				continue
			}
			out = append(out, item)
		case domain.RoleTool:
			out = append(out, openAIMessage{
				Role:       role,
				Content:    turn.Content,
				ToolCallID: turn.ToolCallID,
			})
		default:
			content := strings.TrimSpace(turn.Content)
			if content == "" {
				continue
			}
			out = append(out, openAIMessage{Role: role, Content: content})
		}
	}
	return out
}

func toToolDefinitions(tools []registry.ToolDefinition) []openAIToolDefinition {
	out := make([]openAIToolDefinition, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openAIToolDefinition{
			Type: "function",
			Function: openAIToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}

func parseToolCalls(in []openAIToolCall) ([]ToolCall, error) {
	if len(in) == 0 {
		return nil, nil
	}
	calls := make([]ToolCall, 0, len(in))
	for i, item := range in {
		name := strings.TrimSpace(item.Function.Name)
		if name == "" {
			return nil, &Error{Code: ErrorCodeInvalidReply, Message: fmt.Sprintf("provider tool call[%d] name is empty", i)}
		}
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = fmt.Sprintf("call_%d", i+1)
		}
		argumentsRaw := strings.TrimSpace(item.Function.Arguments)
		if argumentsRaw == "" {
			argumentsRaw = "{}"
		}
		var arguments map[string]interface{}
		if err := json.Unmarshal([]byte(argumentsRaw), &arguments); err != nil {
			return nil, &Error{
				Code:    ErrorCodeInvalidReply,
				Message: fmt.Sprintf("provider tool call %q has invalid arguments", name),
				Err:     err,
			}
		}
		if arguments == nil {
			arguments = map[string]interface{}{}
		}
		calls = append(calls, ToolCall{ID: id, Name: name, Arguments: arguments})
	}
	return calls, nil
}

func extractContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var builder strings.Builder
		for _, part := range parts {
			if part.Type == "" || part.Type == "text" {
				builder.WriteString(part.Text)
			}
		}
		return builder.String()
	}
	return ""
}

// consumeSSE walks a text/event-stream body, joining multi-line data blocks
// and invoking onData once per block.
func consumeSSE(reader io.Reader, onData func(string) error) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	dataLines := make([]string, 0, 4)
	flushBlock := func() error {
		if len(dataLines) == 0 {
			return nil
		}
		payload := strings.TrimSpace(strings.Join(dataLines, "\n"))
		dataLines = dataLines[:0]
		if payload == "" {
			return nil
		}
		return onData(payload)
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			if err := flushBlock(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flushBlock()
}
