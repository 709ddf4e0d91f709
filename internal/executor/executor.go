// Package executor runs tool calls requested by the model against the file
// store and the web search provider. Execute never returns a Go error: every
// failure is folded into the ToolResult payload as {success:false, error}
// so the orchestration loop can feed it back to the model.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"appforge/internal/domain"
	"appforge/internal/filestore"
	"appforge/internal/registry"
	"appforge/internal/websearch"
)

const (
	codeInvalidPath      = "invalid_path"
	codeNotFound         = "not_found"
	codeAlreadyExists    = "already_exists"
	codeInvalidArguments = "invalid_arguments"
	codeStoreError       = "store_error"
	codeProviderError    = "provider_error"
	codeUnknownTool      = "unknown_tool"
)

// Context identifies whose project a tool call runs against.
type Context struct {
	ProjectID string
	UserID    string
}

// SearchProvider is the slice of the websearch client the executor needs.
type SearchProvider interface {
	Search(ctx context.Context, query string, numResults int) ([]websearch.SearchResult, error)
	CodeContext(ctx context.Context, query string, tokensNum int) (string, error)
	Crawl(ctx context.Context, url string, maxCharacters int) (websearch.Page, error)
}

type Executor struct {
	store    filestore.Store
	search   SearchProvider
	notifier filestore.Notifier
}

func New(store filestore.Store, search SearchProvider, notifier filestore.Notifier) *Executor {
	return &Executor{store: store, search: search, notifier: notifier}
}

// Execute dispatches one tool call. The returned result always carries the
// originating call id and tool name.
func (e *Executor) Execute(ctx context.Context, req domain.ToolCallRequest, execCtx Context) domain.ToolResult {
	args := req.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}

	var content map[string]interface{}
	switch req.Name {
	case registry.ToolListProjectFiles:
		content = e.listProjectFiles(ctx, execCtx)
	case registry.ToolReadFile:
		content = e.readFile(ctx, execCtx, args)
	case registry.ToolCreateFile:
		content = e.createFile(ctx, execCtx, args)
	case registry.ToolUpdateFile:
		content = e.updateFile(ctx, execCtx, args)
	case registry.ToolDeleteFile:
		content = e.deleteFile(ctx, execCtx, args)
	case registry.ToolSearchFiles:
		content = e.searchFiles(ctx, execCtx, args)
	case registry.ToolFindInFiles:
		content = e.findInFiles(ctx, execCtx, args)
	case registry.ToolWebSearch:
		content = e.webSearch(ctx, args)
	case registry.ToolGetCodeContext:
		content = e.getCodeContext(ctx, args)
	case registry.ToolCrawlURL:
		content = e.crawlURL(ctx, args)
	default:
		content = failure(codeUnknownTool, fmt.Sprintf("unknown tool %q", req.Name))
	}

	return domain.ToolResult{
		ToolCallID: req.ID,
		Name:       req.Name,
		Content:    ensureSerializable(content),
	}
}

func (e *Executor) notify(projectID string, file domain.ProjectFile, op string) {
	if e.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("file change notification panicked: project=%s path=%s op=%s err=%v", projectID, file.Path, op, r)
		}
	}()
	e.notifier.FileChanged(projectID, file, op)
}

func success(fields map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"success": true}
	for key, value := range fields {
		out[key] = value
	}
	return out
}

func failure(code, message string) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"code":    code,
		"error":   message,
	}
}

// ensureSerializable guards the transport against payloads json.Marshal
// cannot handle; a bad payload is replaced rather than propagated.
func ensureSerializable(content map[string]interface{}) map[string]interface{} {
	if content == nil {
		return failure(codeStoreError, "tool produced no result")
	}
	if _, err := json.Marshal(content); err != nil {
		return failure(codeStoreError, "Failed to serialize tool result")
	}
	return content
}

func stringArg(args map[string]interface{}, key string) string {
	value, _ := args[key].(string)
	return value
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	switch value := args[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case int64:
		return int(value)
	case json.Number:
		if parsed, err := value.Int64(); err == nil {
			return int(parsed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolArg(args map[string]interface{}, key string) bool {
	switch value := args[key].(type) {
	case bool:
		return value
	case string:
		trimmed := strings.TrimSpace(value)
		return strings.EqualFold(trimmed, "true") || trimmed == "1"
	case float64:
		return value != 0
	}
	return false
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if value, ok := entry.(string); ok && strings.TrimSpace(value) != "" {
			out = append(out, strings.TrimSpace(value))
		}
	}
	return out
}
