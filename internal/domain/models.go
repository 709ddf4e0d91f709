package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"

	FileTypeFile   = "file"
	FileTypeFolder = "folder"
)

type APIErrorBody struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ToolCallRequest is one structured tool invocation emitted by the model
// inside an assistant turn. ID correlates the eventual ToolResult back to
// this request; at most one result is produced per id.
type ToolCallRequest struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResult is always produced for an executed tool call, success or not.
// Failures live inside Content as {success:false, error:...}; they are never
// raised as transport errors.
type ToolResult struct {
	ToolCallID string                 `json:"tool_call_id"`
	Name       string                 `json:"name"`
	Content    map[string]interface{} `json:"content"`
}

func (r ToolResult) Success() bool {
	ok, _ := r.Content["success"].(bool)
	return ok
}

// ConversationTurn is one message in a project's chat. Insertion order is
// chronological order; the ordered sequence is the model's context window.
// Turns are never mutated after creation.
type ConversationTurn struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
}

// ProjectFile is the record owned by the file store. Paths are absolute with
// a leading "/" and unique within a project.
type ProjectFile struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Language  string `json:"language,omitempty"`
	Size      int    `json:"size"`
	UpdatedAt string `json:"updated_at"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat, the server entry point for one
// user turn.
type ChatRequest struct {
	Messages       []ChatMessage `json:"messages"`
	ProjectID      string        `json:"project_id"`
	UserID         string        `json:"user_id"`
	Attachments    []Attachment  `json:"attachments,omitempty"`
	MentionedFiles []string      `json:"mentioned_files,omitempty"`
	PlanMode       bool          `json:"plan_mode,omitempty"`
}

type Attachment struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content,omitempty"`
}
