// Package filestore holds project file records and per-project conversation
// history. The executor is its only writer during a turn; the HTTP file API
// reads it directly for the editor pane.
package filestore

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"appforge/internal/domain"
)

var (
	ErrNotFound    = errors.New("filestore_file_not_found")
	ErrExists      = errors.New("filestore_file_exists")
	ErrInvalidPath = errors.New("filestore_invalid_path")
)

// Store is the file collaborator contract. Iteration order of List is the
// order files were first created in; search results preserve it.
type Store interface {
	List(ctx context.Context, projectID string) ([]domain.ProjectFile, error)
	Get(ctx context.Context, projectID, filePath string) (*domain.ProjectFile, error)
	Create(ctx context.Context, projectID, userID, filePath, content string) (domain.ProjectFile, error)
	Update(ctx context.Context, projectID, filePath, content string) (domain.ProjectFile, error)
	Delete(ctx context.Context, projectID, filePath string) error
}

// HistoryStore keeps the ordered conversation turn log per project.
type HistoryStore interface {
	AppendTurns(ctx context.Context, projectID string, turns []domain.ConversationTurn) error
	History(ctx context.Context, projectID string) ([]domain.ConversationTurn, error)
}

// Compactor is implemented by stores that benefit from periodic maintenance
// (snapshotting, vacuuming). The maintenance scheduler calls it.
type Compactor interface {
	Compact(ctx context.Context) error
}

// Notifier receives best-effort change notifications after successful file
// mutations so client-visible caches (editor, preview) can refresh. Errors
// from a notifier are logged by the caller and never fail the tool call.
type Notifier interface {
	FileChanged(projectID string, file domain.ProjectFile, op string)
}

const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ValidatePath enforces the absolute leading-slash path contract shared by
// every file tool.
func ValidatePath(filePath string) error {
	trimmed := strings.TrimSpace(filePath)
	if trimmed == "" || !strings.HasPrefix(trimmed, "/") {
		return ErrInvalidPath
	}
	if strings.Contains(trimmed, "//") || strings.Contains(trimmed, "..") {
		return ErrInvalidPath
	}
	return nil
}

func fileName(filePath string) string {
	return path.Base(filePath)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// LanguageForPath maps a file extension to the editor language tag stored on
// the record.
func LanguageForPath(filePath string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filePath), "."))
	switch ext {
	case "ts":
		return "typescript"
	case "tsx":
		return "typescriptreact"
	case "js", "mjs", "cjs":
		return "javascript"
	case "jsx":
		return "javascriptreact"
	case "css":
		return "css"
	case "html", "htm":
		return "html"
	case "json":
		return "json"
	case "md":
		return "markdown"
	case "svg":
		return "xml"
	default:
		return "plaintext"
	}
}
