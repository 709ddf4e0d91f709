package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"appforge/internal/domain"
	"appforge/internal/filestore"
)

func (e *Executor) listProjectFiles(ctx context.Context, execCtx Context) map[string]interface{} {
	files, err := e.store.List(ctx, execCtx.ProjectID)
	if err != nil {
		return failure(codeStoreError, fmt.Sprintf("failed to list project files: %v", err))
	}
	listed := make([]map[string]interface{}, 0, len(files))
	for _, file := range files {
		listed = append(listed, map[string]interface{}{
			"path":       file.Path,
			"name":       file.Name,
			"type":       file.Type,
			"language":   file.Language,
			"size":       file.Size,
			"updated_at": file.UpdatedAt,
		})
	}
	return success(map[string]interface{}{
		"files": listed,
		"count": len(listed),
	})
}

func (e *Executor) readFile(ctx context.Context, execCtx Context, args map[string]interface{}) map[string]interface{} {
	filePath := strings.TrimSpace(stringArg(args, "path"))
	if err := filestore.ValidatePath(filePath); err != nil {
		return failure(codeInvalidPath, fmt.Sprintf("invalid path %q: paths must be absolute and start with '/'", filePath))
	}
	file, err := e.store.Get(ctx, execCtx.ProjectID, filePath)
	if err != nil {
		return failure(codeStoreError, fmt.Sprintf("failed to read %s: %v", filePath, err))
	}
	if file == nil {
		return failure(codeNotFound, notFoundMessage(ctx, e, execCtx, filePath))
	}
	return success(map[string]interface{}{
		"path":     file.Path,
		"content":  file.Content,
		"language": file.Language,
		"size":     file.Size,
	})
}

// notFoundMessage lists available paths so the model can self-correct instead
// of retrying the same bad path.
func notFoundMessage(ctx context.Context, e *Executor, execCtx Context, filePath string) string {
	msg := fmt.Sprintf("file %s not found", filePath)
	files, err := e.store.List(ctx, execCtx.ProjectID)
	if err != nil || len(files) == 0 {
		return msg
	}
	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.Path)
	}
	return fmt.Sprintf("%s. Available files: %s", msg, strings.Join(paths, ", "))
}

func (e *Executor) createFile(ctx context.Context, execCtx Context, args map[string]interface{}) map[string]interface{} {
	filePath := strings.TrimSpace(stringArg(args, "path"))
	if err := filestore.ValidatePath(filePath); err != nil {
		return failure(codeInvalidPath, fmt.Sprintf("invalid path %q: paths must be absolute and start with '/'", filePath))
	}
	content, ok := args["content"].(string)
	if !ok {
		return failure(codeInvalidArguments, "content must be a string")
	}

	file, err := e.store.Create(ctx, execCtx.ProjectID, execCtx.UserID, filePath, content)
	if errors.Is(err, filestore.ErrExists) {
		return failure(codeAlreadyExists, fmt.Sprintf("file %s already exists. Use update_file to modify it instead.", filePath))
	}
	if err != nil {
		return failure(codeStoreError, fmt.Sprintf("failed to create %s: %v", filePath, err))
	}
	e.notify(execCtx.ProjectID, file, filestore.OpCreated)
	return success(map[string]interface{}{
		"path": file.Path,
		"size": file.Size,
		"text": fmt.Sprintf("created %s (%d bytes)", file.Path, file.Size),
	})
}

// updateFile is create-or-replace: a missing path falls through to create
// rather than failing. Callers always pass complete file content.
func (e *Executor) updateFile(ctx context.Context, execCtx Context, args map[string]interface{}) map[string]interface{} {
	filePath := strings.TrimSpace(stringArg(args, "path"))
	if err := filestore.ValidatePath(filePath); err != nil {
		return failure(codeInvalidPath, fmt.Sprintf("invalid path %q: paths must be absolute and start with '/'", filePath))
	}
	content, ok := args["content"].(string)
	if !ok {
		return failure(codeInvalidArguments, "content must be a string")
	}

	file, err := e.store.Update(ctx, execCtx.ProjectID, filePath, content)
	if errors.Is(err, filestore.ErrNotFound) {
		return e.createFile(ctx, execCtx, args)
	}
	if err != nil {
		return failure(codeStoreError, fmt.Sprintf("failed to update %s: %v", filePath, err))
	}
	e.notify(execCtx.ProjectID, file, filestore.OpUpdated)
	return success(map[string]interface{}{
		"path": file.Path,
		"size": file.Size,
		"text": fmt.Sprintf("updated %s (%d bytes)", file.Path, file.Size),
	})
}

func (e *Executor) deleteFile(ctx context.Context, execCtx Context, args map[string]interface{}) map[string]interface{} {
	filePath := strings.TrimSpace(stringArg(args, "path"))
	if err := filestore.ValidatePath(filePath); err != nil {
		return failure(codeInvalidPath, fmt.Sprintf("invalid path %q: paths must be absolute and start with '/'", filePath))
	}
	err := e.store.Delete(ctx, execCtx.ProjectID, filePath)
	if errors.Is(err, filestore.ErrNotFound) {
		return failure(codeNotFound, fmt.Sprintf("file %s not found", filePath))
	}
	if err != nil {
		return failure(codeStoreError, fmt.Sprintf("failed to delete %s: %v", filePath, err))
	}
	e.notify(execCtx.ProjectID, domain.ProjectFile{Path: filePath, Name: filePath}, filestore.OpDeleted)
	return success(map[string]interface{}{
		"path": filePath,
		"text": fmt.Sprintf("deleted %s", filePath),
	})
}
