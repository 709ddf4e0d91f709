package executor

import (
	"context"
	"strings"
	"testing"

	"appforge/internal/domain"
	"appforge/internal/filestore"
	"appforge/internal/registry"
)

func newTestExecutor() (*Executor, *filestore.MemoryStore) {
	store := filestore.NewMemoryStore()
	return New(store, nil, nil), store
}

func execTool(t *testing.T, e *Executor, name string, args map[string]interface{}) domain.ToolResult {
	t.Helper()
	return e.Execute(context.Background(), domain.ToolCallRequest{
		ID:        "call_1",
		Name:      name,
		Arguments: args,
	}, Context{ProjectID: "p1", UserID: "u1"})
}

func TestExecuteUnknownTool(t *testing.T) {
	e, _ := newTestExecutor()
	result := execTool(t, e, "launch_rocket", nil)
	if result.Success() {
		t.Fatal("unknown tool must fail")
	}
	if result.Content["code"] != "unknown_tool" {
		t.Fatalf("unexpected code: %v", result.Content["code"])
	}
	if result.ToolCallID != "call_1" || result.Name != "launch_rocket" {
		t.Fatalf("result must echo call identity: %+v", result)
	}
}

func TestCreateFileRejectsRelativePathWithoutMutation(t *testing.T) {
	e, store := newTestExecutor()
	result := execTool(t, e, registry.ToolCreateFile, map[string]interface{}{
		"path":    "src/App.tsx",
		"content": "x",
	})
	if result.Success() {
		t.Fatal("relative path must be rejected")
	}
	if result.Content["code"] != "invalid_path" {
		t.Fatalf("unexpected code: %v", result.Content["code"])
	}
	files, _ := store.List(context.Background(), "p1")
	if len(files) != 0 {
		t.Fatalf("store must be untouched, found %d files", len(files))
	}
}

func TestCreateFileTwiceSteersToUpdate(t *testing.T) {
	e, _ := newTestExecutor()
	first := execTool(t, e, registry.ToolCreateFile, map[string]interface{}{
		"path":    "/src/App.tsx",
		"content": "v1",
	})
	if !first.Success() {
		t.Fatalf("first create failed: %v", first.Content)
	}
	second := execTool(t, e, registry.ToolCreateFile, map[string]interface{}{
		"path":    "/src/App.tsx",
		"content": "v2",
	})
	if second.Success() {
		t.Fatal("second create must fail")
	}
	if second.Content["code"] != "already_exists" {
		t.Fatalf("unexpected code: %v", second.Content["code"])
	}
	message, _ := second.Content["error"].(string)
	if !strings.Contains(message, "update_file") {
		t.Fatalf("error must steer the model to update_file: %q", message)
	}
}

func TestUpdateFileFallsThroughToCreate(t *testing.T) {
	e, store := newTestExecutor()
	result := execTool(t, e, registry.ToolUpdateFile, map[string]interface{}{
		"path":    "/src/new.ts",
		"content": "created via update",
	})
	if !result.Success() {
		t.Fatalf("update on missing path must create: %v", result.Content)
	}
	file, err := store.Get(context.Background(), "p1", "/src/new.ts")
	if err != nil || file == nil {
		t.Fatalf("file not created: %v %v", file, err)
	}
	if file.Content != "created via update" {
		t.Fatalf("unexpected content: %q", file.Content)
	}
}

func TestUpdateFileReplacesContent(t *testing.T) {
	e, store := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.ts", "content": "old"})
	result := execTool(t, e, registry.ToolUpdateFile, map[string]interface{}{"path": "/a.ts", "content": "new"})
	if !result.Success() {
		t.Fatalf("update failed: %v", result.Content)
	}
	file, _ := store.Get(context.Background(), "p1", "/a.ts")
	if file.Content != "new" {
		t.Fatalf("content not replaced: %q", file.Content)
	}
}

func TestReadFileNotFoundListsAvailablePaths(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/index.html", "content": "<html/>"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/src/App.tsx", "content": "app"})

	result := execTool(t, e, registry.ToolReadFile, map[string]interface{}{"path": "/missing.ts"})
	if result.Success() {
		t.Fatal("read of missing file must fail")
	}
	if result.Content["code"] != "not_found" {
		t.Fatalf("unexpected code: %v", result.Content["code"])
	}
	message, _ := result.Content["error"].(string)
	if !strings.Contains(message, "/index.html") || !strings.Contains(message, "/src/App.tsx") {
		t.Fatalf("error must list available paths: %q", message)
	}
}

func TestReadFileReturnsContent(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.css", "content": "body {}"})
	result := execTool(t, e, registry.ToolReadFile, map[string]interface{}{"path": "/a.css"})
	if !result.Success() {
		t.Fatalf("read failed: %v", result.Content)
	}
	if result.Content["content"] != "body {}" || result.Content["language"] != "css" {
		t.Fatalf("unexpected payload: %v", result.Content)
	}
}

func TestDeleteFile(t *testing.T) {
	e, store := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.ts", "content": "x"})
	result := execTool(t, e, registry.ToolDeleteFile, map[string]interface{}{"path": "/a.ts"})
	if !result.Success() {
		t.Fatalf("delete failed: %v", result.Content)
	}
	files, _ := store.List(context.Background(), "p1")
	if len(files) != 0 {
		t.Fatalf("file not deleted")
	}
	again := execTool(t, e, registry.ToolDeleteFile, map[string]interface{}{"path": "/a.ts"})
	if again.Success() || again.Content["code"] != "not_found" {
		t.Fatalf("second delete must report not_found: %v", again.Content)
	}
}

func TestListProjectFiles(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/b.ts", "content": "x"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.ts", "content": "y"})

	result := execTool(t, e, registry.ToolListProjectFiles, nil)
	if !result.Success() {
		t.Fatalf("list failed: %v", result.Content)
	}
	files, ok := result.Content["files"].([]map[string]interface{})
	if !ok {
		t.Fatalf("unexpected files payload: %T", result.Content["files"])
	}
	if len(files) != 2 || files[0]["path"] != "/b.ts" || files[1]["path"] != "/a.ts" {
		t.Fatalf("creation order not preserved: %v", files)
	}
}

func TestCreateFileRequiresStringContent(t *testing.T) {
	e, _ := newTestExecutor()
	result := execTool(t, e, registry.ToolCreateFile, map[string]interface{}{
		"path":    "/a.ts",
		"content": 42,
	})
	if result.Success() || result.Content["code"] != "invalid_arguments" {
		t.Fatalf("non-string content must be rejected: %v", result.Content)
	}
}

func TestWebToolsWithoutProvider(t *testing.T) {
	e, _ := newTestExecutor()
	for _, name := range []string{registry.ToolWebSearch, registry.ToolGetCodeContext, registry.ToolCrawlURL} {
		result := execTool(t, e, name, map[string]interface{}{"query": "react hooks", "url": "https://example.com"})
		if result.Success() {
			t.Fatalf("%s must fail without a provider", name)
		}
		if result.Content["code"] != "provider_error" {
			t.Fatalf("%s unexpected code: %v", name, result.Content["code"])
		}
	}
}

func TestEveryCatalogToolIsDispatchable(t *testing.T) {
	e, _ := newTestExecutor()
	for _, name := range registry.Names() {
		result := execTool(t, e, name, map[string]interface{}{})
		if result.Content["code"] == "unknown_tool" {
			t.Fatalf("catalog tool %s is not dispatched by the executor", name)
		}
	}
}
