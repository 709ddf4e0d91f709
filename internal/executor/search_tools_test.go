package executor

import (
	"testing"

	"appforge/internal/registry"
)

func TestSearchFilesFuzzySubsequence(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/src/TechStack.tsx", "content": "stack"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/src/Footer.tsx", "content": "footer"})

	result := execTool(t, e, registry.ToolSearchFiles, map[string]interface{}{"query": "tch"})
	if !result.Success() {
		t.Fatalf("search failed: %v", result.Content)
	}
	matches, _ := result.Content["results"].([]map[string]interface{})
	if len(matches) != 1 {
		t.Fatalf("expected exactly TechStack.tsx, got %v", matches)
	}
	if matches[0]["path"] != "/src/TechStack.tsx" {
		t.Fatalf("wrong match: %v", matches[0])
	}
}

func TestSearchFilesFuzzyMultiByteQuery(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/docs/Café.md", "content": "menu"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/docs/Cart.md", "content": "cart"})

	result := execTool(t, e, registry.ToolSearchFiles, map[string]interface{}{"query": "cfé"})
	if !result.Success() {
		t.Fatalf("search failed: %v", result.Content)
	}
	matches, _ := result.Content["results"].([]map[string]interface{})
	if len(matches) != 1 {
		t.Fatalf("multi-byte query must subsequence-match the name: %v", matches)
	}
	if matches[0]["path"] != "/docs/Café.md" {
		t.Fatalf("wrong match: %v", matches[0])
	}
}

func TestSearchFilesMatchesPathSubstring(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/components/nav/Bar.tsx", "content": "x"})

	result := execTool(t, e, registry.ToolSearchFiles, map[string]interface{}{"query": "components/nav"})
	matches, _ := result.Content["results"].([]map[string]interface{})
	if len(matches) != 1 {
		t.Fatalf("path substring should match: %v", result.Content)
	}
}

func TestSearchFilesExtensionFilterAndCap(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a/app.ts", "content": "x"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a/app.css", "content": "x"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/b/app.ts", "content": "x"})

	result := execTool(t, e, registry.ToolSearchFiles, map[string]interface{}{
		"query":       "app",
		"extensions":  []interface{}{".ts"},
		"max_results": float64(1),
	})
	matches, _ := result.Content["results"].([]map[string]interface{})
	if len(matches) != 1 {
		t.Fatalf("max_results=1 must cap output: %v", matches)
	}
	if matches[0]["path"] != "/a/app.ts" {
		t.Fatalf("extension filter or order broken: %v", matches[0])
	}
}

func TestSearchFilesRequiresQuery(t *testing.T) {
	e, _ := newTestExecutor()
	result := execTool(t, e, registry.ToolSearchFiles, map[string]interface{}{"query": "  "})
	if result.Success() || result.Content["code"] != "invalid_arguments" {
		t.Fatalf("blank query must be rejected: %v", result.Content)
	}
}

func TestFindInFilesCountsAndSamplesLines(t *testing.T) {
	e, _ := newTestExecutor()
	content := "line one\n" +
		"line two\n" +
		"import { useState } from 'react'\n" +
		"line four\n" +
		"line five\n" +
		"line six\n" +
		"line seven\n" +
		"line eight\n" +
		"line nine\n" +
		"const [state] = useState(0)\n"
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/src/App.tsx", "content": content})

	result := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "useState"})
	if !result.Success() {
		t.Fatalf("find failed: %v", result.Content)
	}
	results, _ := result.Content["results"].([]map[string]interface{})
	if len(results) != 1 {
		t.Fatalf("expected one matched file, got %v", results)
	}
	if results[0]["match_count"] != 2 {
		t.Fatalf("expected match_count 2, got %v", results[0]["match_count"])
	}
	sampled, _ := results[0]["matches"].([]map[string]interface{})
	if len(sampled) != 2 {
		t.Fatalf("expected 2 sampled lines, got %v", sampled)
	}
	if sampled[0]["line"] != 3 || sampled[1]["line"] != 10 {
		t.Fatalf("line numbers must be 1-based, got %v and %v", sampled[0]["line"], sampled[1]["line"])
	}
}

func TestFindInFilesSamplesAtMostFiveLines(t *testing.T) {
	e, _ := newTestExecutor()
	content := "hit\nhit\nhit\nhit\nhit\nhit\nhit\n"
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.txt", "content": content})

	result := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "hit"})
	results, _ := result.Content["results"].([]map[string]interface{})
	if results[0]["match_count"] != 7 {
		t.Fatalf("expected 7 total matches, got %v", results[0]["match_count"])
	}
	sampled, _ := results[0]["matches"].([]map[string]interface{})
	if len(sampled) != 5 {
		t.Fatalf("sample must cap at 5 lines, got %d", len(sampled))
	}
}

func TestFindInFilesLiteralByDefault(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.ts", "content": "a.b\naxb\n"})

	literal := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "a.b"})
	results, _ := literal.Content["results"].([]map[string]interface{})
	if results[0]["match_count"] != 1 {
		t.Fatalf("dot must be literal by default, got %v", results[0]["match_count"])
	}

	asRegex := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "a.b", "is_regex": true})
	results, _ = asRegex.Content["results"].([]map[string]interface{})
	if results[0]["match_count"] != 2 {
		t.Fatalf("regex mode must match both lines, got %v", results[0]["match_count"])
	}
}

func TestFindInFilesCaseSensitivity(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.ts", "content": "Hello\nhello\n"})

	insensitive := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "hello"})
	results, _ := insensitive.Content["results"].([]map[string]interface{})
	if results[0]["match_count"] != 2 {
		t.Fatalf("default must be case-insensitive, got %v", results[0]["match_count"])
	}

	sensitive := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "hello", "case_sensitive": true})
	results, _ = sensitive.Content["results"].([]map[string]interface{})
	if results[0]["match_count"] != 1 {
		t.Fatalf("case_sensitive must match one line, got %v", results[0]["match_count"])
	}
}

func TestFindInFilesRejectsBadRegex(t *testing.T) {
	e, _ := newTestExecutor()
	result := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "([", "is_regex": true})
	if result.Success() || result.Content["code"] != "invalid_arguments" {
		t.Fatalf("bad regex must be rejected: %v", result.Content)
	}
}

func TestFindInFilesCapsMatchedFiles(t *testing.T) {
	e, _ := newTestExecutor()
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/a.ts", "content": "needle"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/b.ts", "content": "needle\nneedle"})
	execTool(t, e, registry.ToolCreateFile, map[string]interface{}{"path": "/c.ts", "content": "needle"})

	result := execTool(t, e, registry.ToolFindInFiles, map[string]interface{}{"query": "needle", "max_results": float64(2)})
	results, _ := result.Content["results"].([]map[string]interface{})
	if len(results) != 2 {
		t.Fatalf("max_results caps matched files, got %d", len(results))
	}
	if results[0]["path"] != "/a.ts" || results[1]["path"] != "/b.ts" {
		t.Fatalf("files must keep store order: %v", results)
	}
}
