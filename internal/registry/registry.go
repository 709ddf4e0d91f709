// Package registry declares the fixed catalog of tools the model may invoke.
// It is pure data: each definition carries the stable tool name, the prompt
// description, and a JSON-schema parameter object handed verbatim to the
// model provider. Adding a tool means adding an entry here plus a dispatch
// branch in the executor; a guard test keeps the two in sync.
package registry

const (
	ToolListProjectFiles = "list_project_files"
	ToolReadFile         = "read_file"
	ToolCreateFile       = "create_file"
	ToolUpdateFile       = "update_file"
	ToolDeleteFile       = "delete_file"
	ToolSearchFiles      = "search_files"
	ToolFindInFiles      = "find_in_files"
	ToolWebSearch        = "web_search"
	ToolGetCodeContext   = "get_code_context"
	ToolCrawlURL         = "crawl_url"
)

type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Names lists every declared tool in catalog order.
func Names() []string {
	out := make([]string, 0, len(catalogOrder))
	out = append(out, catalogOrder...)
	return out
}

// Get returns the definition for name, or ok=false for an unknown tool.
func Get(name string) (ToolDefinition, bool) {
	def, ok := catalog[name]
	return def, ok
}

// Definitions returns the full catalog in stable order, ready to pass as the
// provider's tools parameter.
func Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(catalogOrder))
	for _, name := range catalogOrder {
		out = append(out, catalog[name])
	}
	return out
}

var catalogOrder = []string{
	ToolListProjectFiles,
	ToolReadFile,
	ToolCreateFile,
	ToolUpdateFile,
	ToolDeleteFile,
	ToolSearchFiles,
	ToolFindInFiles,
	ToolWebSearch,
	ToolGetCodeContext,
	ToolCrawlURL,
}

var catalog = map[string]ToolDefinition{
	ToolListProjectFiles: {
		Name:        ToolListProjectFiles,
		Description: "List every file in the project with path, type, language, size and last update time. Call this first to understand the project layout.",
		Parameters: map[string]interface{}{
			"type":                 "object",
			"properties":           map[string]interface{}{},
			"additionalProperties": false,
		},
	},
	ToolReadFile: {
		Name:        ToolReadFile,
		Description: "Read the full content of one project file. The path must be absolute and start with '/'.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute project path, e.g. /src/App.tsx.",
				},
			},
			"required":             []string{"path"},
			"additionalProperties": false,
		},
	},
	ToolCreateFile: {
		Name:        ToolCreateFile,
		Description: "Create a new project file. Fails if the path already exists; use update_file to replace an existing file.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute project path starting with '/'.",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Complete file content.",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Short note on what the file is for.",
				},
			},
			"required":             []string{"path", "content"},
			"additionalProperties": false,
		},
	},
	ToolUpdateFile: {
		Name:        ToolUpdateFile,
		Description: "Replace the entire content of a project file. Always pass the complete new content, never a diff. Creates the file if it does not exist yet.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute project path starting with '/'.",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Complete replacement content for the whole file.",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Short note on what changed.",
				},
			},
			"required":             []string{"path", "content"},
			"additionalProperties": false,
		},
	},
	ToolDeleteFile: {
		Name:        ToolDeleteFile,
		Description: "Delete one project file. Fails if the path does not exist.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute project path starting with '/'.",
				},
			},
			"required":             []string{"path"},
			"additionalProperties": false,
		},
	},
	ToolSearchFiles: {
		Name:        ToolSearchFiles,
		Description: "Find project files by name. Matches if the query characters appear in order in the filename (fuzzy) or as a substring of the full path.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Filename fragment to look for.",
				},
				"extensions": map[string]interface{}{
					"type":        "array",
					"description": "Optional extension allow-list, e.g. [\"tsx\",\"css\"].",
					"items":       map[string]interface{}{"type": "string"},
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum files to return.",
					"default":     10,
				},
			},
			"required":             []string{"query"},
			"additionalProperties": false,
		},
	},
	ToolFindInFiles: {
		Name:        ToolFindInFiles,
		Description: "Search file contents. Reports per-file match counts with up to five matching lines and 1-based line numbers.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text or regular expression to search for.",
				},
				"is_regex": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat query as a regular expression.",
					"default":     false,
				},
				"case_sensitive": map[string]interface{}{
					"type":    "boolean",
					"default": false,
				},
				"extensions": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Stop after this many files have matched.",
					"default":     20,
				},
			},
			"required":             []string{"query"},
			"additionalProperties": false,
		},
	},
	ToolWebSearch: {
		Name:        ToolWebSearch,
		Description: "Search the web for current information, documentation or examples.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type": "string",
				},
				"num_results": map[string]interface{}{
					"type":        "number",
					"description": "Number of results, at most 10.",
					"default":     5,
				},
			},
			"required":             []string{"query"},
			"additionalProperties": false,
		},
	},
	ToolGetCodeContext: {
		Name:        ToolGetCodeContext,
		Description: "Fetch library and framework code snippets, docs and usage examples for a programming topic.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Topic, e.g. 'react drag and drop list'.",
				},
				"tokens_num": map[string]interface{}{
					"type":        "number",
					"description": "Response size budget in tokens, 1000-50000.",
					"default":     5000,
				},
			},
			"required":             []string{"query"},
			"additionalProperties": false,
		},
	},
	ToolCrawlURL: {
		Name:        ToolCrawlURL,
		Description: "Fetch the readable content of one web page.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{
					"type": "string",
				},
				"max_characters": map[string]interface{}{
					"type":        "number",
					"description": "Truncate the page text to this many characters.",
					"default":     3000,
				},
			},
			"required":             []string{"url"},
			"additionalProperties": false,
		},
	},
}
