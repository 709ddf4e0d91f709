package executor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	searchFilesDefaultMax = 10
	findInFilesDefaultMax = 20
	findInFilesLineSample = 5
)

func (e *Executor) searchFiles(ctx context.Context, execCtx Context, args map[string]interface{}) map[string]interface{} {
	query := strings.TrimSpace(stringArg(args, "query"))
	if query == "" {
		return failure(codeInvalidArguments, "query is required")
	}
	extensions := stringSliceArg(args, "extensions")
	maxResults := intArg(args, "max_results", searchFilesDefaultMax)
	if maxResults <= 0 {
		maxResults = searchFilesDefaultMax
	}

	files, err := e.store.List(ctx, execCtx.ProjectID)
	if err != nil {
		return failure(codeStoreError, fmt.Sprintf("failed to list project files: %v", err))
	}

	matches := make([]map[string]interface{}, 0, maxResults)
	for _, file := range files {
		if len(matches) >= maxResults {
			break
		}
		if !extensionAllowed(file.Path, extensions) {
			continue
		}
		if !fileNameMatches(query, file.Name, file.Path) {
			continue
		}
		matches = append(matches, map[string]interface{}{
			"path":     file.Path,
			"name":     file.Name,
			"language": file.Language,
			"size":     file.Size,
		})
	}
	return success(map[string]interface{}{
		"query":   query,
		"results": matches,
		"count":   len(matches),
	})
}

// fileNameMatches implements the filename matcher: a fuzzy subsequence hit on
// the name (query characters in order, not necessarily contiguous) or a plain
// substring hit on the full path, both case-insensitive.
func fileNameMatches(query, name, path string) bool {
	loweredQuery := strings.ToLower(query)
	if subsequenceMatch(loweredQuery, strings.ToLower(name)) {
		return true
	}
	return strings.Contains(strings.ToLower(path), loweredQuery)
}

func subsequenceMatch(query, candidate string) bool {
	runes := []rune(query)
	if len(runes) == 0 {
		return true
	}
	idx := 0
	for _, r := range candidate {
		if runes[idx] == r {
			idx++
			if idx == len(runes) {
				return true
			}
		}
	}
	return false
}

func extensionAllowed(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	lowered := strings.ToLower(path)
	for _, ext := range extensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if strings.HasSuffix(lowered, "."+normalized) {
			return true
		}
	}
	return false
}

func (e *Executor) findInFiles(ctx context.Context, execCtx Context, args map[string]interface{}) map[string]interface{} {
	query := stringArg(args, "query")
	if strings.TrimSpace(query) == "" {
		return failure(codeInvalidArguments, "query is required")
	}
	isRegex := boolArg(args, "is_regex")
	caseSensitive := boolArg(args, "case_sensitive")
	extensions := stringSliceArg(args, "extensions")
	maxResults := intArg(args, "max_results", findInFilesDefaultMax)
	if maxResults <= 0 {
		maxResults = findInFilesDefaultMax
	}

	pattern := query
	if !isRegex {
		pattern = regexp.QuoteMeta(query)
	}
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return failure(codeInvalidArguments, fmt.Sprintf("invalid pattern %q: %v", query, err))
	}

	files, err := e.store.List(ctx, execCtx.ProjectID)
	if err != nil {
		return failure(codeStoreError, fmt.Sprintf("failed to list project files: %v", err))
	}

	// maxResults caps files that matched, not total line hits.
	results := make([]map[string]interface{}, 0, maxResults)
	for _, file := range files {
		if len(results) >= maxResults {
			break
		}
		if !extensionAllowed(file.Path, extensions) {
			continue
		}
		matchCount := 0
		sampled := make([]map[string]interface{}, 0, findInFilesLineSample)
		for lineIdx, line := range strings.Split(file.Content, "\n") {
			if !re.MatchString(line) {
				continue
			}
			matchCount++
			if len(sampled) < findInFilesLineSample {
				sampled = append(sampled, map[string]interface{}{
					"line": lineIdx + 1,
					"text": line,
				})
			}
		}
		if matchCount == 0 {
			continue
		}
		results = append(results, map[string]interface{}{
			"path":        file.Path,
			"match_count": matchCount,
			"matches":     sampled,
		})
	}
	return success(map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}
