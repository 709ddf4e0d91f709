package executor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func (e *Executor) webSearch(ctx context.Context, args map[string]interface{}) map[string]interface{} {
	if e.search == nil {
		return failure(codeProviderError, "web search provider is not configured")
	}
	query := strings.TrimSpace(stringArg(args, "query"))
	if query == "" {
		return failure(codeInvalidArguments, "query is required")
	}
	numResults := intArg(args, "num_results", 5)

	results, err := e.search.Search(ctx, query, numResults)
	if err != nil {
		return failure(codeProviderError, fmt.Sprintf("web search failed: %v", err))
	}
	listed := make([]map[string]interface{}, 0, len(results))
	for _, item := range results {
		listed = append(listed, map[string]interface{}{
			"title":   item.Title,
			"url":     item.URL,
			"snippet": item.Snippet,
		})
	}
	return success(map[string]interface{}{
		"query":   query,
		"results": listed,
		"count":   len(listed),
	})
}

func (e *Executor) getCodeContext(ctx context.Context, args map[string]interface{}) map[string]interface{} {
	if e.search == nil {
		return failure(codeProviderError, "web search provider is not configured")
	}
	query := strings.TrimSpace(stringArg(args, "query"))
	if query == "" {
		return failure(codeInvalidArguments, "query is required")
	}
	tokensNum := intArg(args, "tokens_num", 5000)

	doc, err := e.search.CodeContext(ctx, query, tokensNum)
	if err != nil {
		return failure(codeProviderError, fmt.Sprintf("code context lookup failed: %v", err))
	}
	return success(map[string]interface{}{
		"query":   query,
		"context": doc,
	})
}

func (e *Executor) crawlURL(ctx context.Context, args map[string]interface{}) map[string]interface{} {
	if e.search == nil {
		return failure(codeProviderError, "web search provider is not configured")
	}
	rawURL := strings.TrimSpace(stringArg(args, "url"))
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return failure(codeInvalidArguments, fmt.Sprintf("invalid url %q", rawURL))
	}
	maxCharacters := intArg(args, "max_characters", 3000)

	page, err := e.search.Crawl(ctx, rawURL, maxCharacters)
	if err != nil {
		return failure(codeProviderError, fmt.Sprintf("crawl failed: %v", err))
	}
	return success(map[string]interface{}{
		"url":       page.URL,
		"title":     page.Title,
		"text":      page.Text,
		"truncated": page.Truncated,
	})
}
