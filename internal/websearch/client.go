// Package websearch is the thin client for the external search/crawl
// provider behind the web_search, get_code_context and crawl_url tools.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	APIKeyEnv  = "APPFORGE_SEARCH_API_KEY"
	BaseURLEnv = "APPFORGE_SEARCH_BASE_URL"

	defaultBaseURL = "https://api.exa.ai"
	requestTimeout = 20 * time.Second

	maxResponseBytes = 2 * 1024 * 1024
)

var (
	ErrNotConfigured = errors.New("websearch_not_configured")
	ErrRequestFailed = errors.New("websearch_request_failed")
	ErrInvalidReply  = errors.New("websearch_invalid_reply")
)

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClientFromEnv builds a client from APPFORGE_SEARCH_* variables. A
// missing api key yields ErrNotConfigured so callers can surface a tool-level
// failure instead of refusing to start.
func NewClientFromEnv() (*Client, error) {
	apiKey := strings.TrimSpace(os.Getenv(APIKeyEnv))
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv(BaseURLEnv)), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewClient(baseURL, apiKey, nil), nil
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (c *Client) Search(ctx context.Context, query string, numResults int) ([]SearchResult, error) {
	if numResults <= 0 {
		numResults = 5
	}
	if numResults > 10 {
		numResults = 10
	}
	payload := map[string]interface{}{
		"query":      query,
		"numResults": numResults,
		"contents":   map[string]interface{}{"text": true},
	}
	var reply struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := c.postJSON(ctx, "/search", payload, &reply); err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(reply.Results))
	for _, item := range reply.Results {
		out = append(out, SearchResult{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: truncateText(item.Text, 400),
		})
	}
	return out, nil
}

func (c *Client) CodeContext(ctx context.Context, query string, tokensNum int) (string, error) {
	if tokensNum < 1000 {
		tokensNum = 1000
	}
	if tokensNum > 50000 {
		tokensNum = 50000
	}
	payload := map[string]interface{}{
		"query":     query,
		"tokensNum": tokensNum,
	}
	var reply struct {
		Context  string `json:"context"`
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/context", payload, &reply); err != nil {
		return "", err
	}
	if reply.Context != "" {
		return reply.Context, nil
	}
	return reply.Response, nil
}

func (c *Client) Crawl(ctx context.Context, pageURL string, maxCharacters int) (Page, error) {
	if maxCharacters <= 0 {
		maxCharacters = 3000
	}
	payload := map[string]interface{}{
		"urls": []string{pageURL},
		"text": true,
	}
	var reply struct {
		Results []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := c.postJSON(ctx, "/contents", payload, &reply); err != nil {
		return Page{}, err
	}
	if len(reply.Results) == 0 {
		return Page{}, fmt.Errorf("%w: provider returned no page content", ErrInvalidReply)
	}
	first := reply.Results[0]
	text := first.Text
	truncated := false
	if len([]rune(text)) > maxCharacters {
		text = string([]rune(text)[:maxCharacters])
		truncated = true
	}
	return Page{URL: first.URL, Title: first.Title, Text: text, Truncated: truncated}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: provider returned status %d", ErrRequestFailed, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return nil
}

func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
