package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientFromEnvRequiresKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	if _, err := NewClientFromEnv(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	t.Setenv(APIKeyEnv, "key-123")
	t.Setenv(BaseURLEnv, "https://search.example.com/")
	client, err := NewClientFromEnv()
	if err != nil {
		t.Fatalf("NewClientFromEnv: %v", err)
	}
	if client.baseURL != "https://search.example.com" {
		t.Fatalf("base url not normalized: %q", client.baseURL)
	}
}

func TestSearchClampsNumResults(t *testing.T) {
	var seen map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "key-123" {
			t.Errorf("unexpected api key header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&seen)
		fmt.Fprint(w, `{"results":[{"title":"React docs","url":"https://react.dev","text":"Hooks let you"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", server.Client())
	results, err := client.Search(context.Background(), "react hooks", 50)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if seen["numResults"] != float64(10) {
		t.Fatalf("numResults must clamp to 10, got %v", seen["numResults"])
	}
	if len(results) != 1 || results[0].URL != "https://react.dev" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestCodeContextClampsTokens(t *testing.T) {
	var seen map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seen)
		fmt.Fprint(w, `{"context":"useEffect runs after render"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", server.Client())
	doc, err := client.CodeContext(context.Background(), "useEffect", 10)
	if err != nil {
		t.Fatalf("CodeContext: %v", err)
	}
	if seen["tokensNum"] != float64(1000) {
		t.Fatalf("tokensNum must clamp up to 1000, got %v", seen["tokensNum"])
	}
	if doc != "useEffect runs after render" {
		t.Fatalf("unexpected context: %q", doc)
	}
}

func TestCrawlTruncatesText(t *testing.T) {
	long := strings.Repeat("a", 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results":[{"url":"https://example.com","title":"Example","text":"%s"}]}`, long)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", server.Client())
	page, err := client.Crawl(context.Background(), "https://example.com", 40)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if !page.Truncated || len(page.Text) != 40 {
		t.Fatalf("expected truncation to 40 chars, got %d truncated=%v", len(page.Text), page.Truncated)
	}
}

func TestCrawlEmptyResultsIsInvalidReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", server.Client())
	if _, err := client.Crawl(context.Background(), "https://example.com", 100); !errors.Is(err, ErrInvalidReply) {
		t.Fatalf("expected ErrInvalidReply, got %v", err)
	}
}

func TestPostJSONSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-123", server.Client())
	if _, err := client.Search(context.Background(), "anything", 5); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}
