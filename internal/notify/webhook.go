// Package notify delivers best-effort file change notifications to external
// consumers. Delivery failures are logged, never surfaced to the tool call
// that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"appforge/internal/domain"
)

const defaultWebhookTimeout = 5 * time.Second

// Webhook POSTs one JSON payload per file change to a fixed URL. It
// implements filestore.Notifier.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &Webhook{url: strings.TrimSpace(url), client: client}
}

type changePayload struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
	Op        string `json:"op"`
	Language  string `json:"language,omitempty"`
	Size      int    `json:"size"`
	SentAt    string `json:"sent_at"`
}

func (n *Webhook) FileChanged(projectID string, file domain.ProjectFile, op string) {
	if n == nil || n.url == "" {
		return
	}
	payload := changePayload{
		ProjectID: projectID,
		Path:      file.Path,
		Op:        op,
		Language:  file.Language,
		Size:      file.Size,
		SentAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	go func() {
		if err := n.deliver(payload); err != nil {
			log.Printf("webhook notify failed: project=%s path=%s op=%s err=%v", projectID, file.Path, op, err)
		}
	}()
}

func (n *Webhook) deliver(payload changePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload failed: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultWebhookTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
