package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"appforge/internal/domain"
)

func TestWebhookDeliversChangePayload(t *testing.T) {
	received := make(chan changePayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var payload changePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		received <- payload
	}))
	defer server.Close()

	hook := NewWebhook(server.URL, server.Client())
	hook.FileChanged("p1", domain.ProjectFile{
		Path:     "/src/App.tsx",
		Language: "typescriptreact",
		Size:     120,
	}, "updated")

	select {
	case payload := <-received:
		if payload.ProjectID != "p1" || payload.Path != "/src/App.tsx" || payload.Op != "updated" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if payload.SentAt == "" {
			t.Fatal("sent_at must be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}

func TestWebhookWithoutURLIsNoop(t *testing.T) {
	hook := NewWebhook("", nil)
	// must not panic or block
	hook.FileChanged("p1", domain.ProjectFile{Path: "/a.ts"}, "created")
}

func TestWebhookDeliveryFailureDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook := NewWebhook(server.URL, server.Client())
	hook.FileChanged("p1", domain.ProjectFile{Path: "/a.ts"}, "deleted")
	time.Sleep(50 * time.Millisecond)
}
