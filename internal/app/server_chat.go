package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"appforge/internal/domain"
	"appforge/internal/executor"
	"appforge/internal/orchestrator"
	"appforge/internal/stream"
)

// handleChat runs one user turn and streams protocol events back as NDJSON.
// The response status is committed before the model is called, so loop
// failures travel inside the stream as error events, never as HTTP errors.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "invalid request body", nil)
		return
	}
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	if req.ProjectID == "" {
		writeErr(w, http.StatusBadRequest, "invalid_request", "project_id is required", nil)
		return
	}
	if len(req.Messages) == 0 {
		writeErr(w, http.StatusBadRequest, "invalid_request", "messages must not be empty", nil)
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = defaultUserID
	}

	ctx := r.Context()
	files, err := s.store.List(ctx, req.ProjectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error(), nil)
		return
	}

	conversation := make([]domain.ConversationTurn, 0, len(req.Messages)+1)
	conversation = append(conversation, orchestrator.BuildSystemPrompt(req.PlanMode, files, req.MentionedFiles))
	conversation = append(conversation, requestTurns(req)...)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	encoder := stream.NewEncoder(w)
	result, runErr := s.loop.Run(ctx, orchestrator.Params{
		Conversation: conversation,
		Context:      executor.Context{ProjectID: req.ProjectID, UserID: userID},
	}, func(evt stream.Event) error {
		return encoder.Encode(evt)
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Printf("chat run failed: project=%s err=%v", req.ProjectID, runErr)
	}

	s.persistTurns(req, result.NewTurns)
}

// persistTurns appends the latest user turn plus everything the run
// produced. Uses a fresh context so a client abort cannot lose history the
// tools already acted on.
func (s *Server) persistTurns(req domain.ChatRequest, newTurns []domain.ConversationTurn) {
	turns := make([]domain.ConversationTurn, 0, len(newTurns)+1)
	if latest := latestUserTurn(req); latest != nil {
		turns = append(turns, *latest)
	}
	turns = append(turns, newTurns...)
	if len(turns) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.AppendTurns(ctx, req.ProjectID, turns); err != nil {
		log.Printf("history append failed: project=%s err=%v", req.ProjectID, err)
	}
}

func latestUserTurn(req domain.ChatRequest) *domain.ConversationTurn {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			content := req.Messages[i].Content
			if extra := attachmentNote(req.Attachments); extra != "" {
				content += extra
			}
			return &domain.ConversationTurn{Role: domain.RoleUser, Content: content}
		}
	}
	return nil
}

// requestTurns converts the client transcript into conversation turns,
// folding attachments into the latest user message.
func requestTurns(req domain.ChatRequest) []domain.ConversationTurn {
	turns := make([]domain.ConversationTurn, 0, len(req.Messages))
	lastUser := -1
	for i, msg := range req.Messages {
		if msg.Role == domain.RoleUser {
			lastUser = i
		}
	}
	note := attachmentNote(req.Attachments)
	for i, msg := range req.Messages {
		content := msg.Content
		if i == lastUser && note != "" {
			content += note
		}
		turns = append(turns, domain.ConversationTurn{Role: msg.Role, Content: content})
	}
	return turns
}

func attachmentNote(attachments []domain.Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("\n\nAttached files:\n")
	for _, att := range attachments {
		builder.WriteString("--- ")
		builder.WriteString(att.Name)
		builder.WriteString(" ---\n")
		builder.WriteString(att.Content)
		builder.WriteString("\n")
	}
	return builder.String()
}
