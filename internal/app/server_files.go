package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"appforge/internal/domain"
	"appforge/internal/filestore"
)

// filePathParam recovers the "/src/App.tsx" style store path from the chi
// wildcard segment.
func filePathParam(r *http.Request) string {
	wildcard := chi.URLParam(r, "*")
	return "/" + strings.TrimPrefix(wildcard, "/")
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	files, err := s.store.List(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	filePath := filePathParam(r)
	file, err := s.store.Get(r.Context(), projectID, filePath)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error(), nil)
		return
	}
	if file == nil {
		writeErr(w, http.StatusNotFound, "not_found", "file not found", map[string]string{"path": filePath})
		return
	}
	writeJSON(w, http.StatusOK, file)
}

type fileWriteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	var req fileWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "invalid request body", nil)
		return
	}
	file, err := s.store.Create(r.Context(), projectID, userIDFromQuery(r), req.Path, req.Content)
	if err != nil {
		writeFileErr(w, err, req.Path)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (s *Server) updateFile(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	filePath := filePathParam(r)
	var req fileWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "invalid request body", nil)
		return
	}
	file, err := s.store.Update(r.Context(), projectID, filePath, req.Content)
	if errors.Is(err, filestore.ErrNotFound) {
		file, err = s.store.Create(r.Context(), projectID, userIDFromQuery(r), filePath, req.Content)
	}
	if err != nil {
		writeFileErr(w, err, filePath)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	filePath := filePathParam(r)
	if err := s.store.Delete(r.Context(), projectID, filePath); err != nil {
		writeFileErr(w, err, filePath)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")
	turns, err := s.store.History(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error(), nil)
		return
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"turns": turns})
}

func writeFileErr(w http.ResponseWriter, err error, filePath string) {
	details := map[string]string{"path": filePath}
	switch {
	case errors.Is(err, filestore.ErrInvalidPath):
		writeErr(w, http.StatusBadRequest, "invalid_path", "file path must start with / and contain no . or .. segments", details)
	case errors.Is(err, filestore.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", "file not found", details)
	case errors.Is(err, filestore.ErrExists):
		writeErr(w, http.StatusConflict, "already_exists", "file already exists", details)
	default:
		writeErr(w, http.StatusInternalServerError, "store_error", err.Error(), details)
	}
}

func userIDFromQuery(r *http.Request) string {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		return defaultUserID
	}
	return userID
}
