// Package app wires the HTTP surface: the streaming chat endpoint, the
// project file API, and the background maintenance job.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"appforge/internal/config"
	"appforge/internal/domain"
	"appforge/internal/executor"
	"appforge/internal/filestore"
	"appforge/internal/notify"
	"appforge/internal/observability"
	"appforge/internal/orchestrator"
	"appforge/internal/provider"
	"appforge/internal/websearch"
)

const version = "0.1.0"

const defaultUserID = "anonymous"

const persistTimeout = 10 * time.Second

// ProjectStore is everything the server needs from a storage backend.
type ProjectStore interface {
	filestore.Store
	filestore.HistoryStore
	filestore.Compactor
}

type Server struct {
	cfg   config.Config
	store ProjectStore
	loop  *orchestrator.Loop

	maintenance *maintenanceJob
	closeStore  func() error
	closeOnce   sync.Once
}

func NewServer(cfg config.Config) (*Server, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	store, err := filestore.OpenSQLiteStore(context.Background(), filepath.Join(cfg.DataDir, "appforge.db"))
	if err != nil {
		return nil, err
	}
	srv, err := newServerWithStore(cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	srv.closeStore = store.Close
	return srv, nil
}

func newServerWithStore(cfg config.Config, store ProjectStore) (*Server, error) {
	var search executor.SearchProvider
	searchClient, err := websearch.NewClientFromEnv()
	switch {
	case err == nil:
		search = searchClient
	case errors.Is(err, websearch.ErrNotConfigured):
		log.Printf("web search disabled: no api key configured")
	default:
		return nil, err
	}
	return assemble(cfg, store, buildModelProvider(cfg), search)
}

func assemble(cfg config.Config, store ProjectStore, model provider.ModelProvider, search executor.SearchProvider) (*Server, error) {
	var notifier filestore.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL, nil)
	}

	exec := executor.New(store, search, notifier)
	loop := orchestrator.New(model, exec, orchestrator.Options{
		SimpleBudget:  cfg.SimpleBudget,
		ComplexBudget: cfg.ComplexBudget,
	})

	srv := &Server{cfg: cfg, store: store, loop: loop}
	if cfg.MaintenanceSchedule != "" {
		job, jobErr := startMaintenance(cfg.MaintenanceSchedule, store)
		if jobErr != nil {
			return nil, jobErr
		}
		srv.maintenance = job
	}
	return srv, nil
}

func buildModelProvider(cfg config.Config) provider.ModelProvider {
	if cfg.ProviderAPIKey != "" || cfg.ProviderBaseURL != "" {
		return provider.NewOpenAI(provider.OpenAIConfig{
			Model:     cfg.ProviderModel,
			APIKey:    cfg.ProviderAPIKey,
			BaseURL:   cfg.ProviderBaseURL,
			TimeoutMS: cfg.ProviderTimeoutMS,
		}, nil)
	}
	log.Printf("model provider not configured, falling back to the echo provider")
	return provider.NewScripted()
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.maintenance != nil {
			s.maintenance.stop()
		}
		if s.closeStore != nil {
			if err := s.closeStore(); err != nil {
				log.Printf("store close failed: %v", err)
			}
		}
	})
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(observability.RequestID)
	r.Use(observability.Logging)
	r.Use(cors)

	r.Get("/version", s.handleVersion)
	r.Get("/healthz", s.handleHealthz)

	r.Group(func(api chi.Router) {
		api.Use(observability.APIKey(s.cfg.APIKey))

		api.Post("/api/chat", s.handleChat)
		api.Get("/api/projects/{project_id}/history", s.getHistory)

		api.Route("/api/projects/{project_id}/files", func(r chi.Router) {
			r.Get("/", s.listFiles)
			r.Post("/", s.createFile)
			r.Get("/*", s.getFile)
			r.Put("/*", s.updateFile)
			r.Delete("/*", s.deleteFile)
		})
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-API-Key,X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErr(w http.ResponseWriter, code int, errCode, message string, details interface{}) {
	writeJSON(w, code, domain.APIErrorBody{Error: domain.APIError{Code: errCode, Message: message, Details: details}})
}
