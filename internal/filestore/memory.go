package filestore

import (
	"context"
	"fmt"
	"sync"

	"appforge/internal/domain"
)

type projectFiles struct {
	order  []string
	byPath map[string]domain.ProjectFile
}

// MemoryStore is the in-process store used by tests and demo mode. Creation
// order is preserved per project so listings and searches are deterministic.
type MemoryStore struct {
	mu        sync.RWMutex
	projects  map[string]*projectFiles
	histories map[string][]domain.ConversationTurn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:  map[string]*projectFiles{},
		histories: map[string][]domain.ConversationTurn{},
	}
}

func (s *MemoryStore) project(projectID string) *projectFiles {
	p, ok := s.projects[projectID]
	if !ok {
		p = &projectFiles{byPath: map[string]domain.ProjectFile{}}
		s.projects[projectID] = p
	}
	return p
}

func (s *MemoryStore) List(_ context.Context, projectID string) ([]domain.ProjectFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return []domain.ProjectFile{}, nil
	}
	out := make([]domain.ProjectFile, 0, len(p.order))
	for _, filePath := range p.order {
		out = append(out, p.byPath[filePath])
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, projectID, filePath string) (*domain.ProjectFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}
	file, ok := p.byPath[filePath]
	if !ok {
		return nil, nil
	}
	return &file, nil
}

func (s *MemoryStore) Create(_ context.Context, projectID, _ string, filePath, content string) (domain.ProjectFile, error) {
	if err := ValidatePath(filePath); err != nil {
		return domain.ProjectFile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(projectID)
	if _, exists := p.byPath[filePath]; exists {
		return domain.ProjectFile{}, fmt.Errorf("%w: %s", ErrExists, filePath)
	}
	file := domain.ProjectFile{
		Path:      filePath,
		Name:      fileName(filePath),
		Type:      domain.FileTypeFile,
		Content:   content,
		Language:  LanguageForPath(filePath),
		Size:      len(content),
		UpdatedAt: nowISO(),
	}
	p.byPath[filePath] = file
	p.order = append(p.order, filePath)
	return file, nil
}

func (s *MemoryStore) Update(_ context.Context, projectID, filePath, content string) (domain.ProjectFile, error) {
	if err := ValidatePath(filePath); err != nil {
		return domain.ProjectFile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(projectID)
	file, exists := p.byPath[filePath]
	if !exists {
		return domain.ProjectFile{}, fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	file.Content = content
	file.Size = len(content)
	file.UpdatedAt = nowISO()
	p.byPath[filePath] = file
	return file, nil
}

func (s *MemoryStore) Delete(_ context.Context, projectID, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	if _, exists := p.byPath[filePath]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	delete(p.byPath, filePath)
	for i, candidate := range p.order {
		if candidate == filePath {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) AppendTurns(_ context.Context, projectID string, turns []domain.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[projectID] = append(s.histories[projectID], turns...)
	return nil
}

func (s *MemoryStore) History(_ context.Context, projectID string) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.histories[projectID]
	out := make([]domain.ConversationTurn, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStore) Compact(context.Context) error {
	return nil
}
