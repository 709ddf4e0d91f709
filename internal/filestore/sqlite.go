package filestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"appforge/internal/domain"
)

// SQLiteStore is the persistent store behind the gateway. Files keep a
// monotonically increasing seq so listings replay creation order, matching
// the memory store's iteration contract.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	schema := `
CREATE TABLE IF NOT EXISTS project_files (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id TEXT NOT NULL,
  path TEXT NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'file',
  content TEXT NOT NULL DEFAULT '',
  language TEXT NOT NULL DEFAULT 'plaintext',
  size INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL,
  UNIQUE(project_id, path)
);

CREATE TABLE IF NOT EXISTS conversation_turns (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id TEXT NOT NULL,
  role TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  tool_call_id TEXT NOT NULL DEFAULT '',
  tool_calls TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_turns_project ON conversation_turns(project_id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context, projectID string) ([]domain.ProjectFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, name, type, content, language, size, updated_at
		 FROM project_files WHERE project_id = ? ORDER BY seq`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ProjectFile{}
	for rows.Next() {
		var file domain.ProjectFile
		if err := rows.Scan(&file.Path, &file.Name, &file.Type, &file.Content, &file.Language, &file.Size, &file.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, projectID, filePath string) (*domain.ProjectFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT path, name, type, content, language, size, updated_at
		 FROM project_files WHERE project_id = ? AND path = ?`, projectID, filePath)
	var file domain.ProjectFile
	err := row.Scan(&file.Path, &file.Name, &file.Type, &file.Content, &file.Language, &file.Size, &file.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *SQLiteStore) Create(ctx context.Context, projectID, userID, filePath, content string) (domain.ProjectFile, error) {
	if err := ValidatePath(filePath); err != nil {
		return domain.ProjectFile{}, err
	}
	existing, err := s.Get(ctx, projectID, filePath)
	if err != nil {
		return domain.ProjectFile{}, err
	}
	if existing != nil {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO project_files(project_id, path, name, type, content, language, size, created_by, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, file.Path, file.Name, file.Type, file.Content, file.Language, file.Size, userID, file.UpdatedAt)
	if err != nil {
		return domain.ProjectFile{}, err
	}
	return file, nil
}

func (s *SQLiteStore) Update(ctx context.Context, projectID, filePath, content string) (domain.ProjectFile, error) {
	if err := ValidatePath(filePath); err != nil {
		return domain.ProjectFile{}, err
	}
	updatedAt := nowISO()
	res, err := s.db.ExecContext(ctx,
		`UPDATE project_files SET content = ?, size = ?, updated_at = ?
		 WHERE project_id = ? AND path = ?`,
		content, len(content), updatedAt, projectID, filePath)
	if err != nil {
		return domain.ProjectFile{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.ProjectFile{}, err
	}
	if affected == 0 {
		return domain.ProjectFile{}, fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	return domain.ProjectFile{
		Path:      filePath,
		Name:      fileName(filePath),
		Type:      domain.FileTypeFile,
		Content:   content,
		Language:  LanguageForPath(filePath),
		Size:      len(content),
		UpdatedAt: updatedAt,
	}, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, projectID, filePath string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM project_files WHERE project_id = ? AND path = ?`, projectID, filePath)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	return nil
}

func (s *SQLiteStore) AppendTurns(ctx context.Context, projectID string, turns []domain.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, turn := range turns {
		toolCalls := ""
		if len(turn.ToolCalls) > 0 {
			raw, err := json.Marshal(turn.ToolCalls)
			if err != nil {
				_ = tx.Rollback()
				return err
			}
			toolCalls = string(raw)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversation_turns(project_id, role, content, tool_call_id, tool_calls)
			 VALUES(?, ?, ?, ?, ?)`,
			projectID, turn.Role, turn.Content, turn.ToolCallID, toolCalls); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) History(ctx context.Context, projectID string) ([]domain.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, tool_call_id, tool_calls
		 FROM conversation_turns WHERE project_id = ? ORDER BY seq`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ConversationTurn{}
	for rows.Next() {
		var turn domain.ConversationTurn
		var toolCalls string
		if err := rows.Scan(&turn.Role, &turn.Content, &turn.ToolCallID, &toolCalls); err != nil {
			return nil, err
		}
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &turn.ToolCalls); err != nil {
				return nil, err
			}
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Compact(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `VACUUM;`)
	return err
}
