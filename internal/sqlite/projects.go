package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/tally/internal/codec"
	"github.com/rpggio/tally/internal/domain/ledger"
	"github.com/rpggio/tally/internal/repository"
)

// ProjectsKey is the kv_records key holding the project collection.
const ProjectsKey = "projects"

// ProjectStore implements repository.ProjectStore on a single kv_records row.
type ProjectStore struct {
	db     *DB
	codec  codec.Codec
	logger *slog.Logger
	mu     sync.Mutex
}

var _ repository.ProjectStore = (*ProjectStore)(nil)

// NewProjectStore creates a ProjectStore writing snapshots with c.
func NewProjectStore(db *DB, c codec.Codec, logger *slog.Logger) *ProjectStore {
	if c == nil {
		c = codec.JSON{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProjectStore{db: db, codec: c, logger: logger}
}

// LoadAll returns the stored collection. Missing or undecodable data yields an empty one.
func (s *ProjectStore) LoadAll(ctx context.Context) ([]ledger.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// SaveAll overwrites the stored collection.
func (s *ProjectStore) SaveAll(ctx context.Context, projects []ledger.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, projects)
}

// Remove drops the project with id and rewrites the collection.
func (s *ProjectStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	return s.saveLocked(ctx, repository.WithoutProject(projects, id))
}

func (s *ProjectStore) loadLocked(ctx context.Context) ([]ledger.Project, error) {
	data, format, err := s.read(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return []ledger.Project{}, nil
	}
	if err != nil {
		return nil, err
	}

	c, err := codec.ForFormat(format)
	if err == nil {
		var projects []ledger.Project
		projects, err = codec.DecodeProjects(c, data)
		if err == nil {
			return projects, nil
		}
	}
	s.logger.Warn("discarding corrupt project snapshot", "key", ProjectsKey, "format", format, "error", err)
	return []ledger.Project{}, nil
}

func (s *ProjectStore) read(ctx context.Context) ([]byte, string, error) {
	query := `
		SELECT value, format
		FROM kv_records
		WHERE key = ?
	`

	var data []byte
	var format string
	err := s.db.QueryRowContext(ctx, query, ProjectsKey).Scan(&data, &format)
	if err == sql.ErrNoRows {
		return nil, "", repository.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read project snapshot: %w", err)
	}
	return data, format, nil
}

func (s *ProjectStore) saveLocked(ctx context.Context, projects []ledger.Project) error {
	data, err := codec.EncodeProjects(s.codec, projects)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO kv_records (key, format, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			format = excluded.format,
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, ProjectsKey, s.codec.Name(), data, time.Now()); err != nil {
		return fmt.Errorf("failed to save project snapshot: %w", err)
	}
	return nil
}
