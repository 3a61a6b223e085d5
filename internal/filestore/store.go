// Package filestore keeps the project collection in a single snapshot file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rpggio/tally/internal/codec"
	"github.com/rpggio/tally/internal/domain/ledger"
	"github.com/rpggio/tally/internal/repository"
)

// ProjectStore implements repository.ProjectStore on one file, replaced atomically on save.
type ProjectStore struct {
	path   string
	codec  codec.Codec
	logger *slog.Logger
	mu     sync.Mutex
}

var _ repository.ProjectStore = (*ProjectStore)(nil)

// New creates a file-backed store. The parent directory is created on first save.
func New(path string, c codec.Codec, logger *slog.Logger) *ProjectStore {
	if c == nil {
		c = codec.JSON{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProjectStore{path: path, codec: c, logger: logger}
}

// Path returns the snapshot file location.
func (s *ProjectStore) Path() string {
	return s.path
}

// LoadAll reads the snapshot. A missing or undecodable file yields an empty collection.
func (s *ProjectStore) LoadAll(ctx context.Context) ([]ledger.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// SaveAll replaces the snapshot with projects.
func (s *ProjectStore) SaveAll(ctx context.Context, projects []ledger.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, projects)
}

// Remove drops the project with id and rewrites the snapshot.
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []ledger.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	projects, err := codec.DecodeProjects(s.codec, data)
	if err != nil {
		s.logger.Warn("discarding corrupt project snapshot", "path", s.path, "error", err)
		return []ledger.Project{}, nil
	}
	return projects, nil
}

func (s *ProjectStore) saveLocked(ctx context.Context, projects []ledger.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := codec.EncodeProjects(s.codec, projects)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
