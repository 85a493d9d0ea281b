package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/infrastructure/monitoring"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalid         = errors.New("invalid")
	ErrNoActiveFeature = errors.New("no active feature")
)

// Store reads and writes the workspace document at a fixed path.
type Store struct {
	path    string
	logger  *zap.Logger
	metrics *monitoring.Metrics

	// mu is held for a whole load-mutate-save cycle.
	mu sync.Mutex
}

// NewStore creates a store for the document at path. The file need not exist.
func NewStore(path string, logger *zap.Logger, metrics *monitoring.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:    path,
		logger:  logger,
		metrics: metrics,
	}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file yields an empty workspace.
func (s *Store) Load() (*WorkspaceData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := monitoring.NewTimer(s.metrics, "load")
	data, err := s.load()
	timer.Stop(statusOf(err))
	return data, err
}

// Save replaces the document wholesale.
func (s *Store) Save(data *WorkspaceData) error {
	if data == nil {
		return fmt.Errorf("%w: workspace data is required", ErrInvalid)
	}
	data.normalize()
	if err := validateDocument(data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timer := monitoring.NewTimer(s.metrics, "save")
	err := s.save(data)
	timer.Stop(statusOf(err))
	return err
}

func (s *Store) load() (*WorkspaceData, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data := &WorkspaceData{}
		data.normalize()
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	var data WorkspaceData
	if err := sonic.ConfigStd.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to parse workspace: %w", err)
	}
	data.normalize()
	return &data, nil
}

// save writes to a temp file in the same directory and renames it over the
// document so readers never see a partial file.
func (s *Store) save(data *WorkspaceData) error {
	data.normalize()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	content, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize workspace: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".workspace-*.json")
	if err != nil {
		return fmt.Errorf("failed to write workspace: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write workspace: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write workspace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write workspace: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		s.logger.Debug("Failed to chmod workspace temp file", zap.Error(err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write workspace: %w", err)
	}
	return nil
}

// update runs one load-mutate-save cycle. Nothing is written when mutate
// returns an error.
func (s *Store) update(op string, mutate func(*WorkspaceData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := monitoring.NewTimer(s.metrics, op)

	data, err := s.load()
	if err == nil {
		err = mutate(data)
	}
	if err == nil {
		err = s.save(data)
	}

	timer.Stop(statusOf(err))
	if err != nil {
		s.logger.Debug("Workspace operation failed", zap.String("op", op), zap.Error(err))
		return err
	}
	s.logger.Debug("Workspace updated", zap.String("op", op))
	return nil
}

// view runs a read-only function against a freshly loaded document.
func (s *Store) view(op string, read func(*WorkspaceData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := monitoring.NewTimer(s.metrics, op)
	data, err := s.load()
	if err == nil {
		err = read(data)
	}
	timer.Stop(statusOf(err))
	return err
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// validateDocument checks what a wholesale Save must not break: unique
// project paths and well-formed layout trees.
func validateDocument(data *WorkspaceData) error {
	paths := make(map[string]struct{}, len(data.Projects))
	for i := range data.Projects {
		p := &data.Projects[i]
		if _, dup := paths[p.Path]; dup {
			return fmt.Errorf("project '%s': %w", p.Path, ErrAlreadyExists)
		}
		paths[p.Path] = struct{}{}

		for j := range p.Features {
			if l := p.Features[j].Layout; l != nil {
				if err := l.validateShape(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
