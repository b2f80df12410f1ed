// Package file implements storage.ArtifactStorage on a local directory.
//
// Every artifact is written to its own <id>.json file and the ID of the most
// recently published one is kept in a "latest" pointer file. Both are written
// to a temporary file first and renamed into place, so a reader never observes
// a partially written artifact and an interrupted publish leaves the previous
// latest artifact in effect.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"loanapproval/pkg/domain"
	"loanapproval/pkg/storage"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	latestFile = "latest"
	extension  = ".json"
)

// Store is a directory backed artifact store. It is safe for concurrent use
// within one process.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

var _ storage.ArtifactStorage = (*Store)(nil)

// New creates the directory if needed and returns a Store rooted at it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("could not create artifact directory: %w", err)
	}

	return &Store{dir: dir, now: time.Now}, nil
}

// PublishArtifact writes the artifact and then moves the latest pointer to it.
func (s *Store) PublishArtifact(ctx context.Context, artifact domain.Artifact) (*domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("could not publish artifact: %w", err)
	}

	artifact, err := storage.Stamp(artifact, s.now())
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("could not encode artifact: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAtomic(artifact.ID.String()+extension, data); err != nil {
		return nil, err
	}
	if err := s.writeAtomic(latestFile, []byte(artifact.ID.String())); err != nil {
		return nil, err
	}

	return &artifact, nil
}

// LatestArtifact follows the latest pointer.
func (s *Store) LatestArtifact(ctx context.Context) (*domain.Artifact, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, latestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read latest artifact pointer: %w", err)
	}

	id, err := uuid.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid latest artifact pointer: %w", err)
	}

	artifact, err := s.ArtifactByID(ctx, domain.ArtifactID(id))
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, fmt.Errorf("latest artifact %s does not exist", id)
	}

	return artifact, nil
}

// ArtifactByID reads a single artifact file.
func (s *Store) ArtifactByID(ctx context.Context, id domain.ArtifactID) (*domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("could not read artifact: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, id.String()+extension))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read artifact %s: %w", id, err)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("could not decode artifact %s: %w", id, err)
	}

	return &artifact, nil
}

func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("could not write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("could not sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("could not move %s into place: %w", name, err)
	}

	return nil
}
