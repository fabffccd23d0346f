package ngram

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// stagingExt is the extension of staged partial files.
const stagingExt = ".tmp"

// Staging is the ephemeral area holding partial tables between a shard task
// finishing and the merge reduction consuming its output. Every staged
// partial is written under a fresh uuid, so concurrent writers never collide
// and no serialization of writes is needed.
type Staging struct {
	dir string
}

// NewStaging creates the staging area rooted at dir, creating the directory
// if necessary.
func NewStaging(dir string) (*Staging, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create staging directory %s: %w", dir, err)
	}
	return &Staging{dir: dir}, nil
}

// Dir returns the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// Put stages one partial table under a globally unique name and returns its
// path. The write is atomic: a partial never becomes visible to the merge
// reduction half-written.
func (s *Staging) Put(t *Table) (string, error) {
	var buf bytes.Buffer
	if err := t.Export(&buf); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, uuid.NewString()+stagingExt)
	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", fmt.Errorf("could not stage partial to %s: %w", path, err)
	}
	return path, nil
}

// List returns the paths of every staged partial.
func (s *Staging) List() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*"+stagingExt))
	if err != nil {
		return nil, fmt.Errorf("could not list staging directory %s: %w", s.dir, err)
	}
	return paths, nil
}

// Remove deletes one consumed partial.
func (s *Staging) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("could not remove staged partial %s: %w", path, err)
	}
	return nil
}

// Clear deletes every staged partial. The orchestrator clears staging before
// an order begins, to drop stale artifacts of a previous run, and again after
// it completes or aborts, so staging is always empty between orders.
func (s *Staging) Clear() error {
	paths, err := s.List()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := s.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
