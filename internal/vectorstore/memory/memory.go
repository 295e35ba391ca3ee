package memory

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"oracle/internal/domain"
	"oracle/internal/vectorstore"
)

type collection struct {
	Dimension int
	Fragments []domain.Fragment
}

// Index is an in-process vector index using brute-force cosine distance.
// With a snapshot path every successful write is persisted, so separate
// processes can share one index through the file.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
	snapshot    string
	log         zerolog.Logger
}

// NewIndex creates an index. A non-empty snapshot path is loaded when it exists.
func NewIndex(snapshot string, log zerolog.Logger) (*Index, error) {
	idx := &Index{collections: make(map[string]*collection), snapshot: snapshot, log: log}
	if snapshot == "" {
		return idx, nil
	}
	f, err := os.Open(snapshot)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&idx.collections); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snapshot, err)
	}
	log.Debug().Str("path", snapshot).Int("collections", len(idx.collections)).Msg("snapshot loaded")
	return idx, nil
}

func (s *Index) Write(ctx context.Context, name string, fragments []domain.Fragment, recreate bool) error {
	if err := vectorstore.ValidateCollection("write", name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &domain.StorageError{Op: "write", Collection: name, Err: err}
	}
	dim, err := vectorstore.Dimension(fragments)
	if err != nil {
		return &domain.StorageError{Op: "write", Collection: name, Err: err}
	}

	if recreate {
		// built off-lock so readers keep the old contents until the swap
		fresh := &collection{Dimension: dim, Fragments: slices.Clone(fragments)}
		s.mu.Lock()
		defer s.mu.Unlock()
		prev, existed := s.collections[name]
		s.collections[name] = fresh
		if err := s.persist(); err != nil {
			if existed {
				s.collections[name] = prev
			} else {
				delete(s.collections, name)
			}
			return &domain.StorageError{Op: "write", Collection: name, Err: err}
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &collection{}
		s.collections[name] = c
	}
	if c.Dimension != 0 && dim != 0 && dim != c.Dimension {
		return &domain.StorageError{Op: "write", Collection: name,
			Err: fmt.Errorf("got %d, want %d: %w", dim, c.Dimension, domain.ErrDimensionMismatch)}
	}
	n := len(c.Fragments)
	prevDim := c.Dimension
	if c.Dimension == 0 {
		c.Dimension = dim
	}
	c.Fragments = append(c.Fragments, fragments...)
	if err := s.persist(); err != nil {
		c.Fragments = c.Fragments[:n]
		c.Dimension = prevDim
		if !ok {
			delete(s.collections, name)
		}
		return &domain.StorageError{Op: "write", Collection: name, Err: err}
	}
	return nil
}

func (s *Index) Query(ctx context.Context, name string, vector []float32, k int) ([]domain.ScoredFragment, error) {
	if err := vectorstore.ValidateCollection("query", name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.StorageError{Op: "query", Collection: name, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, &domain.StorageError{Op: "query", Collection: name, Err: domain.ErrCollectionNotFound}
	}
	if len(c.Fragments) == 0 || k <= 0 {
		return []domain.ScoredFragment{}, nil
	}
	if len(vector) != c.Dimension {
		return nil, &domain.StorageError{Op: "query", Collection: name,
			Err: fmt.Errorf("got %d, want %d: %w", len(vector), c.Dimension, domain.ErrDimensionMismatch)}
	}
	scored := make([]domain.ScoredFragment, len(c.Fragments))
	for i, f := range c.Fragments {
		scored[i] = domain.ScoredFragment{Fragment: f, Distance: vectorstore.CosineDistance(f.Vector, vector)}
	}
	return vectorstore.Rank(scored, k), nil
}

// persist writes the snapshot through a temp file and a rename. Callers hold the write lock.
func (s *Index) persist() error {
	if s.snapshot == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshot), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.snapshot), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := gob.NewEncoder(tmp).Encode(s.collections); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.snapshot)
}
