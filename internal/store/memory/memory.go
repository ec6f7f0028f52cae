package memory

import (
	"context"
	"sync"

	"budget/internal/core"
)

// Store keeps the document in process memory. It is the fake used in tests
// and the DATA_BACKEND=memory backend; nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	sem   chan struct{}
	doc   core.Document
	saves int
}

func New() *Store {
	return &Store{doc: core.NewDocument(), sem: make(chan struct{}, 1)}
}

// NewWithDocument seeds the store with a copy of doc.
func NewWithDocument(doc core.Document) *Store {
	doc.Normalize()
	return &Store{doc: doc.Clone(), sem: make(chan struct{}, 1)}
}

// Load returns a copy, so callers cannot mutate stored state without Save.
func (s *Store) Load(_ context.Context) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

// Save replaces the stored document with a copy of doc.
func (s *Store) Save(_ context.Context, doc core.Document) error {
	doc.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.saves++
	return nil
}

// Lock serializes load-change-save spans within the process.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	select {
	case s.sem <- struct{}{}:
		return func() error { <-s.sem; return nil }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Saves reports how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
