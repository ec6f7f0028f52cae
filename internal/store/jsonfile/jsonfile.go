// Package jsonfile persists the budget document as one JSON file.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/renameio"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/store"
)

const indent = "    "

type Store struct {
	path string
	lock func(context.Context) (func() error, error)
}

// Option configures a Store.
type Option func(*Store)

// WithFileLock guards load-change-save spans with a lock file next to the
// document. Without it, concurrent processes can overwrite each other.
func WithFileLock(timeout time.Duration) Option {
	return func(s *Store) {
		s.lock = store.NewFileLock(s.path, timeout).Lock
	}
}

func New(path string, opts ...Option) *Store {
	s := &Store{path: path, lock: store.NoopLock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load implements store.Store
func (s *Store) Load(ctx context.Context) (core.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		logger(ctx).DebugContext(ctx, "Data file not found, starting empty", applog.FieldPath, s.path)
		return core.NewDocument(), nil
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("read data file: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return core.Document{}, fmt.Errorf("%w: parse %s: %v", core.ErrStoreUnreadable, s.path, err)
	}
	return doc, nil
}

var documentKeys = []string{"users", "budgets", "expenses"}

// decode accepts only a JSON object holding exactly the document keys.
// Anything else is reported as unreadable.
func decode(data []byte) (core.Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return core.Document{}, err
	}
	if top == nil {
		return core.Document{}, errors.New("document is null")
	}
	for _, key := range documentKeys {
		if _, ok := top[key]; !ok {
			return core.Document{}, fmt.Errorf("missing %q", key)
		}
	}

	var doc core.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return core.Document{}, err
	}
	doc.Normalize()
	return doc, nil
}

// Save implements store.Store. The document is written to a temporary file
// and renamed over the old one, so readers see either the old or the new
// document in full.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", indent)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}

	logger(ctx).DebugContext(ctx, "Data file saved",
		applog.FieldPath, s.path,
		applog.FieldUsers, len(doc.Users),
		"bytes", len(data))
	return nil
}

// Lock implements store.Store
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	return s.lock(ctx)
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentStore)
}
