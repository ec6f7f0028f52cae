// Package store defines the persistence port for the budget document and
// the advisory lock shared by the file-backed implementations.
package store

import (
	"context"

	"budget/internal/core"
)

type (
	// Store owns the single persisted document. There is no partial-update
	// API: callers load the whole document, change it, and save it back.
	Store interface {
		// Load returns the persisted document, or a fresh empty one when
		// nothing has been saved yet. A document that exists but cannot be
		// parsed yields an error wrapping core.ErrStoreUnreadable.
		Load(ctx context.Context) (core.Document, error)

		// Save replaces the persisted document with doc.
		Save(ctx context.Context, doc core.Document) error

		// Lock acquires exclusive access for a load-change-save span.
		Lock(ctx context.Context) (unlock func() error, err error)
	}
)
