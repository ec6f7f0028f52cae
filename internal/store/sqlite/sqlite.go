// Package sqlite keeps the budget document in per-entity SQLite tables
// behind the same whole-document interface as the JSON store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db      *sql.DB
	path    string
	version uint
	lock    func(context.Context) (func() error, error)
}

// Option configures a Store.
type Option func(*Store)

// WithFileLock guards load-change-save spans with a lock file next to the
// database.
func WithFileLock(timeout time.Duration) Option {
	return func(s *Store) {
		s.lock = store.NewFileLock(s.path, timeout).Lock
	}
}

// New opens (creating if needed) the database at dbPath and applies
// migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateLedger(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, path: dbPath, version: version, lock: store.NoopLock}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SchemaVersion returns the ledger schema version applied when the store
// was opened.
func (s *Store) SchemaVersion() uint {
	return s.version
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load implements store.Store
func (s *Store) Load(ctx context.Context) (core.Document, error) {
	doc := core.NewDocument()

	users, err := s.db.QueryContext(ctx, `SELECT name, email, password FROM users ORDER BY id`)
	if err != nil {
		return core.Document{}, fmt.Errorf("query users: %w", err)
	}
	defer users.Close()
	for users.Next() {
		var u core.User
		if err := users.Scan(&u.Name, &u.Email, &u.PasswordDigest); err != nil {
			return core.Document{}, fmt.Errorf("%w: scan user: %v", core.ErrStoreUnreadable, err)
		}
		doc.Users = append(doc.Users, u)
	}
	if err := users.Err(); err != nil {
		return core.Document{}, fmt.Errorf("iterate users: %w", err)
	}

	budgets, err := s.db.QueryContext(ctx, `SELECT email, amount FROM budgets`)
	if err != nil {
		return core.Document{}, fmt.Errorf("query budgets: %w", err)
	}
	defer budgets.Close()
	for budgets.Next() {
		var email string
		var amount float64
		if err := budgets.Scan(&email, &amount); err != nil {
			return core.Document{}, fmt.Errorf("%w: scan budget: %v", core.ErrStoreUnreadable, err)
		}
		doc.Budgets[email] = amount
	}
	if err := budgets.Err(); err != nil {
		return core.Document{}, fmt.Errorf("iterate budgets: %w", err)
	}

	expenses, err := s.db.QueryContext(ctx,
		`SELECT email, amount, date, category, description FROM expenses ORDER BY id`)
	if err != nil {
		return core.Document{}, fmt.Errorf("query expenses: %w", err)
	}
	defer expenses.Close()
	for expenses.Next() {
		var email string
		var e core.Expense
		if err := expenses.Scan(&email, &e.Amount, &e.Date, &e.Category, &e.Description); err != nil {
			return core.Document{}, fmt.Errorf("%w: scan expense: %v", core.ErrStoreUnreadable, err)
		}
		doc.Expenses[email] = append(doc.Expenses[email], e)
	}
	if err := expenses.Err(); err != nil {
		return core.Document{}, fmt.Errorf("iterate expenses: %w", err)
	}

	return doc, nil
}

// Save implements store.Store by replacing every row in one transaction.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"expenses", "budgets", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, u := range doc.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (name, email, password) VALUES (?, ?, ?)`,
			u.Name, u.Email, u.PasswordDigest); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
	}

	for email, amount := range doc.Budgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (email, amount) VALUES (?, ?)`,
			email, amount); err != nil {
			return fmt.Errorf("insert budget %s: %w", email, err)
		}
	}

	for email, expenses := range doc.Expenses {
		for _, e := range expenses {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO expenses (email, amount, date, category, description) VALUES (?, ?, ?, ?, ?)`,
				email, e.Amount, e.Date, e.Category, e.Description); err != nil {
				return fmt.Errorf("insert expense for %s: %w", email, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentStore).DebugContext(ctx, "Document saved to SQLite",
		applog.FieldPath, s.path,
		applog.FieldUsers, len(doc.Users),
		applog.FieldExpenses, len(doc.Expenses))
	return nil
}

// Lock implements store.Store
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	return s.lock(ctx)
}
