package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"budget/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "db", "budget.db"), WithFileLock(time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyDatabase(t *testing.T) {
	s := newTestStore(t)
	doc, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(doc, core.NewDocument()) {
		t.Fatalf("Load() = %+v, want empty document", doc)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	doc := core.NewDocument()
	doc.Users = []core.User{
		{Name: "Zed", Email: "z@x.com", PasswordDigest: core.Digest("z")},
		{Name: "Alice", Email: "alice@x.com", PasswordDigest: core.Digest("pw123")},
	}
	doc.Budgets["alice@x.com"] = 500
	doc.Expenses["alice@x.com"] = []core.Expense{
		{Amount: 120, Date: "2024-01-05", Category: "food", Description: "groceries"},
		{Amount: 30, Date: "2024-01-06", Category: "transport", Description: "bus"},
	}
	doc.Expenses["z@x.com"] = []core.Expense{{Amount: -1, Date: "", Category: "", Description: ""}}

	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, doc)
	}
}

func TestSaveReplacesWholeDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := core.NewDocument()
	first.Users = []core.User{{Name: "A", Email: "a@x.com", PasswordDigest: "d"}}
	first.Budgets["a@x.com"] = 10
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := core.NewDocument()
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Fatalf("expected empty document after replace, got %+v", got)
	}
}

func TestReopenRunsMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	doc := core.NewDocument()
	doc.Users = []core.User{{Name: "A", Email: "a@x.com", PasswordDigest: "d"}}
	if err := s.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if s.SchemaVersion() != 1 {
		t.Fatalf("SchemaVersion() = %d, want 1", s.SchemaVersion())
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Users) != 1 || got.Users[0].Email != "a@x.com" {
		t.Fatalf("data lost across reopen: %+v", got)
	}
}

func TestDuplicateEmailRejectedBySchema(t *testing.T) {
	s := newTestStore(t)
	doc := core.NewDocument()
	doc.Users = []core.User{
		{Name: "A", Email: "a@x.com", PasswordDigest: "d"},
		{Name: "B", Email: "a@x.com", PasswordDigest: "e"},
	}
	if err := s.Save(context.Background(), doc); err == nil {
		t.Fatal("Save() should fail on duplicate email")
	}
	got, _ := s.Load(context.Background())
	if len(got.Users) != 0 {
		t.Fatalf("failed save must not leave partial rows: %+v", got.Users)
	}
}

func TestFileLockGuardsDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	first, err := New(path, WithFileLock(time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer first.Close()
	second, err := New(path, WithFileLock(100*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	unlock, err := first.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := second.Lock(context.Background()); err == nil {
		t.Fatal("second Lock() should fail while held")
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}
