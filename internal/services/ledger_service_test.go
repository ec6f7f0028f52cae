package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/store/jsonfile"
	"budget/internal/store/memory"
)

type recordingNotifier struct {
	alerts []core.BudgetAlert
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, alert core.BudgetAlert) error {
	n.alerts = append(n.alerts, alert)
	return n.err
}

// failingStore wraps a memory store and fails the chosen call.
type failingStore struct {
	*memory.Store
	loadErr error
	saveErr error
	lockErr error
}

func (f *failingStore) Load(ctx context.Context) (core.Document, error) {
	if f.loadErr != nil {
		return core.Document{}, f.loadErr
	}
	return f.Store.Load(ctx)
}

func (f *failingStore) Save(ctx context.Context, doc core.Document) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, doc)
}

func (f *failingStore) Lock(ctx context.Context) (func() error, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	return f.Store.Lock(ctx)
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: &bytes.Buffer{}})
}

func newService(t *testing.T) (*LedgerService, *memory.Store, *recordingNotifier) {
	t.Helper()
	st := memory.New()
	n := &recordingNotifier{}
	return NewLedgerService(st, n, quietLogger()), st, n
}

func mustRegister(t *testing.T, svc *LedgerService, name, email, password string) core.User {
	t.Helper()
	u, err := svc.Register(context.Background(), name, email, password, password)
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t)

	u, err := svc.Register(ctx, "Alice", "alice@x.com", "pw123", "pw123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	want := core.User{Name: "Alice", Email: "alice@x.com", PasswordDigest: core.Digest("pw123")}
	if u != want {
		t.Fatalf("Register() = %+v, want %+v", u, want)
	}

	doc, _ := st.Load(ctx)
	if len(doc.Users) != 1 || doc.Users[0] != want {
		t.Fatalf("stored users = %+v", doc.Users)
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t)

	_, err := svc.Register(ctx, "Alice", "alice@x.com", "pw123", "pw124")
	if !errors.Is(err, core.ErrPasswordMismatch) {
		t.Fatalf("Register() error = %v, want ErrPasswordMismatch", err)
	}
	if st.Saves() != 0 {
		t.Fatalf("mismatch must not save, got %d saves", st.Saves())
	}
}

func TestRegisterDuplicateEmailLeavesDocumentUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t)
	mustRegister(t, svc, "Alice", "alice@x.com", "pw123")
	before, _ := st.Load(ctx)
	saves := st.Saves()

	_, err := svc.Register(ctx, "Other Alice", "alice@x.com", "different", "different")
	if !errors.Is(err, core.ErrDuplicateEmail) {
		t.Fatalf("Register() error = %v, want ErrDuplicateEmail", err)
	}

	after, _ := st.Load(ctx)
	if !reflect.DeepEqual(before, after) || st.Saves() != saves {
		t.Fatalf("document changed after duplicate registration: %+v", after)
	}
}

func TestRegisterUniquenessOverSequence(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t)

	emails := []string{"a@x.com", "b@x.com", "a@x.com", "A@x.com", "b@x.com", "c@x.com", "a@x.com"}
	var dupes int
	for i, email := range emails {
		_, err := svc.Register(ctx, fmt.Sprintf("user%d", i), email, "pw", "pw")
		if errors.Is(err, core.ErrDuplicateEmail) {
			dupes++
		} else if err != nil {
			t.Fatalf("Register(%s) error = %v", email, err)
		}
	}

	doc, _ := st.Load(ctx)
	seen := map[string]bool{}
	for _, u := range doc.Users {
		if seen[u.Email] {
			t.Fatalf("duplicate email stored: %s", u.Email)
		}
		seen[u.Email] = true
	}
	// Emails are case-sensitive, so A@x.com is distinct.
	if len(doc.Users) != 4 || dupes != 3 {
		t.Fatalf("users = %d dupes = %d, want 4 and 3", len(doc.Users), dupes)
	}
	if doc.Users[0].Name != "user0" || doc.Users[3].Name != "user5" {
		t.Fatalf("registration order not preserved: %+v", doc.Users)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")
	mustRegister(t, svc, "Bob", "bob@x.com", "hunter2")

	got, err := svc.Login(ctx, "alice@x.com", "pw123")
	if err != nil || got != alice {
		t.Fatalf("Login() = %+v, %v; want %+v", got, err, alice)
	}

	cases := []struct {
		name, email, password string
	}{
		{"wrong password", "alice@x.com", "nope"},
		{"unknown email", "carol@x.com", "pw123"},
		{"another user's password", "alice@x.com", "hunter2"},
		{"email case differs", "Alice@x.com", "pw123"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, core.ErrAuthFailure) {
				t.Fatalf("Login() error = %v, want ErrAuthFailure", err)
			}
			if u != (core.User{}) {
				t.Fatalf("Login() returned a user on failure: %+v", u)
			}
		})
	}
}

func TestSetBudgetOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t)
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")

	if err := svc.SetBudget(ctx, alice, 500); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if err := svc.SetBudget(ctx, alice, 250); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}

	doc, _ := st.Load(ctx)
	if len(doc.Budgets) != 1 || doc.Budgets["alice@x.com"] != 250 {
		t.Fatalf("budgets = %v, want only 250", doc.Budgets)
	}
}

func TestSetBudgetAcceptsNegativeRejectsNaN(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")

	if err := svc.SetBudget(ctx, alice, -10); err != nil {
		t.Fatalf("SetBudget(-10) error = %v", err)
	}
	if err := svc.SetBudget(ctx, alice, math.NaN()); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("SetBudget(NaN) error = %v, want ErrInvalidAmount", err)
	}
	s, err := svc.BudgetSummary(ctx, alice)
	if err != nil || s.Budget != -10 {
		t.Fatalf("BudgetSummary() = %+v, %v", s, err)
	}
}

func TestAddExpenseAndList(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")
	bob := mustRegister(t, svc, "Bob", "bob@x.com", "pw")

	expenses := []core.Expense{
		{Amount: 120, Date: "2024-01-05", Category: "food", Description: "groceries"},
		{Amount: 30, Date: "2024-01-06", Category: "transport", Description: "bus"},
		{Amount: -5, Date: "yesterday", Category: "", Description: ""},
	}
	for _, e := range expenses {
		if err := svc.AddExpense(ctx, alice, e); err != nil {
			t.Fatalf("AddExpense() error = %v", err)
		}
	}

	got, err := svc.ListExpenses(ctx, alice)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if !reflect.DeepEqual(got, expenses) {
		t.Fatalf("ListExpenses() = %+v, want %+v", got, expenses)
	}

	none, err := svc.ListExpenses(ctx, bob)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("ListExpenses() for user without expenses = %#v, want empty slice", none)
	}

	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: math.Inf(1)}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("AddExpense(Inf) error = %v, want ErrInvalidAmount", err)
	}
}

func TestBudgetSummary(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		budget    float64
		amounts   []float64
		total     float64
		remaining float64
	}{
		{"no expenses", 500, nil, 0, 500},
		{"under budget", 500, []float64{120, 30}, 150, 350},
		{"over budget", 100, []float64{80, 50}, 130, -30},
		{"zero budget counts as set", 0, []float64{10}, 10, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService(t)
			alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")
			if err := svc.SetBudget(ctx, alice, tt.budget); err != nil {
				t.Fatalf("SetBudget() error = %v", err)
			}
			for _, a := range tt.amounts {
				if err := svc.AddExpense(ctx, alice, core.Expense{Amount: a}); err != nil {
					t.Fatalf("AddExpense() error = %v", err)
				}
			}
			got, err := svc.BudgetSummary(ctx, alice)
			if err != nil {
				t.Fatalf("BudgetSummary() error = %v", err)
			}
			want := core.Summary{Budget: tt.budget, TotalExpenses: tt.total, Remaining: tt.remaining}
			if got != want {
				t.Fatalf("BudgetSummary() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestEmptyState(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")

	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 10}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if _, err := svc.BudgetSummary(ctx, alice); !errors.Is(err, core.ErrNoBudgetSet) {
		t.Fatalf("BudgetSummary() error = %v, want ErrNoBudgetSet", err)
	}

	stranger := core.User{Email: "nobody@x.com"}
	list, err := svc.ListExpenses(ctx, stranger)
	if err != nil || len(list) != 0 {
		t.Fatalf("ListExpenses() = %v, %v; want empty", list, err)
	}
}

func TestBudgetAlerts(t *testing.T) {
	ctx := context.Background()
	svc, _, n := newService(t)
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")

	// No budget, no alert.
	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 1000}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if len(n.alerts) != 0 {
		t.Fatalf("unexpected alerts without budget: %+v", n.alerts)
	}

	if err := svc.SetBudget(ctx, alice, 2000); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 500}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if len(n.alerts) != 0 {
		t.Fatalf("unexpected alert under budget: %+v", n.alerts)
	}

	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 600}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	want := core.BudgetAlert{Email: "alice@x.com", Budget: 2000, Total: 2100, Remaining: -100}
	if len(n.alerts) != 1 || n.alerts[0] != want {
		t.Fatalf("alerts = %+v, want [%+v]", n.alerts, want)
	}
}

func TestNotifierFailureDoesNotFailAddExpense(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	n := &recordingNotifier{err: errors.New("broker down")}
	svc := NewLedgerService(st, n, quietLogger())
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")

	if err := svc.SetBudget(ctx, alice, 10); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 20}); err != nil {
		t.Fatalf("AddExpense() error = %v, notifier failure must be swallowed", err)
	}
	list, _ := svc.ListExpenses(ctx, alice)
	if len(list) != 1 {
		t.Fatalf("expense not saved: %+v", list)
	}
}

func TestNilNotifierAndLogger(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(memory.New(), nil, nil)
	alice := mustRegister(t, svc, "Alice", "alice@x.com", "pw123")
	if err := svc.SetBudget(ctx, alice, 1); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 5}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	unreadable := fmt.Errorf("%w: parse data.json", core.ErrStoreUnreadable)
	user := core.User{Email: "alice@x.com"}

	t.Run("unreadable store", func(t *testing.T) {
		svc := NewLedgerService(&failingStore{Store: memory.New(), loadErr: unreadable}, nil, quietLogger())
		if _, err := svc.Login(ctx, "alice@x.com", "pw"); !errors.Is(err, core.ErrStoreUnreadable) {
			t.Fatalf("Login() error = %v, want ErrStoreUnreadable", err)
		}
		if _, err := svc.Register(ctx, "A", "alice@x.com", "pw", "pw"); !errors.Is(err, core.ErrStoreUnreadable) {
			t.Fatalf("Register() error = %v, want ErrStoreUnreadable", err)
		}
		if _, err := svc.BudgetSummary(ctx, user); !errors.Is(err, core.ErrStoreUnreadable) {
			t.Fatalf("BudgetSummary() error = %v, want ErrStoreUnreadable", err)
		}
	})

	t.Run("save failure", func(t *testing.T) {
		saveErr := errors.New("disk full")
		svc := NewLedgerService(&failingStore{Store: memory.New(), saveErr: saveErr}, nil, quietLogger())
		if err := svc.SetBudget(ctx, user, 10); !errors.Is(err, saveErr) {
			t.Fatalf("SetBudget() error = %v, want %v", err, saveErr)
		}
	})

	t.Run("lock failure", func(t *testing.T) {
		lockErr := errors.New("locked by another process")
		st := &failingStore{Store: memory.New(), lockErr: lockErr}
		svc := NewLedgerService(st, nil, quietLogger())
		if err := svc.AddExpense(ctx, user, core.Expense{Amount: 1}); !errors.Is(err, lockErr) {
			t.Fatalf("AddExpense() error = %v, want %v", err, lockErr)
		}
		if st.Saves() != 0 {
			t.Fatalf("nothing may be saved without the lock")
		}
	})
}

func TestEndToEndWithJSONFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget_tracker_data.json")
	svc := NewLedgerService(jsonfile.New(path, jsonfile.WithFileLock(0)), nil, quietLogger())

	if _, err := svc.Register(ctx, "Alice", "alice@x.com", "pw123", "pw123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	alice, err := svc.Login(ctx, "alice@x.com", "pw123")
	if err != nil || alice.Name != "Alice" {
		t.Fatalf("Login() = %+v, %v", alice, err)
	}
	if err := svc.SetBudget(ctx, alice, 500.0); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}
	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 120.0, Date: "2024-01-05", Category: "food", Description: "groceries"}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	if err := svc.AddExpense(ctx, alice, core.Expense{Amount: 30.0, Date: "2024-01-06", Category: "transport", Description: "bus"}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}

	// A fresh service over the same file sees everything: no state is held
	// in memory between calls.
	svc2 := NewLedgerService(jsonfile.New(path), nil, quietLogger())
	got, err := svc2.BudgetSummary(ctx, alice)
	if err != nil {
		t.Fatalf("BudgetSummary() error = %v", err)
	}
	want := core.Summary{Budget: 500, TotalExpenses: 150, Remaining: 350}
	if got != want {
		t.Fatalf("BudgetSummary() = %+v, want %+v", got, want)
	}
}

func TestForeignDataFileIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"null", "{}", `{"accounts": [{"name": "keep me"}]}`} {
		path := filepath.Join(t.TempDir(), "budget_tracker_data.json")
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		svc := NewLedgerService(jsonfile.New(path), nil, quietLogger())

		if _, err := svc.Register(ctx, "A", "a@x.com", "pw", "pw"); !errors.Is(err, core.ErrStoreUnreadable) {
			t.Fatalf("Register() over %s error = %v, want ErrStoreUnreadable", raw, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(data) != raw {
			t.Fatalf("file rewritten: got %s, want %s", data, raw)
		}
	}
}
