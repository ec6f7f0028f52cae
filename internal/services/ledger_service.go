package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/store"
)

// Notifier receives an alert whenever an expense leaves a user over budget.
type Notifier interface {
	Notify(ctx context.Context, alert core.BudgetAlert) error
}

// LedgerService registers and authenticates users and keeps their budget
// and expense ledger. It holds no document state between calls: every
// operation loads the whole document from the store, and every mutation
// saves it back while holding the store lock.
type LedgerService struct {
	store    store.Store
	notifier Notifier
	logger   *applog.Logger
	events   *applog.StructuredLogger
}

// NewLedgerService wires the service to its store. notifier and logger may
// be nil.
func NewLedgerService(s store.Store, notifier Notifier, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentLedger)
	return &LedgerService{
		store:    s,
		notifier: notifier,
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
	}
}

// Register adds a new user. It fails with core.ErrPasswordMismatch when the
// confirmation differs and core.ErrDuplicateEmail when the email is taken;
// in both cases nothing is saved.
func (s *LedgerService) Register(ctx context.Context, name, email, password, confirmPassword string) (user core.User, err error) {
	defer s.track(ctx, applog.OpRegister, email, time.Now(), &err)

	if password != confirmPassword {
		return core.User{}, core.ErrPasswordMismatch
	}

	user = core.User{
		Name:           name,
		Email:          email,
		PasswordDigest: core.Digest(password),
	}
	_, err = s.update(ctx, func(doc *core.Document) error {
		if doc.FindUser(email) >= 0 {
			return core.ErrDuplicateEmail
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return core.User{}, err
	}
	return user, nil
}

// Login returns the user whose email and password digest both match.
// An unknown email and a wrong password both yield core.ErrAuthFailure so
// callers cannot probe which emails are registered.
func (s *LedgerService) Login(ctx context.Context, email, password string) (user core.User, err error) {
	defer s.track(ctx, applog.OpLogin, email, time.Now(), &err)

	doc, err := s.load(ctx)
	if err != nil {
		return core.User{}, err
	}

	digest := core.Digest(password)
	for _, u := range doc.Users {
		if u.Email == email && u.PasswordDigest == digest {
			return u, nil
		}
	}
	return core.User{}, core.ErrAuthFailure
}

// SetBudget overwrites the user's budget. Negative amounts are accepted.
func (s *LedgerService) SetBudget(ctx context.Context, user core.User, amount float64) (err error) {
	defer s.track(ctx, applog.OpSetBudget, user.Email, time.Now(), &err)

	if err := core.ValidateAmount(amount); err != nil {
		return err
	}

	_, err = s.update(ctx, func(doc *core.Document) error {
		doc.Budgets[user.Email] = amount
		return nil
	})
	return err
}

// AddExpense appends an expense to the user's ledger. Amount sign, date
// format and text fields are stored as given.
func (s *LedgerService) AddExpense(ctx context.Context, user core.User, expense core.Expense) (err error) {
	defer s.track(ctx, applog.OpAddExpense, user.Email, time.Now(), &err)

	if err := core.ValidateAmount(expense.Amount); err != nil {
		return err
	}

	doc, err := s.update(ctx, func(doc *core.Document) error {
		doc.Expenses[user.Email] = append(doc.Expenses[user.Email], expense)
		return nil
	})
	if err != nil {
		return err
	}

	s.events.LogExpenseAdded(ctx, user.Email, expense.Amount, expense.Date, expense.Category)

	if budget, ok := doc.Budgets[user.Email]; ok {
		summary := core.NewSummary(budget, doc.Expenses[user.Email])
		if summary.OverBudget() {
			s.alert(ctx, user.Email, summary)
		}
	}
	return nil
}

// BudgetSummary returns the user's budget, total expenses and what remains.
// It fails with core.ErrNoBudgetSet when no budget has been set; a budget
// of zero counts as set.
func (s *LedgerService) BudgetSummary(ctx context.Context, user core.User) (summary core.Summary, err error) {
	defer s.track(ctx, applog.OpSummary, user.Email, time.Now(), &err)

	doc, err := s.load(ctx)
	if err != nil {
		return core.Summary{}, err
	}

	budget, ok := doc.Budgets[user.Email]
	if !ok {
		return core.Summary{}, core.ErrNoBudgetSet
	}
	return core.NewSummary(budget, doc.Expenses[user.Email]), nil
}

// ListExpenses returns the user's expenses in insertion order. The result
// is empty, not nil, when there are none.
func (s *LedgerService) ListExpenses(ctx context.Context, user core.User) (expenses []core.Expense, err error) {
	defer s.track(ctx, applog.OpListExpenses, user.Email, time.Now(), &err)

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]core.Expense{}, doc.Expenses[user.Email]...), nil
}

func (s *LedgerService) load(ctx context.Context) (core.Document, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return core.Document{}, fmt.Errorf("load document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

// update runs one load-change-save span under the store lock. When change
// fails the document is not saved.
func (s *LedgerService) update(ctx context.Context, change func(*core.Document) error) (core.Document, error) {
	unlock, err := s.store.Lock(ctx)
	if err != nil {
		return core.Document{}, fmt.Errorf("lock store: %w", err)
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.WarnContext(ctx, "Failed to release store lock", applog.FieldError, err)
		}
	}()

	doc, err := s.load(ctx)
	if err != nil {
		return core.Document{}, err
	}
	if err := change(&doc); err != nil {
		return core.Document{}, err
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return core.Document{}, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

func (s *LedgerService) alert(ctx context.Context, email string, summary core.Summary) {
	s.events.LogBudgetExceeded(ctx, email, summary.Budget, summary.TotalExpenses, summary.Remaining)

	if s.notifier == nil {
		return
	}
	alert := core.BudgetAlert{
		Email:     email,
		Budget:    summary.Budget,
		Total:     summary.TotalExpenses,
		Remaining: summary.Remaining,
	}
	// The expense is already saved; a failed notification must not undo it.
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.events.LogError(ctx, "Failed to publish budget alert", err, applog.OpNotify,
			applog.NewFields().WithEmail(email).WithErrorType(applog.ErrorTypeNetwork))
	}
}

func (s *LedgerService) track(ctx context.Context, op, email string, start time.Time, errp *error) {
	err := *errp
	s.events.LogOperation(ctx, op, email, time.Since(start).Milliseconds(), err, errorType(err))
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrPasswordMismatch), errors.Is(err, core.ErrInvalidAmount):
		return applog.ErrorTypeValidation
	case errors.Is(err, core.ErrDuplicateEmail):
		return applog.ErrorTypeConflict
	case errors.Is(err, core.ErrAuthFailure):
		return applog.ErrorTypeAuth
	case errors.Is(err, core.ErrNoBudgetSet):
		return applog.ErrorTypeNotFound
	default:
		return applog.ErrorTypeStorage
	}
}
