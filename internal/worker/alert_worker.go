package worker

import (
	"context"
	"fmt"
	"sort"

	"budget/internal/amqp"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/store"
)

// AlertWorker handles budget alerts published by the interactive tool.
type AlertWorker struct {
	store  store.Store
	logger *applog.Logger
	events *applog.StructuredLogger
}

// NewAlertWorker creates a worker. When s is nil alerts are logged as
// received, without checking them against the current ledger.
func NewAlertWorker(s store.Store, logger *applog.Logger) *AlertWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	return &AlertWorker{
		store:  s,
		logger: logger,
		events: applog.NewStructuredLogger(logger),
	}
}

// HandleBudgetAlert processes a single budget alert message from AMQP.
// An alert that no longer holds, because the budget was raised after it was
// published, is logged as superseded. A failed store read is returned so
// the message is requeued.
func (w *AlertWorker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	w.logger.InfoContext(ctx, "Processing budget alert",
		applog.FieldEmail, msg.Email,
		"timestamp", msg.Timestamp)

	if w.store == nil {
		w.events.LogBudgetExceeded(ctx, msg.Email, msg.Budget, msg.Total, msg.Remaining)
		return nil
	}

	doc, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	summary, ok := currentSummary(doc, msg.Email)
	if !ok || !summary.OverBudget() {
		w.logger.InfoContext(ctx, "Budget alert superseded",
			applog.NewFields().
				WithEmail(msg.Email).
				WithSummary(msg.Budget, msg.Total, msg.Remaining).
				ToSlice()...)
		return nil
	}

	w.events.LogBudgetExceeded(ctx, msg.Email, summary.Budget, summary.TotalExpenses, summary.Remaining)
	return nil
}

// StartupBudgetCheck reports every user currently over budget.
// This covers alerts published while the worker was down.
func (w *AlertWorker) StartupBudgetCheck(ctx context.Context) ([]core.BudgetAlert, error) {
	if w.store == nil {
		return nil, nil
	}

	doc, err := w.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document for startup check: %w", err)
	}

	alerts := OverBudget(doc)
	for _, a := range alerts {
		w.events.LogBudgetExceeded(ctx, a.Email, a.Budget, a.Total, a.Remaining)
	}

	w.logger.InfoContext(ctx, "Startup budget check completed",
		applog.FieldUsers, len(doc.Users),
		"over_budget", len(alerts))

	return alerts, nil
}

// OverBudget lists the users whose expenses exceed their budget, ordered
// by email.
func OverBudget(doc core.Document) []core.BudgetAlert {
	emails := make([]string, 0, len(doc.Budgets))
	for email := range doc.Budgets {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	var alerts []core.BudgetAlert
	for _, email := range emails {
		summary, _ := currentSummary(doc, email)
		if !summary.OverBudget() {
			continue
		}
		alerts = append(alerts, core.BudgetAlert{
			Email:     email,
			Budget:    summary.Budget,
			Total:     summary.TotalExpenses,
			Remaining: summary.Remaining,
		})
	}
	return alerts
}

func currentSummary(doc core.Document, email string) (core.Summary, bool) {
	budget, ok := doc.Budgets[email]
	if !ok {
		return core.Summary{}, false
	}
	return core.NewSummary(budget, doc.Expenses[email]), true
}
