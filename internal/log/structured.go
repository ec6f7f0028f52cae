package log

import (
	"context"
	"log/slog"
)

// StructuredLogger logs ledger events with consistent field names.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogOperation logs the outcome of a ledger operation. Outcomes the user is
// already told about (bad input, failed login, duplicate email, no budget)
// are logged at info; storage and internal failures at error.
func (sl *StructuredLogger) LogOperation(ctx context.Context, op, email string, durationMs int64, err error, errorType string) {
	fields := NewFields().
		WithOperation(op).
		WithEmail(email)
	fields[FieldDuration] = durationMs
	fields[FieldSuccess] = err == nil

	level := slog.LevelDebug
	msg := "Ledger operation completed"
	if err != nil {
		fields = fields.WithError(err).WithErrorType(errorType)
		msg = "Ledger operation failed"
		level = operationFailureLevel(errorType)
	}

	sl.logger.Log(ctx, level, msg, fields.ToSlice()...)
}

func operationFailureLevel(errorType string) slog.Level {
	switch errorType {
	case ErrorTypeValidation, ErrorTypeAuth, ErrorTypeConflict, ErrorTypeNotFound:
		return slog.LevelInfo
	case ErrorTypeStorage, ErrorTypeInternal:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LogExpenseAdded logs a newly recorded expense
func (sl *StructuredLogger) LogExpenseAdded(ctx context.Context, email string, amount float64, date, category string) {
	fields := NewFields().
		WithExpense(amount, date, category).
		WithEmail(email).
		WithOperation(OpAddExpense)

	sl.logger.InfoContext(ctx, "Expense added", fields.ToSlice()...)
}

// LogBudgetExceeded logs a user passing their budget
func (sl *StructuredLogger) LogBudgetExceeded(ctx context.Context, email string, budget, total, remaining float64) {
	fields := NewFields().
		WithSummary(budget, total, remaining).
		WithEmail(email)

	sl.logger.WarnContext(ctx, "Budget exceeded", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
