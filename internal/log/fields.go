package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldSuccess   = "success"
	FieldDuration  = "duration_ms"
	FieldEmail     = "email"
	FieldAmount    = "amount"
	FieldBudget    = "budget"
	FieldTotal     = "total_expenses"
	FieldRemaining = "remaining"
	FieldCategory  = "category"
	FieldDate      = "date"
	FieldBackend   = "backend"
	FieldPath      = "path"
	FieldUsers     = "users"
	FieldExpenses  = "expenses"
	FieldQueue     = "queue"
	FieldExchange  = "exchange"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentLedger  = "ledger"
	ComponentStore   = "store"
	ComponentBackend = "backend"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpRegister     = "register"
	OpLogin        = "login"
	OpSetBudget    = "set_budget"
	OpAddExpense   = "add_expense"
	OpSummary      = "budget_summary"
	OpListExpenses = "list_expenses"
	OpNotify       = "notify"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithEmail adds the user identity
func (f LogFields) WithEmail(email string) LogFields {
	f[FieldEmail] = email
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(amount float64, date, category string) LogFields {
	f[FieldAmount] = amount
	f[FieldDate] = date
	f[FieldCategory] = category
	return f
}

// WithSummary adds budget summary fields
func (f LogFields) WithSummary(budget, total, remaining float64) LogFields {
	f[FieldBudget] = budget
	f[FieldTotal] = total
	f[FieldRemaining] = remaining
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
