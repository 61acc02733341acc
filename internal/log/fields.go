package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldMonthID     = "month_id"
	FieldPeriod      = "period"
	FieldLocked      = "locked"
	FieldCategoryID  = "category_id"
	FieldExpenseID   = "expense_id"
	FieldAmountCents = "amount_cents"
	FieldEventType   = "event_type"
	FieldSheetsRef   = "sheets_ref"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCloser  = "month_closer"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentImport  = "import"
)

// Operations defines standard operation names
const (
	OpEnsure   = "ensure"
	OpLock     = "lock"
	OpUnlock   = "unlock"
	OpImport   = "import"
	OpExport   = "export"
	OpReport   = "report"
	OpForecast = "forecast"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error message; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMonth adds the identity of a month budget.
func (f LogFields) WithMonth(id int64, period string, locked bool) LogFields {
	f[FieldMonthID] = id
	f[FieldPeriod] = period
	f[FieldLocked] = locked
	return f
}

func (f LogFields) WithAmount(cents int64) LogFields {
	f[FieldAmountCents] = cents
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
