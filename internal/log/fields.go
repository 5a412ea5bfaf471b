package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldEntity      = "entity"
	FieldIndex       = "index"
	FieldRevision    = "revision"
	FieldDescription = "description"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldSection     = "section"
	FieldLine        = "line"
	FieldPath        = "path"
	FieldBackend     = "backend"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentCodec   = "codec"
	ComponentAMQP    = "amqp"
	ComponentExport  = "export"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpReset    = "reset"
	OpLoad     = "load"
	OpSave     = "save"
	OpPublish  = "publish"
	OpExport   = "export"
	OpReport   = "report"
	OpForecast = "forecast"
	OpValidate = "validate"
	OpParse    = "parse"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
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

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the entity and its 1-based position
func (f LogFields) WithRecord(entity string, index int) LogFields {
	f[FieldEntity] = entity
	if index > 0 {
		f[FieldIndex] = index
	}
	return f
}

// WithAmount adds amount and category fields
func (f LogFields) WithAmount(amountCents int64, category string) LogFields {
	f[FieldAmountCents] = amountCents
	if category != "" {
		f[FieldCategory] = category
	}
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
