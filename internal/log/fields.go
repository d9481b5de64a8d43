package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldUserID        = "user_id"
	FieldCollection    = "collection"
	FieldTransactionID = "transaction_id"
	FieldGoalID        = "goal_id"
	FieldDebtID        = "debt_id"
	FieldAmountRupiah  = "amount_rupiah"
	FieldCategory      = "category"
	FieldError         = "error"
	FieldVersion       = "snapshot_version"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStore   = "store"
	ComponentMirror  = "mirror"
	ComponentLedger  = "ledger"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
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

// WithUser adds the owning user field
func (f LogFields) WithUser(userID string) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithCollection adds the collection field
func (f LogFields) WithCollection(collection string) LogFields {
	f[FieldCollection] = collection
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithTransaction adds ledger-entry fields
func (f LogFields) WithTransaction(id, category string, amountRupiah int64) LogFields {
	f[FieldTransactionID] = id
	f[FieldCategory] = category
	f[FieldAmountRupiah] = amountRupiah
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
