package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldEntryID     = "entry_id"
	FieldEntryType   = "entry_type"
	FieldParty       = "party"
	FieldAmountPaise = "amount_paise"
	FieldUserID      = "user_id"
	FieldRowCount    = "rows"
	FieldFilename    = "filename"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentGateway = "gateway"
	ComponentSession = "session"
	ComponentLedger  = "ledger"
	ComponentExport  = "export"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpFetch    = "fetch"
	OpExport   = "export"
	OpSync     = "sync"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
