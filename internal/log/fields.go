package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldSenderID   = "sender_id"
	FieldChatID     = "chat_id"
	FieldCommand    = "command"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldSign       = "sign_source"
	FieldRecords    = "records"
	FieldWindow     = "window"
	FieldFileName   = "file_name"
	FieldFileSize   = "file_size"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBot       = "bot"
	ComponentTelegram  = "telegram"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpLoad     = "load"
	OpReplace  = "replace"
	OpSummary  = "summary"
	OpExport   = "export"
	OpImport   = "import"
	OpChart    = "chart"
	OpParse    = "parse"
	OpAuth     = "auth"
	OpSend     = "send"
	OpSync     = "sync"
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

// WithSender adds the chat identity of an incoming update.
func (f LogFields) WithSender(senderID, chatID int64) LogFields {
	f[FieldSenderID] = senderID
	if chatID != 0 {
		f[FieldChatID] = chatID
	}
	return f
}

// WithTransaction adds the amount and category of a record. Notes are never
// logged.
func (f LogFields) WithTransaction(amount int64, category string) LogFields {
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
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
