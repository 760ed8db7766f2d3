package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP/MCP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldCollection is the collection name an operation targets
	FieldCollection = "collection"

	// FieldOperation is the lifecycle operation name (create, rename, ...)
	FieldOperation = "operation"
)

// Standard metric fields attached at the log entry, used for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldDimension is a vector dimension
	FieldDimension = "dimension"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
