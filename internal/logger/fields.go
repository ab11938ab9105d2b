package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldCycleID identifies one roster pass
	FieldCycleID = "cycle_id"

	// FieldCreator is the creator key a pipeline run belongs to
	FieldCreator = "creator"

	// FieldPostID is the post identifier allocated for a run
	FieldPostID = "post_id"

	// FieldStage is the pipeline stage currently executing
	FieldStage = "stage"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldProvider is the external AI provider being called
	FieldProvider = "provider"
)

// Metric fields, used on Entry for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
