package logging

// Common structured log field keys to keep logs searchable/consistent.
const (
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldDurationMS = "duration_ms"
	FieldOperation  = "operation"
	FieldModelKind  = "model_kind"
	FieldClauses    = "clauses"
	FieldCount      = "count"
	FieldBackend    = "backend"
)
