package logging

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	FieldService   = "service"
	FieldComponent = "component"

	// Domain
	FieldUserID    = "user_id"
	FieldRoomID    = "room_id"
	FieldMessageID = "message_id"
	FieldFailure   = "failure"
	FieldCount     = "count"
)
