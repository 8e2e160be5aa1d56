package observability

// EventEnvelope is the broker payload wrapper shared by lifecycle and audit
// publishers.
type EventEnvelope struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventName     string      `json:"event_name"`
	Source        string      `json:"source"`
	Payload       interface{} `json:"payload"`
}

// BuildHeaders assembles AMQP headers for cross-service correlation. Empty
// values are omitted.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
