package types

// RequestIDHeader carries the per-request correlation id on requests and
// responses.
const RequestIDHeader = "X-Request-Id"

// SuccessEnvelope wraps every 2xx JSON body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error payload. RequestID echoes the
// correlation id so support can find the matching log lines.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
