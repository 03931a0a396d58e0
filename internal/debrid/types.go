package debrid

import "fmt"

// APIError is a structured rejection from the Real-Debrid REST API: the
// upstream was reachable but refused the request. It is never retried
// automatically since the triggering input was the cause.
type APIError struct {
	// Message is the upstream error text, or generic fallback text when the
	// response carried no recognizable error fields.
	Message string

	// Code is the upstream's numeric error code, -1 when absent.
	Code int

	// Status is the HTTP status of the response.
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("real-debrid api error: %s (code: %d, status: %d)", e.Message, e.Code, e.Status)
}

// UnavailableError indicates a transport-level failure reaching the resource
// API (DNS, connection refused/reset, timeout), distinct from an APIError, so
// callers can distinguish "upstream rejected" from "upstream unreachable".
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("real-debrid unreachable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// errorBody is the error shape Real-Debrid returns on non-success statuses.
type errorBody struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}
