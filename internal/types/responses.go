// Package types holds the request and response bodies shared by the API handlers and the client
package types

// ErrorResponse represents an error response
// Example: {"error":"validation failed","details":{"field":"completion_date","reason":"is required"}}
type ErrorResponse struct {
	// Error message describing what went wrong
	Error string `json:"error"`

	// Optional additional details about the error, may include field-specific validation errors
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps every successful payload
// Example: {"data":{"id":123,"status":"Pending"}}
type SuccessResponse[T any] struct {
	Data T `json:"data"`
}

// FieldError is the details payload for a validation failure
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}
