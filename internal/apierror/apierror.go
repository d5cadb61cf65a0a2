// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Code is a stable machine-readable identifier; Warning marks soft conflicts
// (duplicate invitation, delivery already scheduled) the client may treat as informational.
type APIError struct {
	Detail  string `json:"detail"`
	Code    string `json:"code,omitempty"`
	Warning bool   `json:"warning,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCode returns an error envelope with a machine-readable code.
func WithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// NewWarning builds the envelope for conflicts reported as warnings.
func NewWarning(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code, Warning: true}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}
