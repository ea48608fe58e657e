// Package apperror provides structured error handling for the registration API.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. The HTTP surface only ever uses 400, 401, 403, 404 and 500.
const (
	// Infrastructure errors (500)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "TRANSIENT_STORE_ERROR"

	// Validation errors (400)
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidOperationID  = "INVALID_OPERATION_ID"
	CodeNoBundles           = "NO_BUNDLES_PROVIDED"
	CodeMissingBundleNumber = "MISSING_BUNDLE_NUMBER"
	CodeQualityNotAllowed   = "QUALITY_NOT_ALLOWED"
	CodeMissingRollCount    = "MISSING_ROLL_COUNT"
	CodeMissingWeight       = "MISSING_WEIGHT"
	CodeZeroWeight          = "ZERO_WEIGHT_REGISTRATION"

	// Conflicts with the current state of the store (400)
	CodeConflict        = "CONFLICT"
	CodeOperationClosed = "OPERATION_ALREADY_CLOSED"
	CodeNoScrapLot      = "NO_SCRAP_LOT_AVAILABLE"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"error"`

	// Details contains additional context (bundle index, operation id, ...)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a generic validation error (400)
func NewValidation(message string) *AppError {
	return NewValidationCode(CodeValidation, message)
}

// NewValidationCode creates a validation error (400) with a specific code.
func NewValidationCode(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates an error for a request that clashes with stored state.
// Conflicts are reported as 400 because the API does not use 409.
func NewConflict(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewOperationClosed is returned when a weighing targets a closed operation.
func NewOperationClosed(operationID string) *AppError {
	return NewConflict(CodeOperationClosed, "Operation is already closed").
		WithDetail("operacionId", operationID)
}

// NewNoScrapLot is returned when the scrap pool has no free lot for a series.
func NewNoScrapLot(seriesCode string) *AppError {
	return NewConflict(CodeNoScrapLot, "No scrap lot available").
		WithDetail("codSerie", seriesCode)
}

// NewStore wraps a backing-store failure (500). No automatic retry is attempted.
func NewStore(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Store operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given AppError code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
