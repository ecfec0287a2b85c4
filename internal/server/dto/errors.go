// Package dto defines API request/response types and error handling.
//
// Error handling follows a structured pattern:
//   - ErrorCode provides machine-readable error classification
//   - APIError wraps errors with HTTP status codes and details
//   - Constructor functions (NotFound, BadRequest, etc.) create common errors
//   - FromError maps engine errors to their API error
package dto

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/maruel/jsondb/internal/jsondb"
)

// ErrorCode defines specific error types for the API.
type ErrorCode string

const (
	// ErrorCodeValidationFailed is returned when input data fails validation.
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrorCodeMissingField is returned when a required field is missing.
	ErrorCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrorCodeInvalidFormat is returned when a field has an invalid format.
	ErrorCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// ErrorCodeNotFound is returned when a resource is not found.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrorCodeTableNotFound is returned when a table is not found.
	ErrorCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"
	// ErrorCodeColumnNotFound is returned when a column is not in the table schema.
	ErrorCodeColumnNotFound ErrorCode = "COLUMN_NOT_FOUND"
	// ErrorCodeTypeMismatch is returned when a value does not match its column type.
	ErrorCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrorCodeInvalidType is returned when a column type tag is unknown.
	ErrorCodeInvalidType ErrorCode = "INVALID_TYPE"
	// ErrorCodeRowWidth is returned when a row has the wrong number of values.
	ErrorCodeRowWidth ErrorCode = "ROW_WIDTH"
	// ErrorCodeIdentityColumn is returned when OBJECT_ID is assigned or declared.
	ErrorCodeIdentityColumn ErrorCode = "IDENTITY_COLUMN"

	// ErrorCodeStorageError is returned when the document cannot be saved.
	ErrorCodeStorageError ErrorCode = "STORAGE_ERROR"

	// ErrorCodeInternal is returned when an unexpected server error occurs.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeUnauthorized is returned when authentication is missing or invalid.
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrorCodeRateLimitExceeded is returned when a client sends too many requests.
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrorCodePayloadTooLarge is returned when the request body exceeds the limit.
	ErrorCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// ErrorDetails defines the structured error information in a response.
type ErrorDetails struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error   ErrorDetails   `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorWithStatus is an error that includes an HTTP status code and error code.
type ErrorWithStatus interface {
	Error() string
	StatusCode() int
	Code() ErrorCode
	Details() map[string]any
}

// APIError is a concrete error type with status code and optional details.
type APIError struct {
	statusCode int
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// NewAPIError creates a new APIError with the given status code and message.
func NewAPIError(statusCode int, code ErrorCode, message string) *APIError {
	return &APIError{
		statusCode: statusCode,
		code:       code,
		message:    message,
		details:    make(map[string]any),
	}
}

// WithDetails adds details to the error.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	maps.Copy(e.details, details)
	return e
}

// WithDetail adds a single detail to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *APIError) Wrap(err error) *APIError {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrappedErr)
	}
	return e.message
}

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int {
	return e.statusCode
}

// Code returns the error code.
func (e *APIError) Code() ErrorCode {
	return e.code
}

// Details returns additional error details.
func (e *APIError) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *APIError) Unwrap() error {
	return e.wrappedErr
}

// NotFound creates a 404 Not Found error.
func NotFound(resource string) *APIError {
	return NewAPIError(http.StatusNotFound, ErrorCodeNotFound, resource+" not found")
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeValidationFailed, message)
}

// MissingField creates a 400 Bad Request error for a missing field.
func MissingField(fieldName string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeMissingField, "Missing required field: "+fieldName)
}

// InvalidField creates a 400 Bad Request error for a malformed field.
func InvalidField(fieldName, reason string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrorCodeInvalidFormat, "Invalid field "+fieldName+": "+reason).
		WithDetail("field", fieldName)
}

// Unauthorized returns a 401 Unauthorized error.
func Unauthorized() *APIError {
	return NewAPIError(http.StatusUnauthorized, ErrorCodeUnauthorized, "Unauthorized")
}

// Internal returns a 500 Internal Server Error.
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrorCodeInternal, message)
}

// InternalWithError creates a 500 error wrapping an underlying error.
func InternalWithError(message string, err error) *APIError {
	return Internal(message).Wrap(err)
}

// RateLimitExceeded creates a 429 error telling the client when to retry.
func RateLimitExceeded(retryAfter int) *APIError {
	return NewAPIError(http.StatusTooManyRequests, ErrorCodeRateLimitExceeded, "Rate limit exceeded").
		WithDetail("retry_after", retryAfter)
}

// PayloadTooLarge creates a 413 error for request bodies above limit bytes.
func PayloadTooLarge(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "Request body too large").
		WithDetail("limit", limit)
}

// FromError maps an error returned by the jsondb engine to its API error.
//
// Errors that are already an ErrorWithStatus are returned as is. Unknown
// errors become a 500.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var ews ErrorWithStatus
	if errors.As(err, &ews) {
		return err
	}
	var (
		tnf *jsondb.TableNotFoundError
		cnf *jsondb.ColumnNotFoundError
		tm  *jsondb.TypeMismatchError
		rw  *jsondb.RowWidthError
		it  *jsondb.InvalidTypeError
	)
	switch {
	case errors.As(err, &tnf):
		return NewAPIError(http.StatusNotFound, ErrorCodeTableNotFound, err.Error()).
			WithDetail("table", tnf.Table)
	case errors.As(err, &cnf):
		return NewAPIError(http.StatusNotFound, ErrorCodeColumnNotFound, err.Error()).
			WithDetails(map[string]any{"table": cnf.Table, "column": cnf.Column})
	case errors.As(err, &tm):
		return NewAPIError(http.StatusBadRequest, ErrorCodeTypeMismatch, err.Error()).
			WithDetails(map[string]any{"column": tm.Column, "want": tm.Want.String()})
	case errors.As(err, &rw):
		return NewAPIError(http.StatusBadRequest, ErrorCodeRowWidth, err.Error()).
			WithDetails(map[string]any{"got": rw.Got, "want": rw.Want})
	case errors.As(err, &it):
		return NewAPIError(http.StatusBadRequest, ErrorCodeInvalidType, err.Error()).
			WithDetail("type", it.Type)
	case errors.Is(err, jsondb.ErrDuplicateColumn):
		return BadRequest(err.Error())
	case errors.Is(err, jsondb.ErrIdentityColumn):
		return NewAPIError(http.StatusBadRequest, ErrorCodeIdentityColumn, err.Error())
	case errors.Is(err, jsondb.ErrEmptyTableName):
		return MissingField("table")
	default:
		return InternalWithError("jsondb operation failed", err)
	}
}
