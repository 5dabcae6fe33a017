// Package errors provides the unified error type used across transcribot.
// Every failure in the transcription pipeline is an AppError carrying a
// machine-readable code, the HTTP status to expose it with, and whether a
// later attempt may succeed.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Generic constructors ---

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// Unsupported creates a new AppError for an operation a backend cannot perform.
func Unsupported(operation string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupported, Message: fmt.Sprintf("%s is not supported", operation),
		HTTPStatus: http.StatusNotImplemented,
		Details: map[string]any{"operation": operation},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// --- Transcription pipeline constructors ---

// MediaFetchFailed reports that the audio for a message could not be obtained.
func MediaFetchFailed(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeMediaFetchFailed, Message: fmt.Sprintf("Media fetch failed: %s", reason),
		HTTPStatus: http.StatusBadGateway, Cause: cause,
	}
}

// UploadFailed reports a non-2xx answer to the audio upload.
func UploadFailed(status int, body []byte, cause error) *AppError {
	return remoteFailure(ErrCodeUploadFailed, "Audio upload was rejected", status, body, cause)
}

// RequestFailed reports a non-2xx answer to the transcription request.
func RequestFailed(status int, body []byte, cause error) *AppError {
	return remoteFailure(ErrCodeRequestFailed, "Transcription request was rejected", status, body, cause)
}

// PollFailed reports a transient failure while checking a job's status.
// The job stays tracked.
func PollFailed(pollRef string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePollFailed, Message: "Transcription status check failed",
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"poll_ref": pollRef}, Cause: cause,
	}
}

// ReplyDeliveryFailed reports that a finished transcript could not be posted.
func ReplyDeliveryFailed(platform string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeReplyDeliveryFailed, Message: "Transcript reply could not be delivered",
		HTTPStatus: http.StatusBadGateway,
		Details: map[string]any{"platform": platform}, Cause: cause,
	}
}

func remoteFailure(code ErrorCode, msg string, status int, body []byte, cause error) *AppError {
	e := &AppError{Code: code, Message: msg, HTTPStatus: http.StatusBadGateway, Cause: cause}
	if status > 0 {
		e.WithDetail("status", status)
	}
	if len(body) > 0 {
		e.WithDetail("body", truncate(string(body), 512))
	}
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// CodeOf returns the code of an AppError, or ErrCodeInternal for anything else.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
