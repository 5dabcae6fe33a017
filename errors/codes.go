package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeUnsupported indicates the operation is not supported by this backend.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Transcription pipeline errors. Each one is fatal to the message or job
// it belongs to and never to the process.
const (
	// ErrCodeMediaFetchFailed indicates the audio could not be located, downloaded or decrypted.
	ErrCodeMediaFetchFailed ErrorCode = "MEDIA_FETCH_FAILED"
	// ErrCodeUploadFailed indicates the transcription service rejected the audio upload.
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
	// ErrCodeRequestFailed indicates the transcription request for an uploaded asset was rejected.
	ErrCodeRequestFailed ErrorCode = "REQUEST_FAILED"
	// ErrCodePollFailed indicates a transient failure while checking job status.
	ErrCodePollFailed ErrorCode = "POLL_FAILED"
	// ErrCodeReplyDeliveryFailed indicates the transcript could not be posted back.
	ErrCodeReplyDeliveryFailed ErrorCode = "REPLY_DELIVERY_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeExternalService:    true,
	ErrCodePollFailed:         true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
