// Package errors provides standardized error handling for the HTTP, lambda and
// workflow surfaces of the assistant.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeConfirmationRequired  ErrorCode = "CONFIRMATION_REQUIRED"
	ErrCodeDoctorNotFound        ErrorCode = "DOCTOR_NOT_FOUND"
	ErrCodeNoMatchingRecords     ErrorCode = "NO_MATCHING_RECORDS"
	ErrCodeRateLimited           ErrorCode = "RATE_LIMITED"
	ErrCodeAgentInvocationFailed ErrorCode = "AGENT_INVOCATION_FAILED"
	ErrCodeAgentTimeout          ErrorCode = "AGENT_TIMEOUT"

	ErrCodeStoreQueryFailed ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeSessionFailed    ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeBackendDispatchFailed     ErrorCode = "BACKEND_DISPATCH_FAILED"
	ErrCodeNotificationPublishFailed ErrorCode = "NOTIFICATION_PUBLISH_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(message string) *StandardError {
	return newError(ErrCodeValidationFailed, message, "", false, nil)
}

// NewFieldValidationError reports violations for named fields.
func NewFieldValidationError(message string, fields []string) *StandardError {
	err := newError(ErrCodeValidationFailed, message, strings.Join(fields, "; "), false, nil)
	return err.WithMetadata("fields", fields)
}

// NewConfirmationRequiredError asks the caller to confirm a fuzzy doctor match.
func NewConfirmationRequiredError(input, suggestion string, confidence float64) *StandardError {
	err := newError(ErrCodeConfirmationRequired,
		fmt.Sprintf("Did you mean Dr. %s? Please confirm the doctor name.", suggestion),
		fmt.Sprintf("input %q matched %q with confidence %.2f", input, suggestion, confidence),
		false, nil)
	err.WithMetadata("suggestedName", suggestion)
	err.WithMetadata("confidence", confidence)
	return err
}

// NewDoctorNotFoundError creates a non-retryable lookup error.
func NewDoctorNotFoundError(name string) *StandardError {
	return newError(ErrCodeDoctorNotFound,
		fmt.Sprintf("Doctor %q was not found.", name), "", false, nil)
}

// NewNoMatchingRecordsError reports an empty result set.
func NewNoMatchingRecordsError(message string) *StandardError {
	return newError(ErrCodeNoMatchingRecords, message, "", false, nil)
}

// NewRateLimitedError reports that the primary router stayed throttled.
func NewRateLimitedError(attempts int) *StandardError {
	return newError(ErrCodeRateLimited, "Primary router is rate limited",
		fmt.Sprintf("gave up after %d attempts", attempts), true, nil)
}

// NewAgentInvocationError wraps a non-throttling agent failure.
func NewAgentInvocationError(err error) *StandardError {
	return newError(ErrCodeAgentInvocationFailed, "Primary router invocation failed", err.Error(), true, err)
}

// NewAgentTimeoutError reports a deadline hit while waiting on the router.
func NewAgentTimeoutError(err error) *StandardError {
	return newError(ErrCodeAgentTimeout, "Primary router timed out", err.Error(), true, err)
}

// NewStoreQueryError creates a retryable read error.
func NewStoreQueryError(operation string, err error) *StandardError {
	return newError(ErrCodeStoreQueryFailed, "Procedure store query failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

// NewStoreWriteError creates a retryable write error.
func NewStoreWriteError(err error) *StandardError {
	return newError(ErrCodeStoreWriteFailed, "Procedure store write failed", err.Error(), true, err)
}

// NewSessionError wraps a conversation history read or write failure.
func NewSessionError(operation string, err error) *StandardError {
	return newError(ErrCodeSessionFailed, "Conversation history unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

// NewBackendDispatchError wraps a failed direct quote/history call.
func NewBackendDispatchError(operation string, err error) *StandardError {
	return newError(ErrCodeBackendDispatchFailed, "Direct backend dispatch failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

// NewNotificationPublishError wraps an SNS publish failure.
func NewNotificationPublishError(err error) *StandardError {
	return newError(ErrCodeNotificationPublishFailed, "Procedure notification publish failed", err.Error(), true, err)
}

// NewInternalError creates the generic 500 error.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeInternal, "Internal server error", details, false, err)
}

// ==========================
// 4. Conversion
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes thrown from workers.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:          "VALIDATION_FAILED",
	ErrCodeConfirmationRequired:      "CONFIRMATION_REQUIRED",
	ErrCodeDoctorNotFound:            "DOCTOR_NOT_FOUND",
	ErrCodeNoMatchingRecords:         "NO_MATCHING_RECORDS",
	ErrCodeRateLimited:               "RATE_LIMITED",
	ErrCodeAgentInvocationFailed:     "AGENT_INVOCATION_FAILED",
	ErrCodeAgentTimeout:              "AGENT_TIMEOUT",
	ErrCodeStoreQueryFailed:          "STORE_QUERY_FAILED",
	ErrCodeStoreWriteFailed:          "STORE_WRITE_FAILED",
	ErrCodeSessionFailed:             "SESSION_STORE_FAILED",
	ErrCodeBackendDispatchFailed:     "BACKEND_DISPATCH_FAILED",
	ErrCodeNotificationPublishFailed: "NOTIFICATION_PUBLISH_FAILED",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreQueryFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeSessionFailed,
		ErrCodeAgentInvocationFailed,
		ErrCodeNotificationPublishFailed:
		return 3

	case ErrCodeAgentTimeout,
		ErrCodeBackendDispatchFailed:
		return 2

	case ErrCodeRateLimited:
		return 1

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// HTTPStatus maps an error code to the status returned by the HTTP and lambda surfaces.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeDoctorNotFound, ErrCodeNoMatchingRecords:
		return http.StatusNotFound
	case ErrCodeConfirmationRequired:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeAgentInvocationFailed, ErrCodeBackendDispatchFailed:
		return http.StatusBadGateway
	case ErrCodeAgentTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err into a StandardError, wrapping unknown errors as internal.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "CONFIRMATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND") || strings.Contains(codeStr, "NO_MATCHING"):
		return "LOOKUP"
	case strings.Contains(codeStr, "AGENT") || strings.Contains(codeStr, "RATE"):
		return "ROUTER"
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "DISPATCH"):
		return "FALLBACK"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
