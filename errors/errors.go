// Package errors provides the error taxonomy of the authentication layer.
// Every failure surfaced by the refresh coordinator, the authenticated
// client and the access guard is an *AppError carrying a machine-readable
// code, with the transport error preserved as its cause.
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

// --- Credential constructors ---

// TokenExpired creates an AppError for an access token the backend reported as expired.
func TokenExpired(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "The access token has expired.",
		HTTPStatus: http.StatusUnauthorized, Cause: cause,
	}
}

// InvalidToken creates an AppError for a credential that cannot be renewed.
func InvalidToken(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: "Invalid authentication token. Please log in again.",
		HTTPStatus: http.StatusUnauthorized, Cause: cause,
	}
}

// RenewalFailed creates an AppError for a failed renewal call.
func RenewalFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeRenewalFailed, Message: "Unable to renew the session. Please log in again.",
		HTTPStatus: http.StatusUnauthorized, Cause: cause,
	}
}

// MalformedWaiter creates an AppError for a request that cannot carry a renewed credential.
func MalformedWaiter(reason string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedWaiter, Message: fmt.Sprintf("Request cannot be replayed: %s", reason),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"reason": reason},
	}
}

// WaiterTimeout creates an AppError for a request that stopped waiting for renewal.
func WaiterTimeout(cause error) *AppError {
	return &AppError{
		Code: ErrCodeWaiterTimeout, Message: "Timed out waiting for session renewal.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true, Cause: cause,
	}
}

// Unauthorized creates a new AppError for unauthenticated access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a new AppError for insufficient permissions or roles.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &AppError{
		Code: ErrCodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Generic constructors ---

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// --- Inspection ---

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

// IsCode reports whether any AppError in err's chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsCredentialError reports whether err means the stored credential is no
// longer usable: an expired or invalid token, or a failed renewal.
func IsCredentialError(err error) bool {
	return IsCode(err, ErrCodeTokenExpired) ||
		IsCode(err, ErrCodeInvalidToken) ||
		IsCode(err, ErrCodeRenewalFailed)
}
