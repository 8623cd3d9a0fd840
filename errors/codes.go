package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Credential errors
const (
	// ErrCodeTokenExpired indicates the access token has expired and can be renewed.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeInvalidToken indicates the credential is invalid and cannot be renewed.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	// ErrCodeRenewalFailed indicates the renewal call itself failed.
	ErrCodeRenewalFailed ErrorCode = "RENEWAL_FAILED"
	// ErrCodeMalformedWaiter indicates a request cannot be replayed with a renewed credential.
	ErrCodeMalformedWaiter ErrorCode = "MALFORMED_WAITER"
	// ErrCodeWaiterTimeout indicates a suspended request gave up waiting for renewal.
	ErrCodeWaiterTimeout ErrorCode = "WAITER_TIMEOUT"
	// ErrCodeUnauthorized indicates the request carries no usable credential.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the credential lacks the required permissions or roles.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Transport errors (retryable)
const (
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// Validation and internal errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:          true,
	ErrCodeConnectionFailed: true,
	ErrCodeWaiterTimeout:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
