package model

import "errors"

// Domain errors. Callers wrap them with context and test with errors.Is.
var (
	ErrInvalidAmount     = errors.New("amount must be positive with at most two decimal places")
	ErrSameAccount       = errors.New("sender and receiver account must differ")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateAccount  = errors.New("account number already exists")

	// ErrLockTimeout means the account lock was not acquired in time. The whole
	// operation was rolled back and may be retried from scratch.
	ErrLockTimeout = errors.New("timed out waiting for account lock")

	// ErrPersistence wraps failures of the underlying store.
	ErrPersistence = errors.New("storage failure")
)

// IsClientError reports whether err was caused by the caller's input rather
// than by the system.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrSameAccount),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrDuplicateAccount):
		return true
	default:
		return false
	}
}
