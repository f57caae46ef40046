package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInstrumentMismatch  = errors.New("instrument_mismatch")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrNotImplemented      = errors.New("not_implemented")
	ErrPairNotFound        = errors.New("pair_not_found")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrClientNotFound      = errors.New("client_not_found")
	ErrInvalidExecution    = errors.New("invalid_execution")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
