package status

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentNotFound  = errors.New("payment: reference not found")
	ErrCouponNotFound   = errors.New("coupon: code not found")
	ErrCouponExhausted  = errors.New("coupon: usage limit reached")
	ErrInvalidSignature = errors.New("webhook: invalid signature")
)

// ValidationError means the user's input did not satisfy the current
// state's precondition. Its message is sent to the user verbatim and
// the session is left unchanged.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// BackendError means a dependency (payment provider, wallet transfer)
// failed. Recoverable by retry; the user sees a generic message.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *BackendError) Unwrap() error { return e.Err }

func NewBackendError(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}

// SessionError means the session store could not be read or written.
// Fatal for the current request, never for the process.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *SessionError) Unwrap() error { return e.Err }

func NewSessionError(op string, err error) error {
	return &SessionError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsBackend(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

func IsSession(err error) bool {
	var se *SessionError
	return errors.As(err, &se)
}
