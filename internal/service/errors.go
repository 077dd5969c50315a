package service

import "fmt"

// ValidationError means a notification could not be tied to a transaction.
// It halts processing of that notification and is never retried.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tilopay: %s: %v", e.Msg, e.Err)
	}
	return "tilopay: " + e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func validationErrorf(cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...), Err: cause}
}
