package paystack

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks failures to reach the provider or read its answer.
var ErrUnavailable = errors.New("paystack unavailable")

// Error is a request the provider answered but refused.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("paystack: %s (status %d)", e.Message, e.StatusCode)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// AsError returns the provider refusal carried by err, if any.
func AsError(err error) (*Error, bool) {
	var pe *Error
	ok := errors.As(err, &pe)
	return pe, ok
}
