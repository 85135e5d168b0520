package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrNotPending is returned when a conditional payment write finds the booking already resolved
	ErrNotPending = errors.New("booking payment is no longer pending")

	ErrDuplicateReference = errors.New("payment reference already attached to another booking")
)
