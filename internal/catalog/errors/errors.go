package errors

import "errors"

var (
	ErrNotFound = errors.New("service not found")

	ErrInvalidID = errors.New("invalid service ID format")

	ErrDuplicateName = errors.New("service name already exists")
)
