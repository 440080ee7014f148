package models

import "errors"

// Business outcomes. Callers compare with errors.Is; the HTTP layer maps them
// to client errors and they are never logged as system failures.
var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownOwner   = errors.New("unknown user")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalidInput   = errors.New("invalid input")
)
