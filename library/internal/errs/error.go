package errs

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("actor is not allowed to perform this action")
	ErrConflict      = errors.New("book is not in a state that allows this action")
	ErrLimitExceeded = errors.New("active request limit reached")
	ErrValidation    = errors.New("validation failed")
)

type ErrorResponse struct {
	Message string `json:"message"`
}
