package errs

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not a participant of this chat")
	ErrValidation   = errors.New("validation failed")
)

type ErrorResponse struct {
	Message string `json:"message"`
}
