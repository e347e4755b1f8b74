package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("backend: not found")
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrForbidden    = errors.New("backend: forbidden")
	ErrMalformed    = errors.New("backend: malformed payload")
)

// StatusError is any other non-2xx answer from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: bad status %d", e.Code)
	}
	return fmt.Sprintf("backend: bad status %d: %s", e.Code, e.Body)
}
