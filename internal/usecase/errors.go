package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrDeadlineLocked        = errors.New("deadline locked")
	ErrCatalogExhausted      = errors.New("catalog exhausted")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
