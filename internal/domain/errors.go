package domain

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyRawText      = errors.New("raw text is empty")
	ErrNoAuthorityRecord = errors.New("no authority record found")
	// ErrRegistryUnavailable marks a lookup where no registry gave any answer
	// (timeouts, transport errors or 5xx responses).
	ErrRegistryUnavailable = errors.New("authority registries unavailable")
	ErrInvalidTaxID        = errors.New("invalid tax id")
	ErrInvalidKey          = errors.New("invalid access key")
)
