package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrEmptyInput          = errors.New("nothing to generate")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnknownEngine       = errors.New("unknown engine")
	ErrProviderFailure     = errors.New("provider failure")
	ErrJobRejected         = errors.New("job submission rejected")
)
