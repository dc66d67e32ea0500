package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// Editor mode guards.
	ErrSourceMode = errors.New("editor is in source mode")
	ErrVisualMode = errors.New("editor is in visual mode")
)
