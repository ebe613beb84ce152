// Package apperr defines the sentinel errors shared across inkpad layers.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	ErrExpired  = errors.New("expired")
)
