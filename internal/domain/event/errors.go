package event

import "errors"

var (
	// ErrInvalidInput indicates an event that cannot be stored.
	ErrInvalidInput = errors.New("invalid event input")
)
