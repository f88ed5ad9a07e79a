package cnst

import "errors"

var (
	// ErrMalformedFrame is returned when an inbound frame is not valid JSON
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrMissingDiscriminant is returned when a frame has no type field
	ErrMissingDiscriminant = errors.New("missing type discriminant")
	// ErrMissingField is returned when a known message lacks a required field
	ErrMissingField = errors.New("missing required field")
	// ErrSessionNotFound is returned when a session room is unknown
	ErrSessionNotFound = errors.New("session not found")
)
