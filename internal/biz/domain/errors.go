package domain

import "errors"

var (
	// ErrStorageUnavailable wraps roster load/save failures. Fatal at
	// startup, surfaced as a generic failure reply at runtime.
	ErrStorageUnavailable = errors.New("roster storage unavailable")

	// ErrNotFound is returned for unknown participant ids or groups.
	ErrNotFound = errors.New("not found")

	// ErrMalformedInput is returned when a registration or edit message
	// does not parse into name, surname and group.
	ErrMalformedInput = errors.New("malformed input")
)
