package lamp

import "errors"

// Sentinel errors for lamp operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrLampNotFound is returned when no lamp matches the given keys.
	ErrLampNotFound = errors.New("lamp not found")

	// ErrNodeIDConflict is returned when an insert would violate the
	// global uniqueness of node_id (same device registered under a
	// different gateway).
	ErrNodeIDConflict = errors.New("node_id already registered to another gateway")

	// ErrInvalidRequest is returned when a control request is missing
	// required identifiers or carries out-of-range values.
	ErrInvalidRequest = errors.New("invalid request")
)
