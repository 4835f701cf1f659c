package knowledge

import "errors"

// Sentinel errors for consistent error handling.
var (
	ErrNotFound     = errors.New("knowledge entry not found")
	ErrInvalidLimit = errors.New("limit must be at least 1")
	ErrInvalidEntry = errors.New("invalid knowledge entry")
	ErrDuplicateID  = errors.New("duplicate knowledge entry id")
)
