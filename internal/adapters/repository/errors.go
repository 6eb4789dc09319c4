package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidLimit    = errors.New("invalid top-n limit")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrStaleSnapshot   = errors.New("stale snapshot superseded by a newer pass")
)
