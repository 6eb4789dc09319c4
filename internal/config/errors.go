package config

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidConfig marks a configuration that fails validation; it is
	// fatal at startup, never a per-request condition.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig marks a failure reading or parsing configuration sources.
	ErrLoadConfig = errors.New("load config failed")
)
