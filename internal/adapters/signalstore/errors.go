package signalstore

import "errors"

// Sentinel kinds for signal store errors.
var (
	ErrInvalidSignal = errors.New("invalid signal")
)
