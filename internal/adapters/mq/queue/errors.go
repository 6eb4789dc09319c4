package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueClosed = errors.New("trigger queue closed")
	ErrQueueFull   = errors.New("trigger queue full")
)
