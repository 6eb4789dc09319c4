package engine

import "errors"

// Sentinel kinds for scoring pass failures.
var (
	// ErrAggregation marks upstream signal or identity data as unavailable.
	// Retryable; the prior snapshot stays current.
	ErrAggregation = errors.New("aggregation failed")

	// ErrStoreWrite marks a failed snapshot append. Retryable; nothing was
	// committed.
	ErrStoreWrite = errors.New("snapshot write failed")

	// ErrSuperseded marks a pass whose result was overtaken by a pass with
	// fresher data. Not retryable: the newer snapshot already stands.
	ErrSuperseded = errors.New("pass superseded")
)

// IsRetryable reports whether a pass failure is worth retrying with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAggregation) || errors.Is(err, ErrStoreWrite)
}
