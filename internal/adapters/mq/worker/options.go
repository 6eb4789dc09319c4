package worker

import (
	"time"

	"github.com/signalhouse/pqascore/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithPassTimeout bounds the wall-clock time of a single scoring pass.
func WithPassTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.passTimeout = d
		}
	}
}

// WithRetryLimit sets how many times a transiently failed pass is retried
// before the account is left stale.
func WithRetryLimit(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.retryLimit = n
		}
	}
}

// WithRetryBaseDelay sets the first backoff delay; each retry doubles it.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.retryBaseDelay = d
		}
	}
}

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(log logger.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.logger = log
		}
	}
}
