package service

import (
	"time"

	"github.com/signalhouse/pqascore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the trigger queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the signal deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithWindow sets the signal lookback window for scoring.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithWeights sets the factor weights; they are validated at Start.
func WithWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if weights != nil {
			s.weights = weights
		}
	}
}

// WithFactorCeilings sets the saturation points of the bounded factors.
func WithFactorCeilings(userCeiling, breadthCeiling int, engagementCeiling float64) Option {
	return func(s *Service) {
		if userCeiling > 0 {
			s.userCeiling = userCeiling
		}
		if breadthCeiling > 0 {
			s.breadthCeiling = breadthCeiling
		}
		if engagementCeiling > 0 {
			s.engagementCeiling = engagementCeiling
		}
	}
}

// WithDecayHalfLife sets the engagement decay half-life.
func WithDecayHalfLife(halfLife time.Duration) Option {
	return func(s *Service) {
		if halfLife > 0 {
			s.decayHalfLife = halfLife
		}
	}
}

// WithTrendPolicy sets the trend baseline window and dead band.
func WithTrendPolicy(window int, deadBand float64) Option {
	return func(s *Service) {
		if window > 0 {
			s.trendWindow = window
		}
		if deadBand >= 0 {
			s.trendDeadBand = deadBand
		}
	}
}

// WithPassTimeout bounds one scoring pass.
func WithPassTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.passTimeout = d
		}
	}
}

// WithRetryPolicy sets the inline retry ceiling and first backoff delay.
func WithRetryPolicy(limit int, baseDelay time.Duration) Option {
	return func(s *Service) {
		if limit >= 0 {
			s.retryLimit = limit
		}
		if baseDelay > 0 {
			s.retryBaseDelay = baseDelay
		}
	}
}

// WithStaleSweep sets the stale threshold and the sweep cron spec.
func WithStaleSweep(maxAge time.Duration, spec string) Option {
	return func(s *Service) {
		if maxAge > 0 {
			s.staleMaxAge = maxAge
		}
		if spec != "" {
			s.sweepSpec = spec
		}
	}
}

// WithRetention sets the snapshot retention horizon and its cron spec.
func WithRetention(retention time.Duration, spec string) Option {
	return func(s *Service) {
		if retention > 0 {
			s.retention = retention
		}
		if spec != "" {
			s.retentionSpec = spec
		}
	}
}

// WithMaxTopLimit caps top-account query limits.
func WithMaxTopLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxTopLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
