// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"

	"github.com/signalhouse/pqascore/internal/domain/model"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory trigger queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the signal deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// WindowDays sets the signal lookback window for scoring.
	WindowDays int `koanf:"window_days"`

	// Weights maps factor names to their scoring weights; they must cover
	// exactly the canonical factors and sum to 1.0.
	Weights map[string]float64 `koanf:"weights"`

	// UserCeiling is the distinct-user count that saturates the user factor.
	UserCeiling int `koanf:"user_ceiling"`

	// BreadthCeiling is the distinct-signal-type count that saturates the
	// breadth factor.
	BreadthCeiling int `koanf:"breadth_ceiling"`

	// EngagementCeiling is the decayed signal mass that saturates the
	// engagement factor.
	EngagementCeiling float64 `koanf:"engagement_ceiling"`

	// DecayHalfLifeDays sets the half-life of a signal's engagement value.
	DecayHalfLifeDays int `koanf:"decay_half_life_days"`

	// TrendWindow is how many prior snapshots feed the trend baseline.
	TrendWindow int `koanf:"trend_window"`

	// TrendDeadBand is the score delta treated as noise by trend analysis.
	TrendDeadBand float64 `koanf:"trend_dead_band"`

	// PassTimeoutMS bounds one scoring pass.
	PassTimeoutMS int `koanf:"pass_timeout_ms"`

	// RetryLimit caps inline retries of a transiently failed pass.
	RetryLimit int `koanf:"retry_limit"`

	// RetryBaseDelayMS is the first retry backoff; each retry doubles it.
	RetryBaseDelayMS int `koanf:"retry_base_delay_ms"`

	// StaleMaxAgeHours marks an account stale when its latest snapshot is
	// older than this; the sweep re-enqueues such accounts.
	StaleMaxAgeHours int `koanf:"stale_max_age_hours"`

	// SweepSpec is the cron spec of the stale-score sweep.
	SweepSpec string `koanf:"sweep_spec"`

	// RetentionDays bounds snapshot history age.
	RetentionDays int `koanf:"retention_days"`

	// RetentionSpec is the cron spec of the retention pruning job.
	RetentionSpec string `koanf:"retention_spec"`

	// MaxTopLimit caps GET /accounts/top?limit.
	MaxTopLimit int `koanf:"max_top_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":9080",
		QueueSize:   50_000,
		WorkerCount: runtime.NumCPU() * 4,
		DedupeSize:  100_000,
		WindowDays:  90,
		Weights: map[string]float64{
			string(model.FactorUserCount):      0.25,
			string(model.FactorVelocity):       0.20,
			string(model.FactorFeatureBreadth): 0.15,
			string(model.FactorEngagement):     0.20,
			string(model.FactorSeniority):      0.10,
			string(model.FactorFirmographic):   0.10,
		},
		UserCeiling:       25,
		BreadthCeiling:    10,
		EngagementCeiling: 50.0,
		DecayHalfLifeDays: 7,
		TrendWindow:       4,
		TrendDeadBand:     3.0,
		PassTimeoutMS:     30_000,
		RetryLimit:        3,
		RetryBaseDelayMS:  200,
		StaleMaxAgeHours:  24,
		SweepSpec:         "@every 1h",
		RetentionDays:     365,
		RetentionSpec:     "@every 24h",
		MaxTopLimit:       100,
	}
}

// Window returns the signal lookback window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// DecayHalfLife returns the engagement half-life as a duration.
func (c *Config) DecayHalfLife() time.Duration {
	return time.Duration(c.DecayHalfLifeDays) * 24 * time.Hour
}

// PassTimeout returns the per-pass timeout as a duration.
func (c *Config) PassTimeout() time.Duration {
	return time.Duration(c.PassTimeoutMS) * time.Millisecond
}

// RetryBaseDelay returns the first retry backoff as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

// StaleMaxAge returns the stale-account threshold as a duration.
func (c *Config) StaleMaxAge() time.Duration {
	return time.Duration(c.StaleMaxAgeHours) * time.Hour
}

// Retention returns the snapshot retention horizon as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
