// Package model contains domain models passed between layers.
package model

import "time"

// Signal represents one behavioral event attributed to an account.
// Signals are immutable once ingested; the engine only reads them.
type Signal struct {
	SignalID    string            // unique id for idempotency
	AccountID   string            // owning account (company)
	Type        string            // signal type, e.g. "repo.clone", "pkg.install"
	ActorID     string            // resolved contact id, empty when anonymous
	AnonymousID string            // pre-identification visitor id
	TS          time.Time         // when the signal occurred
	Metadata    map[string]string // source-specific attributes, not persisted by the engine
}

// FactorName identifies one of the canonical scoring factors.
type FactorName string

// Canonical factor names. The active scoring configuration must cover
// exactly this set.
const (
	FactorUserCount      FactorName = "userCount"
	FactorVelocity       FactorName = "velocity"
	FactorFeatureBreadth FactorName = "featureBreadth"
	FactorEngagement     FactorName = "engagement"
	FactorSeniority      FactorName = "seniority"
	FactorFirmographic   FactorName = "firmographic"
)

// CanonicalFactors returns all factor names in their fixed order.
func CanonicalFactors() []FactorName {
	return []FactorName{
		FactorUserCount,
		FactorVelocity,
		FactorFeatureBreadth,
		FactorEngagement,
		FactorSeniority,
		FactorFirmographic,
	}
}

// Factor is a named, normalized sub-score with its configured weight.
// Value is always in [0,100]; a factor with no contributing data is 0.
type Factor struct {
	Name   FactorName
	Value  float64
	Weight float64
}

// Tier is the ordinal classification of a score.
type Tier string

// Tiers ordered hottest first. Boundaries are inclusive on the lower bound:
// HOT [70,100], WARM [40,70), COLD [20,40), INACTIVE [0,20).
const (
	TierHot      Tier = "HOT"
	TierWarm     Tier = "WARM"
	TierCold     Tier = "COLD"
	TierInactive Tier = "INACTIVE"
)

// Trend is the short-term directional classification of score movement.
type Trend string

const (
	TrendRising  Trend = "RISING"
	TrendStable  Trend = "STABLE"
	TrendFalling Trend = "FALLING"
)

// ScoreSnapshot is an immutable record of one completed scoring pass.
// The ordered snapshot sequence per account is the authoritative history;
// the current score is always the snapshot with the greatest CapturedAt.
type ScoreSnapshot struct {
	PassID       string // unique id of the recompute pass that produced this record
	AccountID    string
	Score        int // composite PQA score in [0,100]
	Tier         Tier
	Trend        Trend
	Factors      []Factor
	SignalCount  int       // signals inside the scoring window
	UserCount    int       // distinct attributed actors inside the window
	LastSignalAt time.Time // zero when the account has never produced a signal
	CapturedAt   time.Time
}
