// Package factors reduces an account's windowed signal history into the
// canonical scoring factors.
package factors

import (
	"math"
	"time"

	"github.com/signalhouse/pqascore/internal/domain/model"
)

// Default aggregation configuration constants.
const (
	defaultUserCeiling       = 25               // distinct actors that saturate userCount
	defaultBreadthCeiling    = 10               // distinct signal types that saturate featureBreadth
	defaultEngagementCeiling = 50.0             // decayed signal mass that saturates engagement
	defaultDecayHalfLife     = 7 * 24 * time.Hour // engagement recency half-life
	velocityMidpoint         = 50.0             // score at exactly the baseline rate
	maxFactorValue           = 100.0
	hoursPerDay              = 24.0
)

// Window carries one account's signal history inside the lookback window
// plus the lifetime counters needed for the velocity baseline.
type Window struct {
	AccountID     string
	From          time.Time
	To            time.Time // reference "now" for recency decay; keeps aggregation deterministic
	Signals       []model.Signal
	FirstSignalAt time.Time // account's earliest signal ever; zero when none
	LifetimeCount int       // signals ever produced by the account
}

// Attributes holds externally resolved identity inputs. Absence is valid and
// contributes zero, never an error.
type Attributes struct {
	// ActorSeniority maps attributed actor ids to a [0,100] seniority score.
	ActorSeniority map[string]float64
	// Firmographic is the account-level fit score; valid only when HasFirmographic.
	Firmographic    float64
	HasFirmographic bool
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithUserCeiling sets the distinct-actor count that saturates userCount.
func WithUserCeiling(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.userCeiling = n
		}
	}
}

// WithBreadthCeiling sets the distinct-type count that saturates featureBreadth.
func WithBreadthCeiling(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.breadthCeiling = n
		}
	}
}

// WithEngagementCeiling sets the decayed signal mass that saturates engagement.
func WithEngagementCeiling(mass float64) Option {
	return func(a *Aggregator) {
		if mass > 0 {
			a.engagementCeiling = mass
		}
	}
}

// WithDecayHalfLife sets the recency half-life used by the engagement factor.
func WithDecayHalfLife(halfLife time.Duration) Option {
	return func(a *Aggregator) {
		if halfLife > 0 {
			a.decayHalfLife = halfLife
		}
	}
}

// WithWeights sets the weight attached to each emitted factor record.
func WithWeights(weights map[model.FactorName]float64) Option {
	return func(a *Aggregator) {
		a.weights = make(map[model.FactorName]float64, len(weights))
		for name, weight := range weights {
			a.weights[name] = weight
		}
	}
}

// Aggregator computes the factor set for one account window. It is a pure
// function of its input; all tuning knobs are fixed at construction.
type Aggregator struct {
	userCeiling       int
	breadthCeiling    int
	engagementCeiling float64
	decayHalfLife     time.Duration
	weights           map[model.FactorName]float64
}

// New constructs an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		userCeiling:       defaultUserCeiling,
		breadthCeiling:    defaultBreadthCeiling,
		engagementCeiling: defaultEngagementCeiling,
		decayHalfLife:     defaultDecayHalfLife,
		weights:           make(map[model.FactorName]float64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns one factor per canonical name, each clamped to [0,100].
// Missing upstream data yields 0 so downstream scoring stays deterministic.
func (a *Aggregator) Aggregate(w Window, attrs Attributes) []model.Factor {
	actors := distinctActors(w.Signals)

	values := map[model.FactorName]float64{
		model.FactorUserCount:      a.userCount(actors),
		model.FactorVelocity:       a.velocity(w),
		model.FactorFeatureBreadth: a.featureBreadth(w.Signals),
		model.FactorEngagement:     a.engagement(w),
		model.FactorSeniority:      a.seniority(actors, attrs),
		model.FactorFirmographic:   a.firmographic(attrs),
	}

	out := make([]model.Factor, 0, len(values))
	for _, name := range model.CanonicalFactors() {
		out = append(out, model.Factor{
			Name:   name,
			Value:  clamp(values[name]),
			Weight: a.weights[name],
		})
	}
	return out
}

// DistinctActors returns the attributed actor count for a signal window.
func DistinctActors(signals []model.Signal) int {
	return len(distinctActors(signals))
}

// userCount scales the distinct attributed actor count against the ceiling.
func (a *Aggregator) userCount(actors map[string]struct{}) float64 {
	return float64(len(actors)) / float64(a.userCeiling) * maxFactorValue
}

// velocity compares the window's signal rate against the account's lifetime
// baseline rate. Exactly the baseline rate lands at the midpoint; twice the
// baseline saturates. A fresh account with activity but no baseline history
// scores 100, and a silent account scores 0.
func (a *Aggregator) velocity(w Window) float64 {
	windowDays := w.To.Sub(w.From).Hours() / hoursPerDay
	if windowDays <= 0 {
		return 0
	}
	current := float64(len(w.Signals)) / windowDays

	var baseline float64
	if !w.FirstSignalAt.IsZero() {
		lifetimeDays := w.To.Sub(w.FirstSignalAt).Hours() / hoursPerDay
		if lifetimeDays < 1 {
			lifetimeDays = 1
		}
		baseline = float64(w.LifetimeCount) / lifetimeDays
	}

	switch {
	case baseline == 0 && current == 0:
		return 0
	case baseline == 0:
		return maxFactorValue
	default:
		return current / baseline * velocityMidpoint
	}
}

// featureBreadth scales the distinct signal-type count against the ceiling.
func (a *Aggregator) featureBreadth(signals []model.Signal) float64 {
	types := make(map[string]struct{})
	for _, s := range signals {
		if s.Type != "" {
			types[s.Type] = struct{}{}
		}
	}
	return float64(len(types)) / float64(a.breadthCeiling) * maxFactorValue
}

// engagement sums exponentially decayed signal weights so sustained recent
// use outscores a single old burst of the same size.
func (a *Aggregator) engagement(w Window) float64 {
	halfLife := a.decayHalfLife.Hours()
	var mass float64
	for _, s := range w.Signals {
		age := w.To.Sub(s.TS).Hours()
		if age < 0 {
			age = 0
		}
		mass += math.Exp(-math.Ln2 * age / halfLife)
	}
	return mass / a.engagementCeiling * maxFactorValue
}

// seniority averages resolved seniority over the attributed actors in the
// window. No attribution means no contribution.
func (a *Aggregator) seniority(actors map[string]struct{}, attrs Attributes) float64 {
	if len(attrs.ActorSeniority) == 0 {
		return 0
	}
	var sum float64
	var matched int
	for actor := range actors {
		if s, ok := attrs.ActorSeniority[actor]; ok {
			sum += s
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return sum / float64(matched)
}

func (a *Aggregator) firmographic(attrs Attributes) float64 {
	if !attrs.HasFirmographic {
		return 0
	}
	return attrs.Firmographic
}

func distinctActors(signals []model.Signal) map[string]struct{} {
	actors := make(map[string]struct{})
	for _, s := range signals {
		if s.ActorID != "" {
			actors[s.ActorID] = struct{}{}
		}
	}
	return actors
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(maxFactorValue, v))
}
