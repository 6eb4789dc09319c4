// Package trend classifies score movement against recent snapshot history.
package trend

import "github.com/signalhouse/pqascore/internal/domain/model"

// Default analyzer configuration constants.
const (
	defaultWindow   = 4   // prior snapshots averaged into the baseline
	defaultDeadBand = 3.0 // points of movement tolerated before leaving STABLE
	minHistory      = 2   // fewer prior snapshots than this defaults to STABLE
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithWindow sets how many prior snapshot scores form the baseline.
func WithWindow(k int) Option {
	return func(a *Analyzer) {
		if k > 0 {
			a.window = k
		}
	}
}

// WithDeadBand sets the dead-band threshold in score points.
func WithDeadBand(delta float64) Option {
	return func(a *Analyzer) {
		if delta >= 0 {
			a.deadBand = delta
		}
	}
}

// Analyzer derives a trend label from a new score and prior snapshot scores.
// The dead-band keeps the label from flapping on noise.
type Analyzer struct {
	window   int
	deadBand float64
}

// New constructs an Analyzer with configuration options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		window:   defaultWindow,
		deadBand: defaultDeadBand,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Window returns the configured baseline window size.
func (a *Analyzer) Window() int { return a.window }

// Classify compares newScore against the average of the most recent prior
// scores. prior must be ordered oldest first; only the last Window() entries
// contribute to the baseline. With fewer than two prior snapshots the trend
// is STABLE by definition, not an error.
func (a *Analyzer) Classify(newScore int, prior []int) model.Trend {
	if len(prior) < minHistory {
		return model.TrendStable
	}
	if len(prior) > a.window {
		prior = prior[len(prior)-a.window:]
	}

	var sum int
	for _, s := range prior {
		sum += s
	}
	baseline := float64(sum) / float64(len(prior))

	delta := float64(newScore) - baseline
	switch {
	case delta > a.deadBand:
		return model.TrendRising
	case delta < -a.deadBand:
		return model.TrendFalling
	default:
		return model.TrendStable
	}
}
