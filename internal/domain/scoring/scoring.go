// Package scoring combines weighted factors into the composite account score.
package scoring

import (
	"fmt"
	"math"

	"github.com/signalhouse/pqascore/internal/domain/model"
)

// Weight validation constants.
const (
	weightSumTarget  = 1.0
	weightSumEpsilon = 1e-6
	maxScore         = 100
)

// WeightSet maps canonical factor names to their configured weights.
// A valid set covers exactly the canonical factors and sums to 1.0.
type WeightSet map[model.FactorName]float64

// Validate checks the weight set against the canonical factor names.
// A failure here is a configuration error and must be fatal at startup;
// it is never a per-score condition.
func (w WeightSet) Validate() error {
	canonical := model.CanonicalFactors()
	if len(w) != len(canonical) {
		return fmt.Errorf("%w: expected %d factor weights, got %d", ErrInvalidWeights, len(canonical), len(w))
	}

	var sum float64
	for _, name := range canonical {
		weight, ok := w[name]
		if !ok {
			return fmt.Errorf("%w: missing weight for factor %q", ErrInvalidWeights, name)
		}
		if weight < 0 || weight > 1 {
			return fmt.Errorf("%w: weight for factor %q must be in [0,1], got %v", ErrInvalidWeights, name, weight)
		}
		sum += weight
	}
	if math.Abs(sum-weightSumTarget) > weightSumEpsilon {
		return fmt.Errorf("%w: weights must sum to 1.0, got %v", ErrInvalidWeights, sum)
	}
	return nil
}

// FromConfig builds a WeightSet from a string-keyed configuration map.
func FromConfig(weights map[string]float64) WeightSet {
	ws := make(WeightSet, len(weights))
	for name, weight := range weights {
		ws[model.FactorName(name)] = weight
	}
	return ws
}

// Calculator computes the composite score from a complete factor set.
// It is a pure function of its input; identical factors always produce the
// identical score.
type Calculator struct {
	weights WeightSet
}

// NewCalculator constructs a Calculator from a validated weight set.
// It panics on an invalid set: validation belongs to configuration load,
// so reaching this point with bad weights is a programming error.
func NewCalculator(weights WeightSet) *Calculator {
	if err := weights.Validate(); err != nil {
		panic(fmt.Sprintf("scoring: calculator built with invalid weights: %v", err))
	}
	// Copy to guard against later mutation of the caller's map.
	ws := make(WeightSet, len(weights))
	for name, weight := range weights {
		ws[name] = weight
	}
	return &Calculator{weights: ws}
}

// Weights returns the configured weight for a factor name.
func (c *Calculator) Weights() WeightSet {
	out := make(WeightSet, len(c.weights))
	for name, weight := range c.weights {
		out[name] = weight
	}
	return out
}

// Compute returns round(sum(value*weight)) clamped to [0,100].
// Rounding is half-up so identical inputs reproduce identical scores.
// A malformed factor set (unknown name, out-of-range value) indicates a
// defect in the aggregator and fails loudly.
func (c *Calculator) Compute(factors []model.Factor) int {
	var weighted float64
	for _, f := range factors {
		if _, ok := c.weights[f.Name]; !ok {
			panic(fmt.Sprintf("scoring: unknown factor %q", f.Name))
		}
		if f.Value < 0 || f.Value > maxScore || math.IsNaN(f.Value) {
			panic(fmt.Sprintf("scoring: factor %q value %v outside [0,100]", f.Name, f.Value))
		}
		weighted += f.Value * c.weights[f.Name]
	}

	score := int(math.Floor(weighted + 0.5))
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}
