// Package tier maps composite scores onto ordinal account tiers.
package tier

import (
	"errors"
	"strings"

	"github.com/signalhouse/pqascore/internal/domain/model"
)

// Tier boundaries, inclusive on the lower bound.
const (
	hotFloor  = 70
	warmFloor = 40
	coldFloor = 20
)

// ErrUnknownTier is returned when parsing an unrecognized tier name.
var ErrUnknownTier = errors.New("unknown tier")

// Classify returns the tier for a score. It is a pure lookup with no
// hysteresis; smoothing of signal-to-signal noise is the trend analyzer's job.
func Classify(score int) model.Tier {
	switch {
	case score >= hotFloor:
		return model.TierHot
	case score >= warmFloor:
		return model.TierWarm
	case score >= coldFloor:
		return model.TierCold
	default:
		return model.TierInactive
	}
}

// Parse converts a case-insensitive tier name into its enum value.
func Parse(s string) (model.Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HOT":
		return model.TierHot, nil
	case "WARM":
		return model.TierWarm, nil
	case "COLD":
		return model.TierCold, nil
	case "INACTIVE":
		return model.TierInactive, nil
	default:
		return "", ErrUnknownTier
	}
}
